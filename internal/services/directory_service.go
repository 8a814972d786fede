package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"net/http"
	"sort"
	"strings"
	"time"

	"portal/internal/config"
	"portal/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// AccountDirectory is the external system of record for customer accounts
type AccountDirectory interface {
	VerifyEmail(ctx context.Context, email string) (*models.DirectoryVerifyResult, error)
	AccountSummary(ctx context.Context, accountNumber string) (*models.DirectoryAccountSummary, error)
	TransactionsSince(ctx context.Context, accountNumber string, since *time.Time) ([]models.DirectoryTransaction, error)
}

// NewAccountDirectory returns the HTTP directory when a base URL is configured, otherwise the demo directory
func NewAccountDirectory(cfg config.DirectoryConfig, logger *zap.Logger) AccountDirectory {
	if cfg.BaseURL == "" {
		logger.Info("account directory not configured, using demo directory")
		return NewDemoDirectory()
	}
	return NewHTTPDirectory(cfg, logger)
}

type httpDirectory struct {
	client *resty.Client
	logger *zap.Logger
}

func NewHTTPDirectory(cfg config.DirectoryConfig, logger *zap.Logger) AccountDirectory {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &httpDirectory{client: client, logger: logger}
}

func (d *httpDirectory) VerifyEmail(ctx context.Context, email string) (*models.DirectoryVerifyResult, error) {
	var result models.DirectoryVerifyResult
	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email}).
		SetResult(&result).
		Post("/verify-email")
	if err != nil {
		return nil, fmt.Errorf("directory verify-email request failed: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return &models.DirectoryVerifyResult{Exists: false}, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("directory verify-email returned status %d", resp.StatusCode())
	}
	return &result, nil
}

func (d *httpDirectory) AccountSummary(ctx context.Context, accountNumber string) (*models.DirectoryAccountSummary, error) {
	var summary models.DirectoryAccountSummary
	resp, err := d.client.R().
		SetContext(ctx).
		SetPathParam("accountNumber", accountNumber).
		SetResult(&summary).
		Get("/accounts/{accountNumber}/summary")
	if err != nil {
		return nil, fmt.Errorf("directory summary request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("directory summary returned status %d", resp.StatusCode())
	}
	return &summary, nil
}

func (d *httpDirectory) TransactionsSince(ctx context.Context, accountNumber string, since *time.Time) ([]models.DirectoryTransaction, error) {
	var txns []models.DirectoryTransaction
	req := d.client.R().
		SetContext(ctx).
		SetPathParam("accountNumber", accountNumber).
		SetResult(&txns)
	if since != nil {
		req.SetQueryParam("since", since.UTC().Format(time.RFC3339))
	}
	resp, err := req.Get("/accounts/{accountNumber}/transactions")
	if err != nil {
		return nil, fmt.Errorf("directory transactions request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("directory transactions returned status %d", resp.StatusCode())
	}
	return txns, nil
}

// demoDirectory answers from fixed data for deployments without a real directory
type demoDirectory struct {
	now func() time.Time
}

func NewDemoDirectory() AccountDirectory {
	return &demoDirectory{now: time.Now}
}

func (d *demoDirectory) VerifyEmail(ctx context.Context, email string) (*models.DirectoryVerifyResult, error) {
	if strings.Contains(strings.ToLower(email), "demo") {
		return &models.DirectoryVerifyResult{
			Exists: true,
			Accounts: []models.DirectoryAccount{
				{AccountNumber: "HRZ001234", TenantSlug: "rcpmanagement", PropertyAddress: "123 Demo Street, London, SW1A 1AA"},
				{AccountNumber: "HRZ005678", TenantSlug: "rcpproperty", PropertyAddress: "456 Test Avenue, Manchester, M1 1AA"},
			},
		}, nil
	}

	return &models.DirectoryVerifyResult{
		Exists: true,
		Accounts: []models.DirectoryAccount{
			{AccountNumber: fmt.Sprintf("HRZ%d", rand.IntN(900000)+100000), TenantSlug: "rcpmanagement", PropertyAddress: "Sample Property Address"},
		},
	}, nil
}

// AccountSummary derives a stable balance between -1000.00 and 3999.99 from the account number
func (d *demoDirectory) AccountSummary(ctx context.Context, accountNumber string) (*models.DirectoryAccountSummary, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(accountNumber))
	return &models.DirectoryAccountSummary{
		BalancePence:   int64(h.Sum32()%500000) - 100000,
		LastUpdatedIso: d.now().UTC(),
	}, nil
}

func (d *demoDirectory) TransactionsSince(ctx context.Context, accountNumber string, since *time.Time) ([]models.DirectoryTransaction, error) {
	now := d.now().UTC()
	day := 24 * time.Hour
	all := []models.DirectoryTransaction{
		{ExternalRef: "MRI-2024-001", Direction: models.DirectionCredit, AmountPence: 125000, OccurredAt: now.Add(-5 * day), Description: "Rent payment received"},
		{ExternalRef: "MRI-2024-002", Direction: models.DirectionDebit, AmountPence: 5000, OccurredAt: now.Add(-3 * day), Description: "Service charge"},
		{ExternalRef: "MRI-2024-003", Direction: models.DirectionDebit, AmountPence: 2500, OccurredAt: now.Add(-1 * day), Description: "Admin fee"},
	}

	if since == nil {
		return all, nil
	}
	var filtered []models.DirectoryTransaction
	for _, txn := range all {
		if txn.OccurredAt.After(*since) {
			filtered = append(filtered, txn)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].OccurredAt.Before(filtered[j].OccurredAt) })
	return filtered, nil
}
