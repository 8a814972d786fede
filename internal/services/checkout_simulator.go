package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"portal/internal/common"
	"portal/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SignatureHeader carries the gateway signature on callback requests
const SignatureHeader = "X-Payment-Signature"

// CheckoutSimulator stands in for the hosted payment page: it posts a signed outcome to our own webhook
type CheckoutSimulator interface {
	Simulate(ctx context.Context, userID uuid.UUID, tenantSlug, externalRef string, success bool) (string, error)
}

type checkoutSimulator struct {
	payments PaymentService
	client   *resty.Client
	secret   string
	logger   *zap.Logger
	now      func() time.Time
}

func NewCheckoutSimulator(payments PaymentService, baseURL, secret string, logger *zap.Logger) CheckoutSimulator {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &checkoutSimulator{
		payments: payments,
		client:   client,
		secret:   secret,
		logger:   logger,
		now:      time.Now,
	}
}

// Simulate returns the page to send the user to once the callback has been delivered
func (s *checkoutSimulator) Simulate(ctx context.Context, userID uuid.UUID, tenantSlug, externalRef string, success bool) (string, error) {
	txn, err := s.payments.HostedCheckout(ctx, userID, tenantSlug, externalRef)
	if err != nil {
		return "", err
	}
	if txn.IsTerminal() {
		return "", common.ConflictError("payment has already completed")
	}

	status := models.TransactionFailed
	if success {
		status = models.TransactionConfirmed
	}
	body, err := json.Marshal(CallbackPayload{
		ExternalRef: externalRef,
		Status:      status,
		Timestamp:   s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", err
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader(SignatureHeader, SignPayload(body, s.secret)).
		SetBody(body).
		Post("/api/webhooks/payments")
	if err != nil {
		return "", fmt.Errorf("deliver simulated callback: %w", err)
	}
	if resp.IsError() {
		s.logger.Error("simulated callback rejected", zap.String("external_ref", externalRef), zap.Int("status", resp.StatusCode()), zap.ByteString("body", resp.Body()))
		return "", fmt.Errorf("webhook failed with status %d", resp.StatusCode())
	}

	outcome := "failed"
	if success {
		outcome = "success"
	}
	return "/transactions?status=" + outcome, nil
}
