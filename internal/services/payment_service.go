package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"portal/internal/caching"
	"portal/internal/common"
	"portal/internal/config"
	"portal/internal/models"
	"portal/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxReferenceAttempts = 3
	referenceAlphabet    = "0123456789abcdefghijklmnopqrstuvwxyz"
	referenceSuffixLen   = 8
)

var ErrInvalidSignature = errors.New("invalid signature")

// PaymentService initiates gateway payments and applies their status callbacks
type PaymentService interface {
	Initiate(ctx context.Context, userID uuid.UUID, req *CreateCheckoutRequest) (*CheckoutResult, error)
	HostedCheckout(ctx context.Context, userID uuid.UUID, tenantSlug, externalRef string) (*models.Transaction, error)
	HandleCallback(ctx context.Context, body []byte, signature string) (*CallbackResult, error)
}

type paymentService struct {
	txnRepo   repositories.TransactionRepository
	linkRepo  repositories.AccountLinkRepository
	ledger    repositories.LedgerRepository
	cacheSvc  caching.CacheService
	archive   CallbackArchive
	events    EventPublisher
	cfg       config.PaymentConfig
	logger    *zap.Logger
	now       func() time.Time
	reference func(time.Time) (string, error)
}

type CreateCheckoutRequest struct {
	AccountNumber string `json:"accountNumber"`
	TenantSlug    string `json:"tenantSlug"`
	AmountPence   int64  `json:"amountPence"`
}

type CheckoutResult struct {
	URL           string    `json:"url"`
	TransactionID uuid.UUID `json:"transactionId"`
	ExternalRef   string    `json:"externalRef"`
}

// CallbackPayload is the body the gateway posts to the webhook
type CallbackPayload struct {
	ExternalRef string `json:"externalRef"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
}

type CallbackResult struct {
	ExternalRef  string `json:"externalRef"`
	Status       string `json:"status"`
	Duplicate    bool   `json:"duplicate"`
	BalancePence *int64 `json:"balancePence,omitempty"`
}

func NewPaymentService(
	txnRepo repositories.TransactionRepository,
	linkRepo repositories.AccountLinkRepository,
	ledger repositories.LedgerRepository,
	cacheSvc caching.CacheService,
	archive CallbackArchive,
	events EventPublisher,
	cfg config.PaymentConfig,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		txnRepo:   txnRepo,
		linkRepo:  linkRepo,
		ledger:    ledger,
		cacheSvc:  cacheSvc,
		archive:   archive,
		events:    events,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		reference: NewExternalReference,
	}
}

// SignPayload is the gateway signature: hex SHA-256 of the body followed by the shared secret
func SignPayload(body []byte, secret string) string {
	h := sha256.New()
	h.Write(body)
	h.Write([]byte(secret))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySignature recomputes the signature over the raw body and compares it in constant time
func VerifySignature(body []byte, secret, signature string) bool {
	expected := SignPayload(body, secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(signature))) == 1
}

// NewExternalReference returns PAY-<unix millis>-<8 random base36 characters>
func NewExternalReference(at time.Time) (string, error) {
	suffix := make([]byte, referenceSuffixLen)
	base := big.NewInt(int64(len(referenceAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		suffix[i] = referenceAlphabet[n.Int64()]
	}
	return fmt.Sprintf("PAY-%d-%s", at.UnixMilli(), suffix), nil
}

func formatPounds(pence int64) string {
	return fmt.Sprintf("£%d.%02d", pence/100, pence%100)
}

func (s *paymentService) Initiate(ctx context.Context, userID uuid.UUID, req *CreateCheckoutRequest) (*CheckoutResult, error) {
	accountNumber := strings.TrimSpace(req.AccountNumber)
	tenantSlug := strings.TrimSpace(req.TenantSlug)
	if accountNumber == "" || tenantSlug == "" || req.AmountPence == 0 {
		return nil, common.ValidationError("missing required fields")
	}
	if !s.cfg.Limits.Contains(req.AmountPence) {
		return nil, common.ValidationError("amount must be between %s and %s", formatPounds(s.cfg.Limits.MinPence), formatPounds(s.cfg.Limits.MaxPence))
	}

	if _, err := s.linkRepo.Get(ctx, userID, tenantSlug, accountNumber); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ForbiddenError("account is not linked to this user")
		}
		return nil, err
	}

	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		now := s.now().UTC()
		ref, err := s.reference(now)
		if err != nil {
			return nil, fmt.Errorf("generate external reference: %w", err)
		}

		txn := &models.Transaction{
			ID:            uuid.New(),
			UserID:        userID,
			TenantSlug:    tenantSlug,
			AccountNumber: accountNumber,
			ExternalRef:   &ref,
			Source:        models.SourceGateway,
			Direction:     models.DirectionCredit,
			AmountPence:   req.AmountPence,
			Status:        models.TransactionPending,
			OccurredAt:    now,
		}

		err = s.txnRepo.Create(ctx, txn)
		if errors.Is(err, repositories.ErrDuplicateReference) {
			s.logger.Warn("external reference collision, regenerating", zap.String("external_ref", ref), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, err
		}

		s.logger.Info("payment initiated",
			zap.String("external_ref", ref),
			zap.String("tenant", tenantSlug),
			zap.Int64("amount_pence", req.AmountPence),
		)
		return &CheckoutResult{
			URL:           "/payments/hosted?ref=" + url.QueryEscape(ref),
			TransactionID: txn.ID,
			ExternalRef:   ref,
		}, nil
	}

	return nil, fmt.Errorf("could not allocate a unique external reference after %d attempts", maxReferenceAttempts)
}

// HostedCheckout returns the caller's transaction for the hosted checkout page
func (s *paymentService) HostedCheckout(ctx context.Context, userID uuid.UUID, tenantSlug, externalRef string) (*models.Transaction, error) {
	if externalRef == "" {
		return nil, common.ValidationError("ref is required")
	}
	txn, err := s.txnRepo.GetByExternalRef(ctx, externalRef)
	if err != nil {
		return nil, err
	}
	if txn.UserID != userID || txn.TenantSlug != tenantSlug {
		return nil, common.NotFoundError("transaction")
	}
	return txn, nil
}

func (s *paymentService) HandleCallback(ctx context.Context, body []byte, signature string) (*CallbackResult, error) {
	if signature == "" {
		return nil, common.UnauthorizedError("missing signature")
	}
	if !VerifySignature(body, s.cfg.WebhookSecret, signature) {
		s.logger.Warn("webhook signature mismatch", zap.Int("body_bytes", len(body)))
		return nil, common.UnauthorizedError(ErrInvalidSignature.Error())
	}

	var payload CallbackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, common.ValidationError("invalid callback body")
	}
	if payload.ExternalRef == "" {
		return nil, common.ValidationError("externalRef is required")
	}
	if payload.Status != models.TransactionConfirmed && payload.Status != models.TransactionFailed {
		return nil, common.ValidationError("unsupported status %q", payload.Status)
	}

	receivedAt := s.now().UTC()
	log := s.logger.With(zap.String("external_ref", payload.ExternalRef), zap.String("status", payload.Status))

	first, err := s.cacheSvc.MarkDelivery(ctx, payload.ExternalRef, payload.Status, s.cfg.DedupeTTL)
	if err != nil {
		log.Warn("webhook dedupe unavailable, relying on status guard", zap.Error(err))
		first = true
	}
	if !first {
		log.Info("duplicate webhook delivery ignored")
		return &CallbackResult{ExternalRef: payload.ExternalRef, Status: payload.Status, Duplicate: true}, nil
	}

	outcome, err := s.ledger.ApplyCallback(ctx, payload.ExternalRef, payload.Status, json.RawMessage(body), receivedAt)
	if err != nil {
		if forgetErr := s.cacheSvc.ForgetDelivery(ctx, payload.ExternalRef, payload.Status); forgetErr != nil {
			log.Warn("failed to clear webhook dedupe record", zap.Error(forgetErr))
		}
		return nil, err
	}

	if object, err := s.archive.Store(ctx, payload.ExternalRef, payload.Status, body, receivedAt); err != nil {
		log.Warn("failed to archive callback body", zap.Error(err))
	} else if object != "" {
		log.Debug("callback body archived", zap.String("object", object))
	}

	result := &CallbackResult{
		ExternalRef: payload.ExternalRef,
		Status:      outcome.Transaction.Status,
		Duplicate:   outcome.Duplicate,
	}
	if outcome.Duplicate {
		log.Info("callback for terminal transaction acknowledged without effect", zap.String("current_status", outcome.Transaction.Status))
		return result, nil
	}

	eventType := EventPaymentFailed
	data := map[string]interface{}{
		"external_ref":   payload.ExternalRef,
		"account_number": outcome.Transaction.AccountNumber,
		"amount_pence":   outcome.Transaction.AmountPence,
	}
	if outcome.Snapshot != nil {
		eventType = EventPaymentConfirmed
		balance := outcome.Snapshot.AmountPence
		result.BalancePence = &balance
		data["balance_pence"] = balance
	}
	log.Info("payment callback applied", zap.Int64("amount_pence", outcome.Transaction.AmountPence))

	s.events.Publish(ctx, Event{
		Type:       eventType,
		TenantSlug: outcome.Transaction.TenantSlug,
		UserID:     outcome.Transaction.UserID.String(),
		OccurredAt: receivedAt,
		Data:       data,
	})
	return result, nil
}
