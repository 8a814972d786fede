package services

import (
	"context"
	"encoding/json"
	"time"

	"portal/internal/caching"
	"portal/internal/models"
	"portal/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) List(ctx context.Context) ([]*models.Tenant, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

type MockTenantMessageRepository struct {
	mock.Mock
}

func (m *MockTenantMessageRepository) ListByTenant(ctx context.Context, tenantSlug string, activeOnly bool) ([]*models.TenantMessage, error) {
	args := m.Called(ctx, tenantSlug, activeOnly)
	return args.Get(0).([]*models.TenantMessage), args.Error(1)
}

func (m *MockTenantMessageRepository) ListAll(ctx context.Context) ([]*models.TenantMessage, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.TenantMessage), args.Error(1)
}

func (m *MockTenantMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TenantMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TenantMessage), args.Error(1)
}

func (m *MockTenantMessageRepository) Update(ctx context.Context, id uuid.UUID, content string, isActive bool) (*models.TenantMessage, error) {
	args := m.Called(ctx, id, content, isActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TenantMessage), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, email string, name *string) error {
	args := m.Called(ctx, id, email, name)
	return args.Error(0)
}

type MockAccountLinkRepository struct {
	mock.Mock
}

func (m *MockAccountLinkRepository) Create(ctx context.Context, link *models.UserAccountLink) (bool, error) {
	args := m.Called(ctx, link)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountLinkRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.UserAccountLink, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.UserAccountLink), args.Error(1)
}

func (m *MockAccountLinkRepository) Get(ctx context.Context, userID uuid.UUID, tenantSlug, accountNumber string) (*models.UserAccountLink, error) {
	args := m.Called(ctx, userID, tenantSlug, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAccountLink), args.Error(1)
}

func (m *MockAccountLinkRepository) FirstForTenant(ctx context.Context, userID uuid.UUID, tenantSlug string) (*models.UserAccountLink, error) {
	args := m.Called(ctx, userID, tenantSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAccountLink), args.Error(1)
}

func (m *MockAccountLinkRepository) ListAll(ctx context.Context, limit, offset int) ([]*models.UserAccountLink, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.UserAccountLink), args.Error(1)
}

func (m *MockAccountLinkRepository) MarkSynced(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type MockBalanceRepository struct {
	mock.Mock
}

func (m *MockBalanceRepository) Latest(ctx context.Context, key models.AccountKey) (*models.BalanceSnapshot, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BalanceSnapshot), args.Error(1)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) CreateIfAbsent(ctx context.Context, txn *models.Transaction) (bool, error) {
	args := m.Called(ctx, txn)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) GetByExternalRef(ctx context.Context, externalRef string) (*models.Transaction, error) {
	args := m.Called(ctx, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) List(ctx context.Context, key models.AccountKey, filters *models.TransactionFilters) ([]*models.Transaction, error) {
	args := m.Called(ctx, key, filters)
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) ApplyCallback(ctx context.Context, externalRef, status string, raw json.RawMessage, now time.Time) (*repositories.CallbackOutcome, error) {
	args := m.Called(ctx, externalRef, status, raw, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.CallbackOutcome), args.Error(1)
}

type MockFormRepository struct {
	mock.Mock
}

func (m *MockFormRepository) ListVisible(ctx context.Context, tenantSlug string) ([]*models.FormDefinition, error) {
	args := m.Called(ctx, tenantSlug)
	return args.Get(0).([]*models.FormDefinition), args.Error(1)
}

func (m *MockFormRepository) GetVisible(ctx context.Context, id, tenantSlug string) (*models.FormDefinition, error) {
	args := m.Called(ctx, id, tenantSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FormDefinition), args.Error(1)
}

func (m *MockFormRepository) ListAll(ctx context.Context) ([]*models.FormDefinition, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.FormDefinition), args.Error(1)
}

func (m *MockFormRepository) UpdateVisibility(ctx context.Context, id string, tenantSlug *string, isActive bool) (*models.FormDefinition, error) {
	args := m.Called(ctx, id, tenantSlug, isActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FormDefinition), args.Error(1)
}

type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) Create(ctx context.Context, submission *models.FormSubmission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) ListByUser(ctx context.Context, userID uuid.UUID, tenantSlug string) ([]*models.FormSubmission, error) {
	args := m.Called(ctx, userID, tenantSlug)
	return args.Get(0).([]*models.FormSubmission), args.Error(1)
}

func (m *MockSubmissionRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.FormSubmission, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FormSubmission), args.Error(1)
}

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) UpdateDelivery(ctx context.Context, id uuid.UUID, status string, raw json.RawMessage) error {
	args := m.Called(ctx, id, status, raw)
	return args.Error(0)
}

func (m *MockMessageRepository) ListByUser(ctx context.Context, userID uuid.UUID, tenantSlug string) ([]*models.Message, error) {
	args := m.Called(ctx, userID, tenantSlug)
	return args.Get(0).([]*models.Message), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetTenant(ctx context.Context, slug string) (*models.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockCacheService) SetTenant(ctx context.Context, tenant *models.Tenant, ttl time.Duration) error {
	args := m.Called(ctx, tenant, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteTenant(ctx context.Context, slug string) error {
	args := m.Called(ctx, slug)
	return args.Error(0)
}

func (m *MockCacheService) SetPendingAccounts(ctx context.Context, token string, pending *caching.PendingAccounts, ttl time.Duration) error {
	args := m.Called(ctx, token, pending, ttl)
	return args.Error(0)
}

func (m *MockCacheService) TakePendingAccounts(ctx context.Context, token string) (*caching.PendingAccounts, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*caching.PendingAccounts), args.Error(1)
}

func (m *MockCacheService) MarkDelivery(ctx context.Context, externalRef, status string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, externalRef, status, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) ForgetDelivery(ctx context.Context, externalRef, status string) error {
	args := m.Called(ctx, externalRef, status)
	return args.Error(0)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockAccountDirectory struct {
	mock.Mock
}

func (m *MockAccountDirectory) VerifyEmail(ctx context.Context, email string) (*models.DirectoryVerifyResult, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DirectoryVerifyResult), args.Error(1)
}

func (m *MockAccountDirectory) AccountSummary(ctx context.Context, accountNumber string) (*models.DirectoryAccountSummary, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DirectoryAccountSummary), args.Error(1)
}

func (m *MockAccountDirectory) TransactionsSince(ctx context.Context, accountNumber string, since *time.Time) ([]models.DirectoryTransaction, error) {
	args := m.Called(ctx, accountNumber, since)
	return args.Get(0).([]models.DirectoryTransaction), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event Event) {
	m.Called(ctx, event)
}

func (m *MockEventPublisher) Close() error {
	return m.Called().Error(0)
}

type MockCallbackArchive struct {
	mock.Mock
}

func (m *MockCallbackArchive) Store(ctx context.Context, externalRef, status string, body []byte, receivedAt time.Time) (string, error) {
	args := m.Called(ctx, externalRef, status, body, receivedAt)
	return args.String(0), args.Error(1)
}

type MockMailDispatcher struct {
	mock.Mock
}

func (m *MockMailDispatcher) Send(ctx context.Context, to, replyTo string, msg *models.Message) (json.RawMessage, error) {
	args := m.Called(ctx, to, replyTo, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

type MockTenantService struct {
	mock.Mock
}

func (m *MockTenantService) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantService) List(ctx context.Context) ([]*models.Tenant, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

func (m *MockTenantService) Invalidate(ctx context.Context, slug string) {
	m.Called(ctx, slug)
}
