package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"portal/internal/caching"
	"portal/internal/common"
	"portal/internal/config"
	"portal/internal/models"
	"portal/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, email string) (*services.VerifyEmailResult, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.VerifyEmailResult), args.Error(1)
}

func (m *MockAuthService) SignIn(ctx context.Context, email, pendingToken string) (*services.SignInResult, error) {
	args := m.Called(ctx, email, pendingToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SignInResult), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Initiate(ctx context.Context, userID uuid.UUID, req *services.CreateCheckoutRequest) (*services.CheckoutResult, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CheckoutResult), args.Error(1)
}

func (m *MockPaymentService) HostedCheckout(ctx context.Context, userID uuid.UUID, tenantSlug, externalRef string) (*models.Transaction, error) {
	args := m.Called(ctx, userID, tenantSlug, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockPaymentService) HandleCallback(ctx context.Context, body []byte, signature string) (*services.CallbackResult, error) {
	args := m.Called(ctx, body, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CallbackResult), args.Error(1)
}

type MockFormService struct {
	mock.Mock
}

func (m *MockFormService) ListVisible(ctx context.Context, tenantSlug string) ([]*models.FormDefinition, error) {
	args := m.Called(ctx, tenantSlug)
	return args.Get(0).([]*models.FormDefinition), args.Error(1)
}

func (m *MockFormService) GetVisible(ctx context.Context, id, tenantSlug string) (*models.FormDefinition, error) {
	args := m.Called(ctx, id, tenantSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FormDefinition), args.Error(1)
}

func (m *MockFormService) Submit(ctx context.Context, userID uuid.UUID, tenantSlug string, req *services.SubmitFormRequest) (*models.FormSubmission, error) {
	args := m.Called(ctx, userID, tenantSlug, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FormSubmission), args.Error(1)
}

func (m *MockFormService) ListSubmissions(ctx context.Context, userID uuid.UUID, tenantSlug string) ([]*models.FormSubmission, error) {
	args := m.Called(ctx, userID, tenantSlug)
	return args.Get(0).([]*models.FormSubmission), args.Error(1)
}

func (m *MockFormService) GetSubmission(ctx context.Context, id, userID uuid.UUID) (*models.FormSubmission, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FormSubmission), args.Error(1)
}

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) ListAccounts(ctx context.Context, userID uuid.UUID) ([]*models.UserAccountLink, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.UserAccountLink), args.Error(1)
}

func (m *MockAccountService) SwitchAccount(ctx context.Context, userID uuid.UUID, req *services.SwitchAccountRequest) (*models.ActiveAccount, string, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*models.ActiveAccount), args.String(1), args.Error(2)
}

func (m *MockAccountService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *services.UpdateProfileRequest) error {
	return m.Called(ctx, userID, req).Error(0)
}

func (m *MockAccountService) ResolveActiveLink(ctx context.Context, userID uuid.UUID, tenantSlug string, selected *models.ActiveAccount) (*models.UserAccountLink, error) {
	args := m.Called(ctx, userID, tenantSlug, selected)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAccountLink), args.Error(1)
}

func (m *MockAccountService) Balance(ctx context.Context, userID uuid.UUID, tenantSlug string, selected *models.ActiveAccount) (*services.BalanceView, error) {
	args := m.Called(ctx, userID, tenantSlug, selected)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BalanceView), args.Error(1)
}

func (m *MockAccountService) Transactions(ctx context.Context, userID uuid.UUID, tenantSlug string, selected *models.ActiveAccount, filters *models.TransactionFilters) (*services.TransactionsView, error) {
	args := m.Called(ctx, userID, tenantSlug, selected, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TransactionsView), args.Error(1)
}

// stubCache answers Ping only
type stubCache struct {
	caching.CacheService
	pingErr error
}

func (s stubCache) Ping(ctx context.Context) error {
	return s.pingErr
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(ctx context.Context) error {
	return s.err
}

func testResolver() *services.TenantResolver {
	return services.NewTenantResolver(config.TenantConfig{
		PrimaryDomain: "portal.example",
		Known:         config.DefaultTenants,
		CookieName:    "dev-tenant",
	})
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = common.NewHTTPErrorHandler(zap.NewNop())
	return e
}

// withIdentity stands in for the tenant and session middleware
func withIdentity(tenant string, session *models.Session, account *models.ActiveAccount) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := common.WithTenantSlug(c.Request().Context(), tenant)
			if session != nil {
				ctx = common.WithSession(ctx, session)
			}
			if account != nil {
				ctx = common.WithActiveAccount(ctx, account)
			}
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
