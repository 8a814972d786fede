package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"portal/internal/models"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type contextKey string

const (
	TenantSlugKey    contextKey = "tenant_slug"
	SessionKey       contextKey = "session"
	ActiveAccountKey contextKey = "active_account"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	return &resp
}

// HTTPError maps a service error onto an echo HTTP error. Unknown errors become a generic 500.
func HTTPError(err error) *echo.HTTPError {
	var svcErr *ServiceError
	message := "internal server error"
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}

	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, message)
	case errors.Is(err, ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, message)
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, message)
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, message)
	case errors.Is(err, ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, message)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

// NewHTTPErrorHandler renders every error as the standard JSON envelope and logs 5xx detail
func NewHTTPErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			he = HTTPError(err)
		}

		message := fmt.Sprintf("%v", he.Message)
		if he.Code >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			message = "internal server error"
		}

		var sendErr error
		if c.Request().Method == http.MethodHead {
			sendErr = c.NoContent(he.Code)
		} else {
			sendErr = c.JSON(he.Code, CreateErrorResponse(codeFor(he.Code), message))
		}
		if sendErr != nil {
			log.Warn("failed to write error response", zap.Error(sendErr))
		}
	}
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "VALIDATION_ERROR"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	default:
		if status >= http.StatusInternalServerError {
			return "SERVER_ERROR"
		}
		return "CLIENT_ERROR"
	}
}

// WithTenantSlug stores the resolved tenant slug. An empty slug means apex context.
func WithTenantSlug(ctx context.Context, slug string) context.Context {
	return context.WithValue(ctx, TenantSlugKey, slug)
}

// GetTenantSlugFromContext extracts the tenant slug from the request context
func GetTenantSlugFromContext(ctx context.Context) (string, bool) {
	slug, ok := ctx.Value(TenantSlugKey).(string)
	return slug, ok && slug != ""
}

// WithSession stores the authenticated session
func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

// GetSessionFromContext extracts the session from the request context
func GetSessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*models.Session)
	return session, ok && session != nil
}

// WithActiveAccount stores the active account selection
func WithActiveAccount(ctx context.Context, account *models.ActiveAccount) context.Context {
	return context.WithValue(ctx, ActiveAccountKey, account)
}

// GetActiveAccountFromContext extracts the active account selection from the request context
func GetActiveAccountFromContext(ctx context.Context) (*models.ActiveAccount, bool) {
	account, ok := ctx.Value(ActiveAccountKey).(*models.ActiveAccount)
	return account, ok && account != nil
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError("%s is required", fieldName)
	}
	return nil
}

// SafeString safely handles string pointer operations
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns nil for an empty string
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
