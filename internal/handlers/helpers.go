package handlers

import (
	"net/http"
	"strings"

	"portal/internal/common"
	"portal/internal/middleware"
	"portal/internal/models"
	"portal/internal/services"

	"github.com/labstack/echo/v4"
)

// SuccessResponse is the body of mutations that return nothing else
type SuccessResponse struct {
	Success bool `json:"success"`
}

func currentSession(c echo.Context) (*models.Session, error) {
	session, ok := common.GetSessionFromContext(c.Request().Context())
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return session, nil
}

func currentActiveAccount(c echo.Context) *models.ActiveAccount {
	account, _ := common.GetActiveAccountFromContext(c.Request().Context())
	return account
}

func bindBody(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}

// requestTenant picks the tenant an API call acts on. The host or cookie tenant wins.
// A body slug is accepted only when the request has no tenant and the slug is known.
func requestTenant(c echo.Context, resolver *services.TenantResolver, bodySlug string) (string, error) {
	bodySlug = strings.TrimSpace(bodySlug)
	if slug := middleware.TenantFromContext(c); slug != "" {
		if bodySlug != "" && bodySlug != slug {
			return "", common.ForbiddenError("tenant does not match the current tenant")
		}
		return slug, nil
	}
	if bodySlug == "" {
		return "", common.ValidationError("tenant is required")
	}
	if !resolver.IsKnown(bodySlug) {
		return "", common.NotFoundError("tenant")
	}
	return bodySlug, nil
}
