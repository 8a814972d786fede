package middleware

import (
	"net/http"

	"portal/internal/common"
	"portal/internal/services"

	"github.com/labstack/echo/v4"
)

// TenantContextKey is the echo context key holding the resolved tenant slug
const TenantContextKey = "tenant"

// TenantMiddleware attaches the tenant resolved from the host or fallback cookie to every request
type TenantMiddleware struct {
	resolver *services.TenantResolver
}

func NewTenantMiddleware(resolver *services.TenantResolver) *TenantMiddleware {
	return &TenantMiddleware{resolver: resolver}
}

// Resolve stores the tenant slug, or "" for the apex, in the request context
func (m *TenantMiddleware) Resolve() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var fallback string
			if cookie, err := c.Cookie(m.resolver.CookieName()); err == nil {
				fallback = cookie.Value
			}

			slug := m.resolver.Resolve(c.Request().Host, fallback)
			c.Set(TenantContextKey, slug)
			c.SetRequest(c.Request().WithContext(common.WithTenantSlug(c.Request().Context(), slug)))
			return next(c)
		}
	}
}

// RequireTenant redirects to the apex when the request carries no tenant
func (m *TenantMiddleware) RequireTenant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := common.GetTenantSlugFromContext(c.Request().Context()); !ok {
				return c.Redirect(http.StatusFound, "/")
			}
			return next(c)
		}
	}
}

// TenantFromContext returns the slug stored by Resolve
func TenantFromContext(c echo.Context) string {
	slug, _ := common.GetTenantSlugFromContext(c.Request().Context())
	return slug
}
