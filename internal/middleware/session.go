package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"portal/internal/common"
	"portal/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SessionMiddleware reads the session and active account cookies into the request context
type SessionMiddleware struct {
	sessions services.SessionService
	cookies  CookieWriter
	logger   *zap.Logger
}

func NewSessionMiddleware(sessions services.SessionService, cookies CookieWriter, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		sessions: sessions,
		cookies:  cookies,
		logger:   logger,
	}
}

// LoadSession never rejects a request. Expired or tampered cookies are cleared and the request continues anonymously.
func (m *SessionMiddleware) LoadSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
				session, err := m.sessions.ParseSession(cookie.Value)
				if err != nil {
					if !errors.Is(err, services.ErrSessionExpired) {
						m.logger.Debug("discarding invalid session cookie", zap.Error(err))
					}
					m.cookies.Clear(c, SessionCookie)
					m.cookies.Clear(c, ActiveAccountCookie)
				} else {
					ctx = common.WithSession(ctx, session)
				}
			}

			if _, ok := common.GetSessionFromContext(ctx); ok {
				if cookie, err := c.Cookie(ActiveAccountCookie); err == nil && cookie.Value != "" {
					account, err := m.sessions.ParseActiveAccount(cookie.Value)
					if err != nil {
						m.cookies.Clear(c, ActiveAccountCookie)
					} else {
						ctx = common.WithActiveAccount(ctx, account)
					}
				}
			}

			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequireSession answers 401 on API routes and redirects pages to sign-in
func (m *SessionMiddleware) RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := common.GetSessionFromContext(c.Request().Context()); ok {
				return next(c)
			}
			if strings.HasPrefix(c.Request().URL.Path, "/api/") {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return c.Redirect(http.StatusFound, "/auth/signin?next="+url.QueryEscape(c.Request().URL.RequestURI()))
		}
	}
}
