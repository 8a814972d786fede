package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	SessionCookie         = "session"
	ActiveAccountCookie   = "active_account"
	PendingAccountsCookie = "pending_accounts"
)

// CookieWriter sets and clears the portal's HttpOnly cookies
type CookieWriter struct {
	Secure bool
}

func (w CookieWriter) Set(c echo.Context, name, value string, maxAge time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   w.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (w CookieWriter) Clear(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   w.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
