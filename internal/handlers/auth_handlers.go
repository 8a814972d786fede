package handlers

import (
	"net/http"
	"time"

	"portal/internal/middleware"
	"portal/internal/models"
	"portal/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles email verification, sign-in and sign-out
type AuthHandlers struct {
	authService services.AuthService
	sessions    services.SessionService
	cookies     middleware.CookieWriter
	pendingTTL  time.Duration
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(authService services.AuthService, sessions services.SessionService, cookies middleware.CookieWriter, pendingTTL time.Duration) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		sessions:    sessions,
		cookies:     cookies,
		pendingTTL:  pendingTTL,
	}
}

type EmailRequest struct {
	Email string `json:"email" form:"email"`
}

type VerifyEmailResponse struct {
	Success      bool                      `json:"success"`
	AccountCount int                       `json:"accountCount"`
	Accounts     []models.DirectoryAccount `json:"accounts"`
}

type SignInUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type SignInResponse struct {
	Success        bool                  `json:"success"`
	User           SignInUser            `json:"user"`
	ActiveAccount  *models.ActiveAccount `json:"activeAccount,omitempty"`
	LinkedAccounts int                   `json:"linkedAccounts"`
}

// VerifyEmail godoc
// @Summary Look up an email in the account directory
// @Tags auth
// @Accept json
// @Produce json
// @Param request body EmailRequest true "email"
// @Success 200 {object} VerifyEmailResponse
// @Failure 400 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/verify-email [post]
func (h *AuthHandlers) VerifyEmail(c echo.Context) error {
	var req EmailRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	result, err := h.authService.VerifyEmail(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}

	h.cookies.Set(c, middleware.PendingAccountsCookie, result.PendingToken, h.pendingTTL)
	return c.JSON(http.StatusOK, VerifyEmailResponse{
		Success:      true,
		AccountCount: len(result.Accounts),
		Accounts:     result.Accounts,
	})
}

// SignIn godoc
// @Summary Sign in by email, linking any verified accounts
// @Tags auth
// @Accept json
// @Produce json
// @Param request body EmailRequest true "email"
// @Success 200 {object} SignInResponse
// @Failure 400 {object} common.ErrorResponse
// @Router /api/auth/signin [post]
func (h *AuthHandlers) SignIn(c echo.Context) error {
	var req EmailRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	var pendingToken string
	if cookie, err := c.Cookie(middleware.PendingAccountsCookie); err == nil {
		pendingToken = cookie.Value
	}

	result, err := h.authService.SignIn(c.Request().Context(), req.Email, pendingToken)
	if err != nil {
		return err
	}

	h.cookies.Set(c, middleware.SessionCookie, result.SessionToken, h.sessions.TTL())
	if result.ActiveAccountToken != "" {
		h.cookies.Set(c, middleware.ActiveAccountCookie, result.ActiveAccountToken, h.sessions.TTL())
	}
	if pendingToken != "" {
		h.cookies.Clear(c, middleware.PendingAccountsCookie)
	}

	return c.JSON(http.StatusOK, SignInResponse{
		Success: true,
		User: SignInUser{
			Email: result.Session.Email,
			Name:  result.Session.Name,
			Role:  result.Session.Role,
		},
		ActiveAccount:  result.ActiveAccount,
		LinkedAccounts: result.LinkedAccounts,
	})
}

// SignOut godoc
// @Summary Clear the session and active account
// @Tags auth
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /api/auth/signout [post]
func (h *AuthHandlers) SignOut(c echo.Context) error {
	h.cookies.Clear(c, middleware.SessionCookie)
	h.cookies.Clear(c, middleware.ActiveAccountCookie)
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// Session returns the signed-in identity
func (h *AuthHandlers) Session(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":          session,
		"activeAccount": currentActiveAccount(c),
	})
}

// SignInPage tells the client how to complete sign-in and where to return afterwards
func (h *AuthHandlers) SignInPage(c echo.Context) error {
	next := c.QueryParam("next")
	if next == "" {
		next = "/dashboard"
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tenant": middleware.TenantFromContext(c),
		"next":   next,
		"steps":  []string{"POST /api/verify-email", "POST /api/auth/signin"},
	})
}
