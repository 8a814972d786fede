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

// UserHandlers handles the signed-in user's accounts and profile
type UserHandlers struct {
	accounts services.AccountService
	sessions services.SessionService
	cookies  middleware.CookieWriter
}

// NewUserHandlers creates a new user handlers instance
func NewUserHandlers(accounts services.AccountService, sessions services.SessionService, cookies middleware.CookieWriter) *UserHandlers {
	return &UserHandlers{
		accounts: accounts,
		sessions: sessions,
		cookies:  cookies,
	}
}

type AccountsResponse struct {
	Accounts      []*models.UserAccountLink `json:"accounts"`
	ActiveAccount *models.ActiveAccount     `json:"activeAccount,omitempty"`
}

type SwitchAccountResponse struct {
	Success       bool                  `json:"success"`
	ActiveAccount *models.ActiveAccount `json:"activeAccount"`
}

// Accounts handles GET /api/user/accounts
func (h *UserHandlers) Accounts(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	links, err := h.accounts.ListAccounts(c.Request().Context(), session.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AccountsResponse{Accounts: links, ActiveAccount: currentActiveAccount(c)})
}

// SwitchAccount godoc
// @Summary Select one of the user's linked accounts
// @Tags user
// @Accept json
// @Produce json
// @Param request body services.SwitchAccountRequest true "account"
// @Success 200 {object} SwitchAccountResponse
// @Failure 400 {object} common.ErrorResponse
// @Failure 403 {object} common.ErrorResponse
// @Router /api/user/switch-account [post]
func (h *UserHandlers) SwitchAccount(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	var req services.SwitchAccountRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	account, token, err := h.accounts.SwitchAccount(c.Request().Context(), session.UserID, &req)
	if err != nil {
		return err
	}
	h.cookies.Set(c, middleware.ActiveAccountCookie, token, h.sessions.TTL())
	return c.JSON(http.StatusOK, SwitchAccountResponse{Success: true, ActiveAccount: account})
}

// UpdateEmail handles POST /api/user/update-email from the settings form or JSON
func (h *UserHandlers) UpdateEmail(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	var req services.UpdateProfileRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if err := h.accounts.UpdateProfile(c.Request().Context(), session.UserID, &req); err != nil {
		return err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = session.Name
	}
	token, _, err := h.sessions.IssueSession(&models.User{
		ID:    session.UserID,
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		Name:  common.StringPtr(name),
		Role:  session.Role,
	})
	if err != nil {
		return err
	}
	h.cookies.Set(c, middleware.SessionCookie, token, h.sessions.TTL())

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationForm) {
		return c.Redirect(http.StatusSeeOther, "/settings")
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// SettingsPage handles GET /settings
func (h *UserHandlers) SettingsPage(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	links, err := h.accounts.ListAccounts(c.Request().Context(), session.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":          session,
		"accounts":      links,
		"activeAccount": currentActiveAccount(c),
	})
}
