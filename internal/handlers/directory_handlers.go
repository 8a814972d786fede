package handlers

import (
	"net/http"
	"strings"

	"portal/internal/common"
	"portal/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// DirectoryHandlers exposes the account directory for the signed-in user's own accounts
type DirectoryHandlers struct {
	directory services.AccountDirectory
	accounts  services.AccountService
	logger    *zap.Logger
}

func NewDirectoryHandlers(directory services.AccountDirectory, accounts services.AccountService, logger *zap.Logger) *DirectoryHandlers {
	return &DirectoryHandlers{directory: directory, accounts: accounts, logger: logger}
}

func (h *DirectoryHandlers) ownedAccount(c echo.Context) (string, error) {
	session, err := currentSession(c)
	if err != nil {
		return "", err
	}
	accountNumber := strings.TrimSpace(c.Param("accountNumber"))
	if accountNumber == "" {
		return "", common.ValidationError("account number is required")
	}

	links, err := h.accounts.ListAccounts(c.Request().Context(), session.UserID)
	if err != nil {
		return "", err
	}
	for _, link := range links {
		if link.AccountNumber == accountNumber {
			return accountNumber, nil
		}
	}
	return "", common.ForbiddenError("account is not linked to this user")
}

// Summary handles GET /api/accounts/:accountNumber/summary
func (h *DirectoryHandlers) Summary(c echo.Context) error {
	accountNumber, err := h.ownedAccount(c)
	if err != nil {
		return err
	}
	summary, err := h.directory.AccountSummary(c.Request().Context(), accountNumber)
	if err != nil {
		h.logger.Error("directory summary failed", zap.String("account_number", accountNumber), zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "failed to fetch account summary")
	}
	return c.JSON(http.StatusOK, summary)
}

// Transactions handles GET /api/accounts/:accountNumber/transactions?since=
func (h *DirectoryHandlers) Transactions(c echo.Context) error {
	accountNumber, err := h.ownedAccount(c)
	if err != nil {
		return err
	}
	since, err := parseDateParam(c, "since", false)
	if err != nil {
		return err
	}
	txns, err := h.directory.TransactionsSince(c.Request().Context(), accountNumber, since)
	if err != nil {
		h.logger.Error("directory transactions failed", zap.String("account_number", accountNumber), zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "failed to fetch account transactions")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"transactions": txns})
}
