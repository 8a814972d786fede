package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"portal/internal/common"
	"portal/internal/middleware"
	"portal/internal/models"
	"portal/internal/services"

	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TenantHandlers serves the tenant-scoped pages as JSON view models
type TenantHandlers struct {
	tenants    services.TenantService
	accounts   services.AccountService
	statements services.StatementExporter
}

// NewTenantHandlers creates a new tenant handlers instance
func NewTenantHandlers(tenants services.TenantService, accounts services.AccountService, statements services.StatementExporter) *TenantHandlers {
	return &TenantHandlers{
		tenants:    tenants,
		accounts:   accounts,
		statements: statements,
	}
}

// Home lists the tenants at the apex and sends tenant hosts to their dashboard
func (h *TenantHandlers) Home(c echo.Context) error {
	if middleware.TenantFromContext(c) != "" {
		return c.Redirect(http.StatusFound, "/dashboard")
	}
	tenants, err := h.tenants.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"tenants": tenants})
}

// Dashboard shows tenant branding, announcements and the active account's balance
func (h *TenantHandlers) Dashboard(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	tenant, err := h.tenants.GetBySlug(ctx, middleware.TenantFromContext(c))
	if err != nil {
		return err
	}

	page := map[string]interface{}{
		"tenant": tenant,
		"user":   session,
	}
	balance, err := h.accounts.Balance(ctx, session.UserID, tenant.Slug, currentActiveAccount(c))
	switch {
	case err == nil:
		page["balance"] = balance
	case errors.Is(err, common.ErrNotFound):
		// no linked account here yet; the client shows the account switcher
		page["balance"] = nil
	default:
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// AccountBalance handles GET /account-balance
func (h *TenantHandlers) AccountBalance(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	view, err := h.accounts.Balance(c.Request().Context(), session.UserID, middleware.TenantFromContext(c), currentActiveAccount(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Transactions handles GET /transactions?source=&status=&from=&to=
func (h *TenantHandlers) Transactions(c echo.Context) error {
	view, err := h.transactionsView(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"account":      view.Account,
		"transactions": view.Transactions,
		"outcome":      c.QueryParam("status"),
	})
}

// ExportTransactions handles GET /transactions/export with the same filters as Transactions
func (h *TenantHandlers) ExportTransactions(c echo.Context) error {
	view, err := h.transactionsView(c)
	if err != nil {
		return err
	}
	tenant, err := h.tenants.GetBySlug(c.Request().Context(), middleware.TenantFromContext(c))
	if err != nil {
		return err
	}

	buf, err := h.statements.Export(tenant, view)
	if err != nil {
		return err
	}
	filename := fmt.Sprintf("statement-%s-%s.xlsx", view.Account.AccountNumber, time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *TenantHandlers) transactionsView(c echo.Context) (*services.TransactionsView, error) {
	session, err := currentSession(c)
	if err != nil {
		return nil, err
	}
	filters, err := parseTransactionFilters(c)
	if err != nil {
		return nil, err
	}
	return h.accounts.Transactions(c.Request().Context(), session.UserID, middleware.TenantFromContext(c), currentActiveAccount(c), filters)
}

func parseTransactionFilters(c echo.Context) (*models.TransactionFilters, error) {
	filters := &models.TransactionFilters{}

	if source := strings.ToUpper(c.QueryParam("source")); source != "" {
		if source != models.SourceGateway && source != models.SourceDirectory {
			return nil, common.ValidationError("unknown source %q", source)
		}
		filters.Source = &source
	}

	// success/failed are the hosted checkout outcomes, not status filters
	if status := strings.ToUpper(c.QueryParam("status")); status != "" && status != "SUCCESS" {
		switch status {
		case models.TransactionPending, models.TransactionConfirmed, models.TransactionFailed:
			filters.Status = &status
		default:
			return nil, common.ValidationError("unknown status %q", status)
		}
	}

	var err error
	if filters.From, err = parseDateParam(c, "from", false); err != nil {
		return nil, err
	}
	if filters.To, err = parseDateParam(c, "to", true); err != nil {
		return nil, err
	}
	return filters, nil
}

// parseDateParam accepts RFC 3339 or a bare date. A bare "to" date includes the whole day.
func parseDateParam(c echo.Context, name string, endOfDay bool) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, common.ValidationError("invalid %s date %q", name, raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
