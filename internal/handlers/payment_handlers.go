package handlers

import (
	"net/http"

	"portal/internal/config"
	"portal/internal/middleware"
	"portal/internal/models"
	"portal/internal/services"

	"github.com/labstack/echo/v4"
)

// PaymentHandlers handles checkout creation and the hosted checkout simulation
type PaymentHandlers struct {
	payments  services.PaymentService
	simulator services.CheckoutSimulator
	accounts  services.AccountService
	resolver  *services.TenantResolver
	limits    config.PaymentLimits
}

func NewPaymentHandlers(payments services.PaymentService, simulator services.CheckoutSimulator, accounts services.AccountService, resolver *services.TenantResolver, limits config.PaymentLimits) *PaymentHandlers {
	return &PaymentHandlers{
		payments:  payments,
		simulator: simulator,
		accounts:  accounts,
		resolver:  resolver,
		limits:    limits,
	}
}

type SimulatePaymentRequest struct {
	ExternalRef string `json:"externalRef"`
	TenantSlug  string `json:"tenantSlug"`
	Success     bool   `json:"success"`
}

type RedirectResponse struct {
	Redirect string `json:"redirect"`
}

// CreateCheckout godoc
// @Summary Start a payment for a linked account
// @Tags payments
// @Accept json
// @Produce json
// @Param request body services.CreateCheckoutRequest true "checkout"
// @Success 200 {object} services.CheckoutResult
// @Failure 400 {object} common.ErrorResponse
// @Failure 403 {object} common.ErrorResponse
// @Router /api/payments/create-checkout [post]
func (h *PaymentHandlers) CreateCheckout(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	var req services.CreateCheckoutRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	result, err := h.payments.Initiate(c.Request().Context(), session.UserID, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Simulate delivers the outcome picked on the hosted checkout page
func (h *PaymentHandlers) Simulate(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	var req SimulatePaymentRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	tenantSlug, err := requestTenant(c, h.resolver, req.TenantSlug)
	if err != nil {
		return err
	}

	redirect, err := h.simulator.Simulate(c.Request().Context(), session.UserID, tenantSlug, req.ExternalRef, req.Success)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, RedirectResponse{Redirect: redirect})
}

// PaymentsPage shows the active account and the accepted amount range
func (h *PaymentHandlers) PaymentsPage(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	tenantSlug := middleware.TenantFromContext(c)

	link, err := h.accounts.ResolveActiveLink(c.Request().Context(), session.UserID, tenantSlug, currentActiveAccount(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"account":  link,
		"minPence": h.limits.MinPence,
		"maxPence": h.limits.MaxPence,
	})
}

// HostedCheckoutPage shows a pending transaction awaiting a simulated outcome
func (h *PaymentHandlers) HostedCheckoutPage(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	txn, err := h.payments.HostedCheckout(c.Request().Context(), session.UserID, middleware.TenantFromContext(c), c.QueryParam("ref"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"externalRef":   txn.ExternalRef,
		"accountNumber": txn.AccountNumber,
		"amountPence":   txn.AmountPence,
		"status":        txn.Status,
		"canComplete":   txn.Status == models.TransactionPending,
	})
}
