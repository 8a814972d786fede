package handlers

import (
	"io"
	"net/http"

	"portal/internal/services"

	"github.com/labstack/echo/v4"
)

const maxCallbackBytes = 64 << 10

// WebhookHandlers handles gateway callbacks
type WebhookHandlers struct {
	payments services.PaymentService
}

// NewWebhookHandlers creates a new webhook handlers instance
func NewWebhookHandlers(payments services.PaymentService) *WebhookHandlers {
	return &WebhookHandlers{payments: payments}
}

type WebhookResponse struct {
	Success      bool   `json:"success"`
	Duplicate    bool   `json:"duplicate,omitempty"`
	Status       string `json:"status"`
	BalancePence *int64 `json:"balancePence,omitempty"`
}

// PaymentWebhook godoc
// @Summary Apply a signed payment status callback
// @Tags webhooks
// @Accept json
// @Produce json
// @Param X-Payment-Signature header string true "hex sha256(body + secret)"
// @Param request body services.CallbackPayload true "callback"
// @Success 200 {object} WebhookResponse
// @Failure 400 {object} common.ErrorResponse
// @Failure 401 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/webhooks/payments [post]
func (h *WebhookHandlers) PaymentWebhook(c echo.Context) error {
	// the signature covers the raw bytes, so the body must not be re-encoded
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxCallbackBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}

	result, err := h.payments.HandleCallback(c.Request().Context(), body, c.Request().Header.Get(services.SignatureHeader))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, WebhookResponse{
		Success:      true,
		Duplicate:    result.Duplicate,
		Status:       result.Status,
		BalancePence: result.BalancePence,
	})
}
