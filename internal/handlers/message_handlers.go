package handlers

import (
	"net/http"

	"portal/internal/middleware"
	"portal/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// MessageHandlers handles support messages
type MessageHandlers struct {
	messages services.MessageService
	resolver *services.TenantResolver
}

func NewMessageHandlers(messages services.MessageService, resolver *services.TenantResolver) *MessageHandlers {
	return &MessageHandlers{messages: messages, resolver: resolver}
}

type SendMessageBody struct {
	services.SendMessageRequest
	TenantSlug string `json:"tenantSlug"`
}

type SendMessageResponse struct {
	Success        bool      `json:"success"`
	MessageID      uuid.UUID `json:"messageId"`
	DeliveryStatus string    `json:"deliveryStatus"`
}

// Send godoc
// @Summary Send a support message to the tenant
// @Tags messages
// @Accept json
// @Produce json
// @Param request body SendMessageBody true "message"
// @Success 200 {object} SendMessageResponse
// @Failure 400 {object} common.ErrorResponse
// @Router /api/messages/send [post]
func (h *MessageHandlers) Send(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	var req SendMessageBody
	if err := bindBody(c, &req); err != nil {
		return err
	}
	tenantSlug, err := requestTenant(c, h.resolver, req.TenantSlug)
	if err != nil {
		return err
	}

	msg, err := h.messages.Send(c.Request().Context(), session, tenantSlug, &req.SendMessageRequest)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SendMessageResponse{Success: true, MessageID: msg.ID, DeliveryStatus: msg.DeliveryStatus})
}

// List handles GET /messages
func (h *MessageHandlers) List(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	messages, err := h.messages.List(c.Request().Context(), session.UserID, middleware.TenantFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"messages": messages})
}
