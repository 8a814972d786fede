package handlers

import (
	"net/http"

	"portal/internal/common"
	"portal/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AdminHandlers backs the admin console. Routes are mounted behind RequireRole(ADMIN).
type AdminHandlers struct {
	admin   services.AdminService
	tenants services.TenantService
}

func NewAdminHandlers(admin services.AdminService, tenants services.TenantService) *AdminHandlers {
	return &AdminHandlers{admin: admin, tenants: tenants}
}

// Overview handles GET /api/admin
func (h *AdminHandlers) Overview(c echo.Context) error {
	ctx := c.Request().Context()
	tenants, err := h.tenants.List(ctx)
	if err != nil {
		return err
	}
	messages, err := h.admin.ListTenantMessages(ctx)
	if err != nil {
		return err
	}
	forms, err := h.admin.ListForms(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tenants":        tenants,
		"tenantMessages": len(messages),
		"forms":          len(forms),
	})
}

func (h *AdminHandlers) ListTenantMessages(c echo.Context) error {
	messages, err := h.admin.ListTenantMessages(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"messages": messages})
}

func (h *AdminHandlers) GetTenantMessage(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.ValidationError("invalid message id")
	}
	msg, err := h.admin.GetTenantMessage(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msg)
}

// UpdateTenantMessage godoc
// @Summary Edit a tenant announcement
// @Tags admin
// @Accept json
// @Produce json
// @Param request body services.UpdateTenantMessageRequest true "message"
// @Success 200 {object} models.TenantMessage
// @Failure 400 {object} common.ErrorResponse
// @Failure 403 {object} common.ErrorResponse
// @Router /api/admin/tenant-messages/update [post]
func (h *AdminHandlers) UpdateTenantMessage(c echo.Context) error {
	var req services.UpdateTenantMessageRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	msg, err := h.admin.UpdateTenantMessage(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msg)
}

func (h *AdminHandlers) ListForms(c echo.Context) error {
	forms, err := h.admin.ListForms(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"forms": forms})
}

// UpdateForm godoc
// @Summary Change a form's tenant scope and active flag
// @Tags admin
// @Accept json
// @Produce json
// @Param request body services.UpdateFormRequest true "form"
// @Success 200 {object} models.FormDefinition
// @Failure 400 {object} common.ErrorResponse
// @Failure 403 {object} common.ErrorResponse
// @Router /api/admin/forms/update [post]
func (h *AdminHandlers) UpdateForm(c echo.Context) error {
	var req services.UpdateFormRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	form, err := h.admin.UpdateForm(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, form)
}
