package handlers

import (
	"net/http"

	"portal/internal/common"
	"portal/internal/middleware"
	"portal/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// FormHandlers handles dynamic forms and the user's submissions
type FormHandlers struct {
	forms    services.FormService
	resolver *services.TenantResolver
}

func NewFormHandlers(forms services.FormService, resolver *services.TenantResolver) *FormHandlers {
	return &FormHandlers{forms: forms, resolver: resolver}
}

type SubmitFormResponse struct {
	Success      bool      `json:"success"`
	SubmissionID uuid.UUID `json:"submissionId"`
}

// ListForms handles GET /forms
func (h *FormHandlers) ListForms(c echo.Context) error {
	forms, err := h.forms.ListVisible(c.Request().Context(), middleware.TenantFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"forms": forms})
}

// GetForm handles GET /forms/:id
func (h *FormHandlers) GetForm(c echo.Context) error {
	form, err := h.forms.GetVisible(c.Request().Context(), c.Param("id"), middleware.TenantFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, form)
}

// Submit godoc
// @Summary Submit a visible form
// @Tags forms
// @Accept json
// @Produce json
// @Param request body services.SubmitFormRequest true "submission"
// @Success 200 {object} SubmitFormResponse
// @Failure 400 {object} common.ErrorResponse
// @Failure 403 {object} common.ErrorResponse
// @Failure 404 {object} common.ErrorResponse
// @Router /api/forms/submit [post]
func (h *FormHandlers) Submit(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	var req services.SubmitFormRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	tenantSlug, err := requestTenant(c, h.resolver, req.TenantSlug)
	if err != nil {
		return err
	}

	submission, err := h.forms.Submit(c.Request().Context(), session.UserID, tenantSlug, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SubmitFormResponse{Success: true, SubmissionID: submission.ID})
}

// ListSubmissions handles GET /my/submissions
func (h *FormHandlers) ListSubmissions(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	submissions, err := h.forms.ListSubmissions(c.Request().Context(), session.UserID, middleware.TenantFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"submissions": submissions})
}

// GetSubmission handles GET /my/submissions/:id
func (h *FormHandlers) GetSubmission(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.NotFoundError("submission")
	}
	submission, err := h.forms.GetSubmission(c.Request().Context(), id, session.UserID)
	if err != nil {
		return err
	}
	if submission.TenantSlug != middleware.TenantFromContext(c) {
		return common.NotFoundError("submission")
	}
	return c.JSON(http.StatusOK, submission)
}
