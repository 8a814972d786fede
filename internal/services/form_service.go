package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"portal/internal/common"
	"portal/internal/models"
	"portal/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FormService interface {
	ListVisible(ctx context.Context, tenantSlug string) ([]*models.FormDefinition, error)
	GetVisible(ctx context.Context, id, tenantSlug string) (*models.FormDefinition, error)
	Submit(ctx context.Context, userID uuid.UUID, tenantSlug string, req *SubmitFormRequest) (*models.FormSubmission, error)
	ListSubmissions(ctx context.Context, userID uuid.UUID, tenantSlug string) ([]*models.FormSubmission, error)
	GetSubmission(ctx context.Context, id, userID uuid.UUID) (*models.FormSubmission, error)
}

type formService struct {
	formRepo       repositories.FormRepository
	submissionRepo repositories.SubmissionRepository
	events         EventPublisher
	logger         *zap.Logger
}

type SubmitFormRequest struct {
	FormID     string            `json:"formId"`
	TenantSlug string            `json:"tenantSlug"`
	UserID     string            `json:"userId"`
	Payload    map[string]string `json:"payload"`
}

func NewFormService(formRepo repositories.FormRepository, submissionRepo repositories.SubmissionRepository, events EventPublisher, logger *zap.Logger) FormService {
	return &formService{
		formRepo:       formRepo,
		submissionRepo: submissionRepo,
		events:         events,
		logger:         logger,
	}
}

func (s *formService) ListVisible(ctx context.Context, tenantSlug string) ([]*models.FormDefinition, error) {
	return s.formRepo.ListVisible(ctx, tenantSlug)
}

func (s *formService) GetVisible(ctx context.Context, id, tenantSlug string) (*models.FormDefinition, error) {
	return s.formRepo.GetVisible(ctx, id, tenantSlug)
}

// MissingRequiredFields lists required field keys whose values are empty after trimming
func MissingRequiredFields(form *models.FormDefinition, payload map[string]string) []string {
	var missing []string
	for _, field := range form.Fields {
		if field.Required && strings.TrimSpace(payload[field.Key]) == "" {
			missing = append(missing, field.Key)
		}
	}
	sort.Strings(missing)
	return missing
}

// Submit persists the payload verbatim once every required field is present
func (s *formService) Submit(ctx context.Context, userID uuid.UUID, tenantSlug string, req *SubmitFormRequest) (*models.FormSubmission, error) {
	if req.FormID == "" || req.Payload == nil {
		return nil, common.ValidationError("missing required fields")
	}
	if req.TenantSlug != "" && req.TenantSlug != tenantSlug {
		return nil, common.ForbiddenError("form submission tenant does not match the current tenant")
	}
	if req.UserID != "" && req.UserID != userID.String() {
		return nil, common.ForbiddenError("cannot submit forms on behalf of another user")
	}

	form, err := s.formRepo.GetVisible(ctx, req.FormID, tenantSlug)
	if err != nil {
		return nil, err
	}

	if missing := MissingRequiredFields(form, req.Payload); len(missing) > 0 {
		return nil, common.ValidationError("missing required fields: %s", strings.Join(missing, ", "))
	}

	submission := &models.FormSubmission{
		ID:         uuid.New(),
		UserID:     userID,
		TenantSlug: tenantSlug,
		FormID:     form.ID,
		Payload:    req.Payload,
		CreatedAt:  time.Now().UTC(),
		FormTitle:  form.Title,
	}
	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		return nil, err
	}

	s.logger.Info("form submitted",
		zap.String("submission_id", submission.ID.String()),
		zap.String("form_id", form.ID),
		zap.String("tenant", tenantSlug),
	)
	s.events.Publish(ctx, Event{
		Type:       EventFormSubmitted,
		TenantSlug: tenantSlug,
		UserID:     userID.String(),
		OccurredAt: submission.CreatedAt,
		Data:       map[string]string{"submission_id": submission.ID.String(), "form_id": form.ID, "form_title": form.Title},
	})
	return submission, nil
}

func (s *formService) ListSubmissions(ctx context.Context, userID uuid.UUID, tenantSlug string) ([]*models.FormSubmission, error) {
	return s.submissionRepo.ListByUser(ctx, userID, tenantSlug)
}

func (s *formService) GetSubmission(ctx context.Context, id, userID uuid.UUID) (*models.FormSubmission, error) {
	return s.submissionRepo.GetByID(ctx, id, userID)
}
