package services

import (
	"context"
	"strings"

	"portal/internal/common"
	"portal/internal/models"
	"portal/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminService backs the admin console
type AdminService interface {
	ListTenantMessages(ctx context.Context) ([]*models.TenantMessage, error)
	GetTenantMessage(ctx context.Context, id uuid.UUID) (*models.TenantMessage, error)
	UpdateTenantMessage(ctx context.Context, req *UpdateTenantMessageRequest) (*models.TenantMessage, error)
	ListForms(ctx context.Context) ([]*models.FormDefinition, error)
	UpdateForm(ctx context.Context, req *UpdateFormRequest) (*models.FormDefinition, error)
}

type adminService struct {
	messageRepo repositories.TenantMessageRepository
	formRepo    repositories.FormRepository
	tenants     TenantService
	resolver    *TenantResolver
	logger      *zap.Logger
}

type UpdateTenantMessageRequest struct {
	ID       string `json:"id" form:"id"`
	Content  string `json:"content" form:"content"`
	IsActive bool   `json:"isActive" form:"isActive"`
}

type UpdateFormRequest struct {
	ID         string `json:"id" form:"id"`
	TenantSlug string `json:"tenantSlug" form:"tenantSlug"`
	IsActive   bool   `json:"isActive" form:"isActive"`
}

func NewAdminService(messageRepo repositories.TenantMessageRepository, formRepo repositories.FormRepository, tenants TenantService, resolver *TenantResolver, logger *zap.Logger) AdminService {
	return &adminService{
		messageRepo: messageRepo,
		formRepo:    formRepo,
		tenants:     tenants,
		resolver:    resolver,
		logger:      logger,
	}
}

func (s *adminService) ListTenantMessages(ctx context.Context) ([]*models.TenantMessage, error) {
	return s.messageRepo.ListAll(ctx)
}

func (s *adminService) GetTenantMessage(ctx context.Context, id uuid.UUID) (*models.TenantMessage, error) {
	return s.messageRepo.GetByID(ctx, id)
}

func (s *adminService) UpdateTenantMessage(ctx context.Context, req *UpdateTenantMessageRequest) (*models.TenantMessage, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, common.ValidationError("invalid message id")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, common.ValidationError("content is required")
	}

	msg, err := s.messageRepo.Update(ctx, id, req.Content, req.IsActive)
	if err != nil {
		return nil, err
	}
	s.tenants.Invalidate(ctx, msg.TenantSlug)
	s.logger.Info("tenant message updated", zap.String("message_id", id.String()), zap.String("tenant", msg.TenantSlug), zap.Bool("active", msg.IsActive))
	return msg, nil
}

func (s *adminService) ListForms(ctx context.Context) ([]*models.FormDefinition, error) {
	return s.formRepo.ListAll(ctx)
}

// UpdateForm scopes a form to one tenant, or to every tenant when TenantSlug is empty
func (s *adminService) UpdateForm(ctx context.Context, req *UpdateFormRequest) (*models.FormDefinition, error) {
	if req.ID == "" {
		return nil, common.ValidationError("form id is required")
	}
	tenantSlug := common.StringPtr(strings.TrimSpace(req.TenantSlug))
	if tenantSlug != nil && !s.resolver.IsKnown(*tenantSlug) {
		return nil, common.ValidationError("unknown tenant %q", *tenantSlug)
	}

	form, err := s.formRepo.UpdateVisibility(ctx, req.ID, tenantSlug, req.IsActive)
	if err != nil {
		return nil, err
	}
	s.logger.Info("form visibility updated", zap.String("form_id", form.ID), zap.Bool("active", form.IsActive))
	return form, nil
}
