package repositories

import (
	"context"
	"errors"
	"fmt"

	"portal/internal/common"
	"portal/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TenantRepository interface {
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	List(ctx context.Context) ([]*models.Tenant, error)
}

type tenantRepo struct {
	db DBTX
}

func NewTenantRepo(db DBTX) TenantRepository {
	return &tenantRepo{db: db}
}

func (r *tenantRepo) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	query := `
		SELECT id, slug, name, support_email, support_phone, bank_details, theme, created_at
		FROM tenants
		WHERE slug = $1
	`
	err := r.db.QueryRow(ctx, query, slug).Scan(&tenant.ID, &tenant.Slug, &tenant.Name, &tenant.SupportEmail, &tenant.SupportPhone, &tenant.BankDetails, &tenant.Theme, &tenant.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NotFoundError("tenant")
		}
		return nil, fmt.Errorf("get tenant %s: %w", slug, err)
	}
	return tenant, nil
}

func (r *tenantRepo) List(ctx context.Context) ([]*models.Tenant, error) {
	query := `
		SELECT id, slug, name, support_email, support_phone, bank_details, theme, created_at
		FROM tenants
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant := &models.Tenant{}
		if err := rows.Scan(&tenant.ID, &tenant.Slug, &tenant.Name, &tenant.SupportEmail, &tenant.SupportPhone, &tenant.BankDetails, &tenant.Theme, &tenant.CreatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

type TenantMessageRepository interface {
	ListByTenant(ctx context.Context, tenantSlug string, activeOnly bool) ([]*models.TenantMessage, error)
	ListAll(ctx context.Context) ([]*models.TenantMessage, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.TenantMessage, error)
	Update(ctx context.Context, id uuid.UUID, content string, isActive bool) (*models.TenantMessage, error)
}

type tenantMessageRepo struct {
	db DBTX
}

func NewTenantMessageRepo(db DBTX) TenantMessageRepository {
	return &tenantMessageRepo{db: db}
}

func (r *tenantMessageRepo) ListByTenant(ctx context.Context, tenantSlug string, activeOnly bool) ([]*models.TenantMessage, error) {
	query := `
		SELECT id, tenant_slug, content, is_active, updated_at
		FROM tenant_messages
		WHERE tenant_slug = $1 AND (is_active OR NOT $2)
		ORDER BY updated_at DESC
	`
	return r.list(ctx, query, tenantSlug, activeOnly)
}

func (r *tenantMessageRepo) ListAll(ctx context.Context) ([]*models.TenantMessage, error) {
	query := `
		SELECT id, tenant_slug, content, is_active, updated_at
		FROM tenant_messages
		ORDER BY tenant_slug, updated_at DESC
	`
	return r.list(ctx, query)
}

func (r *tenantMessageRepo) list(ctx context.Context, query string, args ...interface{}) ([]*models.TenantMessage, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tenant messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.TenantMessage
	for rows.Next() {
		m := &models.TenantMessage{}
		if err := rows.Scan(&m.ID, &m.TenantSlug, &m.Content, &m.IsActive, &m.UpdatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *tenantMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.TenantMessage, error) {
	m := &models.TenantMessage{}
	query := `
		SELECT id, tenant_slug, content, is_active, updated_at
		FROM tenant_messages
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&m.ID, &m.TenantSlug, &m.Content, &m.IsActive, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NotFoundError("message")
		}
		return nil, fmt.Errorf("get tenant message: %w", err)
	}
	return m, nil
}

func (r *tenantMessageRepo) Update(ctx context.Context, id uuid.UUID, content string, isActive bool) (*models.TenantMessage, error) {
	m := &models.TenantMessage{}
	query := `
		UPDATE tenant_messages
		SET content = $1, is_active = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING id, tenant_slug, content, is_active, updated_at
	`
	err := r.db.QueryRow(ctx, query, content, isActive, id).Scan(&m.ID, &m.TenantSlug, &m.Content, &m.IsActive, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NotFoundError("message")
		}
		return nil, fmt.Errorf("update tenant message: %w", err)
	}
	return m, nil
}
