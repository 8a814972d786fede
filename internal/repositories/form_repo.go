package repositories

import (
	"context"
	"errors"
	"fmt"

	"portal/internal/common"
	"portal/internal/models"

	"github.com/jackc/pgx/v5"
)

type FormRepository interface {
	// ListVisible returns active forms scoped to the tenant or to every tenant
	ListVisible(ctx context.Context, tenantSlug string) ([]*models.FormDefinition, error)
	GetVisible(ctx context.Context, id, tenantSlug string) (*models.FormDefinition, error)
	ListAll(ctx context.Context) ([]*models.FormDefinition, error)
	UpdateVisibility(ctx context.Context, id string, tenantSlug *string, isActive bool) (*models.FormDefinition, error)
}

type formRepo struct {
	db DBTX
}

func NewFormRepo(db DBTX) FormRepository {
	return &formRepo{db: db}
}

const formColumns = `id, tenant_slug, title, description, fields, is_active`

func scanForm(row pgx.Row) (*models.FormDefinition, error) {
	f := &models.FormDefinition{}
	err := row.Scan(&f.ID, &f.TenantSlug, &f.Title, &f.Description, &f.Fields, &f.IsActive)
	return f, err
}

func (r *formRepo) collect(rows pgx.Rows) ([]*models.FormDefinition, error) {
	defer rows.Close()
	var forms []*models.FormDefinition
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}

func (r *formRepo) ListVisible(ctx context.Context, tenantSlug string) ([]*models.FormDefinition, error) {
	query := `
		SELECT ` + formColumns + `
		FROM form_definitions
		WHERE is_active AND (tenant_slug IS NULL OR tenant_slug = $1)
		ORDER BY title
	`
	rows, err := r.db.Query(ctx, query, tenantSlug)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	return r.collect(rows)
}

func (r *formRepo) GetVisible(ctx context.Context, id, tenantSlug string) (*models.FormDefinition, error) {
	query := `
		SELECT ` + formColumns + `
		FROM form_definitions
		WHERE id = $1 AND is_active AND (tenant_slug IS NULL OR tenant_slug = $2)
	`
	form, err := scanForm(r.db.QueryRow(ctx, query, id, tenantSlug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NotFoundError("form")
		}
		return nil, fmt.Errorf("get form %s: %w", id, err)
	}
	return form, nil
}

func (r *formRepo) ListAll(ctx context.Context) ([]*models.FormDefinition, error) {
	rows, err := r.db.Query(ctx, `SELECT `+formColumns+` FROM form_definitions ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	return r.collect(rows)
}

func (r *formRepo) UpdateVisibility(ctx context.Context, id string, tenantSlug *string, isActive bool) (*models.FormDefinition, error) {
	query := `
		UPDATE form_definitions
		SET tenant_slug = $2, is_active = $3
		WHERE id = $1
		RETURNING ` + formColumns
	form, err := scanForm(r.db.QueryRow(ctx, query, id, tenantSlug, isActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NotFoundError("form")
		}
		return nil, fmt.Errorf("update form %s: %w", id, err)
	}
	return form, nil
}
