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

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.FormSubmission) error
	ListByUser(ctx context.Context, userID uuid.UUID, tenantSlug string) ([]*models.FormSubmission, error)
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.FormSubmission, error)
}

type submissionRepo struct {
	db DBTX
}

func NewSubmissionRepo(db DBTX) SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) Create(ctx context.Context, s *models.FormSubmission) error {
	query := `
		INSERT INTO form_submissions (id, user_id, tenant_slug, form_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, s.ID, s.UserID, s.TenantSlug, s.FormID, s.Payload, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// ListByUser returns a user's submissions under one tenant, newest first
func (r *submissionRepo) ListByUser(ctx context.Context, userID uuid.UUID, tenantSlug string) ([]*models.FormSubmission, error) {
	query := `
		SELECT s.id, s.user_id, s.tenant_slug, s.form_id, s.payload, s.created_at, f.title
		FROM form_submissions s
		JOIN form_definitions f ON f.id = s.form_id
		WHERE s.user_id = $1 AND s.tenant_slug = $2
		ORDER BY s.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID, tenantSlug)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var submissions []*models.FormSubmission
	for rows.Next() {
		s := &models.FormSubmission{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.TenantSlug, &s.FormID, &s.Payload, &s.CreatedAt, &s.FormTitle); err != nil {
			return nil, err
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}

func (r *submissionRepo) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.FormSubmission, error) {
	query := `
		SELECT s.id, s.user_id, s.tenant_slug, s.form_id, s.payload, s.created_at, f.title
		FROM form_submissions s
		JOIN form_definitions f ON f.id = s.form_id
		WHERE s.id = $1 AND s.user_id = $2
	`
	s := &models.FormSubmission{}
	err := r.db.QueryRow(ctx, query, id, userID).Scan(&s.ID, &s.UserID, &s.TenantSlug, &s.FormID, &s.Payload, &s.CreatedAt, &s.FormTitle)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NotFoundError("submission")
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return s, nil
}
