package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portal/internal/common"
	"portal/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AccountLinkRepository interface {
	Create(ctx context.Context, link *models.UserAccountLink) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.UserAccountLink, error)
	Get(ctx context.Context, userID uuid.UUID, tenantSlug, accountNumber string) (*models.UserAccountLink, error)
	FirstForTenant(ctx context.Context, userID uuid.UUID, tenantSlug string) (*models.UserAccountLink, error)
	ListAll(ctx context.Context, limit, offset int) ([]*models.UserAccountLink, error)
	MarkSynced(ctx context.Context, id uuid.UUID, at time.Time) error
}

type accountLinkRepo struct {
	db DBTX
}

func NewAccountLinkRepo(db DBTX) AccountLinkRepository {
	return &accountLinkRepo{db: db}
}

const accountLinkColumns = `id, user_id, tenant_slug, account_number, property_address, last_synced_at, created_at`

func scanAccountLink(row pgx.Row) (*models.UserAccountLink, error) {
	link := &models.UserAccountLink{}
	err := row.Scan(&link.ID, &link.UserID, &link.TenantSlug, &link.AccountNumber, &link.PropertyAddress, &link.LastSyncedAt, &link.CreatedAt)
	return link, err
}

// Create inserts the link and reports whether a new row was written
func (r *accountLinkRepo) Create(ctx context.Context, link *models.UserAccountLink) (bool, error) {
	query := `
		INSERT INTO user_account_links (id, user_id, tenant_slug, account_number, property_address, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, tenant_slug, account_number) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, link.ID, link.UserID, link.TenantSlug, link.AccountNumber, link.PropertyAddress)
	if err != nil {
		return false, fmt.Errorf("create account link: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByUser returns links in storage order
func (r *accountLinkRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.UserAccountLink, error) {
	query := `SELECT ` + accountLinkColumns + `
		FROM user_account_links
		WHERE user_id = $1
		ORDER BY created_at, id
	`
	return r.list(ctx, query, userID)
}

func (r *accountLinkRepo) Get(ctx context.Context, userID uuid.UUID, tenantSlug, accountNumber string) (*models.UserAccountLink, error) {
	query := `SELECT ` + accountLinkColumns + `
		FROM user_account_links
		WHERE user_id = $1 AND tenant_slug = $2 AND account_number = $3
	`
	link, err := scanAccountLink(r.db.QueryRow(ctx, query, userID, tenantSlug, accountNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NotFoundError("account")
		}
		return nil, fmt.Errorf("get account link: %w", err)
	}
	return link, nil
}

func (r *accountLinkRepo) FirstForTenant(ctx context.Context, userID uuid.UUID, tenantSlug string) (*models.UserAccountLink, error) {
	query := `SELECT ` + accountLinkColumns + `
		FROM user_account_links
		WHERE user_id = $1 AND tenant_slug = $2
		ORDER BY created_at, id
		LIMIT 1
	`
	link, err := scanAccountLink(r.db.QueryRow(ctx, query, userID, tenantSlug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NotFoundError("account")
		}
		return nil, fmt.Errorf("get first account link: %w", err)
	}
	return link, nil
}

func (r *accountLinkRepo) ListAll(ctx context.Context, limit, offset int) ([]*models.UserAccountLink, error) {
	query := `SELECT ` + accountLinkColumns + `
		FROM user_account_links
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2
	`
	return r.list(ctx, query, limit, offset)
}

func (r *accountLinkRepo) list(ctx context.Context, query string, args ...interface{}) ([]*models.UserAccountLink, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list account links: %w", err)
	}
	defer rows.Close()

	var links []*models.UserAccountLink
	for rows.Next() {
		link, err := scanAccountLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func (r *accountLinkRepo) MarkSynced(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE user_account_links SET last_synced_at = $1 WHERE id = $2`
	_, err := r.db.Exec(ctx, query, at, id)
	return err
}
