package repositories

import (
	"context"
	"errors"
	"fmt"

	"portal/internal/models"

	"github.com/jackc/pgx/v5"
)

type BalanceRepository interface {
	// Latest returns the most recent snapshot, or nil when the account has none
	Latest(ctx context.Context, key models.AccountKey) (*models.BalanceSnapshot, error)
}

type balanceRepo struct {
	db DBTX
}

func NewBalanceRepo(db DBTX) BalanceRepository {
	return &balanceRepo{db: db}
}

const latestSnapshotQuery = `
		SELECT id, user_id, tenant_slug, account_number, amount_pence, taken_at
		FROM balance_snapshots
		WHERE user_id = $1 AND tenant_slug = $2 AND account_number = $3
		ORDER BY taken_at DESC
		LIMIT 1
	`

const insertSnapshotQuery = `
		INSERT INTO balance_snapshots (id, user_id, tenant_slug, account_number, amount_pence, taken_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

func latestSnapshot(ctx context.Context, db DBTX, key models.AccountKey) (*models.BalanceSnapshot, error) {
	s := &models.BalanceSnapshot{}
	err := db.QueryRow(ctx, latestSnapshotQuery, key.UserID, key.TenantSlug, key.AccountNumber).
		Scan(&s.ID, &s.UserID, &s.TenantSlug, &s.AccountNumber, &s.AmountPence, &s.TakenAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest balance: %w", err)
	}
	return s, nil
}

func insertSnapshot(ctx context.Context, db DBTX, s *models.BalanceSnapshot) error {
	_, err := db.Exec(ctx, insertSnapshotQuery, s.ID, s.UserID, s.TenantSlug, s.AccountNumber, s.AmountPence, s.TakenAt)
	if err != nil {
		return fmt.Errorf("insert balance snapshot: %w", err)
	}
	return nil
}

func (r *balanceRepo) Latest(ctx context.Context, key models.AccountKey) (*models.BalanceSnapshot, error) {
	return latestSnapshot(ctx, r.db, key)
}
