package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"portal/internal/common"
	"portal/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CallbackOutcome describes what applying a gateway status callback did
type CallbackOutcome struct {
	Transaction *models.Transaction
	// Duplicate is set when the transaction was already terminal; nothing was written.
	Duplicate bool
	// Snapshot is the balance appended for a confirmation, nil otherwise.
	Snapshot *models.BalanceSnapshot
}

// LedgerRepository applies gateway callbacks atomically
type LedgerRepository interface {
	ApplyCallback(ctx context.Context, externalRef, status string, raw json.RawMessage, now time.Time) (*CallbackOutcome, error)
}

type ledgerRepo struct {
	db Database
}

func NewLedgerRepo(db Database) LedgerRepository {
	return &ledgerRepo{db: db}
}

const transitionQuery = `
		UPDATE transactions
		SET status = $1, raw = $2
		WHERE external_ref = $3 AND status = 'PENDING'
		RETURNING ` + transactionColumns

const advisoryLockQuery = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`

// ApplyCallback moves a PENDING transaction to status and, for confirmations, appends
// prior balance minus amount. Appends for one account are serialized by an advisory lock
// held until commit.
func (r *ledgerRepo) ApplyCallback(ctx context.Context, externalRef, status string, raw json.RawMessage, now time.Time) (*CallbackOutcome, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin callback transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txn, err := scanTransaction(tx.QueryRow(ctx, transitionQuery, status, raw, externalRef))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("transition transaction: %w", err)
		}
		existing, lookupErr := scanTransaction(tx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE external_ref = $1`, externalRef))
		if lookupErr != nil {
			if errors.Is(lookupErr, pgx.ErrNoRows) {
				return nil, common.NotFoundError("transaction")
			}
			return nil, fmt.Errorf("get transaction: %w", lookupErr)
		}
		return &CallbackOutcome{Transaction: existing, Duplicate: true}, nil
	}

	outcome := &CallbackOutcome{Transaction: txn}

	if status == models.TransactionConfirmed {
		key := txn.AccountKey()
		if _, err := tx.Exec(ctx, advisoryLockQuery, key.String()); err != nil {
			return nil, fmt.Errorf("lock balance stream: %w", err)
		}

		prior, err := latestSnapshot(ctx, tx, key)
		if err != nil {
			return nil, err
		}
		var priorPence int64
		if prior != nil {
			priorPence = prior.AmountPence
			// now was read before the lock; keep the stream ordered by taken_at
			if !now.After(prior.TakenAt) {
				now = prior.TakenAt.Add(time.Microsecond)
			}
		}

		snapshot := &models.BalanceSnapshot{
			ID:            uuid.New(),
			UserID:        key.UserID,
			TenantSlug:    key.TenantSlug,
			AccountNumber: key.AccountNumber,
			AmountPence:   priorPence - txn.AmountPence,
			TakenAt:       now,
		}
		if err := insertSnapshot(ctx, tx, snapshot); err != nil {
			return nil, err
		}
		outcome.Snapshot = snapshot
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit callback transaction: %w", err)
	}
	return outcome, nil
}
