package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"portal/internal/common"
	"portal/internal/models"

	"github.com/jackc/pgx/v5"
)

// ErrDuplicateReference is returned when an external reference is already taken
var ErrDuplicateReference = errors.New("external reference already exists")

type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	CreateIfAbsent(ctx context.Context, txn *models.Transaction) (bool, error)
	GetByExternalRef(ctx context.Context, externalRef string) (*models.Transaction, error)
	List(ctx context.Context, key models.AccountKey, filters *models.TransactionFilters) ([]*models.Transaction, error)
}

type transactionRepo struct {
	db DBTX
}

func NewTransactionRepo(db DBTX) TransactionRepository {
	return &transactionRepo{db: db}
}

const transactionColumns = `id, user_id, tenant_slug, account_number, external_ref, source, direction, amount_pence, status, occurred_at, raw, created_at`

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	t := &models.Transaction{}
	err := row.Scan(&t.ID, &t.UserID, &t.TenantSlug, &t.AccountNumber, &t.ExternalRef, &t.Source, &t.Direction, &t.AmountPence, &t.Status, &t.OccurredAt, &t.Raw, &t.CreatedAt)
	return t, err
}

func (r *transactionRepo) Create(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, tenant_slug, account_number, external_ref, source, direction, amount_pence, status, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	`
	_, err := r.db.Exec(ctx, query, txn.ID, txn.UserID, txn.TenantSlug, txn.AccountNumber, txn.ExternalRef, txn.Source, txn.Direction, txn.AmountPence, txn.Status, txn.OccurredAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReference
		}
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// CreateIfAbsent inserts a ledger entry unless its external reference is already known
func (r *transactionRepo) CreateIfAbsent(ctx context.Context, txn *models.Transaction) (bool, error) {
	query := `
		INSERT INTO transactions (id, user_id, tenant_slug, account_number, external_ref, source, direction, amount_pence, status, occurred_at, raw, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (external_ref) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, txn.ID, txn.UserID, txn.TenantSlug, txn.AccountNumber, txn.ExternalRef, txn.Source, txn.Direction, txn.AmountPence, txn.Status, txn.OccurredAt, txn.Raw)
	if err != nil {
		return false, fmt.Errorf("import transaction: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *transactionRepo) GetByExternalRef(ctx context.Context, externalRef string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE external_ref = $1`
	txn, err := scanTransaction(r.db.QueryRow(ctx, query, externalRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NotFoundError("transaction")
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return txn, nil
}

// List returns the account's transactions, newest first
func (r *transactionRepo) List(ctx context.Context, key models.AccountKey, filters *models.TransactionFilters) ([]*models.Transaction, error) {
	conditions := []string{"user_id = $1", "tenant_slug = $2", "account_number = $3"}
	args := []interface{}{key.UserID, key.TenantSlug, key.AccountNumber}

	if filters == nil {
		filters = &models.TransactionFilters{}
	}
	if filters.Source != nil {
		args = append(args, *filters.Source)
		conditions = append(conditions, fmt.Sprintf("source = $%d", len(args)))
	}
	if filters.Status != nil {
		args = append(args, *filters.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filters.From != nil {
		args = append(args, *filters.From)
		conditions = append(conditions, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	if filters.To != nil {
		args = append(args, *filters.To)
		conditions = append(conditions, fmt.Sprintf("occurred_at <= $%d", len(args)))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY occurred_at DESC`
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}
