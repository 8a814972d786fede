package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"portal/internal/models"
	"portal/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// TestDB holds the database connection for integration tests
type TestDB struct {
	Pool  *pgxpool.Pool
	users []uuid.UUID
}

// SetupTestDB connects to TEST_DATABASE_URL and applies the schema. The test is skipped when the
// variable is unset. Rows created through the helpers are removed when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := database.Migrate(ctx, pool, zap.NewNop()); err != nil {
		pool.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	db := &TestDB{Pool: pool}
	t.Cleanup(func() {
		db.cleanup()
		pool.Close()
	})
	return db
}

func (db *TestDB) cleanup() {
	ctx := context.Background()
	for _, id := range db.users {
		_, _ = db.Pool.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1`, id)
		_, _ = db.Pool.Exec(ctx, `DELETE FROM balance_snapshots WHERE user_id = $1`, id)
		_, _ = db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	}
}

// SetupTestAccount creates a user linked to one account of tenantSlug
func SetupTestAccount(t *testing.T, db *TestDB, tenantSlug string) models.AccountKey {
	t.Helper()

	ctx := context.Background()
	userID := uuid.New()
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO users (id, email, name, role, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, userID, userID.String()+"@example.com", "Integration Test", models.RoleUser)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	db.users = append(db.users, userID)

	key := models.AccountKey{UserID: userID, TenantSlug: tenantSlug, AccountNumber: "ACC-" + userID.String()[:8]}
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO user_account_links (id, user_id, tenant_slug, account_number, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, uuid.New(), key.UserID, key.TenantSlug, key.AccountNumber)
	if err != nil {
		t.Fatalf("Failed to link test account: %v", err)
	}
	return key
}

// SetupTestBalance appends an opening balance snapshot for key
func SetupTestBalance(t *testing.T, db *TestDB, key models.AccountKey, amountPence int64) {
	t.Helper()

	_, err := db.Pool.Exec(context.Background(), `
		INSERT INTO balance_snapshots (id, user_id, tenant_slug, account_number, amount_pence, taken_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), key.UserID, key.TenantSlug, key.AccountNumber, amountPence, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Failed to create test balance: %v", err)
	}
}

// SetupPendingPayment creates a PENDING gateway transaction for key and returns its reference
func SetupPendingPayment(t *testing.T, db *TestDB, key models.AccountKey, amountPence int64) string {
	t.Helper()

	ref := "PAY-" + uuid.NewString()
	_, err := db.Pool.Exec(context.Background(), `
		INSERT INTO transactions (id, user_id, tenant_slug, account_number, external_ref, source, direction, amount_pence, status, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`, uuid.New(), key.UserID, key.TenantSlug, key.AccountNumber, ref,
		models.SourceGateway, models.DirectionCredit, amountPence, models.TransactionPending)
	if err != nil {
		t.Fatalf("Failed to create pending payment: %v", err)
	}
	return ref
}
