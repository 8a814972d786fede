package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"portal/internal/common"
	"portal/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type LedgerRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    LedgerRepository
	userID  uuid.UUID
	ref     string
	now     time.Time
	context context.Context
}

func (suite *LedgerRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewLedgerRepo(mock)
	suite.userID = uuid.New()
	suite.ref = "PAY-1700000000000-abc12345"
	suite.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.context = context.Background()
}

func (suite *LedgerRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestLedgerRepoTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerRepoTestSuite))
}

func (suite *LedgerRepoTestSuite) transactionRows(status string, amount int64) *pgxmock.Rows {
	ref := suite.ref
	return pgxmock.NewRows([]string{"id", "user_id", "tenant_slug", "account_number", "external_ref", "source", "direction", "amount_pence", "status", "occurred_at", "raw", "created_at"}).
		AddRow(uuid.New(), suite.userID, "rcpmanagement", "HRZ001234", &ref, models.SourceGateway, models.DirectionCredit, amount, status, suite.now, json.RawMessage(`{}`), suite.now)
}

func (suite *LedgerRepoTestSuite) key() models.AccountKey {
	return models.AccountKey{UserID: suite.userID, TenantSlug: "rcpmanagement", AccountNumber: "HRZ001234"}
}

func (suite *LedgerRepoTestSuite) TestApplyCallback_ConfirmedReducesPriorBalance() {
	raw := json.RawMessage(`{"status":"CONFIRMED"}`)
	key := suite.key()

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`UPDATE transactions`).
		WithArgs(models.TransactionConfirmed, raw, suite.ref).
		WillReturnRows(suite.transactionRows(models.TransactionConfirmed, 5000))
	suite.mock.ExpectExec(`pg_advisory_xact_lock`).
		WithArgs(key.String()).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	suite.mock.ExpectQuery(`FROM balance_snapshots`).
		WithArgs(key.UserID, key.TenantSlug, key.AccountNumber).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "tenant_slug", "account_number", "amount_pence", "taken_at"}).
			AddRow(uuid.New(), key.UserID, key.TenantSlug, key.AccountNumber, int64(125000), suite.now.Add(-time.Hour)))
	suite.mock.ExpectExec(`INSERT INTO balance_snapshots`).
		WithArgs(pgxmock.AnyArg(), key.UserID, key.TenantSlug, key.AccountNumber, int64(120000), suite.now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()

	outcome, err := suite.repo.ApplyCallback(suite.context, suite.ref, models.TransactionConfirmed, raw, suite.now)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), outcome.Duplicate)
	assert.Equal(suite.T(), models.TransactionConfirmed, outcome.Transaction.Status)
	if assert.NotNil(suite.T(), outcome.Snapshot) {
		assert.Equal(suite.T(), int64(120000), outcome.Snapshot.AmountPence)
	}
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *LedgerRepoTestSuite) TestApplyCallback_ConfirmedWithoutSnapshotStartsAtZero() {
	raw := json.RawMessage(`{}`)
	key := suite.key()

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`UPDATE transactions`).
		WithArgs(models.TransactionConfirmed, raw, suite.ref).
		WillReturnRows(suite.transactionRows(models.TransactionConfirmed, 2500))
	suite.mock.ExpectExec(`pg_advisory_xact_lock`).
		WithArgs(key.String()).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	suite.mock.ExpectQuery(`FROM balance_snapshots`).
		WithArgs(key.UserID, key.TenantSlug, key.AccountNumber).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "tenant_slug", "account_number", "amount_pence", "taken_at"}))
	suite.mock.ExpectExec(`INSERT INTO balance_snapshots`).
		WithArgs(pgxmock.AnyArg(), key.UserID, key.TenantSlug, key.AccountNumber, int64(-2500), suite.now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()

	outcome, err := suite.repo.ApplyCallback(suite.context, suite.ref, models.TransactionConfirmed, raw, suite.now)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(-2500), outcome.Snapshot.AmountPence)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *LedgerRepoTestSuite) TestApplyCallback_FailedLeavesBalance() {
	raw := json.RawMessage(`{"status":"FAILED"}`)

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`UPDATE transactions`).
		WithArgs(models.TransactionFailed, raw, suite.ref).
		WillReturnRows(suite.transactionRows(models.TransactionFailed, 5000))
	suite.mock.ExpectCommit()

	outcome, err := suite.repo.ApplyCallback(suite.context, suite.ref, models.TransactionFailed, raw, suite.now)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), outcome.Snapshot)
	assert.False(suite.T(), outcome.Duplicate)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *LedgerRepoTestSuite) TestApplyCallback_AlreadyTerminalIsDuplicate() {
	raw := json.RawMessage(`{}`)

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`UPDATE transactions`).
		WithArgs(models.TransactionConfirmed, raw, suite.ref).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	suite.mock.ExpectQuery(`SELECT .* FROM transactions WHERE external_ref`).
		WithArgs(suite.ref).
		WillReturnRows(suite.transactionRows(models.TransactionConfirmed, 5000))
	suite.mock.ExpectRollback()

	outcome, err := suite.repo.ApplyCallback(suite.context, suite.ref, models.TransactionConfirmed, raw, suite.now)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), outcome.Duplicate)
	assert.Nil(suite.T(), outcome.Snapshot)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *LedgerRepoTestSuite) TestApplyCallback_SnapshotOrderedAfterPrior() {
	raw := json.RawMessage(`{"status":"CONFIRMED"}`)
	key := suite.key()
	priorAt := suite.now.Add(time.Second)

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`UPDATE transactions`).
		WithArgs(models.TransactionConfirmed, raw, suite.ref).
		WillReturnRows(suite.transactionRows(models.TransactionConfirmed, 5000))
	suite.mock.ExpectExec(`pg_advisory_xact_lock`).
		WithArgs(key.String()).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	suite.mock.ExpectQuery(`FROM balance_snapshots`).
		WithArgs(key.UserID, key.TenantSlug, key.AccountNumber).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "tenant_slug", "account_number", "amount_pence", "taken_at"}).
			AddRow(uuid.New(), key.UserID, key.TenantSlug, key.AccountNumber, int64(10000), priorAt))
	suite.mock.ExpectExec(`INSERT INTO balance_snapshots`).
		WithArgs(pgxmock.AnyArg(), key.UserID, key.TenantSlug, key.AccountNumber, int64(5000), priorAt.Add(time.Microsecond)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()

	outcome, err := suite.repo.ApplyCallback(suite.context, suite.ref, models.TransactionConfirmed, raw, suite.now)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), outcome.Snapshot.TakenAt.After(priorAt))
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *LedgerRepoTestSuite) TestApplyCallback_UnknownReference() {
	raw := json.RawMessage(`{}`)

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`UPDATE transactions`).
		WithArgs(models.TransactionConfirmed, raw, "PAY-unknown").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	suite.mock.ExpectQuery(`SELECT .* FROM transactions WHERE external_ref`).
		WithArgs("PAY-unknown").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	suite.mock.ExpectRollback()

	_, err := suite.repo.ApplyCallback(suite.context, "PAY-unknown", models.TransactionConfirmed, raw, suite.now)
	assert.True(suite.T(), errors.Is(err, common.ErrNotFound))
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *LedgerRepoTestSuite) TestApplyCallback_BeginFails() {
	suite.mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	_, err := suite.repo.ApplyCallback(suite.context, suite.ref, models.TransactionConfirmed, nil, suite.now)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "pool exhausted")
}
