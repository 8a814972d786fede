package background

import (
	"context"
	"errors"
	"testing"
	"time"

	"portal/internal/common"
	"portal/internal/config"
	"portal/internal/models"
	"portal/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type MockLedgerSyncService struct {
	mock.Mock
}

func (m *MockLedgerSyncService) SyncAll(ctx context.Context) (*services.SyncReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SyncReport), args.Error(1)
}

func (m *MockLedgerSyncService) SyncAccount(ctx context.Context, link *models.UserAccountLink) (int, error) {
	args := m.Called(ctx, link)
	return args.Int(0), args.Error(1)
}

func TestNewJobSchedulerRegistersLedgerSync(t *testing.T) {
	js, err := NewJobScheduler(new(MockLedgerSyncService), config.JobsConfig{
		LedgerSyncEnabled:  true,
		LedgerSyncInterval: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)

	status := js.GetJobStatus()
	assert.Equal(t, 1, status["total_jobs"])
	assert.Equal(t, []string{ledgerSyncJobName}, status["jobs"])
	assert.NotContains(t, status, "ledger_sync")
}

func TestNewJobSchedulerDisabledLedgerSync(t *testing.T) {
	js, err := NewJobScheduler(new(MockLedgerSyncService), config.JobsConfig{
		LedgerSyncEnabled:  false,
		LedgerSyncInterval: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 0, js.GetJobStatus()["total_jobs"])
}

func TestRemoveJob(t *testing.T) {
	js, err := NewJobScheduler(new(MockLedgerSyncService), config.JobsConfig{
		LedgerSyncEnabled:  true,
		LedgerSyncInterval: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, js.RemoveJob(ledgerSyncJobName))
	assert.Equal(t, 0, js.GetJobStatus()["total_jobs"])
	assert.ErrorIs(t, js.RemoveJob(ledgerSyncJobName), common.ErrNotFound)
}

func TestRunJobTriggersLedgerSync(t *testing.T) {
	ledgerSync := new(MockLedgerSyncService)
	ledgerSync.On("SyncAll", mock.Anything).Return(&services.SyncReport{Accounts: 1, Imported: 2}, nil).Once()

	js, err := NewJobScheduler(ledgerSync, config.JobsConfig{
		LedgerSyncEnabled:  true,
		LedgerSyncInterval: time.Hour,
	}, zap.NewNop())
	require.NoError(t, err)
	js.Start()
	defer func() { _ = js.Stop() }()

	require.NoError(t, js.RunJob(ledgerSyncJobName))
	assert.Eventually(t, func() bool {
		_, done := js.GetJobStatus()["ledger_sync"]
		return done
	}, 2*time.Second, 10*time.Millisecond)
	ledgerSync.AssertExpectations(t)
}

func TestRunJobUnknownName(t *testing.T) {
	js, err := NewJobScheduler(new(MockLedgerSyncService), config.JobsConfig{}, zap.NewNop())
	require.NoError(t, err)

	assert.ErrorIs(t, js.RunJob("missing"), common.ErrNotFound)
}

func TestSyncLedgersRecordsReport(t *testing.T) {
	ledgerSync := new(MockLedgerSyncService)
	ledgerSync.On("SyncAll", mock.Anything).Return(&services.SyncReport{Accounts: 3, Imported: 5, Failed: 1}, nil).Once()

	core, logs := observer.New(zap.InfoLevel)
	js, err := NewJobScheduler(ledgerSync, config.JobsConfig{}, zap.New(core))
	require.NoError(t, err)

	js.syncLedgers(context.Background())

	ledgerSync.AssertExpectations(t)
	entries := logs.FilterMessage("ledger sync completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)

	summary, ok := js.GetJobStatus()["ledger_sync"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 5, summary["imported"])
	assert.Equal(t, 1, summary["failed"])
}

func TestSyncLedgersKeepsPreviousReportOnError(t *testing.T) {
	ledgerSync := new(MockLedgerSyncService)
	ledgerSync.On("SyncAll", mock.Anything).Return(nil, errors.New("list links: connection reset")).Once()

	core, logs := observer.New(zap.InfoLevel)
	js, err := NewJobScheduler(ledgerSync, config.JobsConfig{}, zap.New(core))
	require.NoError(t, err)

	js.syncLedgers(context.Background())

	ledgerSync.AssertExpectations(t)
	assert.Equal(t, 1, logs.FilterMessage("ledger sync failed").Len())
	assert.NotContains(t, js.GetJobStatus(), "ledger_sync")
}
