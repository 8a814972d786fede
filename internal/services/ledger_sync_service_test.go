package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"portal/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type LedgerSyncServiceTestSuite struct {
	suite.Suite
	links     *MockAccountLinkRepository
	txns      *MockTransactionRepository
	directory *MockAccountDirectory
	service   *ledgerSyncService
	now       time.Time
	ctx       context.Context
}

func (suite *LedgerSyncServiceTestSuite) SetupTest() {
	suite.links = &MockAccountLinkRepository{}
	suite.txns = &MockTransactionRepository{}
	suite.directory = &MockAccountDirectory{}
	suite.service = NewLedgerSyncService(suite.links, suite.txns, suite.directory, zap.NewNop()).(*ledgerSyncService)
	suite.now = time.Date(2026, 5, 1, 3, 0, 0, 0, time.UTC)
	suite.service.now = func() time.Time { return suite.now }
	suite.ctx = context.Background()
}

func (suite *LedgerSyncServiceTestSuite) TearDownTest() {
	suite.links.AssertExpectations(suite.T())
	suite.txns.AssertExpectations(suite.T())
	suite.directory.AssertExpectations(suite.T())
}

func TestLedgerSyncServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerSyncServiceTestSuite))
}

func (suite *LedgerSyncServiceTestSuite) TestSyncAccount_ImportsNamespacedEntries() {
	since := suite.now.Add(-24 * time.Hour)
	link := &models.UserAccountLink{ID: uuid.New(), UserID: uuid.New(), TenantSlug: "rcpmanagement", AccountNumber: "HRZ001234", LastSyncedAt: &since}
	entries := []models.DirectoryTransaction{
		{ExternalRef: "MRI-2024-002", Direction: models.DirectionDebit, AmountPence: 5000, OccurredAt: suite.now.Add(-time.Hour)},
		{ExternalRef: "MRI-2024-003", Direction: models.DirectionDebit, AmountPence: 2500, OccurredAt: suite.now.Add(-time.Minute)},
	}

	prefix := "DIR:" + link.UserID.String() + ":rcpmanagement:HRZ001234:"

	suite.directory.On("TransactionsSince", suite.ctx, "HRZ001234", &since).Return(entries, nil)
	suite.txns.On("CreateIfAbsent", suite.ctx, mock.MatchedBy(func(t *models.Transaction) bool {
		return *t.ExternalRef == prefix+"MRI-2024-002" &&
			t.Source == models.SourceDirectory && t.Status == models.TransactionConfirmed
	})).Return(true, nil)
	suite.txns.On("CreateIfAbsent", suite.ctx, mock.MatchedBy(func(t *models.Transaction) bool {
		return *t.ExternalRef == prefix+"MRI-2024-003"
	})).Return(false, nil)
	suite.links.On("MarkSynced", suite.ctx, link.ID, suite.now).Return(nil)

	imported, err := suite.service.SyncAccount(suite.ctx, link)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, imported)
}

func (suite *LedgerSyncServiceTestSuite) TestSyncAccount_DirectoryErrorKeepsWatermark() {
	link := &models.UserAccountLink{ID: uuid.New(), AccountNumber: "HRZ001234"}
	suite.directory.On("TransactionsSince", suite.ctx, "HRZ001234", (*time.Time)(nil)).
		Return([]models.DirectoryTransaction(nil), errors.New("directory unavailable"))

	_, err := suite.service.SyncAccount(suite.ctx, link)
	assert.Error(suite.T(), err)
	suite.links.AssertNotCalled(suite.T(), "MarkSynced", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerSyncServiceTestSuite) TestSyncAll_ContinuesPastFailures() {
	ok := &models.UserAccountLink{ID: uuid.New(), TenantSlug: "rcpmanagement", AccountNumber: "A1"}
	broken := &models.UserAccountLink{ID: uuid.New(), TenantSlug: "rcpmanagement", AccountNumber: "B2"}

	suite.links.On("ListAll", suite.ctx, ledgerSyncPageSize, 0).Return([]*models.UserAccountLink{broken, ok}, nil)
	suite.directory.On("TransactionsSince", suite.ctx, "B2", (*time.Time)(nil)).
		Return([]models.DirectoryTransaction(nil), errors.New("timeout"))
	suite.directory.On("TransactionsSince", suite.ctx, "A1", (*time.Time)(nil)).
		Return([]models.DirectoryTransaction{{ExternalRef: "X", AmountPence: 100, Direction: models.DirectionCredit}}, nil)
	suite.txns.On("CreateIfAbsent", suite.ctx, mock.Anything).Return(true, nil)
	suite.links.On("MarkSynced", suite.ctx, ok.ID, suite.now).Return(nil)

	report, err := suite.service.SyncAll(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), &SyncReport{Accounts: 2, Imported: 1, Failed: 1}, report)
}

func (suite *LedgerSyncServiceTestSuite) TestSyncAll_SharedAccountImportsForEachUser() {
	first := &models.UserAccountLink{ID: uuid.New(), UserID: uuid.New(), TenantSlug: "rcpgroup", AccountNumber: "HRZ1"}
	second := &models.UserAccountLink{ID: uuid.New(), UserID: uuid.New(), TenantSlug: "rcpgroup", AccountNumber: "HRZ1"}
	entry := models.DirectoryTransaction{ExternalRef: "MRI-1", Direction: models.DirectionDebit, AmountPence: 1200, OccurredAt: suite.now.Add(-time.Hour)}

	suite.links.On("ListAll", suite.ctx, ledgerSyncPageSize, 0).Return([]*models.UserAccountLink{first, second}, nil)
	suite.directory.On("TransactionsSince", suite.ctx, "HRZ1", (*time.Time)(nil)).
		Return([]models.DirectoryTransaction{entry}, nil).Twice()

	var refs []string
	suite.txns.On("CreateIfAbsent", suite.ctx, mock.AnythingOfType("*models.Transaction")).
		Run(func(args mock.Arguments) {
			refs = append(refs, *args.Get(1).(*models.Transaction).ExternalRef)
		}).Return(true, nil).Twice()
	suite.links.On("MarkSynced", suite.ctx, first.ID, suite.now).Return(nil)
	suite.links.On("MarkSynced", suite.ctx, second.ID, suite.now).Return(nil)

	report, err := suite.service.SyncAll(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), &SyncReport{Accounts: 2, Imported: 2}, report)
	require.Len(suite.T(), refs, 2)
	assert.NotEqual(suite.T(), refs[0], refs[1])
	assert.Equal(suite.T(), directoryReference(first, "MRI-1"), refs[0])
	assert.Equal(suite.T(), directoryReference(second, "MRI-1"), refs[1])
}
