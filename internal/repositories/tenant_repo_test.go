package repositories

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"portal/internal/common"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type TenantRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     TenantRepository
	messages TenantMessageRepository
	context  context.Context
}

func (suite *TenantRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock
	suite.repo = NewTenantRepo(mock)
	suite.messages = NewTenantMessageRepo(mock)
	suite.context = context.Background()
}

func (suite *TenantRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestTenantRepoTestSuite(t *testing.T) {
	suite.Run(t, new(TenantRepoTestSuite))
}

func (suite *TenantRepoTestSuite) TestGetBySlug_Found() {
	suite.mock.ExpectQuery(`FROM tenants`).
		WithArgs("rcpgroup").
		WillReturnRows(pgxmock.NewRows([]string{"id", "slug", "name", "support_email", "support_phone", "bank_details", "theme", "created_at"}).
			AddRow(uuid.New(), "rcpgroup", "RCP Group", "help@rcpgroup.example", "0100 000 0000", "Sort 00-00-00", json.RawMessage(`{"primary":"#123"}`), time.Now()))

	tenant, err := suite.repo.GetBySlug(suite.context, "rcpgroup")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "RCP Group", tenant.Name)
	assert.JSONEq(suite.T(), `{"primary":"#123"}`, string(tenant.Theme))
}

func (suite *TenantRepoTestSuite) TestGetBySlug_Unknown() {
	suite.mock.ExpectQuery(`FROM tenants`).
		WithArgs("acme").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := suite.repo.GetBySlug(suite.context, "acme")
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *TenantRepoTestSuite) TestListByTenant_ActiveOnly() {
	suite.mock.ExpectQuery(`FROM tenant_messages`).
		WithArgs("rcpproperty", true).
		WillReturnRows(pgxmock.NewRows([]string{"id", "tenant_slug", "content", "is_active", "updated_at"}).
			AddRow(uuid.New(), "rcpproperty", "<p>Limits apply</p>", true, time.Now()))

	messages, err := suite.messages.ListByTenant(suite.context, "rcpproperty", true)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), messages, 1)
	assert.True(suite.T(), messages[0].IsActive)
}
