package repositories

import (
	"context"
	"testing"
	"time"

	"portal/internal/common"
	"portal/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type UserRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    UserRepository
	context context.Context
}

func (suite *UserRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock
	suite.repo = NewUserRepo(mock)
	suite.context = context.Background()
}

func (suite *UserRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestUserRepoTestSuite(t *testing.T) {
	suite.Run(t, new(UserRepoTestSuite))
}

func (suite *UserRepoTestSuite) TestCreate_LowercasesEmail() {
	user := &models.User{ID: uuid.New(), Email: "Jane@Example.com", Role: models.RoleUser}

	suite.mock.ExpectExec(`INSERT INTO users`).
		WithArgs(user.ID, "jane@example.com", user.Name, user.Role, user.DefaultTenantSlug).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(suite.T(), suite.repo.Create(suite.context, user))
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *UserRepoTestSuite) TestCreate_DuplicateEmailIsConflict() {
	user := &models.User{ID: uuid.New(), Email: "jane@example.com", Role: models.RoleUser}

	suite.mock.ExpectExec(`INSERT INTO users`).
		WithArgs(user.ID, user.Email, user.Name, user.Role, user.DefaultTenantSlug).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := suite.repo.Create(suite.context, user)
	assert.ErrorIs(suite.T(), err, common.ErrConflict)
}

func (suite *UserRepoTestSuite) TestGetByEmail_Found() {
	id := uuid.New()
	name := "Jane"

	suite.mock.ExpectQuery(`WHERE email = \$1`).
		WithArgs("jane@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "name", "role", "default_tenant_slug", "created_at"}).
			AddRow(id, "jane@example.com", &name, models.RoleAdmin, (*string)(nil), time.Now()))

	user, err := suite.repo.GetByEmail(suite.context, "JANE@example.com")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), id, user.ID)
	assert.True(suite.T(), user.IsAdmin())
}

func (suite *UserRepoTestSuite) TestUpdateProfile_MissingUser() {
	id := uuid.New()

	suite.mock.ExpectExec(`UPDATE users`).
		WithArgs("new@example.com", (*string)(nil), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.UpdateProfile(suite.context, id, "new@example.com", nil)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}
