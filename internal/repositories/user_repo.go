package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"portal/internal/common"
	"portal/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, email string, name *string) error
}

type userRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, role, default_tenant_slug, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := r.db.Exec(ctx, query, user.ID, strings.ToLower(user.Email), user.Name, user.Role, user.DefaultTenantSlug)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ConflictError(fmt.Sprintf("user with email '%s' already exists", user.Email))
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, email, name, role, default_tenant_slug, created_at
		FROM users
		WHERE id = $1
	`
	return r.get(ctx, query, id)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, name, role, default_tenant_slug, created_at
		FROM users
		WHERE email = $1
	`
	return r.get(ctx, query, strings.ToLower(email))
}

func (r *userRepo) get(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.DefaultTenantSlug, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NotFoundError("user")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *userRepo) UpdateProfile(ctx context.Context, id uuid.UUID, email string, name *string) error {
	query := `
		UPDATE users
		SET email = $1, name = COALESCE($2, name)
		WHERE id = $3
	`
	tag, err := r.db.Exec(ctx, query, strings.ToLower(email), name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ConflictError("email is already in use")
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NotFoundError("user")
	}
	return nil
}
