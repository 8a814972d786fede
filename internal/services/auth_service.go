package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"portal/internal/caching"
	"portal/internal/common"
	"portal/internal/models"
	"portal/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthService handles email verification against the account directory and sign-in
type AuthService interface {
	VerifyEmail(ctx context.Context, email string) (*VerifyEmailResult, error)
	SignIn(ctx context.Context, email, pendingToken string) (*SignInResult, error)
}

type authService struct {
	userRepo   repositories.UserRepository
	linkRepo   repositories.AccountLinkRepository
	cacheSvc   caching.CacheService
	directory  AccountDirectory
	sessions   SessionService
	adminEmail string
	pendingTTL time.Duration
	logger     *zap.Logger
}

// VerifyEmailResult carries the verified accounts and the token that refers to them until sign-in
type VerifyEmailResult struct {
	Accounts     []models.DirectoryAccount
	PendingToken string
}

// SignInResult carries everything the handler needs to set cookies
type SignInResult struct {
	User               *models.User
	Session            *models.Session
	SessionToken       string
	ActiveAccount      *models.ActiveAccount
	ActiveAccountToken string
	LinkedAccounts     int
}

func NewAuthService(
	userRepo repositories.UserRepository,
	linkRepo repositories.AccountLinkRepository,
	cacheSvc caching.CacheService,
	directory AccountDirectory,
	sessions SessionService,
	adminEmail string,
	pendingTTL time.Duration,
	logger *zap.Logger,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		linkRepo:   linkRepo,
		cacheSvc:   cacheSvc,
		directory:  directory,
		sessions:   sessions,
		adminEmail: strings.ToLower(adminEmail),
		pendingTTL: pendingTTL,
		logger:     logger,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", common.ValidationError("email is required")
	}
	if !emailPattern.MatchString(email) {
		return "", common.ValidationError("invalid email format")
	}
	return email, nil
}

func (s *authService) VerifyEmail(ctx context.Context, email string) (*VerifyEmailResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	result, err := s.directory.VerifyEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("verify email: %w", err)
	}
	if !result.Exists || len(result.Accounts) == 0 {
		return nil, &common.ServiceError{Kind: common.ErrNotFound, Message: "email not found in account directory"}
	}

	token := uuid.NewString()
	pending := &caching.PendingAccounts{Email: email, Accounts: result.Accounts}
	if err := s.cacheSvc.SetPendingAccounts(ctx, token, pending, s.pendingTTL); err != nil {
		return nil, fmt.Errorf("store pending accounts: %w", err)
	}

	return &VerifyEmailResult{Accounts: result.Accounts, PendingToken: token}, nil
}

func (s *authService) findOrCreateUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	role := models.RoleUser
	if email == s.adminEmail {
		role = models.RoleAdmin
	}
	name := strings.SplitN(email, "@", 2)[0]
	user = &models.User{
		ID:        uuid.New(),
		Email:     email,
		Name:      &name,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrConflict) {
			// created concurrently by another sign-in
			return s.userRepo.GetByEmail(ctx, email)
		}
		return nil, err
	}
	s.logger.Info("user created on first sign-in", zap.String("user_id", user.ID.String()), zap.String("role", role))
	return user, nil
}

// takePendingAccounts consumes the pending set; a set verified for another email is discarded
func (s *authService) takePendingAccounts(ctx context.Context, token, email string) []models.DirectoryAccount {
	if token == "" {
		return nil
	}
	pending, err := s.cacheSvc.TakePendingAccounts(ctx, token)
	if err != nil {
		s.logger.Warn("failed to read pending accounts", zap.Error(err))
		return nil
	}
	if pending == nil {
		return nil
	}
	if pending.Email != email {
		s.logger.Warn("pending accounts were verified for a different email, ignoring them")
		return nil
	}
	return pending.Accounts
}

// SignIn resolves the user, links any pending verified accounts and picks the active account
func (s *authService) SignIn(ctx context.Context, email, pendingToken string) (*SignInResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := s.findOrCreateUser(ctx, email)
	if err != nil {
		return nil, err
	}

	result := &SignInResult{User: user}

	pending := s.takePendingAccounts(ctx, pendingToken, email)

	if len(pending) > 0 {
		for _, account := range pending {
			address := account.PropertyAddress
			created, err := s.linkRepo.Create(ctx, &models.UserAccountLink{
				ID:              uuid.New(),
				UserID:          user.ID,
				TenantSlug:      account.TenantSlug,
				AccountNumber:   account.AccountNumber,
				PropertyAddress: &address,
			})
			if err != nil {
				return nil, err
			}
			if created {
				result.LinkedAccounts++
			}
		}
		first := pending[0]
		result.ActiveAccount = &models.ActiveAccount{
			AccountNumber:   first.AccountNumber,
			TenantSlug:      first.TenantSlug,
			PropertyAddress: first.PropertyAddress,
		}
	} else {
		links, err := s.linkRepo.ListByUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if len(links) > 0 {
			result.ActiveAccount = activeAccountFromLink(links[0])
		}
	}

	result.SessionToken, result.Session, err = s.sessions.IssueSession(user)
	if err != nil {
		return nil, err
	}
	if result.ActiveAccount != nil {
		result.ActiveAccountToken, err = s.sessions.IssueActiveAccount(result.ActiveAccount)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func activeAccountFromLink(link *models.UserAccountLink) *models.ActiveAccount {
	return &models.ActiveAccount{
		AccountNumber:   link.AccountNumber,
		TenantSlug:      link.TenantSlug,
		PropertyAddress: common.SafeString(link.PropertyAddress),
	}
}
