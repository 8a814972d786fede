package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"portal/internal/common"
	"portal/internal/models"
	"portal/internal/repositories"

	"github.com/google/uuid"
)

const recentTransactionsLimit = 10

// AccountService covers linked accounts, the active selection and the balance views
type AccountService interface {
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]*models.UserAccountLink, error)
	SwitchAccount(ctx context.Context, userID uuid.UUID, req *SwitchAccountRequest) (*models.ActiveAccount, string, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) error
	ResolveActiveLink(ctx context.Context, userID uuid.UUID, tenantSlug string, selected *models.ActiveAccount) (*models.UserAccountLink, error)
	Balance(ctx context.Context, userID uuid.UUID, tenantSlug string, selected *models.ActiveAccount) (*BalanceView, error)
	Transactions(ctx context.Context, userID uuid.UUID, tenantSlug string, selected *models.ActiveAccount, filters *models.TransactionFilters) (*TransactionsView, error)
}

type accountService struct {
	userRepo    repositories.UserRepository
	linkRepo    repositories.AccountLinkRepository
	balanceRepo repositories.BalanceRepository
	txnRepo     repositories.TransactionRepository
	sessions    SessionService
}

type SwitchAccountRequest struct {
	AccountNumber   string `json:"accountNumber"`
	TenantSlug      string `json:"tenantSlug"`
	PropertyAddress string `json:"propertyAddress"`
}

type UpdateProfileRequest struct {
	Email string `json:"email" form:"email"`
	Name  string `json:"name" form:"name"`
}

// BalanceView is the account-balance page model
type BalanceView struct {
	Account      *models.UserAccountLink `json:"account"`
	BalancePence int64                   `json:"balance_pence"`
	AsOf         *time.Time              `json:"as_of"`
	Recent       []*models.Transaction   `json:"recent_transactions"`
}

// TransactionsView is the transactions page model
type TransactionsView struct {
	Account      *models.UserAccountLink `json:"account"`
	Transactions []*models.Transaction   `json:"transactions"`
}

func NewAccountService(
	userRepo repositories.UserRepository,
	linkRepo repositories.AccountLinkRepository,
	balanceRepo repositories.BalanceRepository,
	txnRepo repositories.TransactionRepository,
	sessions SessionService,
) AccountService {
	return &accountService{
		userRepo:    userRepo,
		linkRepo:    linkRepo,
		balanceRepo: balanceRepo,
		txnRepo:     txnRepo,
		sessions:    sessions,
	}
}

func (s *accountService) ListAccounts(ctx context.Context, userID uuid.UUID) ([]*models.UserAccountLink, error) {
	return s.linkRepo.ListByUser(ctx, userID)
}

// SwitchAccount selects one of the user's own linked accounts
func (s *accountService) SwitchAccount(ctx context.Context, userID uuid.UUID, req *SwitchAccountRequest) (*models.ActiveAccount, string, error) {
	accountNumber := strings.TrimSpace(req.AccountNumber)
	tenantSlug := strings.TrimSpace(req.TenantSlug)
	if accountNumber == "" || tenantSlug == "" {
		return nil, "", common.ValidationError("account number and tenant slug are required")
	}

	link, err := s.linkRepo.Get(ctx, userID, tenantSlug, accountNumber)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, "", common.ForbiddenError("account is not linked to this user")
		}
		return nil, "", err
	}

	account := activeAccountFromLink(link)
	if req.PropertyAddress != "" {
		account.PropertyAddress = req.PropertyAddress
	}
	token, err := s.sessions.IssueActiveAccount(account)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

func (s *accountService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) error {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}
	return s.userRepo.UpdateProfile(ctx, userID, email, common.StringPtr(strings.TrimSpace(req.Name)))
}

// ResolveActiveLink returns the selected account when it belongs to tenantSlug, else the user's first link there
func (s *accountService) ResolveActiveLink(ctx context.Context, userID uuid.UUID, tenantSlug string, selected *models.ActiveAccount) (*models.UserAccountLink, error) {
	if selected != nil && selected.TenantSlug == tenantSlug {
		link, err := s.linkRepo.Get(ctx, userID, tenantSlug, selected.AccountNumber)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
	}

	link, err := s.linkRepo.FirstForTenant(ctx, userID, tenantSlug)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, &common.ServiceError{Kind: common.ErrNotFound, Message: "no linked account for this tenant; choose one with the account switcher"}
		}
		return nil, err
	}
	return link, nil
}

func linkKey(link *models.UserAccountLink) models.AccountKey {
	return models.AccountKey{UserID: link.UserID, TenantSlug: link.TenantSlug, AccountNumber: link.AccountNumber}
}

func (s *accountService) Balance(ctx context.Context, userID uuid.UUID, tenantSlug string, selected *models.ActiveAccount) (*BalanceView, error) {
	link, err := s.ResolveActiveLink(ctx, userID, tenantSlug, selected)
	if err != nil {
		return nil, err
	}
	key := linkKey(link)

	view := &BalanceView{Account: link}
	snapshot, err := s.balanceRepo.Latest(ctx, key)
	if err != nil {
		return nil, err
	}
	if snapshot != nil {
		view.BalancePence = snapshot.AmountPence
		view.AsOf = &snapshot.TakenAt
	}

	view.Recent, err = s.txnRepo.List(ctx, key, &models.TransactionFilters{Limit: recentTransactionsLimit})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *accountService) Transactions(ctx context.Context, userID uuid.UUID, tenantSlug string, selected *models.ActiveAccount, filters *models.TransactionFilters) (*TransactionsView, error) {
	link, err := s.ResolveActiveLink(ctx, userID, tenantSlug, selected)
	if err != nil {
		return nil, err
	}
	txns, err := s.txnRepo.List(ctx, linkKey(link), filters)
	if err != nil {
		return nil, err
	}
	return &TransactionsView{Account: link, Transactions: txns}, nil
}
