package services

import (
	"errors"
	"fmt"
	"time"

	"portal/internal/config"
	"portal/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrSessionExpired is returned for a well-formed credential read after its expiry
var ErrSessionExpired = errors.New("session expired")

// SessionService issues and reads the signed session and active-account credentials
type SessionService interface {
	IssueSession(user *models.User) (string, *models.Session, error)
	ParseSession(token string) (*models.Session, error)
	IssueActiveAccount(account *models.ActiveAccount) (string, error)
	ParseActiveAccount(token string) (*models.ActiveAccount, error)
	TTL() time.Duration
}

type sessionService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// SessionClaims is the payload of the session cookie
type SessionClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// ActiveAccountClaims is the payload of the active account cookie
type ActiveAccountClaims struct {
	AccountNumber   string `json:"accountNumber"`
	TenantSlug      string `json:"tenantSlug"`
	PropertyAddress string `json:"propertyAddress"`
	jwt.RegisteredClaims
}

func NewSessionService(cfg config.SessionConfig) SessionService {
	return &sessionService{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		now:    time.Now,
	}
}

func (s *sessionService) TTL() time.Duration {
	return s.ttl
}

func (s *sessionService) registered(subject string) (jwt.RegisteredClaims, time.Time) {
	now := s.now()
	expires := now.Add(s.ttl)
	return jwt.RegisteredClaims{
		Issuer:    "portal",
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}, expires
}

func (s *sessionService) IssueSession(user *models.User) (string, *models.Session, error) {
	registered, expires := s.registered(user.ID.String())
	name := ""
	if user.Name != nil {
		name = *user.Name
	}
	claims := SessionClaims{
		UserID:           user.ID.String(),
		Email:            user.Email,
		Name:             name,
		Role:             user.Role,
		RegisteredClaims: registered,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session: %w", err)
	}

	return token, &models.Session{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      name,
		Role:      user.Role,
		ExpiresAt: expires.UTC(),
	}, nil
}

func (s *sessionService) parse(token string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrSessionExpired
		}
		return fmt.Errorf("invalid credential: %w", err)
	}
	return nil
}

func (s *sessionService) ParseSession(token string) (*models.Session, error) {
	claims := &SessionClaims{}
	if err := s.parse(token, claims); err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id in session: %w", err)
	}
	session := &models.Session{
		UserID: userID,
		Email:  claims.Email,
		Name:   claims.Name,
		Role:   claims.Role,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return session, nil
}

func (s *sessionService) IssueActiveAccount(account *models.ActiveAccount) (string, error) {
	registered, _ := s.registered(account.AccountNumber)
	claims := ActiveAccountClaims{
		AccountNumber:    account.AccountNumber,
		TenantSlug:       account.TenantSlug,
		PropertyAddress:  account.PropertyAddress,
		RegisteredClaims: registered,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign active account: %w", err)
	}
	return token, nil
}

func (s *sessionService) ParseActiveAccount(token string) (*models.ActiveAccount, error) {
	claims := &ActiveAccountClaims{}
	if err := s.parse(token, claims); err != nil {
		return nil, err
	}
	return &models.ActiveAccount{
		AccountNumber:   claims.AccountNumber,
		TenantSlug:      claims.TenantSlug,
		PropertyAddress: claims.PropertyAddress,
	}, nil
}
