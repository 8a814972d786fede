package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is the authenticated identity carried by the session credential
type Session struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires"`
}

// IsAdmin reports whether the session holds the ADMIN role
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// ActiveAccount is the linked account a signed-in user is currently operating against
type ActiveAccount struct {
	AccountNumber   string `json:"account_number"`
	TenantSlug      string `json:"tenant_slug"`
	PropertyAddress string `json:"property_address"`
}

// DirectoryAccount is an account returned by the external account directory
type DirectoryAccount struct {
	AccountNumber   string `json:"accountNumber"`
	TenantSlug      string `json:"tenantSlug"`
	PropertyAddress string `json:"propertyAddress"`
}

// DirectoryVerifyResult is the directory's answer to an email lookup
type DirectoryVerifyResult struct {
	Exists   bool               `json:"exists"`
	Accounts []DirectoryAccount `json:"accounts"`
}

// DirectoryAccountSummary is the directory's view of an account balance
type DirectoryAccountSummary struct {
	BalancePence   int64     `json:"balancePence"`
	LastUpdatedIso time.Time `json:"lastUpdatedIso"`
}

// DirectoryTransaction is a ledger entry held by the external directory
type DirectoryTransaction struct {
	ExternalRef string    `json:"externalRef"`
	Direction   string    `json:"direction"`
	AmountPence int64     `json:"amountPence"`
	OccurredAt  time.Time `json:"occurredAt"`
	Description string    `json:"description"`
}
