package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID                uuid.UUID `json:"id" db:"id"`
	Email             string    `json:"email" db:"email"`
	Name              *string   `json:"name" db:"name"`
	Role              string    `json:"role" db:"role"`
	DefaultTenantSlug *string   `json:"default_tenant_slug" db:"default_tenant_slug"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// IsAdmin reports whether the user holds the ADMIN role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserAccountLink associates a user with an external account number under a tenant
type UserAccountLink struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	TenantSlug      string     `json:"tenant_slug" db:"tenant_slug"`
	AccountNumber   string     `json:"account_number" db:"account_number"`
	PropertyAddress *string    `json:"property_address" db:"property_address"`
	LastSyncedAt    *time.Time `json:"last_synced_at,omitempty" db:"last_synced_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}
