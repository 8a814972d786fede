package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Tenant struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Slug         string          `json:"slug" db:"slug"`
	Name         string          `json:"name" db:"name"`
	SupportEmail string          `json:"support_email" db:"support_email"`
	SupportPhone string          `json:"support_phone" db:"support_phone"`
	BankDetails  string          `json:"bank_details" db:"bank_details"`
	Theme        json.RawMessage `json:"theme" db:"theme"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`

	Messages []*TenantMessage `json:"messages,omitempty" db:"-"`
}

// TenantMessage is a tenant-scoped HTML announcement
type TenantMessage struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TenantSlug string    `json:"tenant_slug" db:"tenant_slug"`
	Content    string    `json:"content" db:"content"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
