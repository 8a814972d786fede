package models

import (
	"time"

	"github.com/google/uuid"
)

// FormField describes one input of a dynamic form
type FormField struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// FormDefinition is a form visible to one tenant, or to all tenants when TenantSlug is nil
type FormDefinition struct {
	ID          string      `json:"id" db:"id"`
	TenantSlug  *string     `json:"tenant_slug" db:"tenant_slug"`
	Title       string      `json:"title" db:"title"`
	Description *string     `json:"description" db:"description"`
	Fields      []FormField `json:"fields" db:"fields"`
	IsActive    bool        `json:"is_active" db:"is_active"`
}

// VisibleTo reports whether an active form can be used under tenantSlug
func (f *FormDefinition) VisibleTo(tenantSlug string) bool {
	if !f.IsActive {
		return false
	}
	return f.TenantSlug == nil || *f.TenantSlug == tenantSlug
}

type FormSubmission struct {
	ID         uuid.UUID         `json:"id" db:"id"`
	UserID     uuid.UUID         `json:"user_id" db:"user_id"`
	TenantSlug string            `json:"tenant_slug" db:"tenant_slug"`
	FormID     string            `json:"form_id" db:"form_id"`
	Payload    map[string]string `json:"payload" db:"payload"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`

	FormTitle string `json:"form_title,omitempty" db:"-"`
}
