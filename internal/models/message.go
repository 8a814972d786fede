package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	DeliveryPending = "PENDING"
	DeliverySent    = "SENT"
	DeliveryFailed  = "FAILED"
)

// Message is a support message sent by a user to their tenant
type Message struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`
	TenantSlug     string          `json:"tenant_slug" db:"tenant_slug"`
	Subject        string          `json:"subject" db:"subject"`
	Body           string          `json:"body" db:"body"`
	DeliveryStatus string          `json:"delivery_status" db:"delivery_status"`
	Raw            json.RawMessage `json:"raw,omitempty" db:"raw"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
