package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Transaction statuses. PENDING moves to exactly one terminal status.
const (
	TransactionPending   = "PENDING"
	TransactionConfirmed = "CONFIRMED"
	TransactionFailed    = "FAILED"
)

// Transaction sources
const (
	SourceGateway   = "GATEWAY"
	SourceDirectory = "DIRECTORY"
)

// Transaction directions
const (
	DirectionCredit = "CREDIT"
	DirectionDebit  = "DEBIT"
)

type Transaction struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	TenantSlug    string          `json:"tenant_slug" db:"tenant_slug"`
	AccountNumber string          `json:"account_number" db:"account_number"`
	ExternalRef   *string         `json:"external_ref" db:"external_ref"`
	Source        string          `json:"source" db:"source"`
	Direction     string          `json:"direction" db:"direction"`
	AmountPence   int64           `json:"amount_pence" db:"amount_pence"`
	Status        string          `json:"status" db:"status"`
	OccurredAt    time.Time       `json:"occurred_at" db:"occurred_at"`
	Raw           json.RawMessage `json:"raw,omitempty" db:"raw"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// IsTerminal reports whether the transaction has left PENDING
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionConfirmed || t.Status == TransactionFailed
}

// AccountKey identifies the balance stream a transaction belongs to
func (t *Transaction) AccountKey() AccountKey {
	return AccountKey{UserID: t.UserID, TenantSlug: t.TenantSlug, AccountNumber: t.AccountNumber}
}

// TransactionFilters narrows transaction listings
type TransactionFilters struct {
	Source *string    `json:"source"`
	Status *string    `json:"status"`
	From   *time.Time `json:"from"`
	To     *time.Time `json:"to"`
	Limit  int        `json:"limit"`
}

// AccountKey is the (user, tenant, external account) triple balances are kept for
type AccountKey struct {
	UserID        uuid.UUID
	TenantSlug    string
	AccountNumber string
}

// String renders the key for lock and cache naming
func (k AccountKey) String() string {
	return k.UserID.String() + "|" + k.TenantSlug + "|" + k.AccountNumber
}

// BalanceSnapshot is an append-only point-in-time owed balance
type BalanceSnapshot struct {
	ID            uuid.UUID `json:"id" db:"id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	TenantSlug    string    `json:"tenant_slug" db:"tenant_slug"`
	AccountNumber string    `json:"account_number" db:"account_number"`
	AmountPence   int64     `json:"amount_pence" db:"amount_pence"`
	TakenAt       time.Time `json:"taken_at" db:"taken_at"`
}
