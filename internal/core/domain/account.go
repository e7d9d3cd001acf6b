package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is a participant's loyalty account. The external id is the opaque
// identity of the chat platform user; resolving it to an account (creating
// one on first contact) is the caller's job. Accounts are never deleted and
// the points balance is mutated only by the ledger.
type Account struct {
	ID          uuid.UUID `json:"id"`
	ExternalID  string    `json:"external_id"`
	DisplayName string    `json:"display_name"`
	Contact     string    `json:"contact,omitempty"` // phone or other contact reference
	Points      int64     `json:"points"`            // never negative
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
