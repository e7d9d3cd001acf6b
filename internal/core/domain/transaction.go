package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies a points movement.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT" // award from the scanning flow
	TransactionTypeRedeem TransactionType = "REDEEM" // debit for a reward
	TransactionTypeRefund TransactionType = "REFUND" // compensation for a failed redemption
)

// Transaction is an immutable ledger entry. For every account, the sum of
// deltas equals the account's current balance at all times.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	AccountID   uuid.UUID       `json:"account_id"`
	Delta       int64           `json:"delta"` // signed points change
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// IsDebit reports whether the entry removed points from the account.
func (t *Transaction) IsDebit() bool {
	return t.Delta < 0
}
