package domain

import (
	"time"

	"github.com/google/uuid"
)

// Redemption records a completed points-for-reward exchange. It is written
// after the exchange commits and exists for history and support lookups; the
// authoritative balance effect lives in the transactions ledger.
type Redemption struct {
	ID          uuid.UUID `json:"id"`
	AccountID   uuid.UUID `json:"account_id"`
	RewardID    int64     `json:"reward_id"`
	RewardName  string    `json:"reward_name"`
	PointsSpent int64     `json:"points_spent"`
	VoucherCode *string   `json:"voucher_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
