package ports

import (
	"context"
	"iter"

	"loyalty-engine/internal/core/domain"

	"github.com/google/uuid"
)

// LedgerService owns every balance mutation. The underflow check, balance
// update and transaction append happen as one atomic unit; no caller can
// observe a balance without its ledger entry.
type LedgerService interface {
	Balance(ctx context.Context, accountID uuid.UUID) (int64, error)
	// ApplyDelta applies a signed points change and returns the new balance.
	// A negative delta that would take the balance below zero fails with
	// apperror.ErrInsufficientPoints and leaves the account untouched.
	ApplyDelta(ctx context.Context, accountID uuid.UUID, delta int64, description string, kind domain.TransactionType) (int64, error)
	// Credit awards points (the scanning flow); amount must be positive.
	Credit(ctx context.Context, accountID uuid.UUID, amount int64, description string) (int64, error)
	// History lazily yields the account's ledger oldest-to-newest; ranging
	// again restarts from the beginning.
	History(ctx context.Context, accountID uuid.UUID) iter.Seq2[domain.Transaction, error]
}

// RedemptionService exchanges points for one reward unit, allocating a
// voucher code when the reward demands one. The exchange either fully
// completes or is compensated back to the pre-call state before returning.
type RedemptionService interface {
	Redeem(ctx context.Context, accountID uuid.UUID, rewardID int64) (*RedemptionResult, error)
	ListRewards(ctx context.Context) ([]domain.Reward, error)
}

// RedemptionResult is what a successful redemption reports back to the caller.
type RedemptionResult struct {
	RewardName  string
	NewBalance  int64
	VoucherCode *string // set only for voucher-category rewards
}
