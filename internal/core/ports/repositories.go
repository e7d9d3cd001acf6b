package ports

import (
	"context"
	"iter"

	"loyalty-engine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepository defines persistence operations for loyalty accounts.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic
// row locking; only the ledger writes balances.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error)
	UpdatePoints(ctx context.Context, tx pgx.Tx, id uuid.UUID, points int64) error
	TopByPoints(ctx context.Context, limit int) ([]domain.Account, error)
}

// TransactionRepository defines persistence for the append-only ledger.
// Entries are created once and never mutated or deleted.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error
	// StreamByAccount lazily yields an account's entries oldest-to-newest.
	// Each range over the sequence re-runs the underlying query.
	StreamByAccount(ctx context.Context, accountID uuid.UUID) iter.Seq2[domain.Transaction, error]
	// SumDeltas returns the sum of all deltas for an account, for checking
	// the ledger conservation invariant against the stored balance.
	SumDeltas(ctx context.Context, accountID uuid.UUID) (int64, error)
}

// RewardRepository defines persistence for the reward catalog.
type RewardRepository interface {
	Create(ctx context.Context, reward *domain.Reward) error
	GetByID(ctx context.Context, id int64) (*domain.Reward, error)
	// List returns the catalog ordered by id ascending (stable display order).
	List(ctx context.Context) ([]domain.Reward, error)
	// DecrementStock atomically checks and decrements stock, returning false
	// when no stock remains. Two concurrent calls for the last unit must not
	// both return true.
	DecrementStock(ctx context.Context, id int64) (bool, error)
	// RestoreStock adds one unit back; compensation path only.
	RestoreStock(ctx context.Context, id int64) error
}

// VoucherRepository defines persistence for denomination code pools.
type VoucherRepository interface {
	// Allocate atomically claims the oldest unconsumed code of a denomination
	// for an account. Returns (nil, nil) when the pool is exhausted or the
	// denomination is unknown. The consumed flip is durable before return.
	Allocate(ctx context.Context, denomination string, accountID uuid.UUID) (*domain.VoucherEntry, error)
	// BulkInsert pre-loads unconsumed codes, returning how many were added.
	BulkInsert(ctx context.Context, denomination string, codes []string) (int, error)
	CountAvailable(ctx context.Context, denomination string) (int64, error)
}

// RedemptionRepository defines persistence for the redemption log.
type RedemptionRepository interface {
	Create(ctx context.Context, redemption *domain.Redemption) error
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Redemption, error)
}

// LeaderboardCache is the Redis-side points ranking. Updates are best-effort:
// the postgres TopByPoints query remains authoritative.
type LeaderboardCache interface {
	IncrScore(ctx context.Context, accountID uuid.UUID, delta int64) error
	Top(ctx context.Context, n int) ([]LeaderboardEntry, error)
}

// LeaderboardEntry is one row of the cached ranking.
type LeaderboardEntry struct {
	AccountID uuid.UUID
	Points    int64
}

// Transactor provides database transaction management.
type Transactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
