package postgres

import (
	"context"
	"errors"
	"fmt"

	"loyalty-engine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// VoucherRepo implements ports.VoucherRepository.
type VoucherRepo struct {
	pool Pool
}

// NewVoucherRepo creates a new VoucherRepo.
func NewVoucherRepo(pool Pool) *VoucherRepo {
	return &VoucherRepo{pool: pool}
}

// Allocate claims the oldest unconsumed code of a denomination in one
// statement: the subquery picks the lowest id still available, SKIP LOCKED
// keeps concurrent allocators from blocking on (or double-claiming) the same
// row, and the consumed flip commits before the code is returned. Returns
// (nil, nil) when the pool is exhausted or the denomination is unknown.
func (r *VoucherRepo) Allocate(ctx context.Context, denomination string, accountID uuid.UUID) (*domain.VoucherEntry, error) {
	query := `UPDATE vouchers
		SET consumed = TRUE, consumed_by = $2, consumed_at = NOW()
		WHERE id = (
			SELECT id FROM vouchers
			WHERE denomination = $1 AND NOT consumed
			ORDER BY id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, denomination, code, consumed, consumed_by, consumed_at`

	entry := &domain.VoucherEntry{}
	err := r.pool.QueryRow(ctx, query, denomination, accountID).Scan(
		&entry.ID, &entry.Denomination, &entry.Code,
		&entry.Consumed, &entry.ConsumedBy, &entry.ConsumedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("allocate voucher: %w", err)
	}
	return entry, nil
}

// BulkInsert pre-loads unconsumed codes into a denomination pool. Codes that
// already exist are skipped; the count of newly added codes is returned.
func (r *VoucherRepo) BulkInsert(ctx context.Context, denomination string, codes []string) (int, error) {
	query := `INSERT INTO vouchers (denomination, code)
		VALUES ($1, $2) ON CONFLICT (code) DO NOTHING`

	inserted := 0
	for _, code := range codes {
		tag, err := r.pool.Exec(ctx, query, denomination, code)
		if err != nil {
			return inserted, fmt.Errorf("insert voucher code: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// CountAvailable returns how many unconsumed codes a denomination has left.
func (r *VoucherRepo) CountAvailable(ctx context.Context, denomination string) (int64, error) {
	query := `SELECT COUNT(*) FROM vouchers WHERE denomination = $1 AND NOT consumed`

	var count int64
	if err := r.pool.QueryRow(ctx, query, denomination).Scan(&count); err != nil {
		return 0, fmt.Errorf("count available vouchers: %w", err)
	}
	return count, nil
}
