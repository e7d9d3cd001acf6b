package postgres

import (
	"context"
	"fmt"

	"loyalty-engine/internal/core/domain"

	"github.com/google/uuid"
)

// RedemptionRepo implements ports.RedemptionRepository.
type RedemptionRepo struct {
	pool Pool
}

// NewRedemptionRepo creates a new RedemptionRepo.
func NewRedemptionRepo(pool Pool) *RedemptionRepo {
	return &RedemptionRepo{pool: pool}
}

// Create records a completed redemption.
func (r *RedemptionRepo) Create(ctx context.Context, red *domain.Redemption) error {
	query := `INSERT INTO redemptions (id, account_id, reward_id, reward_name, points_spent, voucher_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		red.ID, red.AccountID, red.RewardID, red.RewardName,
		red.PointsSpent, red.VoucherCode, red.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert redemption: %w", err)
	}
	return nil
}

// ListByAccount returns an account's redemptions newest-first.
func (r *RedemptionRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Redemption, error) {
	query := `SELECT id, account_id, reward_id, reward_name, points_spent, voucher_code, created_at
		FROM redemptions WHERE account_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}
	defer rows.Close()

	var redemptions []domain.Redemption
	for rows.Next() {
		red := domain.Redemption{}
		err := rows.Scan(&red.ID, &red.AccountID, &red.RewardID, &red.RewardName,
			&red.PointsSpent, &red.VoucherCode, &red.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan redemption row: %w", err)
		}
		redemptions = append(redemptions, red)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate redemption rows: %w", err)
	}
	return redemptions, nil
}
