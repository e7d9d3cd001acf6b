package postgres

import (
	"context"
	"errors"
	"fmt"

	"loyalty-engine/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// RewardRepo implements ports.RewardRepository.
type RewardRepo struct {
	pool Pool
}

// NewRewardRepo creates a new RewardRepo.
func NewRewardRepo(pool Pool) *RewardRepo {
	return &RewardRepo{pool: pool}
}

// Create inserts a catalog row and fills in the generated id.
func (r *RewardRepo) Create(ctx context.Context, reward *domain.Reward) error {
	query := `INSERT INTO rewards (name, description, category, points_required, stock, denomination)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		reward.Name, reward.Description, reward.Category,
		reward.PointsRequired, reward.Stock, reward.Denomination,
	).Scan(&reward.ID)
	if err != nil {
		return fmt.Errorf("insert reward: %w", err)
	}
	return nil
}

// GetByID fetches a reward by id.
func (r *RewardRepo) GetByID(ctx context.Context, id int64) (*domain.Reward, error) {
	query := `SELECT id, name, description, category, points_required, stock, denomination
		FROM rewards WHERE id = $1`

	reward := &domain.Reward{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&reward.ID, &reward.Name, &reward.Description, &reward.Category,
		&reward.PointsRequired, &reward.Stock, &reward.Denomination,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reward by id: %w", err)
	}
	return reward, nil
}

// List returns the catalog ordered by id ascending.
func (r *RewardRepo) List(ctx context.Context) ([]domain.Reward, error) {
	query := `SELECT id, name, description, category, points_required, stock, denomination
		FROM rewards ORDER BY id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []domain.Reward
	for rows.Next() {
		reward := domain.Reward{}
		err := rows.Scan(&reward.ID, &reward.Name, &reward.Description, &reward.Category,
			&reward.PointsRequired, &reward.Stock, &reward.Denomination)
		if err != nil {
			return nil, fmt.Errorf("scan reward row: %w", err)
		}
		rewards = append(rewards, reward)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reward rows: %w", err)
	}
	return rewards, nil
}

// DecrementStock atomically checks and decrements stock. The WHERE guard
// means two concurrent redemptions of the last unit cannot both succeed.
func (r *RewardRepo) DecrementStock(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE rewards SET stock = stock - 1 WHERE id = $1 AND stock > 0`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("decrement reward stock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// RestoreStock adds one unit back after a failed later step of a redemption.
func (r *RewardRepo) RestoreStock(ctx context.Context, id int64) error {
	query := `UPDATE rewards SET stock = stock + 1 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("restore reward stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reward not found: %d", id)
	}
	return nil
}
