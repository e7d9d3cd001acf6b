package postgres

import (
	"context"
	"errors"
	"fmt"

	"loyalty-engine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a new account.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (id, external_id, display_name, contact, points, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.ExternalID, a.DisplayName, a.Contact, a.Points,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID fetches an account by its UUID (without locking).
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT id, external_id, display_name, contact, points, created_at, updated_at
		FROM accounts WHERE id = $1`

	return r.scanAccount(r.pool.QueryRow(ctx, query, id), "get account by id")
}

// GetByExternalID fetches an account by its chat-platform identity.
func (r *AccountRepo) GetByExternalID(ctx context.Context, externalID string) (*domain.Account, error) {
	query := `SELECT id, external_id, display_name, contact, points, created_at, updated_at
		FROM accounts WHERE external_id = $1`

	return r.scanAccount(r.pool.QueryRow(ctx, query, externalID), "get account by external id")
}

// GetByIDForUpdate fetches an account with pessimistic locking.
// This MUST be called within a transaction; concurrent ledger writes to the
// same account serialize on this row lock.
func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT id, external_id, display_name, contact, points, created_at, updated_at
		FROM accounts WHERE id = $1 FOR UPDATE`

	return r.scanAccount(tx.QueryRow(ctx, query, id), "get account for update")
}

// UpdatePoints sets an account's balance within a transaction.
func (r *AccountRepo) UpdatePoints(ctx context.Context, tx pgx.Tx, id uuid.UUID, points int64) error {
	query := `UPDATE accounts SET points = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, points, id)
	if err != nil {
		return fmt.Errorf("update account points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", id)
	}
	return nil
}

// TopByPoints returns the highest-balance accounts, authoritative leaderboard.
func (r *AccountRepo) TopByPoints(ctx context.Context, limit int) ([]domain.Account, error) {
	query := `SELECT id, external_id, display_name, contact, points, created_at, updated_at
		FROM accounts ORDER BY points DESC, id ASC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("top accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a := domain.Account{}
		err := rows.Scan(&a.ID, &a.ExternalID, &a.DisplayName, &a.Contact,
			&a.Points, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepo) scanAccount(row pgx.Row, op string) (*domain.Account, error) {
	a := &domain.Account{}
	err := row.Scan(&a.ID, &a.ExternalID, &a.DisplayName, &a.Contact,
		&a.Points, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}
