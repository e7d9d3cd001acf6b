package postgres

import (
	"context"
	"fmt"
	"iter"

	"loyalty-engine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository. The table is
// append-only: no update or delete statements exist here.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create appends a ledger entry within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, account_id, delta, type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.AccountID, t.Delta, t.Type, t.Description, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// StreamByAccount lazily yields an account's ledger oldest-to-newest, scanning
// rows as the consumer advances. Ranging over the sequence again re-runs the
// query from the start.
func (r *TransactionRepo) StreamByAccount(ctx context.Context, accountID uuid.UUID) iter.Seq2[domain.Transaction, error] {
	query := `SELECT id, account_id, delta, type, description, created_at
		FROM transactions WHERE account_id = $1 ORDER BY created_at ASC, id ASC`

	return func(yield func(domain.Transaction, error) bool) {
		rows, err := r.pool.Query(ctx, query, accountID)
		if err != nil {
			yield(domain.Transaction{}, fmt.Errorf("stream transactions: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			t := domain.Transaction{}
			if err := rows.Scan(&t.ID, &t.AccountID, &t.Delta, &t.Type, &t.Description, &t.CreatedAt); err != nil {
				yield(domain.Transaction{}, fmt.Errorf("scan transaction row: %w", err))
				return
			}
			if !yield(t, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(domain.Transaction{}, fmt.Errorf("iterate transaction rows: %w", err))
		}
	}
}

// SumDeltas returns the sum of all deltas for an account. Equal to the stored
// balance whenever the ledger is consistent.
func (r *TransactionRepo) SumDeltas(ctx context.Context, accountID uuid.UUID) (int64, error) {
	query := `SELECT COALESCE(SUM(delta), 0) FROM transactions WHERE account_id = $1`

	var sum int64
	if err := r.pool.QueryRow(ctx, query, accountID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum transaction deltas: %w", err)
	}
	return sum, nil
}
