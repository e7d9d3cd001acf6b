package service

import (
	"context"
	"fmt"
	"iter"
	"time"

	"loyalty-engine/internal/core/domain"
	"loyalty-engine/internal/core/ports"
	"loyalty-engine/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService.
type LedgerServiceImpl struct {
	accountRepo ports.AccountRepository
	txRepo      ports.TransactionRepository
	leaderboard ports.LeaderboardCache
	transactor  ports.Transactor
	log         zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl. leaderboard may be nil
// when no cache is configured.
func NewLedgerService(
	accountRepo ports.AccountRepository,
	txRepo ports.TransactionRepository,
	leaderboard ports.LeaderboardCache,
	transactor ports.Transactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		leaderboard: leaderboard,
		transactor:  transactor,
		log:         log,
	}
}

// Balance returns the account's current points balance.
func (s *LedgerServiceImpl) Balance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return 0, apperror.ErrAccountNotFound()
	}
	return account.Points, nil
}

// ApplyDelta applies a signed points change with pessimistic locking. The
// underflow check, balance update and ledger append commit as one unit.
func (s *LedgerServiceImpl) ApplyDelta(ctx context.Context, accountID uuid.UUID, delta int64, description string, kind domain.TransactionType) (int64, error) {
	// Begin database transaction
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock & get account
	account, err := s.accountRepo.GetByIDForUpdate(ctx, dbTx, accountID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("lock account: %w", err))
	}
	if account == nil {
		return 0, apperror.ErrAccountNotFound()
	}

	// Business rule: balance never goes negative
	newBalance := account.Points + delta
	if newBalance < 0 {
		return 0, apperror.ErrInsufficientPoints()
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:          uuid.New(),
		AccountID:   accountID,
		Delta:       delta,
		Type:        kind,
		Description: description,
		CreatedAt:   now,
	}

	// Persist: update account balance
	if err := s.accountRepo.UpdatePoints(ctx, dbTx, accountID, newBalance); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("update points: %w", err))
	}

	// Persist: append ledger entry
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	// Commit
	if err := dbTx.Commit(ctx); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	// Post-process: update leaderboard cache (best-effort)
	if s.leaderboard != nil {
		if err := s.leaderboard.IncrScore(ctx, accountID, delta); err != nil {
			s.log.Warn().Err(err).Str("account_id", accountID.String()).Msg("failed to update leaderboard cache")
		}
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("account_id", accountID.String()).
		Int64("delta", delta).
		Int64("new_balance", newBalance).
		Str("type", string(kind)).
		Msg("ledger delta applied")

	return newBalance, nil
}

// Credit awards points to an account. Amount must be positive.
func (s *LedgerServiceImpl) Credit(ctx context.Context, accountID uuid.UUID, amount int64, description string) (int64, error) {
	if amount <= 0 {
		return 0, apperror.ErrInvalidAmount()
	}
	return s.ApplyDelta(ctx, accountID, amount, description, domain.TransactionTypeCredit)
}

// History lazily yields the account's ledger entries oldest-to-newest.
func (s *LedgerServiceImpl) History(ctx context.Context, accountID uuid.UUID) iter.Seq2[domain.Transaction, error] {
	return s.txRepo.StreamByAccount(ctx, accountID)
}
