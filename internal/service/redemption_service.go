package service

import (
	"context"
	"fmt"
	"time"

	"loyalty-engine/internal/core/domain"
	"loyalty-engine/internal/core/ports"
	"loyalty-engine/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RedemptionServiceImpl implements ports.RedemptionService. It orchestrates
// the stock decrement, the ledger debit and the optional voucher allocation,
// compensating completed steps in reverse order when a later step fails.
type RedemptionServiceImpl struct {
	accountRepo    ports.AccountRepository
	rewardRepo     ports.RewardRepository
	voucherRepo    ports.VoucherRepository
	redemptionRepo ports.RedemptionRepository
	ledger         ports.LedgerService
	log            zerolog.Logger
}

// NewRedemptionService creates a new RedemptionServiceImpl.
func NewRedemptionService(
	accountRepo ports.AccountRepository,
	rewardRepo ports.RewardRepository,
	voucherRepo ports.VoucherRepository,
	redemptionRepo ports.RedemptionRepository,
	ledger ports.LedgerService,
	log zerolog.Logger,
) *RedemptionServiceImpl {
	return &RedemptionServiceImpl{
		accountRepo:    accountRepo,
		rewardRepo:     rewardRepo,
		voucherRepo:    voucherRepo,
		redemptionRepo: redemptionRepo,
		ledger:         ledger,
		log:            log,
	}
}

// Redeem exchanges points for one unit of a reward. On success the debit,
// the stock decrement and (for voucher rewards) the allocated code are all
// durable; on failure every completed step has been compensated.
func (s *RedemptionServiceImpl) Redeem(ctx context.Context, accountID uuid.UUID, rewardID int64) (*ports.RedemptionResult, error) {
	reward, err := s.rewardRepo.GetByID(ctx, rewardID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get reward: %w", err))
	}
	if reward == nil {
		return nil, apperror.ErrRewardNotFound()
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}

	// Optimistic pre-checks. Cheap rejections before touching any state;
	// the authoritative checks happen in DecrementStock and ApplyDelta.
	if account.Points < reward.PointsRequired {
		return nil, apperror.ErrInsufficientPoints()
	}
	if reward.Stock <= 0 {
		return nil, apperror.ErrOutOfStock()
	}

	// Step 1: claim a unit of stock. Atomic check-and-decrement; two
	// concurrent redemptions of the last unit cannot both pass.
	claimed, err := s.rewardRepo.DecrementStock(ctx, rewardID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("decrement stock: %w", err))
	}
	if !claimed {
		return nil, apperror.ErrOutOfStock()
	}

	// Step 2: debit the points. Any failure here returns the claimed unit.
	debitDesc := fmt.Sprintf("Redeemed: %s", reward.Name)
	newBalance, err := s.ledger.ApplyDelta(ctx, accountID, -reward.PointsRequired, debitDesc, domain.TransactionTypeRedeem)
	if err != nil {
		s.compensateStock(ctx, rewardID)
		return nil, err
	}

	result := &ports.RedemptionResult{
		RewardName: reward.Name,
		NewBalance: newBalance,
	}

	// Step 3: allocate a voucher code when the reward demands one. Failure
	// or exhaustion here unwinds both earlier steps.
	if reward.RequiresVoucher() {
		entry, err := s.voucherRepo.Allocate(ctx, reward.Denomination, accountID)
		if err != nil {
			s.compensateDebit(ctx, accountID, reward)
			s.compensateStock(ctx, rewardID)
			return nil, apperror.InternalError(fmt.Errorf("allocate voucher: %w", err))
		}
		if entry == nil {
			s.compensateDebit(ctx, accountID, reward)
			s.compensateStock(ctx, rewardID)
			return nil, apperror.ErrVoucherExhausted()
		}
		result.VoucherCode = &entry.Code
	}

	// Post-process: record the redemption (best-effort; the ledger already
	// holds the authoritative balance effect).
	redemption := &domain.Redemption{
		ID:          uuid.New(),
		AccountID:   accountID,
		RewardID:    rewardID,
		RewardName:  reward.Name,
		PointsSpent: reward.PointsRequired,
		VoucherCode: result.VoucherCode,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.redemptionRepo.Create(ctx, redemption); err != nil {
		s.log.Warn().Err(err).
			Str("account_id", accountID.String()).
			Int64("reward_id", rewardID).
			Msg("failed to record redemption log entry")
	}

	s.log.Info().
		Str("account_id", accountID.String()).
		Int64("reward_id", rewardID).
		Str("reward_name", reward.Name).
		Int64("points_spent", reward.PointsRequired).
		Bool("voucher", result.VoucherCode != nil).
		Msg("redemption completed")

	return result, nil
}

// ListRewards returns the catalog in stable display order.
func (s *RedemptionServiceImpl) ListRewards(ctx context.Context) ([]domain.Reward, error) {
	rewards, err := s.rewardRepo.List(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list rewards: %w", err))
	}
	return rewards, nil
}

// compensateStock returns a claimed stock unit. A failure here leaves stock
// understated, which only hides inventory; it is logged for manual repair.
func (s *RedemptionServiceImpl) compensateStock(ctx context.Context, rewardID int64) {
	if err := s.rewardRepo.RestoreStock(ctx, rewardID); err != nil {
		s.log.Error().Err(err).
			Int64("reward_id", rewardID).
			Msg("stock compensation failed, unit lost until manual repair")
	}
}

// compensateDebit refunds a completed points debit.
func (s *RedemptionServiceImpl) compensateDebit(ctx context.Context, accountID uuid.UUID, reward *domain.Reward) {
	refundDesc := fmt.Sprintf("Refund: %s", reward.Name)
	if _, err := s.ledger.ApplyDelta(ctx, accountID, reward.PointsRequired, refundDesc, domain.TransactionTypeRefund); err != nil {
		s.log.Error().Err(err).
			Str("account_id", accountID.String()).
			Int64("reward_id", reward.ID).
			Int64("points", reward.PointsRequired).
			Msg("debit compensation failed, points lost until manual repair")
	}
}
