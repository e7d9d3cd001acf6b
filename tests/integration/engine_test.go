package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"loyalty-engine/internal/core/domain"
	"loyalty-engine/internal/service"
	"loyalty-engine/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineEnv struct {
	accountRepo    *inMemoryAccountRepo
	txRepo         *inMemoryTransactionRepo
	rewardRepo     *inMemoryRewardRepo
	voucherRepo    *inMemoryVoucherRepo
	redemptionRepo *inMemoryRedemptionRepo
	leaderboard    *inMemoryLeaderboard
	ledger         *service.LedgerServiceImpl
	redemption     *service.RedemptionServiceImpl
}

func setupEngine(t *testing.T) *engineEnv {
	t.Helper()
	env := &engineEnv{
		accountRepo:    newInMemoryAccountRepo(),
		txRepo:         newInMemoryTransactionRepo(),
		rewardRepo:     newInMemoryRewardRepo(),
		voucherRepo:    newInMemoryVoucherRepo(),
		redemptionRepo: newInMemoryRedemptionRepo(),
		leaderboard:    newInMemoryLeaderboard(),
	}
	env.ledger = service.NewLedgerService(
		env.accountRepo, env.txRepo, env.leaderboard, newInMemoryTransactor(), zerolog.Nop(),
	)
	env.redemption = service.NewRedemptionService(
		env.accountRepo, env.rewardRepo, env.voucherRepo, env.redemptionRepo,
		env.ledger, zerolog.Nop(),
	)
	return env
}

func (env *engineEnv) seedAccount(t *testing.T, points int64) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	account := &domain.Account{
		ID:          uuid.New(),
		ExternalID:  fmt.Sprintf("tg:%s", uuid.NewString()[:8]),
		DisplayName: "Test User",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	require.NoError(t, env.accountRepo.Create(ctx, account))
	if points > 0 {
		_, err := env.ledger.Credit(ctx, account.ID, points, "Recycled plastic")
		require.NoError(t, err)
	}
	return account.ID
}

func (env *engineEnv) seedReward(t *testing.T, reward *domain.Reward) int64 {
	t.Helper()
	require.NoError(t, env.rewardRepo.Create(context.Background(), reward))
	return reward.ID
}

func (env *engineEnv) assertConservation(t *testing.T, accountID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	sum, err := env.txRepo.SumDeltas(ctx, accountID)
	require.NoError(t, err)
	balance, err := env.ledger.Balance(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, balance, sum, "sum of ledger deltas must equal stored balance")
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestRedeem_StandardReward_HappyPath(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	accountID := env.seedAccount(t, 50)
	rewardID := env.seedReward(t, &domain.Reward{
		Name:           "Reusable Tote Bag",
		Category:       domain.RewardCategoryStandard,
		PointsRequired: 20,
		Stock:          3,
	})

	result, err := env.redemption.Redeem(ctx, accountID, rewardID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), result.NewBalance)
	assert.Nil(t, result.VoucherCode)

	balance, err := env.ledger.Balance(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), balance)

	reward, err := env.rewardRepo.GetByID(ctx, rewardID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reward.Stock)

	// One credit, one debit in the ledger.
	var debits []domain.Transaction
	for txn, err := range env.ledger.History(ctx, accountID) {
		require.NoError(t, err)
		if txn.IsDebit() {
			debits = append(debits, txn)
		}
	}
	require.Len(t, debits, 1)
	assert.Equal(t, int64(-20), debits[0].Delta)
	assert.Equal(t, domain.TransactionTypeRedeem, debits[0].Type)

	// Redemption log written.
	redemptions, err := env.redemptionRepo.ListByAccount(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, redemptions, 1)
	assert.Equal(t, int64(20), redemptions[0].PointsSpent)

	env.assertConservation(t, accountID)
}

func TestRedeem_InsufficientPoints_NothingChanges(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	accountID := env.seedAccount(t, 10)
	rewardID := env.seedReward(t, &domain.Reward{
		Name:           "Reusable Tote Bag",
		Category:       domain.RewardCategoryStandard,
		PointsRequired: 20,
		Stock:          3,
	})

	result, err := env.redemption.Redeem(ctx, accountID, rewardID)
	assert.Nil(t, result)
	assertCode(t, err, "LED_001")

	balance, err := env.ledger.Balance(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)

	reward, err := env.rewardRepo.GetByID(ctx, rewardID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), reward.Stock)

	env.assertConservation(t, accountID)
}

func TestRedeem_OutOfStock_NoLedgerEffect(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	accountID := env.seedAccount(t, 100)
	rewardID := env.seedReward(t, &domain.Reward{
		Name:           "Bamboo Cutlery Set",
		Category:       domain.RewardCategoryStandard,
		PointsRequired: 20,
		Stock:          0,
	})

	result, err := env.redemption.Redeem(ctx, accountID, rewardID)
	assert.Nil(t, result)
	assertCode(t, err, "CAT_002")

	balance, err := env.ledger.Balance(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)

	// Only the seed credit in the ledger.
	count := 0
	for _, err := range env.ledger.History(ctx, accountID) {
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 1, count)
}

func TestRedeem_VoucherReward_AllocatesCode(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	accountID := env.seedAccount(t, 100)
	rewardID := env.seedReward(t, &domain.Reward{
		Name:           "RM5 TNG eWallet Credit",
		Category:       domain.RewardCategoryVoucher,
		PointsRequired: 50,
		Stock:          5,
		Denomination:   "RM5",
	})
	_, err := env.voucherRepo.BulkInsert(ctx, "RM5", []string{"TNG5-0001", "TNG5-0002"})
	require.NoError(t, err)

	result, err := env.redemption.Redeem(ctx, accountID, rewardID)
	require.NoError(t, err)
	require.NotNil(t, result.VoucherCode)
	assert.Equal(t, "TNG5-0001", *result.VoucherCode, "codes are allocated in load order")

	remaining, err := env.voucherRepo.CountAvailable(ctx, "RM5")
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining)

	env.assertConservation(t, accountID)
}

func TestRedeem_VoucherPoolEmpty_FullyCompensated(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	accountID := env.seedAccount(t, 100)
	rewardID := env.seedReward(t, &domain.Reward{
		Name:           "RM10 TNG eWallet Credit",
		Category:       domain.RewardCategoryVoucher,
		PointsRequired: 90,
		Stock:          5,
		Denomination:   "RM10",
	})
	// No codes loaded for RM10.

	result, err := env.redemption.Redeem(ctx, accountID, rewardID)
	assert.Nil(t, result)
	assertCode(t, err, "VCH_001")

	// Balance and stock restored.
	balance, err := env.ledger.Balance(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)

	reward, err := env.rewardRepo.GetByID(ctx, rewardID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), reward.Stock)

	// The compensation leaves a debit/refund pair in the ledger.
	var redeems, refunds int
	for txn, err := range env.ledger.History(ctx, accountID) {
		require.NoError(t, err)
		switch txn.Type {
		case domain.TransactionTypeRedeem:
			redeems++
		case domain.TransactionTypeRefund:
			refunds++
		}
	}
	assert.Equal(t, 1, redeems)
	assert.Equal(t, 1, refunds)

	env.assertConservation(t, accountID)
}

func TestRedeem_ConcurrentLastUnit_ExactlyOneWins(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	first := env.seedAccount(t, 100)
	second := env.seedAccount(t, 100)
	rewardID := env.seedReward(t, &domain.Reward{
		Name:           "Reusable Tote Bag",
		Category:       domain.RewardCategoryStandard,
		PointsRequired: 20,
		Stock:          1,
	})

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, accountID := range []uuid.UUID{first, second} {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, err := env.redemption.Redeem(ctx, id, rewardID)
			results[i] = err
		}(i, accountID)
	}
	wg.Wait()

	var successes, outOfStock int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, apperror.ErrOutOfStock()):
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes, "exactly one redemption may claim the last unit")
	assert.Equal(t, 1, outOfStock)

	reward, err := env.rewardRepo.GetByID(ctx, rewardID)
	require.NoError(t, err)
	assert.Zero(t, reward.Stock)

	env.assertConservation(t, first)
	env.assertConservation(t, second)
}

func TestRedeem_ConcurrentVouchers_UniqueCodes(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	const n = 8
	rewardID := env.seedReward(t, &domain.Reward{
		Name:           "RM5 TNG eWallet Credit",
		Category:       domain.RewardCategoryVoucher,
		PointsRequired: 50,
		Stock:          n,
		Denomination:   "RM5",
	})
	codes := make([]string, n)
	for i := range codes {
		codes[i] = fmt.Sprintf("TNG5-%04d", i+1)
	}
	_, err := env.voucherRepo.BulkInsert(ctx, "RM5", codes)
	require.NoError(t, err)

	accounts := make([]uuid.UUID, n)
	for i := range accounts {
		accounts[i] = env.seedAccount(t, 50)
	}

	var wg sync.WaitGroup
	allocated := make([]string, n)
	for i, accountID := range accounts {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			result, err := env.redemption.Redeem(ctx, id, rewardID)
			if err == nil && result.VoucherCode != nil {
				allocated[i] = *result.VoucherCode
			}
		}(i, accountID)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i, code := range allocated {
		require.NotEmpty(t, code, "redemption %d did not get a code", i)
		assert.False(t, seen[code], "code %s handed out twice", code)
		seen[code] = true
	}

	remaining, err := env.voucherRepo.CountAvailable(ctx, "RM5")
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestRedeem_ConcurrentDebits_BalanceNeverNegative(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	// Balance covers only one of the two concurrent redemptions.
	accountID := env.seedAccount(t, 30)
	rewardID := env.seedReward(t, &domain.Reward{
		Name:           "Reusable Tote Bag",
		Category:       domain.RewardCategoryStandard,
		PointsRequired: 20,
		Stock:          10,
	})

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.redemption.Redeem(ctx, accountID, rewardID)
			results[i] = err
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range results {
		if err == nil {
			successes++
		} else {
			assertCode(t, err, "LED_001")
		}
	}
	assert.Equal(t, 1, successes)

	balance, err := env.ledger.Balance(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)
	assert.GreaterOrEqual(t, balance, int64(0))

	// The loser's claimed stock unit was returned.
	reward, err := env.rewardRepo.GetByID(ctx, rewardID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), reward.Stock)

	env.assertConservation(t, accountID)
}

func TestLedger_HistoryIsRestartable(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	accountID := env.seedAccount(t, 10)
	_, err := env.ledger.Credit(ctx, accountID, 25, "Recycled metal")
	require.NoError(t, err)
	_, err = env.ledger.Credit(ctx, accountID, 5, "Recycled paper")
	require.NoError(t, err)

	history := env.ledger.History(ctx, accountID)

	// First pass: stop after the first entry.
	for txn, err := range history {
		require.NoError(t, err)
		assert.Equal(t, int64(10), txn.Delta)
		break
	}

	// Second pass over the same sequence restarts from the beginning.
	var deltas []int64
	for txn, err := range history {
		require.NoError(t, err)
		deltas = append(deltas, txn.Delta)
	}
	assert.Equal(t, []int64{10, 25, 5}, deltas)
}

func TestLeaderboard_TracksCommittedDeltas(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	first := env.seedAccount(t, 40)
	second := env.seedAccount(t, 90)

	top, err := env.leaderboard.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, second, top[0].AccountID)
	assert.Equal(t, int64(90), top[0].Points)
	assert.Equal(t, first, top[1].AccountID)
}
