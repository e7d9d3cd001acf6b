package postgres

import (
	"context"
	"testing"
	"time"

	"loyalty-engine/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedemptionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRedemptionRepo(mock)
	code := "TNG5-AB12-CD34"
	red := &domain.Redemption{
		ID:          uuid.New(),
		AccountID:   uuid.New(),
		RewardID:    2,
		RewardName:  "RM5 TNG eWallet Credit",
		PointsSpent: 50,
		VoucherCode: &code,
		CreatedAt:   time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO redemptions").
		WithArgs(red.ID, red.AccountID, red.RewardID, red.RewardName, red.PointsSpent, red.VoucherCode, red.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), red))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedemptionRepo_ListByAccount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRedemptionRepo(mock)
	accountID := uuid.New()
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"id", "account_id", "reward_id", "reward_name", "points_spent", "voucher_code", "created_at"}).
		AddRow(uuid.New(), accountID, int64(1), "Reusable Tote Bag", int64(20), (*string)(nil), now).
		AddRow(uuid.New(), accountID, int64(2), "RM5 TNG eWallet Credit", int64(50), ptr("TNG5-0001"), now.Add(-time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM redemptions").
		WithArgs(accountID).
		WillReturnRows(rows)

	redemptions, err := repo.ListByAccount(context.Background(), accountID)
	require.NoError(t, err)
	require.Len(t, redemptions, 2)
	assert.Equal(t, "Reusable Tote Bag", redemptions[0].RewardName)
	assert.Nil(t, redemptions[0].VoucherCode)
	require.NotNil(t, redemptions[1].VoucherCode)
	assert.Equal(t, "TNG5-0001", *redemptions[1].VoucherCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func ptr(s string) *string { return &s }
