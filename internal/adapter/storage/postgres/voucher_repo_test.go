package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func voucherColumns() []string {
	return []string{"id", "denomination", "code", "consumed", "consumed_by", "consumed_at"}
}

func TestVoucherRepo_Allocate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVoucherRepo(mock)
	accountID := uuid.New()
	consumedAt := time.Now().UTC()

	mock.ExpectQuery("UPDATE vouchers").
		WithArgs("RM5", accountID).
		WillReturnRows(pgxmock.NewRows(voucherColumns()).
			AddRow(int64(7), "RM5", "TNG5-AB12-CD34", true, &accountID, &consumedAt))

	entry, err := repo.Allocate(context.Background(), "RM5", accountID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "TNG5-AB12-CD34", entry.Code)
	assert.True(t, entry.Consumed)
	require.NotNil(t, entry.ConsumedBy)
	assert.Equal(t, accountID, *entry.ConsumedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoucherRepo_Allocate_PoolExhausted(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVoucherRepo(mock)

	mock.ExpectQuery("UPDATE vouchers").
		WithArgs("RM10", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(voucherColumns()))

	entry, err := repo.Allocate(context.Background(), "RM10", uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, entry, "exhausted pool reports nil entry, not an error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoucherRepo_BulkInsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVoucherRepo(mock)

	mock.ExpectExec("INSERT INTO vouchers").
		WithArgs("RM5", "TNG5-0001").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	// Duplicate code is skipped by ON CONFLICT.
	mock.ExpectExec("INSERT INTO vouchers").
		WithArgs("RM5", "TNG5-0001").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectExec("INSERT INTO vouchers").
		WithArgs("RM5", "TNG5-0002").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	inserted, err := repo.BulkInsert(context.Background(), "RM5", []string{"TNG5-0001", "TNG5-0001", "TNG5-0002"})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoucherRepo_CountAvailable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewVoucherRepo(mock)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM vouchers").
		WithArgs("RM5").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(42)))

	count, err := repo.CountAvailable(context.Background(), "RM5")
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
