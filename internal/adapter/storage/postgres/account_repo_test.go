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

func newTestAccount() *domain.Account {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Account{
		ID:          uuid.New(),
		ExternalID:  "tg:1234567",
		DisplayName: "Aina",
		Contact:     "+60123456789",
		Points:      50,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func accountColumns() []string {
	return []string{"id", "external_id", "display_name", "contact", "points", "created_at", "updated_at"}
}

func accountRow(a *domain.Account) *pgxmock.Rows {
	return pgxmock.NewRows(accountColumns()).AddRow(
		a.ID, a.ExternalID, a.DisplayName, a.Contact, a.Points, a.CreatedAt, a.UpdatedAt,
	)
}

func TestAccountRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount()

	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(a.ID, a.ExternalID, a.DisplayName, a.Contact, a.Points, a.CreatedAt, a.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), a)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount()

	mock.ExpectQuery("SELECT .+ FROM accounts WHERE id").
		WithArgs(a.ID).
		WillReturnRows(accountRow(a))

	result, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, a.ID, result.ID)
	assert.Equal(t, int64(50), result.Points)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM accounts WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(accountColumns()))

	result, err := repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_GetByExternalID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount()

	mock.ExpectQuery("SELECT .+ FROM accounts WHERE external_id").
		WithArgs(a.ExternalID).
		WillReturnRows(accountRow(a))

	result, err := repo.GetByExternalID(context.Background(), a.ExternalID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, a.ExternalID, result.ExternalID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM accounts WHERE id .+ FOR UPDATE").
		WithArgs(a.ID).
		WillReturnRows(accountRow(a))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByIDForUpdate(context.Background(), tx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, a.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_UpdatePoints(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE accounts SET points").
		WithArgs(int64(30), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdatePoints(context.Background(), tx, id, 30)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_UpdatePoints_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE accounts SET points").
		WithArgs(int64(30), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdatePoints(context.Background(), tx, id, 30)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "account not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_TopByPoints(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	first := newTestAccount()
	first.Points = 120
	second := newTestAccount()
	second.ExternalID = "tg:7654321"
	second.Points = 80

	rows := pgxmock.NewRows(accountColumns()).
		AddRow(first.ID, first.ExternalID, first.DisplayName, first.Contact, first.Points, first.CreatedAt, first.UpdatedAt).
		AddRow(second.ID, second.ExternalID, second.DisplayName, second.Contact, second.Points, second.CreatedAt, second.UpdatedAt)

	mock.ExpectQuery("SELECT .+ FROM accounts ORDER BY points DESC").
		WithArgs(10).
		WillReturnRows(rows)

	result, err := repo.TopByPoints(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, int64(120), result[0].Points)
	assert.Equal(t, int64(80), result[1].Points)
	assert.NoError(t, mock.ExpectationsWereMet())
}
