package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/MumuCarrot/bestpractices-bc/pkg/errors"

	"github.com/MumuCarrot/bestpractices-bc/internal/domain"
)

func newTestFixture(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewUserRepository(mock)
	return repo, mock
}

func sampleUser() *domain.User {
	return &domain.User{
		ID:           "5b2d6c60-8f14-4c44-9f25-1f7e1a0a7a01",
		Login:        "Abc123xy",
		PasswordHash: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func userColumns() []string {
	return []string{"id", "login", "password", "created_at"}
}

func userRow(u *domain.User) *pgxmock.Rows {
	return pgxmock.NewRows(userColumns()).AddRow(
		u.ID, u.Login, u.PasswordHash, u.CreatedAt,
	)
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestUserRepository_Create_Success(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.Login, u.PasswordHash, u.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), u)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateLogin(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.Login, u.PasswordHash, u.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_login_key"})

	err := repo.Create(context.Background(), u)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_OtherError(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.Login, u.PasswordHash, u.CreatedAt).
		WillReturnError(fmt.Errorf("connection reset"))

	err := repo.Create(context.Background(), u)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrAlreadyExists)
}

// ---------------------------------------------------------------------------
// FindByID / FindByLogin
// ---------------------------------------------------------------------------

func TestUserRepository_FindByID_Success(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectQuery("SELECT id, login, password, created_at").
		WithArgs(u.ID).
		WillReturnRows(userRow(u))

	got, err := repo.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Login, got.Login)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByID_NotFound(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, login, password, created_at").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.FindByID(context.Background(), "missing")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserRepository_FindByLogin_Success(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	u := sampleUser()

	mock.ExpectQuery("SELECT id, login, password, created_at").
		WithArgs(u.Login).
		WillReturnRows(userRow(u))

	got, err := repo.FindByLogin(context.Background(), u.Login)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByLogin_NotFound(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, login, password, created_at").
		WithArgs("nouser01").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.FindByLogin(context.Background(), "nouser01")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserRepository_FindByID_QueryError(t *testing.T) {
	repo, mock := newTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, login, password, created_at").
		WithArgs("u-1").
		WillReturnError(errors.New("i/o timeout"))

	got, err := repo.FindByID(context.Background(), "u-1")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}
