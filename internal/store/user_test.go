package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/recipebox/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, mock
}

var userRowColumns = []string{
	"id", "email", "name", "password_hash", "is_active", "is_staff", "is_superuser", "last_login", "created_at", "updated_at",
}

func TestUserGetByEmail(t *testing.T) {
	conn, mock := setupMockDB(t)
	repo := NewPostgresUserRepository(conn)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("test@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(7, "test@example.com", "Test", "hash", true, false, false, nil, now, now))

	user, err := repo.GetByEmail(context.Background(), "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, 7, user.ID)
	assert.Equal(t, "Test", user.Name)
	assert.True(t, user.IsActive)
	assert.Nil(t, user.LastLogin)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByIDNotFound(t *testing.T) {
	conn, mock := setupMockDB(t)
	repo := NewPostgresUserRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(42).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreate(t *testing.T) {
	conn, mock := setupMockDB(t)
	repo := NewPostgresUserRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("new@example.com", "New", "hash", true, false, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	user, err := repo.Create(context.Background(), types.User{
		Email:        "new@example.com",
		Name:         "New",
		PasswordHash: "hash",
		IsActive:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	conn, mock := setupMockDB(t)
	repo := NewPostgresUserRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	_, err := repo.Create(context.Background(), types.User{Email: "dup@example.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateMissing(t *testing.T) {
	conn, mock := setupMockDB(t)
	repo := NewPostgresUserRepository(conn)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Update(context.Background(), types.User{ID: 9, Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserTouchLastLogin(t *testing.T) {
	conn, mock := setupMockDB(t)
	repo := NewPostgresUserRepository(conn)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET last_login = $1 WHERE id = $2")).
		WithArgs(at, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.TouchLastLogin(context.Background(), 5, at))
	require.NoError(t, mock.ExpectationsWereMet())
}
