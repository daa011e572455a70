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

func TestTokenGetByKey(t *testing.T) {
	conn, mock := setupMockDB(t)
	repo := NewPostgresTokenRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta("FROM auth_tokens WHERE key = $1")).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"key", "user_id", "created_at"}).AddRow("abc", 4, time.Now()))

	token, err := repo.GetByKey(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 4, token.UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenGetByUserIDNotFound(t *testing.T) {
	conn, mock := setupMockDB(t)
	repo := NewPostgresTokenRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta("FROM auth_tokens WHERE user_id = $1")).
		WithArgs(4).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUserID(context.Background(), 4)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenCreateConflict(t *testing.T) {
	conn, mock := setupMockDB(t)
	repo := NewPostgresTokenRepository(conn)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO auth_tokens")).
		WithArgs("abc", 4, sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), types.Token{Key: "abc", UserID: 4})
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}
