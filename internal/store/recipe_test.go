package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/recipebox/apiserver/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var recipeRowColumns = []string{
	"id", "user_id", "title", "description", "time_minutes", "price", "link", "image", "created_at", "updated_at",
}

func TestRecipeList(t *testing.T) {
	conn, mock := setupMockDB(t)
	repo := NewPostgresRecipeRepository(conn)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM recipes r")).
		WithArgs(1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(recipeRowColumns).
			AddRow(2, 1, "Second", "", 10, "3.50", "", "", now, now).
			AddRow(1, 1, "First", "desc", 22, "5.25", "https://example.com", "", now, now))

	recipes, err := repo.List(context.Background(), 1, types.RecipeFilter{TagIDs: []int{3}})
	require.NoError(t, err)
	require.Len(t, recipes, 2)
	assert.Equal(t, 2, recipes[0].ID)
	assert.True(t, decimal.RequireFromString("5.25").Equal(recipes[1].Price))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeGetForeign(t *testing.T) {
	conn, mock := setupMockDB(t)
	repo := NewPostgresRecipeRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.id = $1 AND r.user_id = $2")).
		WithArgs(5, 2).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 2, 5)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeCreate(t *testing.T) {
	conn, mock := setupMockDB(t)
	repo := NewPostgresRecipeRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO recipes")).
		WithArgs(1, "Sample title", "", 22, sqlmock.AnyArg(), "", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	recipe, err := repo.Create(context.Background(), types.Recipe{
		UserID:      1,
		Title:       "Sample title",
		TimeMinutes: 22,
		Price:       decimal.RequireFromString("5.25"),
	})
	require.NoError(t, err)
	assert.Equal(t, 9, recipe.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeUpdateScopedToOwner(t *testing.T) {
	conn, mock := setupMockDB(t)
	repo := NewPostgresRecipeRepository(conn)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $8 AND user_id = $9")).
		WithArgs("New", "", 5, sqlmock.AnyArg(), "", "", sqlmock.AnyArg(), 3, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Update(context.Background(), types.Recipe{ID: 3, UserID: 2, Title: "New", TimeMinutes: 5})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeDelete(t *testing.T) {
	conn, mock := setupMockDB(t)
	repo := NewPostgresRecipeRepository(conn)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM recipes WHERE id = $1 AND user_id = $2")).
		WithArgs(3, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 1, 3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreWithinTxRollsBack(t *testing.T) {
	conn, mock := setupMockDB(t)
	st := NewPostgresStore(conn)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM recipes")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := st.WithinTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		return repos.Recipes.Delete(ctx, 1, 3)
	})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreWithinTxCommits(t *testing.T) {
	conn, mock := setupMockDB(t)
	st := NewPostgresStore(conn)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM recipes")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := st.WithinTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		return repos.Recipes.Delete(ctx, 1, 3)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
