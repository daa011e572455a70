package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/recipebox/apiserver/internal/db"
	"github.com/recipebox/apiserver/types"
)

// PostgresTokenRepository handles persistence for API tokens.
type PostgresTokenRepository struct {
	db db.DBTX
}

func NewPostgresTokenRepository(conn db.DBTX) *PostgresTokenRepository {
	return &PostgresTokenRepository{db: conn}
}

func (r *PostgresTokenRepository) GetByUserID(ctx context.Context, userID int) (types.Token, error) {
	const query = `SELECT key, user_id, created_at FROM auth_tokens WHERE user_id = $1`
	return r.getOne(ctx, query, userID)
}

func (r *PostgresTokenRepository) GetByKey(ctx context.Context, key string) (types.Token, error) {
	const query = `SELECT key, user_id, created_at FROM auth_tokens WHERE key = $1`
	return r.getOne(ctx, query, key)
}

func (r *PostgresTokenRepository) getOne(ctx context.Context, query string, arg any) (types.Token, error) {
	var token types.Token
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&token.Key, &token.UserID, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Token{}, ErrNotFound
		}
		return types.Token{}, err
	}
	return token, nil
}

// Create stores a new token. It returns ErrConflict when the user already
// has one.
func (r *PostgresTokenRepository) Create(ctx context.Context, token types.Token) (types.Token, error) {
	token.CreatedAt = time.Now()

	const query = `INSERT INTO auth_tokens (key, user_id, created_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, token.Key, token.UserID, token.CreatedAt); err != nil {
		return types.Token{}, translateError(err)
	}
	return token, nil
}
