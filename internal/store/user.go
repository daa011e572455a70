package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/recipebox/apiserver/internal/db"
	"github.com/recipebox/apiserver/types"
)

const userColumns = `id, email, name, password_hash, is_active, is_staff, is_superuser, last_login, created_at, updated_at`

// PostgresUserRepository handles persistence for users.
type PostgresUserRepository struct {
	db db.DBTX
}

func NewPostgresUserRepository(conn db.DBTX) *PostgresUserRepository {
	return &PostgresUserRepository{db: conn}
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *PostgresUserRepository) getOne(ctx context.Context, query string, arg any) (types.User, error) {
	var (
		user      types.User
		lastLogin sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.IsActive,
		&user.IsStaff,
		&user.IsSuperuser,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return user, nil
}

func (r *PostgresUserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (email, name, password_hash, is_active, is_staff, is_superuser, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.IsActive,
		user.IsStaff,
		user.IsSuperuser,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, translateError(err)
	}
	return user, nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()

	const query = `
		UPDATE users
		SET email = $1,
			name = $2,
			password_hash = $3,
			is_active = $4,
			is_staff = $5,
			is_superuser = $6,
			updated_at = $7
		WHERE id = $8`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.IsActive,
		user.IsStaff,
		user.IsSuperuser,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, translateError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

func (r *PostgresUserRepository) TouchLastLogin(ctx context.Context, id int, at time.Time) error {
	const query = `UPDATE users SET last_login = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
