package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/recipebox/apiserver/internal/db"
	"github.com/recipebox/apiserver/types"
)

// UserRepository persists user accounts. Emails are compared as stored;
// callers normalize them first.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	TouchLastLogin(ctx context.Context, id int, at time.Time) error
}

// TokenRepository persists opaque API tokens, at most one per user.
type TokenRepository interface {
	GetByUserID(ctx context.Context, userID int) (types.Token, error)
	GetByKey(ctx context.Context, key string) (types.Token, error)
	Create(ctx context.Context, token types.Token) (types.Token, error)
}

// AttributeRepository persists user-owned labels (tags or ingredients)
// and their links to recipes. Every lookup is scoped to the owner.
type AttributeRepository interface {
	GetOrCreate(ctx context.Context, userID int, name string) (types.Attribute, error)
	List(ctx context.Context, userID int, assignedOnly bool) ([]types.Attribute, error)
	Get(ctx context.Context, userID, id int) (types.Attribute, error)
	Update(ctx context.Context, attr types.Attribute) (types.Attribute, error)
	Delete(ctx context.Context, userID, id int) error
	ListByRecipes(ctx context.Context, recipeIDs []int) (map[int][]types.Attribute, error)
	SetForRecipe(ctx context.Context, recipeID int, ids []int) error
}

// RecipeRepository persists recipes. Every lookup is scoped to the owner.
type RecipeRepository interface {
	List(ctx context.Context, userID int, filter types.RecipeFilter) ([]types.Recipe, error)
	Get(ctx context.Context, userID, id int) (types.Recipe, error)
	Create(ctx context.Context, recipe types.Recipe) (types.Recipe, error)
	Update(ctx context.Context, recipe types.Recipe) (types.Recipe, error)
	Delete(ctx context.Context, userID, id int) error
}

// Repositories groups repositories that share one database handle.
type Repositories struct {
	Users       UserRepository
	Tokens      TokenRepository
	Recipes     RecipeRepository
	Tags        AttributeRepository
	Ingredients AttributeRepository
}

// Transactor hands out repositories, either bound to the connection pool
// or to a single transaction.
type Transactor interface {
	Repositories() Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// NewRepositories binds every postgres repository to conn.
func NewRepositories(conn db.DBTX) Repositories {
	return Repositories{
		Users:       NewPostgresUserRepository(conn),
		Tokens:      NewPostgresTokenRepository(conn),
		Recipes:     NewPostgresRecipeRepository(conn),
		Tags:        NewPostgresTagRepository(conn),
		Ingredients: NewPostgresIngredientRepository(conn),
	}
}

// PostgresStore implements Transactor on top of a *sql.DB pool.
type PostgresStore struct {
	conn *sql.DB
}

func NewPostgresStore(conn *sql.DB) *PostgresStore {
	return &PostgresStore{conn: conn}
}

func (s *PostgresStore) Repositories() Repositories {
	return NewRepositories(s.conn)
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return db.WithTx(ctx, s.conn, nil, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, NewRepositories(tx))
	})
}

func int64s(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
