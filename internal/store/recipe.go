package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/recipebox/apiserver/internal/db"
	"github.com/recipebox/apiserver/types"
)

const recipeColumns = `r.id, r.user_id, r.title, r.description, r.time_minutes, r.price, r.link, r.image, r.created_at, r.updated_at`

// PostgresRecipeRepository handles persistence for recipes. Tags and
// ingredients are loaded separately through the attribute repositories.
type PostgresRecipeRepository struct {
	db db.DBTX
}

func NewPostgresRecipeRepository(conn db.DBTX) *PostgresRecipeRepository {
	return &PostgresRecipeRepository{db: conn}
}

// List returns the owner's recipes, newest first.
func (r *PostgresRecipeRepository) List(ctx context.Context, userID int, filter types.RecipeFilter) ([]types.Recipe, error) {
	const query = `
		SELECT ` + recipeColumns + `
		FROM recipes r
		WHERE r.user_id = $1
			AND (cardinality($2::int[]) = 0 OR EXISTS (
				SELECT 1 FROM recipe_tags rt WHERE rt.recipe_id = r.id AND rt.tag_id = ANY($2)))
			AND (cardinality($3::int[]) = 0 OR EXISTS (
				SELECT 1 FROM recipe_ingredients ri WHERE ri.recipe_id = r.id AND ri.ingredient_id = ANY($3)))
		ORDER BY r.id DESC`
	rows, err := r.db.QueryContext(
		ctx,
		query,
		userID,
		pq.Array(int64s(filter.TagIDs)),
		pq.Array(int64s(filter.IngredientIDs)),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes := []types.Recipe{}
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *PostgresRecipeRepository) Get(ctx context.Context, userID, id int) (types.Recipe, error) {
	const query = `SELECT ` + recipeColumns + ` FROM recipes r WHERE r.id = $1 AND r.user_id = $2`
	recipe, err := scanRecipe(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Recipe{}, ErrNotFound
		}
		return types.Recipe{}, err
	}
	return recipe, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (types.Recipe, error) {
	var recipe types.Recipe
	err := row.Scan(
		&recipe.ID,
		&recipe.UserID,
		&recipe.Title,
		&recipe.Description,
		&recipe.TimeMinutes,
		&recipe.Price,
		&recipe.Link,
		&recipe.Image,
		&recipe.CreatedAt,
		&recipe.UpdatedAt,
	)
	return recipe, err
}

func (r *PostgresRecipeRepository) Create(ctx context.Context, recipe types.Recipe) (types.Recipe, error) {
	now := time.Now()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	const query = `
		INSERT INTO recipes (user_id, title, description, time_minutes, price, link, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		recipe.UserID,
		recipe.Title,
		recipe.Description,
		recipe.TimeMinutes,
		recipe.Price,
		recipe.Link,
		recipe.Image,
		recipe.CreatedAt,
		recipe.UpdatedAt,
	).Scan(&recipe.ID); err != nil {
		return types.Recipe{}, err
	}
	return recipe, nil
}

// Update writes every scalar column. The owner is part of the match and
// is never rewritten.
func (r *PostgresRecipeRepository) Update(ctx context.Context, recipe types.Recipe) (types.Recipe, error) {
	recipe.UpdatedAt = time.Now()

	const query = `
		UPDATE recipes
		SET title = $1,
			description = $2,
			time_minutes = $3,
			price = $4,
			link = $5,
			image = $6,
			updated_at = $7
		WHERE id = $8 AND user_id = $9`
	result, err := r.db.ExecContext(
		ctx,
		query,
		recipe.Title,
		recipe.Description,
		recipe.TimeMinutes,
		recipe.Price,
		recipe.Link,
		recipe.Image,
		recipe.UpdatedAt,
		recipe.ID,
		recipe.UserID,
	)
	if err != nil {
		return types.Recipe{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Recipe{}, err
	}
	if affected == 0 {
		return types.Recipe{}, ErrNotFound
	}
	return recipe, nil
}

// Delete removes a recipe and its links. Tags and ingredients are kept.
func (r *PostgresRecipeRepository) Delete(ctx context.Context, userID, id int) error {
	const query = `DELETE FROM recipes WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
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
