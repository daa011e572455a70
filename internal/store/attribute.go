package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/recipebox/apiserver/internal/db"
	"github.com/recipebox/apiserver/types"
)

// attributeTables names the tables behind one kind of attribute.
type attributeTables struct {
	table      string
	linkTable  string
	linkColumn string
}

var (
	tagTables        = attributeTables{table: "tags", linkTable: "recipe_tags", linkColumn: "tag_id"}
	ingredientTables = attributeTables{table: "ingredients", linkTable: "recipe_ingredients", linkColumn: "ingredient_id"}
)

// PostgresAttributeRepository handles persistence for tags or ingredients,
// depending on the tables it was built with.
type PostgresAttributeRepository struct {
	db db.DBTX
	t  attributeTables
}

func NewPostgresTagRepository(conn db.DBTX) *PostgresAttributeRepository {
	return &PostgresAttributeRepository{db: conn, t: tagTables}
}

func NewPostgresIngredientRepository(conn db.DBTX) *PostgresAttributeRepository {
	return &PostgresAttributeRepository{db: conn, t: ingredientTables}
}

// GetOrCreate returns the owner's attribute with the given name, inserting
// it when missing. Concurrent callers converge on the same row through the
// (user_id, name) unique index.
func (r *PostgresAttributeRepository) GetOrCreate(ctx context.Context, userID int, name string) (types.Attribute, error) {
	attr, err := r.getByName(ctx, userID, name)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return attr, err
	}

	insert := fmt.Sprintf(`
		INSERT INTO %s (user_id, name)
		VALUES ($1, $2)
		ON CONFLICT (user_id, name) DO NOTHING
		RETURNING id`, r.t.table)
	attr = types.Attribute{UserID: userID, Name: name}
	err = r.db.QueryRowContext(ctx, insert, userID, name).Scan(&attr.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return r.getByName(ctx, userID, name)
	}
	if err != nil {
		return types.Attribute{}, fmt.Errorf("insert %s: %w", r.t.table, err)
	}
	return attr, nil
}

func (r *PostgresAttributeRepository) getByName(ctx context.Context, userID int, name string) (types.Attribute, error) {
	query := fmt.Sprintf(`SELECT id, user_id, name FROM %s WHERE user_id = $1 AND name = $2`, r.t.table)
	return r.getOne(ctx, query, userID, name)
}

// List returns the owner's attributes ordered by name. With assignedOnly
// set, only attributes linked to at least one recipe are returned.
func (r *PostgresAttributeRepository) List(ctx context.Context, userID int, assignedOnly bool) ([]types.Attribute, error) {
	query := fmt.Sprintf(`SELECT a.id, a.user_id, a.name FROM %s a WHERE a.user_id = $1`, r.t.table)
	if assignedOnly {
		query += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM %s l WHERE l.%s = a.id)`, r.t.linkTable, r.t.linkColumn)
	}
	query += ` ORDER BY a.name ASC, a.id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attrs := []types.Attribute{}
	for rows.Next() {
		var attr types.Attribute
		if err := rows.Scan(&attr.ID, &attr.UserID, &attr.Name); err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attrs, nil
}

func (r *PostgresAttributeRepository) Get(ctx context.Context, userID, id int) (types.Attribute, error) {
	query := fmt.Sprintf(`SELECT id, user_id, name FROM %s WHERE id = $1 AND user_id = $2`, r.t.table)
	return r.getOne(ctx, query, id, userID)
}

func (r *PostgresAttributeRepository) getOne(ctx context.Context, query string, args ...any) (types.Attribute, error) {
	var attr types.Attribute
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&attr.ID, &attr.UserID, &attr.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Attribute{}, ErrNotFound
		}
		return types.Attribute{}, err
	}
	return attr, nil
}

// Update renames an attribute. The owner is taken from attr.UserID and is
// part of the match, so a foreign attribute yields ErrNotFound.
func (r *PostgresAttributeRepository) Update(ctx context.Context, attr types.Attribute) (types.Attribute, error) {
	query := fmt.Sprintf(`UPDATE %s SET name = $1 WHERE id = $2 AND user_id = $3`, r.t.table)
	result, err := r.db.ExecContext(ctx, query, attr.Name, attr.ID, attr.UserID)
	if err != nil {
		return types.Attribute{}, translateError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Attribute{}, err
	}
	if affected == 0 {
		return types.Attribute{}, ErrNotFound
	}
	return attr, nil
}

// Delete removes an attribute and its recipe links. Recipes are kept.
func (r *PostgresAttributeRepository) Delete(ctx context.Context, userID, id int) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.t.table)
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

// ListByRecipes returns the attributes linked to each recipe, ordered by name.
func (r *PostgresAttributeRepository) ListByRecipes(ctx context.Context, recipeIDs []int) (map[int][]types.Attribute, error) {
	out := make(map[int][]types.Attribute, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return out, nil
	}

	query := fmt.Sprintf(`
		SELECT l.recipe_id, a.id, a.user_id, a.name
		FROM %s a
		JOIN %s l ON l.%s = a.id
		WHERE l.recipe_id = ANY($1)
		ORDER BY a.name ASC, a.id ASC`, r.t.table, r.t.linkTable, r.t.linkColumn)
	rows, err := r.db.QueryContext(ctx, query, pq.Array(int64s(recipeIDs)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			recipeID int
			attr     types.Attribute
		)
		if err := rows.Scan(&recipeID, &attr.ID, &attr.UserID, &attr.Name); err != nil {
			return nil, err
		}
		out[recipeID] = append(out[recipeID], attr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetForRecipe makes ids the exact set of attributes linked to the recipe.
// Links not in ids are removed; missing links are added.
func (r *PostgresAttributeRepository) SetForRecipe(ctx context.Context, recipeID int, ids []int) error {
	arg := pq.Array(int64s(ids))

	unlink := fmt.Sprintf(`DELETE FROM %s WHERE recipe_id = $1 AND NOT (%s = ANY($2))`, r.t.linkTable, r.t.linkColumn)
	if _, err := r.db.ExecContext(ctx, unlink, recipeID, arg); err != nil {
		return fmt.Errorf("unlink %s: %w", r.t.table, err)
	}

	if len(ids) == 0 {
		return nil
	}
	link := fmt.Sprintf(`
		INSERT INTO %s (recipe_id, %s)
		SELECT $1, unnest($2::int[])
		ON CONFLICT DO NOTHING`, r.t.linkTable, r.t.linkColumn)
	if _, err := r.db.ExecContext(ctx, link, recipeID, arg); err != nil {
		return fmt.Errorf("link %s: %w", r.t.table, err)
	}
	return nil
}
