package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/recipebox/apiserver/internal/store"
	"github.com/recipebox/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := New()
	boom := errors.New("boom")

	err := st.WithinTx(ctx, func(ctx context.Context, repos store.Repositories) error {
		recipe, err := repos.Recipes.Create(ctx, types.Recipe{UserID: 1, Title: "Soup"})
		require.NoError(t, err)
		tag, err := repos.Tags.GetOrCreate(ctx, 1, "Dinner")
		require.NoError(t, err)
		require.NoError(t, repos.Tags.SetForRecipe(ctx, recipe.ID, []int{tag.ID}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	repos := st.Repositories()
	recipes, err := repos.Recipes.List(ctx, 1, types.RecipeFilter{})
	require.NoError(t, err)
	assert.Empty(t, recipes)
	tags, err := repos.Tags.List(ctx, 1, false)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestWithinTxCommits(t *testing.T) {
	ctx := context.Background()
	st := New()

	err := st.WithinTx(ctx, func(ctx context.Context, repos store.Repositories) error {
		_, err := repos.Recipes.Create(ctx, types.Recipe{UserID: 1, Title: "Soup"})
		return err
	})
	require.NoError(t, err)

	recipes, err := st.Repositories().Recipes.List(ctx, 1, types.RecipeFilter{})
	require.NoError(t, err)
	assert.Len(t, recipes, 1)
}

func TestAttributesAreScopedAndShared(t *testing.T) {
	ctx := context.Background()
	tags := New().Repositories().Tags

	first, err := tags.GetOrCreate(ctx, 1, "Vegan")
	require.NoError(t, err)
	again, err := tags.GetOrCreate(ctx, 1, "Vegan")
	require.NoError(t, err)
	other, err := tags.GetOrCreate(ctx, 2, "Vegan")
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.NotEqual(t, first.ID, other.ID)

	_, err = tags.Get(ctx, 2, first.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecipeListFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	repos := New().Repositories()

	r1, err := repos.Recipes.Create(ctx, types.Recipe{UserID: 1, Title: "One"})
	require.NoError(t, err)
	r2, err := repos.Recipes.Create(ctx, types.Recipe{UserID: 1, Title: "Two"})
	require.NoError(t, err)
	_, err = repos.Recipes.Create(ctx, types.Recipe{UserID: 2, Title: "Foreign"})
	require.NoError(t, err)

	tag, err := repos.Tags.GetOrCreate(ctx, 1, "Quick")
	require.NoError(t, err)
	require.NoError(t, repos.Tags.SetForRecipe(ctx, r1.ID, []int{tag.ID}))

	all, err := repos.Recipes.List(ctx, 1, types.RecipeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, r2.ID, all[0].ID)

	filtered, err := repos.Recipes.List(ctx, 1, types.RecipeFilter{TagIDs: []int{tag.ID}})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, r1.ID, filtered[0].ID)
}

func TestDeleteAttributeKeepsRecipe(t *testing.T) {
	ctx := context.Background()
	repos := New().Repositories()

	recipe, err := repos.Recipes.Create(ctx, types.Recipe{UserID: 1, Title: "Stew"})
	require.NoError(t, err)
	ingredient, err := repos.Ingredients.GetOrCreate(ctx, 1, "Salt")
	require.NoError(t, err)
	require.NoError(t, repos.Ingredients.SetForRecipe(ctx, recipe.ID, []int{ingredient.ID}))

	require.NoError(t, repos.Ingredients.Delete(ctx, 1, ingredient.ID))

	_, err = repos.Recipes.Get(ctx, 1, recipe.ID)
	require.NoError(t, err)
	linked, err := repos.Ingredients.ListByRecipes(ctx, []int{recipe.ID})
	require.NoError(t, err)
	assert.Empty(t, linked[recipe.ID])
}

func TestUserEmailConflict(t *testing.T) {
	ctx := context.Background()
	users := New().Repositories().Users

	_, err := users.Create(ctx, types.User{Email: "a@example.com"})
	require.NoError(t, err)
	_, err = users.Create(ctx, types.User{Email: "a@example.com"})
	assert.ErrorIs(t, err, store.ErrConflict)
}
