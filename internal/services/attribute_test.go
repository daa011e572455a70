package services

import (
	"context"
	"testing"

	"github.com/recipebox/apiserver/internal/store"
	"github.com/recipebox/apiserver/internal/store/memstore"
	"github.com/recipebox/apiserver/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagListSortedAndScoped(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	tags := st.Repositories().Tags
	for _, name := range []string{"Vegan", "Dessert"} {
		_, err := tags.GetOrCreate(ctx, 1, name)
		require.NoError(t, err)
	}
	_, err := tags.GetOrCreate(ctx, 2, "Fruity")
	require.NoError(t, err)

	list, err := NewTagService(st, validation.New()).List(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dessert", "Vegan"}, tagNames(list))
}

func TestTagListAssignedOnly(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	recipes := newRecipeService(st)

	in := sampleRecipe()
	in.Tags = []AttributeInput{{Name: "Breakfast"}}
	_, err := recipes.Create(ctx, 1, in)
	require.NoError(t, err)
	_, err = st.Repositories().Tags.GetOrCreate(ctx, 1, "Lunch")
	require.NoError(t, err)

	list, err := NewTagService(st, validation.New()).List(ctx, 1, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Breakfast"}, tagNames(list))
}

func TestRenameTag(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := NewTagService(st, validation.New())
	tag, err := st.Repositories().Tags.GetOrCreate(ctx, 1, "After Dinner")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, 1, tag.ID, AttributeUpdateInput{Name: ptr("Dessert")}, true)
	require.NoError(t, err)
	assert.Equal(t, "Dessert", updated.Name)

	reloaded, err := svc.Get(ctx, 1, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dessert", reloaded.Name)
}

func TestRenameTagConflict(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := NewTagService(st, validation.New())
	tags := st.Repositories().Tags
	_, err := tags.GetOrCreate(ctx, 1, "Lunch")
	require.NoError(t, err)
	dinner, err := tags.GetOrCreate(ctx, 1, "Dinner")
	require.NoError(t, err)

	_, err = svc.Update(ctx, 1, dinner.ID, AttributeUpdateInput{Name: ptr("Lunch")}, true)
	assert.Contains(t, fieldErrors(t, err), "name")
}

func TestRenameTagRequiresName(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := NewTagService(st, validation.New())
	tag, err := st.Repositories().Tags.GetOrCreate(ctx, 1, "Lunch")
	require.NoError(t, err)

	_, err = svc.Update(ctx, 1, tag.ID, AttributeUpdateInput{}, false)
	assert.Contains(t, fieldErrors(t, err), "name")

	_, err = svc.Update(ctx, 1, tag.ID, AttributeUpdateInput{Name: ptr(" ")}, true)
	assert.Contains(t, fieldErrors(t, err), "name")
}

func TestForeignIngredientIsNotFound(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := NewIngredientService(st, validation.New())
	ingredient, err := st.Repositories().Ingredients.GetOrCreate(ctx, 1, "Salt")
	require.NoError(t, err)

	_, err = svc.Get(ctx, 2, ingredient.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = svc.Update(ctx, 2, ingredient.ID, AttributeUpdateInput{Name: ptr("Pepper")}, true)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 2, ingredient.ID), store.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, 1, ingredient.ID))
	list, err := svc.List(ctx, 1, false)
	require.NoError(t, err)
	assert.Empty(t, list)
}
