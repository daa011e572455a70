package memstore

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/recipebox/apiserver/internal/store"
	"github.com/recipebox/apiserver/types"
)

type recipeRepo struct {
	base
}

func (r *recipeRepo) List(_ context.Context, userID int, filter types.RecipeFilter) ([]types.Recipe, error) {
	recipes := []types.Recipe{}
	err := r.with(func(s *state) error {
		for _, recipe := range s.recipes {
			if recipe.UserID != userID {
				continue
			}
			if !linkedToAny(s, kindTag, recipe.ID, filter.TagIDs) ||
				!linkedToAny(s, kindIngredient, recipe.ID, filter.IngredientIDs) {
				continue
			}
			recipes = append(recipes, recipe)
		}
		return nil
	})
	sort.Slice(recipes, func(i, j int) bool {
		return recipes[i].ID > recipes[j].ID
	})
	return recipes, err
}

func linkedToAny(s *state, kind attributeKind, recipeID int, ids []int) bool {
	if len(ids) == 0 {
		return true
	}
	set := s.links[kind][recipeID]
	return slices.ContainsFunc(ids, func(id int) bool {
		_, ok := set[id]
		return ok
	})
}

func (r *recipeRepo) Get(_ context.Context, userID, id int) (types.Recipe, error) {
	var recipe types.Recipe
	err := r.with(func(s *state) error {
		rec, ok := s.recipes[id]
		if !ok || rec.UserID != userID {
			return store.ErrNotFound
		}
		recipe = rec
		return nil
	})
	return recipe, err
}

func (r *recipeRepo) Create(_ context.Context, recipe types.Recipe) (types.Recipe, error) {
	err := r.with(func(s *state) error {
		s.nextRecipeID++
		now := time.Now()
		recipe.ID = s.nextRecipeID
		recipe.CreatedAt = now
		recipe.UpdatedAt = now
		recipe.Tags = nil
		recipe.Ingredients = nil
		s.recipes[recipe.ID] = recipe
		return nil
	})
	return recipe, err
}

func (r *recipeRepo) Update(_ context.Context, recipe types.Recipe) (types.Recipe, error) {
	err := r.with(func(s *state) error {
		existing, ok := s.recipes[recipe.ID]
		if !ok || existing.UserID != recipe.UserID {
			return store.ErrNotFound
		}
		recipe.CreatedAt = existing.CreatedAt
		recipe.UpdatedAt = time.Now()
		stored := recipe
		stored.Tags = nil
		stored.Ingredients = nil
		s.recipes[recipe.ID] = stored
		return nil
	})
	if err != nil {
		return types.Recipe{}, err
	}
	return recipe, nil
}

func (r *recipeRepo) Delete(_ context.Context, userID, id int) error {
	return r.with(func(s *state) error {
		existing, ok := s.recipes[id]
		if !ok || existing.UserID != userID {
			return store.ErrNotFound
		}
		delete(s.recipes, id)
		for k := range s.links {
			delete(s.links[k], id)
		}
		return nil
	})
}
