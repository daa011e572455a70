package services

import (
	"context"
	"errors"
	"strings"

	"github.com/recipebox/apiserver/internal/store"
	"github.com/recipebox/apiserver/internal/validation"
	"github.com/recipebox/apiserver/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var maxPrice = decimal.NewFromInt(1000)

// AttributeInput names a tag or ingredient inside a recipe payload.
type AttributeInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

// RecipeInput is the recipe create/update payload. Nil scalars are left
// untouched; a nil Tags or Ingredients slice leaves the relation as is,
// while an empty one clears it.
type RecipeInput struct {
	Title       *string          `json:"title" validate:"omitnil,min=1,max=255"`
	Description *string          `json:"description"`
	TimeMinutes *int             `json:"time_minutes" validate:"omitnil,gte=0,lte=2147483647"`
	Price       *decimal.Decimal `json:"price"`
	Link        *string          `json:"link" validate:"omitnil,max=255"`
	Tags        []AttributeInput `json:"tags" validate:"dive"`
	Ingredients []AttributeInput `json:"ingredients" validate:"dive"`
}

func (in *RecipeInput) normalize() {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		in.Title = &title
	}
	if in.Link != nil {
		link := strings.TrimSpace(*in.Link)
		in.Link = &link
	}
	for i := range in.Tags {
		in.Tags[i].Name = strings.TrimSpace(in.Tags[i].Name)
	}
	for i := range in.Ingredients {
		in.Ingredients[i].Name = strings.TrimSpace(in.Ingredients[i].Name)
	}
}

func (in RecipeInput) apply(recipe *types.Recipe) {
	if in.Title != nil {
		recipe.Title = *in.Title
	}
	if in.Description != nil {
		recipe.Description = *in.Description
	}
	if in.TimeMinutes != nil {
		recipe.TimeMinutes = *in.TimeMinutes
	}
	if in.Price != nil {
		recipe.Price = *in.Price
	}
	if in.Link != nil {
		recipe.Link = *in.Link
	}
}

// RecipeService implements recipe use-cases. Every mutation runs in a
// single transaction, including tag and ingredient reconciliation.
type RecipeService struct {
	store     store.Transactor
	validator *validation.Validator
	logger    *zap.Logger
	events    *eventPublisher
	images    *imageUploader
}

// RecipeOption configures optional RecipeService collaborators.
type RecipeOption func(*RecipeService)

func NewRecipeService(st store.Transactor, validator *validation.Validator, logger *zap.Logger, opts ...RecipeOption) *RecipeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RecipeService{store: st, validator: validator, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the caller's recipes, newest first, with tags and ingredients.
func (s *RecipeService) List(ctx context.Context, userID int, filter types.RecipeFilter) ([]types.Recipe, error) {
	repos := s.store.Repositories()
	recipes, err := repos.Recipes.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if err := attachAttributes(ctx, repos, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// Get returns one of the caller's recipes. Foreign and missing recipes are
// both reported as store.ErrNotFound.
func (s *RecipeService) Get(ctx context.Context, userID, id int) (types.Recipe, error) {
	repos := s.store.Repositories()
	recipe, err := repos.Recipes.Get(ctx, userID, id)
	if err != nil {
		return types.Recipe{}, err
	}
	return loadAttributes(ctx, repos, recipe)
}

// Create stores a recipe owned by userID. Title, time_minutes and price
// are required.
func (s *RecipeService) Create(ctx context.Context, userID int, in RecipeInput) (types.Recipe, error) {
	if err := s.validate(&in, false); err != nil {
		return types.Recipe{}, err
	}

	var created types.Recipe
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos store.Repositories) error {
		recipe := types.Recipe{UserID: userID}
		in.apply(&recipe)

		recipe, err := repos.Recipes.Create(ctx, recipe)
		if err != nil {
			return err
		}
		if err := reconcile(ctx, repos, userID, recipe.ID, in); err != nil {
			return err
		}
		created, err = loadAttributes(ctx, repos, recipe)
		return err
	})
	if err != nil {
		return types.Recipe{}, err
	}

	s.events.publish(ctx, EventRecipeCreated, created)
	return created, nil
}

// Update changes one of the caller's recipes. With partial unset the
// required scalars must all be supplied. The owner never changes.
func (s *RecipeService) Update(ctx context.Context, userID, id int, in RecipeInput, partial bool) (types.Recipe, error) {
	if err := s.validate(&in, partial); err != nil {
		return types.Recipe{}, err
	}

	var updated types.Recipe
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos store.Repositories) error {
		recipe, err := repos.Recipes.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		in.apply(&recipe)

		recipe, err = repos.Recipes.Update(ctx, recipe)
		if err != nil {
			return err
		}
		if err := reconcile(ctx, repos, userID, recipe.ID, in); err != nil {
			return err
		}
		updated, err = loadAttributes(ctx, repos, recipe)
		return err
	})
	if err != nil {
		return types.Recipe{}, err
	}

	s.events.publish(ctx, EventRecipeUpdated, updated)
	return updated, nil
}

// Delete removes one of the caller's recipes. Its tags and ingredients are kept.
func (s *RecipeService) Delete(ctx context.Context, userID, id int) error {
	var deleted types.Recipe
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos store.Repositories) error {
		recipe, err := repos.Recipes.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		deleted = recipe
		return repos.Recipes.Delete(ctx, userID, id)
	})
	if err != nil {
		return err
	}

	s.images.remove(ctx, deleted.Image)
	s.events.publish(ctx, EventRecipeDeleted, deleted)
	return nil
}

func (s *RecipeService) validate(in *RecipeInput, partial bool) error {
	in.normalize()

	fields := map[string]string{}
	if !partial {
		if in.Title == nil {
			fields["title"] = "is required"
		}
		if in.TimeMinutes == nil {
			fields["time_minutes"] = "is required"
		}
		if in.Price == nil {
			fields["price"] = "is required"
		}
	}
	if err := s.validator.Validate(in); err != nil {
		var verr *validation.Error
		if !errors.As(err, &verr) {
			return err
		}
		for k, v := range verr.Fields {
			fields[k] = v
		}
	}
	if in.Price != nil {
		if msg := checkPrice(*in.Price); msg != "" {
			fields["price"] = msg
		}
	}
	if in.Link != nil && *in.Link != "" {
		if err := s.validator.Var(*in.Link, "url"); err != nil {
			fields["link"] = "must be a valid URL"
		}
	}

	if len(fields) > 0 {
		return &validation.Error{Message: "validation failed", Fields: fields}
	}
	return nil
}

// checkPrice enforces NUMERIC(5,2): non-negative, at most two decimal
// places and three integer digits.
func checkPrice(price decimal.Decimal) string {
	switch {
	case price.IsNegative():
		return "must be greater than or equal to 0"
	case !price.Equal(price.Truncate(2)):
		return "must have no more than 2 decimal places"
	case price.GreaterThanOrEqual(maxPrice):
		return "must have no more than 5 digits in total"
	}
	return ""
}

// reconcile replaces the recipe's tags and ingredients with the supplied
// descriptors. A nil list leaves that relation untouched.
func reconcile(ctx context.Context, repos store.Repositories, userID, recipeID int, in RecipeInput) error {
	if in.Tags != nil {
		if err := setAttributes(ctx, repos.Tags, userID, recipeID, in.Tags); err != nil {
			return err
		}
	}
	if in.Ingredients != nil {
		if err := setAttributes(ctx, repos.Ingredients, userID, recipeID, in.Ingredients); err != nil {
			return err
		}
	}
	return nil
}

func setAttributes(ctx context.Context, repo store.AttributeRepository, userID, recipeID int, inputs []AttributeInput) error {
	ids := make([]int, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for _, input := range inputs {
		if _, dup := seen[input.Name]; dup {
			continue
		}
		seen[input.Name] = struct{}{}

		attr, err := repo.GetOrCreate(ctx, userID, input.Name)
		if err != nil {
			return err
		}
		ids = append(ids, attr.ID)
	}
	return repo.SetForRecipe(ctx, recipeID, ids)
}

func loadAttributes(ctx context.Context, repos store.Repositories, recipe types.Recipe) (types.Recipe, error) {
	recipes := []types.Recipe{recipe}
	if err := attachAttributes(ctx, repos, recipes); err != nil {
		return types.Recipe{}, err
	}
	return recipes[0], nil
}

func attachAttributes(ctx context.Context, repos store.Repositories, recipes []types.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	ids := make([]int, len(recipes))
	for i, recipe := range recipes {
		ids[i] = recipe.ID
	}

	tags, err := repos.Tags.ListByRecipes(ctx, ids)
	if err != nil {
		return err
	}
	ingredients, err := repos.Ingredients.ListByRecipes(ctx, ids)
	if err != nil {
		return err
	}

	for i := range recipes {
		recipes[i].Tags = nonNil(tags[recipes[i].ID])
		recipes[i].Ingredients = nonNil(ingredients[recipes[i].ID])
	}
	return nil
}

func nonNil(attrs []types.Attribute) []types.Attribute {
	if attrs == nil {
		return []types.Attribute{}
	}
	return attrs
}
