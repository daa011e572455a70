package services

import (
	"context"
	"errors"
	"strings"

	"github.com/recipebox/apiserver/internal/store"
	"github.com/recipebox/apiserver/internal/validation"
	"github.com/recipebox/apiserver/types"
)

// AttributeUpdateInput renames a tag or ingredient.
type AttributeUpdateInput struct {
	Name *string `json:"name" validate:"omitnil,min=1,max=255"`
}

// AttributeService manages the caller's tags or ingredients. Records are
// created implicitly through recipe payloads, so there is no Create.
type AttributeService struct {
	kind      string
	store     store.Transactor
	repo      func(store.Repositories) store.AttributeRepository
	validator *validation.Validator
}

func NewTagService(st store.Transactor, validator *validation.Validator) *AttributeService {
	return &AttributeService{
		kind:      "tag",
		store:     st,
		repo:      func(r store.Repositories) store.AttributeRepository { return r.Tags },
		validator: validator,
	}
}

func NewIngredientService(st store.Transactor, validator *validation.Validator) *AttributeService {
	return &AttributeService{
		kind:      "ingredient",
		store:     st,
		repo:      func(r store.Repositories) store.AttributeRepository { return r.Ingredients },
		validator: validator,
	}
}

// Kind is "tag" or "ingredient".
func (s *AttributeService) Kind() string {
	return s.kind
}

// List returns the caller's records ordered by name. With assignedOnly set
// only records attached to at least one recipe are returned.
func (s *AttributeService) List(ctx context.Context, userID int, assignedOnly bool) ([]types.Attribute, error) {
	return s.repo(s.store.Repositories()).List(ctx, userID, assignedOnly)
}

func (s *AttributeService) Get(ctx context.Context, userID, id int) (types.Attribute, error) {
	return s.repo(s.store.Repositories()).Get(ctx, userID, id)
}

// Update renames one of the caller's records. With partial unset the name
// is required.
func (s *AttributeService) Update(ctx context.Context, userID, id int, in AttributeUpdateInput, partial bool) (types.Attribute, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if !partial && in.Name == nil {
		return types.Attribute{}, validation.FieldError("name", "is required")
	}
	if err := s.validator.Validate(in); err != nil {
		return types.Attribute{}, err
	}

	repo := s.repo(s.store.Repositories())
	attr, err := repo.Get(ctx, userID, id)
	if err != nil {
		return types.Attribute{}, err
	}
	if in.Name == nil || *in.Name == attr.Name {
		return attr, nil
	}

	attr.Name = *in.Name
	updated, err := repo.Update(ctx, attr)
	if errors.Is(err, store.ErrConflict) {
		return types.Attribute{}, validation.FieldError("name", s.kind+" with this name already exists")
	}
	return updated, err
}

// Delete removes one of the caller's records and unlinks it from recipes.
func (s *AttributeService) Delete(ctx context.Context, userID, id int) error {
	return s.repo(s.store.Repositories()).Delete(ctx, userID, id)
}
