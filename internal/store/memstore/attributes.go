package memstore

import (
	"context"
	"sort"

	"github.com/recipebox/apiserver/internal/store"
	"github.com/recipebox/apiserver/types"
)

type attributeRepo struct {
	base
	kind attributeKind
}

func (r *attributeRepo) GetOrCreate(_ context.Context, userID int, name string) (types.Attribute, error) {
	var attr types.Attribute
	err := r.with(func(s *state) error {
		for _, a := range s.attrs[r.kind] {
			if a.UserID == userID && a.Name == name {
				attr = a
				return nil
			}
		}
		s.nextAttrID[r.kind]++
		attr = types.Attribute{ID: s.nextAttrID[r.kind], UserID: userID, Name: name}
		s.attrs[r.kind][attr.ID] = attr
		return nil
	})
	return attr, err
}

func (r *attributeRepo) List(_ context.Context, userID int, assignedOnly bool) ([]types.Attribute, error) {
	attrs := []types.Attribute{}
	err := r.with(func(s *state) error {
		assigned := map[int]struct{}{}
		if assignedOnly {
			for _, set := range s.links[r.kind] {
				for id := range set {
					assigned[id] = struct{}{}
				}
			}
		}
		for _, a := range s.attrs[r.kind] {
			if a.UserID != userID {
				continue
			}
			if _, ok := assigned[a.ID]; assignedOnly && !ok {
				continue
			}
			attrs = append(attrs, a)
		}
		return nil
	})
	sortAttributes(attrs)
	return attrs, err
}

func (r *attributeRepo) Get(_ context.Context, userID, id int) (types.Attribute, error) {
	var attr types.Attribute
	err := r.with(func(s *state) error {
		a, ok := s.attrs[r.kind][id]
		if !ok || a.UserID != userID {
			return store.ErrNotFound
		}
		attr = a
		return nil
	})
	return attr, err
}

func (r *attributeRepo) Update(_ context.Context, attr types.Attribute) (types.Attribute, error) {
	err := r.with(func(s *state) error {
		existing, ok := s.attrs[r.kind][attr.ID]
		if !ok || existing.UserID != attr.UserID {
			return store.ErrNotFound
		}
		for _, a := range s.attrs[r.kind] {
			if a.ID != attr.ID && a.UserID == attr.UserID && a.Name == attr.Name {
				return store.ErrConflict
			}
		}
		s.attrs[r.kind][attr.ID] = attr
		return nil
	})
	if err != nil {
		return types.Attribute{}, err
	}
	return attr, nil
}

func (r *attributeRepo) Delete(_ context.Context, userID, id int) error {
	return r.with(func(s *state) error {
		a, ok := s.attrs[r.kind][id]
		if !ok || a.UserID != userID {
			return store.ErrNotFound
		}
		delete(s.attrs[r.kind], id)
		for _, set := range s.links[r.kind] {
			delete(set, id)
		}
		return nil
	})
}

func (r *attributeRepo) ListByRecipes(_ context.Context, recipeIDs []int) (map[int][]types.Attribute, error) {
	out := make(map[int][]types.Attribute, len(recipeIDs))
	err := r.with(func(s *state) error {
		for _, recipeID := range recipeIDs {
			for id := range s.links[r.kind][recipeID] {
				if a, ok := s.attrs[r.kind][id]; ok {
					out[recipeID] = append(out[recipeID], a)
				}
			}
			sortAttributes(out[recipeID])
		}
		return nil
	})
	return out, err
}

func (r *attributeRepo) SetForRecipe(_ context.Context, recipeID int, ids []int) error {
	return r.with(func(s *state) error {
		set := make(map[int]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		s.links[r.kind][recipeID] = set
		return nil
	})
}

func sortAttributes(attrs []types.Attribute) {
	sort.Slice(attrs, func(i, j int) bool {
		if attrs[i].Name != attrs[j].Name {
			return attrs[i].Name < attrs[j].Name
		}
		return attrs[i].ID < attrs[j].ID
	})
}
