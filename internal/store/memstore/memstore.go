// Package memstore keeps every repository in process memory. It backs
// STORE_BACKEND=memory and the service and API tests.
package memstore

import (
	"context"
	"maps"
	"sync"

	"github.com/recipebox/apiserver/internal/store"
	"github.com/recipebox/apiserver/types"
)

type attributeKind int

const (
	kindTag attributeKind = iota
	kindIngredient
)

type state struct {
	nextUserID   int
	nextRecipeID int
	nextAttrID   [2]int

	users   map[int]types.User
	tokens  map[string]types.Token
	recipes map[int]types.Recipe
	attrs   [2]map[int]types.Attribute
	// links[kind][recipeID] is the set of attribute IDs linked to the recipe.
	links [2]map[int]map[int]struct{}
}

func newState() *state {
	s := &state{
		users:   map[int]types.User{},
		tokens:  map[string]types.Token{},
		recipes: map[int]types.Recipe{},
	}
	for k := range s.attrs {
		s.attrs[k] = map[int]types.Attribute{}
		s.links[k] = map[int]map[int]struct{}{}
	}
	return s
}

func (s *state) clone() *state {
	c := *s
	c.users = maps.Clone(s.users)
	c.tokens = maps.Clone(s.tokens)
	c.recipes = maps.Clone(s.recipes)
	for k := range s.attrs {
		c.attrs[k] = maps.Clone(s.attrs[k])
		c.links[k] = make(map[int]map[int]struct{}, len(s.links[k]))
		for recipeID, set := range s.links[k] {
			c.links[k][recipeID] = maps.Clone(set)
		}
	}
	return &c
}

// Store implements store.Transactor in memory. Transactions hold the store
// lock for their whole duration and are undone when fn returns an error.
type Store struct {
	mu    sync.Mutex
	state *state
}

func New() *Store {
	return &Store{state: newState()}
}

func (s *Store) Repositories() store.Repositories {
	return s.repositories(false)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos store.Repositories) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	defer func() {
		if p := recover(); p != nil {
			s.state = snapshot
			panic(p)
		}
		if err != nil {
			s.state = snapshot
		}
	}()

	return fn(ctx, s.repositories(true))
}

func (s *Store) repositories(inTx bool) store.Repositories {
	b := base{store: s, inTx: inTx}
	return store.Repositories{
		Users:       &userRepo{base: b},
		Tokens:      &tokenRepo{base: b},
		Recipes:     &recipeRepo{base: b},
		Tags:        &attributeRepo{base: b, kind: kindTag},
		Ingredients: &attributeRepo{base: b, kind: kindIngredient},
	}
}

// base serializes access to the shared state. Repositories handed out by
// WithinTx run while the store lock is already held.
type base struct {
	store *Store
	inTx  bool
}

func (b base) with(fn func(s *state) error) error {
	if !b.inTx {
		b.store.mu.Lock()
		defer b.store.mu.Unlock()
	}
	return fn(b.store.state)
}
