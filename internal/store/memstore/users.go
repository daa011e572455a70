package memstore

import (
	"context"
	"time"

	"github.com/recipebox/apiserver/internal/store"
	"github.com/recipebox/apiserver/types"
)

type userRepo struct {
	base
}

func (r *userRepo) GetByID(_ context.Context, id int) (types.User, error) {
	var user types.User
	err := r.with(func(s *state) error {
		u, ok := s.users[id]
		if !ok {
			return store.ErrNotFound
		}
		user = u
		return nil
	})
	return user, err
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	var user types.User
	err := r.with(func(s *state) error {
		for _, u := range s.users {
			if u.Email == email {
				user = u
				return nil
			}
		}
		return store.ErrNotFound
	})
	return user, err
}

func (r *userRepo) Create(_ context.Context, user types.User) (types.User, error) {
	err := r.with(func(s *state) error {
		if emailTaken(s, user.Email, 0) {
			return store.ErrConflict
		}
		s.nextUserID++
		now := time.Now()
		user.ID = s.nextUserID
		user.CreatedAt = now
		user.UpdatedAt = now
		s.users[user.ID] = user
		return nil
	})
	if err != nil {
		return types.User{}, err
	}
	return user, nil
}

func (r *userRepo) Update(_ context.Context, user types.User) (types.User, error) {
	err := r.with(func(s *state) error {
		existing, ok := s.users[user.ID]
		if !ok {
			return store.ErrNotFound
		}
		if emailTaken(s, user.Email, user.ID) {
			return store.ErrConflict
		}
		user.CreatedAt = existing.CreatedAt
		user.LastLogin = existing.LastLogin
		user.UpdatedAt = time.Now()
		s.users[user.ID] = user
		return nil
	})
	if err != nil {
		return types.User{}, err
	}
	return user, nil
}

func (r *userRepo) TouchLastLogin(_ context.Context, id int, at time.Time) error {
	return r.with(func(s *state) error {
		user, ok := s.users[id]
		if !ok {
			return store.ErrNotFound
		}
		user.LastLogin = &at
		s.users[id] = user
		return nil
	})
}

func emailTaken(s *state, email string, exceptID int) bool {
	for id, u := range s.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

type tokenRepo struct {
	base
}

func (r *tokenRepo) GetByUserID(_ context.Context, userID int) (types.Token, error) {
	var token types.Token
	err := r.with(func(s *state) error {
		for _, t := range s.tokens {
			if t.UserID == userID {
				token = t
				return nil
			}
		}
		return store.ErrNotFound
	})
	return token, err
}

func (r *tokenRepo) GetByKey(_ context.Context, key string) (types.Token, error) {
	var token types.Token
	err := r.with(func(s *state) error {
		t, ok := s.tokens[key]
		if !ok {
			return store.ErrNotFound
		}
		token = t
		return nil
	})
	return token, err
}

func (r *tokenRepo) Create(_ context.Context, token types.Token) (types.Token, error) {
	err := r.with(func(s *state) error {
		if _, ok := s.tokens[token.Key]; ok {
			return store.ErrConflict
		}
		for _, t := range s.tokens {
			if t.UserID == token.UserID {
				return store.ErrConflict
			}
		}
		token.CreatedAt = time.Now()
		s.tokens[token.Key] = token
		return nil
	})
	if err != nil {
		return types.Token{}, err
	}
	return token, nil
}
