package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/recipebox/apiserver/internal/cache"
	"github.com/recipebox/apiserver/internal/store"
	"github.com/recipebox/apiserver/types"
	"go.uber.org/zap"
)

const (
	tokenKeyLength   = 40
	tokenCachePrefix = "auth:token:"
)

// DatabaseIssuer hands out one persistent random key per user. Logging in
// again returns the existing key. Resolved keys are cached in kv when set.
type DatabaseIssuer struct {
	tokens   store.TokenRepository
	kv       cache.KV
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewDatabaseIssuer builds an issuer. kv may be nil to disable caching.
func NewDatabaseIssuer(tokens store.TokenRepository, kv cache.KV, cacheTTL time.Duration, logger *zap.Logger) *DatabaseIssuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DatabaseIssuer{tokens: tokens, kv: kv, cacheTTL: cacheTTL, logger: logger}
}

func (i *DatabaseIssuer) Issue(ctx context.Context, user types.User) (string, error) {
	existing, err := i.tokens.GetByUserID(ctx, user.ID)
	if err == nil {
		return existing.Key, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	key, err := gonanoid.New(tokenKeyLength)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	created, err := i.tokens.Create(ctx, types.Token{Key: key, UserID: user.ID})
	if errors.Is(err, store.ErrConflict) {
		// Another login for the same user won the insert.
		existing, err = i.tokens.GetByUserID(ctx, user.ID)
		if err != nil {
			return "", err
		}
		return existing.Key, nil
	}
	if err != nil {
		return "", err
	}
	return created.Key, nil
}

func (i *DatabaseIssuer) Resolve(ctx context.Context, key string) (int, error) {
	if len(key) != tokenKeyLength {
		return 0, ErrInvalidToken
	}

	if i.kv != nil {
		cached, err := i.kv.Get(ctx, tokenCachePrefix+key)
		if err == nil {
			if userID, convErr := strconv.Atoi(cached); convErr == nil {
				return userID, nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			i.logger.Warn("token cache read failed", zap.Error(err))
		}
	}

	token, err := i.tokens.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrInvalidToken
		}
		return 0, err
	}

	if i.kv != nil {
		if err := i.kv.Set(ctx, tokenCachePrefix+key, strconv.Itoa(token.UserID), i.cacheTTL); err != nil {
			i.logger.Warn("token cache write failed", zap.Error(err))
		}
	}
	return token.UserID, nil
}
