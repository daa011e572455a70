// Package auth issues and verifies API tokens and hashes passwords.
package auth

import (
	"context"
	"errors"

	"github.com/recipebox/apiserver/types"
)

// ErrInvalidToken is returned when a presented token is unknown, malformed
// or expired.
var ErrInvalidToken = errors.New("invalid token")

// TokenIssuer produces a bearer token for a user and resolves presented
// tokens back to the user ID.
type TokenIssuer interface {
	Issue(ctx context.Context, user types.User) (string, error)
	Resolve(ctx context.Context, token string) (int, error)
}
