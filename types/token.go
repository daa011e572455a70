package types

import "time"

// Token is an opaque API key bound to exactly one user.
// A user has at most one token; logging in again returns the same key.
type Token struct {
	// Key is the random string presented in the Authorization header.
	Key string `json:"key" db:"key"`

	// UserID identifies the user the token authenticates as.
	UserID int `json:"user_id" db:"user_id"`

	// CreatedAt is the timestamp when the token was issued.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
