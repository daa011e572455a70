package types

import "time"

// User represents an account in the system.
// Email is the login identifier and is stored normalized (trimmed, lowercased).
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Email is the user's normalized email address. It is unique across
	// all users and is used for authentication lookups.
	Email string `json:"email" db:"email"`

	// Name is the user's display or full name. It may be empty.
	Name string `json:"name" db:"name"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// IsActive reports whether the account may authenticate.
	IsActive bool `json:"is_active" db:"is_active"`

	// IsStaff grants access to administrative tooling.
	IsStaff bool `json:"is_staff" db:"is_staff"`

	// IsSuperuser grants every permission.
	IsSuperuser bool `json:"is_superuser" db:"is_superuser"`

	// LastLogin is the time a token was last issued for the user,
	// or nil if the user never logged in.
	LastLogin *time.Time `json:"last_login,omitempty" db:"last_login"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
