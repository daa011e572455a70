package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/recipebox/apiserver/internal/auth"
	"github.com/recipebox/apiserver/internal/store"
	"github.com/recipebox/apiserver/internal/validation"
	"github.com/recipebox/apiserver/types"
)

const emailTakenMessage = "user with this email already exists"

// CreateUserInput is the registration payload.
type CreateUserInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5,max=72"`
	Name     string `json:"name" validate:"max=255"`
}

// UpdateUserInput carries profile changes. Nil fields are left untouched.
type UpdateUserInput struct {
	Email    *string `json:"email" validate:"omitnil,email,max=255"`
	Password *string `json:"password" validate:"omitnil,min=5,max=72"`
	Name     *string `json:"name" validate:"omitnil,max=255"`
}

// UserService encapsulates user use-cases.
type UserService struct {
	users     store.UserRepository
	validator *validation.Validator
}

func NewUserService(users store.UserRepository, validator *validation.Validator) *UserService {
	return &UserService{users: users, validator: validator}
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.users.GetByID(ctx, id)
}

// Create registers an active, unprivileged user.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (types.User, error) {
	return s.create(ctx, in, false)
}

// CreateSuperuser registers an active user with staff and superuser flags.
func (s *UserService) CreateSuperuser(ctx context.Context, email, password string) (types.User, error) {
	return s.create(ctx, CreateUserInput{Email: email, Password: password}, true)
}

func (s *UserService) create(ctx context.Context, in CreateUserInput, superuser bool) (types.User, error) {
	in.Email = NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validator.Validate(in); err != nil {
		return types.User{}, err
	}
	if err := checkPassword(in.Password); err != nil {
		return types.User{}, err
	}

	if err := s.ensureEmailFree(ctx, in.Email, 0); err != nil {
		return types.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.users.Create(ctx, types.User{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      superuser,
		IsSuperuser:  superuser,
	})
	if errors.Is(err, store.ErrConflict) {
		return types.User{}, validation.FieldError("email", emailTakenMessage)
	}
	return user, err
}

// Authenticate returns the active user matching the credentials, or
// ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (types.User, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}
	if !user.IsActive || !auth.CheckPassword(user.PasswordHash, password) {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// RecordLogin stamps the user's last login time.
func (s *UserService) RecordLogin(ctx context.Context, userID int) error {
	return s.users.TouchLastLogin(ctx, userID, time.Now())
}

// Update applies profile changes to user. With partial unset, email and
// password must both be supplied.
func (s *UserService) Update(ctx context.Context, user types.User, in UpdateUserInput, partial bool) (types.User, error) {
	if in.Email != nil {
		normalized := NormalizeEmail(*in.Email)
		in.Email = &normalized
	}
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
	if !partial {
		missing := map[string]string{}
		if in.Email == nil {
			missing["email"] = "is required"
		}
		if in.Password == nil {
			missing["password"] = "is required"
		}
		if len(missing) > 0 {
			return types.User{}, &validation.Error{Message: "validation failed", Fields: missing}
		}
	}
	if err := s.validator.Validate(in); err != nil {
		return types.User{}, err
	}
	if in.Password != nil {
		if err := checkPassword(*in.Password); err != nil {
			return types.User{}, err
		}
	}

	if in.Email != nil && *in.Email != user.Email {
		if err := s.ensureEmailFree(ctx, *in.Email, user.ID); err != nil {
			return types.User{}, err
		}
		user.Email = *in.Email
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return types.User{}, err
		}
		user.PasswordHash = hash
	}

	updated, err := s.users.Update(ctx, user)
	if errors.Is(err, store.ErrConflict) {
		return types.User{}, validation.FieldError("email", emailTakenMessage)
	}
	return updated, err
}

// checkPassword catches what the struct tags cannot: blank passwords and
// multi-byte input over the bcrypt limit.
func checkPassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return validation.FieldError("password", "may not be blank")
	}
	if len(password) > auth.MaxPasswordBytes {
		return validation.FieldError("password", fmt.Sprintf("must not exceed %d bytes", auth.MaxPasswordBytes))
	}
	return nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string, ownerID int) error {
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != ownerID:
		return validation.FieldError("email", emailTakenMessage)
	case err == nil, errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return err
	}
}
