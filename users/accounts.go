package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 256
)

// PasswordHasher turns passwords into stored blobs and verifies them.
type PasswordHasher interface {
	Hash(plaintext string) ([]byte, error)
	Check(plaintext string, blob []byte) bool
}

// Accounts implements registration and login on top of a Store.
type Accounts struct {
	store  *Store
	hasher PasswordHasher
	logger zerolog.Logger
}

// NewAccounts creates an Accounts service.
func NewAccounts(store *Store, hasher PasswordHasher, logger zerolog.Logger) *Accounts {
	return &Accounts{
		store:  store,
		hasher: hasher,
		logger: logger.With().Str("component", "users").Logger(),
	}
}

// Register validates the form and creates a Free account.
func (a *Accounts) Register(ctx context.Context, email, password, confirm string) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, &ValidationError{Field: "email", Message: "This field is required."}
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if password != confirm {
		return nil, &ValidationError{Field: "confirm_password", Message: "Passwords don't match"}
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := a.store.Create(ctx, email, hash)
	if err != nil {
		return nil, err
	}

	a.logger.Info().Int64("user_id", user.ID).Msg("User registered")
	return user, nil
}

// Login returns the user whose credentials match. An unknown email and a
// wrong password both yield ErrInvalidCredentials.
func (a *Accounts) Login(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, &ValidationError{Field: "email", Message: "This field is required."}
	}
	if password == "" {
		return nil, &ValidationError{Field: "password", Message: "This field is required."}
	}

	user, err := a.store.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !a.hasher.Check(password, user.PasswordHash) {
		a.logger.Debug().Int64("user_id", user.ID).Msg("Password mismatch")
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Get returns the account for id.
func (a *Accounts) Get(ctx context.Context, id int64) (*User, error) {
	return a.store.GetByID(ctx, id)
}

func validatePassword(password string) error {
	if password == "" {
		return &ValidationError{Field: "password", Message: "This field is required."}
	}
	if n := utf8.RuneCountInString(password); n < minPasswordLen || n > maxPasswordLen {
		return &ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("Field must be between %d and %d characters long.", minPasswordLen, maxPasswordLen),
		}
	}
	return nil
}
