package users

import (
	"errors"
	"time"
)

var (
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("there is already an account with that email address")
	// ErrUserNotFound is returned when no user matches a lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email address or password")
)

// Status is the account tier.
type Status string

const (
	StatusFree    Status = "Free"
	StatusPremium Status = "Premium"
)

// User is a registered account. PasswordHash is the opaque blob produced
// by auth.Hasher.
type User struct {
	ID           int64
	Email        string
	PasswordHash []byte
	Status       Status
	CreatedAt    time.Time
}

// ValidationError reports unusable registration or login input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
