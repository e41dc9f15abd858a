package users

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aschepis/backscratcher/multichat/auth"
)

func newTestAccounts(t *testing.T) *Accounts {
	t.Helper()
	hasher, err := auth.NewHasher(bytes.Repeat([]byte{3}, 32),
		auth.WithParams(auth.Params{Time: 1, Memory: 64, Threads: 1, KeyLen: 32, SaltLen: 16}))
	require.NoError(t, err)
	return NewAccounts(NewStore(setupTestDB(t)), hasher, zerolog.Nop())
}

func TestAccounts_RegisterAndLogin(t *testing.T) {
	accounts := newTestAccounts(t)
	ctx := context.Background()

	user, err := accounts.Register(ctx, " ada@example.com ", "password123", "password123")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotContains(t, string(user.PasswordHash), "password123")

	got, err := accounts.Login(ctx, "ada@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = accounts.Login(ctx, "ada@example.com", "password124")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = accounts.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAccounts_RegisterValidation(t *testing.T) {
	accounts := newTestAccounts(t)
	ctx := context.Background()

	tests := []struct {
		name            string
		email, password string
		confirm         string
		field           string
	}{
		{"missing email", "", "password123", "password123", "email"},
		{"missing password", "a@example.com", "", "", "password"},
		{"short password", "a@example.com", "short", "short", "password"},
		{"long password", "a@example.com", strings.Repeat("x", 257), strings.Repeat("x", 257), "password"},
		{"mismatch", "a@example.com", "password123", "password321", "confirm_password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := accounts.Register(ctx, tt.email, tt.password, tt.confirm)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	_, err := accounts.Register(ctx, "a@example.com", strings.Repeat("x", 256), strings.Repeat("x", 256))
	assert.NoError(t, err, "256 characters is the upper bound")
}

func TestAccounts_RegisterDuplicate(t *testing.T) {
	accounts := newTestAccounts(t)
	ctx := context.Background()

	_, err := accounts.Register(ctx, "ada@example.com", "password123", "password123")
	require.NoError(t, err)
	_, err = accounts.Register(ctx, "ada@example.com", "password456", "password456")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAccounts_LoginValidation(t *testing.T) {
	accounts := newTestAccounts(t)

	_, err := accounts.Login(context.Background(), "", "password123")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}
