package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aschepis/backscratcher/multichat/conversations"
	"github.com/aschepis/backscratcher/multichat/migrations"
)

var testSecret = []byte("test-session-secret")

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := migrations.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Run(db, zerolog.Nop()))
	return db
}

func insertUser(t *testing.T, db *sql.DB, email string) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO users (email, pwd_hash, created_at) VALUES (?, ?, ?)`, email, []byte("x"), time.Now().Unix())
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func TestSessionStore_CreateAndAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	userID := insertUser(t, db, "a@example.com")
	store := NewSessionStore(db, testSecret, time.Hour)
	ctx := context.Background()

	sess, token, err := store.Create(ctx, userID)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	_, active := sess.CurrentThread().ID()
	assert.False(t, active)

	got, err := store.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, userID, got.UserID)
	assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))
}

func TestSession_CurrentThreadPersists(t *testing.T) {
	db := setupTestDB(t)
	userID := insertUser(t, db, "a@example.com")
	threads := conversations.NewStore(db)
	store := NewSessionStore(db, testSecret, time.Hour)
	ctx := context.Background()

	thread, err := threads.CreateThread(ctx, userID, "t")
	require.NoError(t, err)
	sess, token, err := store.Create(ctx, userID)
	require.NoError(t, err)

	require.NoError(t, sess.SetCurrentThread(ctx, conversations.ActiveThread(thread.ID)))

	reloaded, err := store.Authenticate(ctx, token)
	require.NoError(t, err)
	id, ok := reloaded.CurrentThread().ID()
	require.True(t, ok)
	assert.Equal(t, thread.ID, id)

	require.NoError(t, reloaded.SetCurrentThread(ctx, conversations.NoActiveThread()))
	reloaded, err = store.Get(ctx, sess.ID)
	require.NoError(t, err)
	_, ok = reloaded.CurrentThread().ID()
	assert.False(t, ok)
}

func TestSession_DeletedThreadClearsSlot(t *testing.T) {
	db := setupTestDB(t)
	userID := insertUser(t, db, "a@example.com")
	threads := conversations.NewStore(db)
	store := NewSessionStore(db, testSecret, time.Hour)
	ctx := context.Background()

	thread, err := threads.CreateThread(ctx, userID, "t")
	require.NoError(t, err)
	sess, _, err := store.Create(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, sess.SetCurrentThread(ctx, conversations.ActiveThread(thread.ID)))
	require.NoError(t, threads.DeleteThread(ctx, thread.ID))

	reloaded, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	_, ok := reloaded.CurrentThread().ID()
	assert.False(t, ok)
}

func TestSession_SetCurrentThreadOnDeletedSession(t *testing.T) {
	db := setupTestDB(t)
	userID := insertUser(t, db, "a@example.com")
	store := NewSessionStore(db, testSecret, time.Hour)
	ctx := context.Background()

	sess, _, err := store.Create(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, sess.ID))

	err = sess.SetCurrentThread(ctx, conversations.NoActiveThread())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_Authenticate_Failures(t *testing.T) {
	db := setupTestDB(t)
	userID := insertUser(t, db, "a@example.com")
	store := NewSessionStore(db, testSecret, time.Hour)
	ctx := context.Background()

	sess, token, err := store.Create(ctx, userID)
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := store.Authenticate(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewSessionStore(db, []byte("other-secret"), time.Hour)
		_, err := other.Authenticate(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sid": sess.ID, "sub": "1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = store.Authenticate(ctx, unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("subject mismatch", func(t *testing.T) {
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
			SessionID: sess.ID,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "999",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString(testSecret)
		require.NoError(t, err)
		_, err = store.Authenticate(ctx, forged)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("logged out", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, sess.ID))
		_, err := store.Authenticate(ctx, token)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestSessionStore_Expiry(t *testing.T) {
	db := setupTestDB(t)
	userID := insertUser(t, db, "a@example.com")
	store := NewSessionStore(db, testSecret, time.Hour)
	ctx := context.Background()

	start := time.Now()
	store.now = func() time.Time { return start }
	sess, token, err := store.Create(ctx, userID)
	require.NoError(t, err)

	store.now = func() time.Time { return start.Add(2 * time.Hour) }

	_, err = store.Authenticate(ctx, token)
	assert.True(t, errors.Is(err, ErrSessionExpired), "got %v", err)
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)

	removed, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
