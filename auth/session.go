package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aschepis/backscratcher/multichat/conversations"
)

const sessionsTable = "sessions"

var (
	// ErrSessionNotFound is returned when a session id has no row.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned for a session past its expiry.
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidToken is returned for a token that fails verification.
	ErrInvalidToken = errors.New("invalid session token")
)

// Session is one logged-in browser or API client. It holds the thread
// the client is currently writing to and persists changes to it.
type Session struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time

	current conversations.CurrentThread
	store   *SessionStore
}

// CurrentThread implements conversations.SessionState.
func (s *Session) CurrentThread() conversations.CurrentThread {
	return s.current
}

// SetCurrentThread implements conversations.SessionState. The in-memory
// value changes only once the row is updated.
func (s *Session) SetCurrentThread(ctx context.Context, thread conversations.CurrentThread) error {
	var value any
	if id, ok := thread.ID(); ok {
		value = id
	}

	query := sq.Update(sessionsTable).
		Set("current_thread_id", value).
		Where(sq.Eq{"id": s.ID})

	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	res, err := s.store.db.ExecContext(ctx, queryStr, args...)
	if err != nil {
		return fmt.Errorf("update session thread: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}

	s.current = thread
	return nil
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionStore persists sessions and issues the signed tokens that
// reference them.
type SessionStore struct {
	db     *sql.DB
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionStore creates a SessionStore signing tokens with secret.
func NewSessionStore(db *sql.DB, secret []byte, ttl time.Duration) *SessionStore {
	return &SessionStore{
		db:     db,
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the lifetime of new sessions.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// Create starts a session for userID with no active thread and returns it
// with its signed token.
func (s *SessionStore) Create(ctx context.Context, userID int64) (*Session, string, error) {
	now := time.Unix(s.now().Unix(), 0)
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		current:   conversations.NoActiveThread(),
		store:     s,
	}

	query := sq.Insert(sessionsTable).
		Columns("id", "user_id", "current_thread_id", "created_at", "expires_at").
		Values(sess.ID, sess.UserID, nil, sess.CreatedAt.Unix(), sess.ExpiresAt.Unix())

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, "", fmt.Errorf("build query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, queryStr, args...); err != nil {
		return nil, "", fmt.Errorf("insert session: %w", err)
	}

	token, err := s.sign(sess)
	if err != nil {
		return nil, "", err
	}
	return sess, token, nil
}

func (s *SessionStore) sign(sess *Session) (string, error) {
	claims := sessionClaims{
		SessionID: sess.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(sess.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// Authenticate verifies a token and returns the live session it names.
func (s *SessionStore) Authenticate(ctx context.Context, tokenString string) (*Session, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}

	sess, err := s.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if strconv.FormatInt(sess.UserID, 10) != claims.Subject {
		return nil, ErrInvalidToken
	}
	return sess, nil
}

// Get loads a session by id. Expired sessions yield ErrSessionExpired.
func (s *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	query := sq.Select("id", "user_id", "current_thread_id", "created_at", "expires_at").
		From(sessionsTable).
		Where(sq.Eq{"id": id})

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var (
		sess             = &Session{store: s}
		currentThread    sql.NullInt64
		created, expires int64
	)
	err = s.db.QueryRowContext(ctx, queryStr, args...).
		Scan(&sess.ID, &sess.UserID, &currentThread, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}

	sess.CreatedAt = time.Unix(created, 0)
	sess.ExpiresAt = time.Unix(expires, 0)
	if !s.now().Before(sess.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	if currentThread.Valid {
		sess.current = conversations.ActiveThread(currentThread.Int64)
	}
	return sess, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	queryStr, args, err := sq.Delete(sessionsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, queryStr, args...); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session past its expiry and returns how many
// were removed.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	queryStr, args, err := sq.Delete(sessionsTable).
		Where(sq.LtOrEq{"expires_at": s.now().Unix()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	res, err := s.db.ExecContext(ctx, queryStr, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
