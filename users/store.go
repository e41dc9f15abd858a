package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"
)

const usersTable = "users"

var userColumns = []string{"id", "email", "pwd_hash", "status", "created_at"}

// Store handles persistence of user accounts.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a Free account. A duplicate email yields ErrEmailTaken.
func (s *Store) Create(ctx context.Context, email string, passwordHash []byte) (*User, error) {
	now := time.Now().Unix()
	query := sq.Insert(usersTable).
		Columns("email", "pwd_hash", "status", "created_at").
		Values(email, passwordHash, string(StatusFree), now)

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, queryStr, args...)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read user id: %w", err)
	}

	return &User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Status:       StatusFree,
		CreatedAt:    time.Unix(now, 0),
	}, nil
}

// GetByEmail looks up a user by the exact stored email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.getOne(ctx, sq.Eq{"email": email})
}

// GetByID looks up a user by id.
func (s *Store) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.getOne(ctx, sq.Eq{"id": id})
}

func (s *Store) getOne(ctx context.Context, where sq.Eq) (*User, error) {
	queryStr, args, err := sq.Select(userColumns...).From(usersTable).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var (
		u       User
		status  string
		created int64
	)
	err = s.db.QueryRowContext(ctx, queryStr, args...).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &status, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	u.Status = Status(status)
	u.CreatedAt = time.Unix(created, 0)
	return &u, nil
}
