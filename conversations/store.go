package conversations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/samber/lo"
)

const (
	threadsTable = "chat_threads"
	historyTable = "chat_history"
)

var (
	threadColumns = []string{"id", "user_id", "thread_name", "date_created"}
	entryColumns  = []string{"id", "thread_id", "user_input", "model_name", "model_response", "date_saved"}
)

// Store handles persistence of chat threads and their history.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateThread inserts a new thread for userID and returns it.
func (s *Store) CreateThread(ctx context.Context, userID int64, name string) (*Thread, error) {
	now := time.Now()
	query := sq.Insert(threadsTable).
		Columns("user_id", "thread_name", "date_created").
		Values(userID, name, now.Unix())

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, queryStr, args...)
	if err != nil {
		return nil, fmt.Errorf("insert thread: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read thread id: %w", err)
	}

	return &Thread{
		ID:        id,
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Unix(now.Unix(), 0),
	}, nil
}

// GetThread loads a thread by id. It returns ErrThreadNotFound if no such
// thread exists.
func (s *Store) GetThread(ctx context.Context, id int64) (*Thread, error) {
	query := sq.Select(threadColumns...).
		From(threadsTable).
		Where(sq.Eq{"id": id})

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var (
		t       Thread
		created int64
	)
	err = s.db.QueryRowContext(ctx, queryStr, args...).Scan(&t.ID, &t.UserID, &t.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query thread: %w", err)
	}
	t.CreatedAt = time.Unix(created, 0)
	return &t, nil
}

// ListThreads returns the threads owned by userID, newest first.
func (s *Store) ListThreads(ctx context.Context, userID int64) ([]Thread, error) {
	query := sq.Select(threadColumns...).
		From(threadsTable).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("date_created DESC", "id DESC")

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query threads: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Rows close error is not actionable

	var threads []Thread
	for rows.Next() {
		var (
			t       Thread
			created int64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &created); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		t.CreatedAt = time.Unix(created, 0)
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

// DeleteThread removes a thread. Its history rows go with it through the
// ON DELETE CASCADE foreign key.
func (s *Store) DeleteThread(ctx context.Context, id int64) error {
	queryStr, args, err := sq.Delete(threadsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, queryStr, args...)
	if err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrThreadNotFound
	}
	return nil
}

// AppendEntry stores one prompt/reply exchange. Prior entries are never
// modified.
func (s *Store) AppendEntry(ctx context.Context, threadID int64, userInput, modelName, modelResponse string) (*Entry, error) {
	input, err := EncodeText(userInput)
	if err != nil {
		return nil, fmt.Errorf("encode user input: %w", err)
	}
	response, err := EncodeText(modelResponse)
	if err != nil {
		return nil, fmt.Errorf("encode model response: %w", err)
	}

	now := time.Now().Unix()
	query := sq.Insert(historyTable).
		Columns("thread_id", "user_input", "model_name", "model_response", "date_saved").
		Values(threadID, input, modelName, response, now)

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, queryStr, args...)
	if err != nil {
		return nil, fmt.Errorf("insert history: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read history id: %w", err)
	}

	return &Entry{
		ID:            id,
		ThreadID:      threadID,
		UserInput:     userInput,
		ModelName:     modelName,
		ModelResponse: modelResponse,
		SavedAt:       time.Unix(now, 0),
	}, nil
}

// RecentEntries returns at most limit entries from the end of a thread,
// oldest first. The rows are read newest first and then reversed.
func (s *Store) RecentEntries(ctx context.Context, threadID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := sq.Select(entryColumns...).
		From(historyTable).
		Where(sq.Eq{"thread_id": threadID}).
		OrderBy("id DESC").
		Limit(uint64(limit))

	entries, err := s.queryEntries(ctx, query)
	if err != nil {
		return nil, err
	}
	slices.Reverse(entries)
	return entries, nil
}

// Entries returns the whole history of a thread in insertion order.
func (s *Store) Entries(ctx context.Context, threadID int64) ([]Entry, error) {
	query := sq.Select(entryColumns...).
		From(historyTable).
		Where(sq.Eq{"thread_id": threadID}).
		OrderBy("id ASC")

	return s.queryEntries(ctx, query)
}

// ModelsUsed returns the distinct model names recorded in a thread, in the
// order they were first used.
func (s *Store) ModelsUsed(ctx context.Context, threadID int64) ([]string, error) {
	query := sq.Select("model_name").
		From(historyTable).
		Where(sq.Eq{"thread_id": threadID}).
		OrderBy("id ASC")

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query models: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Rows close error is not actionable

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan model name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lo.Uniq(names), nil
}

func (s *Store) queryEntries(ctx context.Context, query sq.SelectBuilder) ([]Entry, error) {
	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Rows close error is not actionable

	var entries []Entry
	for rows.Next() {
		var (
			e               Entry
			input, response []byte
			saved           int64
		)
		if err := rows.Scan(&e.ID, &e.ThreadID, &input, &e.ModelName, &response, &saved); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if e.UserInput, err = DecodeText(input); err != nil {
			return nil, fmt.Errorf("decode user input of entry %d: %w", e.ID, err)
		}
		if e.ModelResponse, err = DecodeText(response); err != nil {
			return nil, fmt.Errorf("decode model response of entry %d: %w", e.ID, err)
		}
		e.SavedAt = time.Unix(saved, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
