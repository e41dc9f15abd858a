package conversations

import (
	"errors"
	"time"
)

var (
	// ErrThreadNotFound is returned when a thread id does not exist.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrThreadForbidden is returned when a thread belongs to another user.
	ErrThreadForbidden = errors.New("thread belongs to another user")
)

// Thread is a named conversation owned by one user.
type Thread struct {
	ID        int64
	UserID    int64
	Name      string
	CreatedAt time.Time
}

// Entry is one persisted prompt/reply exchange within a thread.
type Entry struct {
	ID            int64
	ThreadID      int64
	UserInput     string
	ModelName     string
	ModelResponse string
	SavedAt       time.Time
}

// ThreadSummary is a thread together with the distinct models that
// answered in it, in first-use order.
type ThreadSummary struct {
	Thread
	Models []string
}
