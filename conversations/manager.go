package conversations

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/aschepis/backscratcher/multichat/llm"
)

// Manager ties a session's current thread to persisted threads. It decides
// when a thread is reused or created and converts stored history into the
// turns handed to an LLM.
type Manager struct {
	store  *Store
	logger zerolog.Logger
}

// NewManager creates a Manager backed by store.
func NewManager(store *Store, logger zerolog.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger.With().Str("component", "conversations").Logger(),
	}
}

// ResolveOrCreate returns the session's current thread when it still exists
// and belongs to userID. Otherwise it commits a new thread named after the
// prompt and makes it current.
func (m *Manager) ResolveOrCreate(ctx context.Context, sess SessionState, userID int64, prompt string) (*Thread, error) {
	if id, ok := sess.CurrentThread().ID(); ok {
		thread, err := m.store.GetThread(ctx, id)
		switch {
		case err == nil && thread.UserID == userID:
			return thread, nil
		case err != nil && !errors.Is(err, ErrThreadNotFound):
			return nil, err
		}
		m.logger.Debug().Int64("threadID", id).Msg("Current thread is gone or not owned; starting a new one")
	}

	return m.startThread(ctx, sess, userID, prompt)
}

// EnsureThread prepares a thread for a multi-model exchange. The current
// thread is reused when no model has answered in it yet or when the models
// that did are the requested models. Otherwise a new thread is created and
// made current. The returned flag reports whether a thread was created.
func (m *Manager) EnsureThread(ctx context.Context, sess SessionState, userID int64, prompt string, models []string) (*ThreadSummary, bool, error) {
	if id, ok := sess.CurrentThread().ID(); ok {
		thread, err := m.store.GetThread(ctx, id)
		if err != nil && !errors.Is(err, ErrThreadNotFound) {
			return nil, false, err
		}
		if err == nil && thread.UserID == userID {
			used, err := m.store.ModelsUsed(ctx, thread.ID)
			if err != nil {
				return nil, false, err
			}
			if len(used) == 0 {
				return &ThreadSummary{Thread: *thread, Models: models}, false, nil
			}
			if sameModels(used, models) {
				return &ThreadSummary{Thread: *thread, Models: used}, false, nil
			}
		}
	}

	thread, err := m.startThread(ctx, sess, userID, prompt)
	if err != nil {
		return nil, false, err
	}
	return &ThreadSummary{Thread: *thread, Models: models}, true, nil
}

// Thread returns a thread owned by userID.
func (m *Manager) Thread(ctx context.Context, userID, threadID int64) (*Thread, error) {
	thread, err := m.store.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread.UserID != userID {
		return nil, ErrThreadForbidden
	}
	return thread, nil
}

// ListThreads returns the user's threads, newest first, with the models used
// in each.
func (m *Manager) ListThreads(ctx context.Context, userID int64) ([]ThreadSummary, error) {
	threads, err := m.store.ListThreads(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ThreadSummary, 0, len(threads))
	for _, t := range threads {
		models, err := m.store.ModelsUsed(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, ThreadSummary{Thread: t, Models: models})
	}
	return summaries, nil
}

// DeleteThread removes a thread owned by userID together with its history.
// If the session was writing to it, the session is reset.
func (m *Manager) DeleteThread(ctx context.Context, sess SessionState, userID, threadID int64) error {
	if _, err := m.Thread(ctx, userID, threadID); err != nil {
		return err
	}
	if err := m.store.DeleteThread(ctx, threadID); err != nil {
		return err
	}

	if id, ok := sess.CurrentThread().ID(); ok && id == threadID {
		if err := sess.SetCurrentThread(ctx, NoActiveThread()); err != nil {
			return fmt.Errorf("clear current thread: %w", err)
		}
	}
	m.logger.Info().Int64("threadID", threadID).Int64("userID", userID).Msg("Deleted thread")
	return nil
}

// Reset detaches the session from its thread so the next message opens a
// new one. Calling it without a current thread is a no-op.
func (m *Manager) Reset(ctx context.Context, sess SessionState) error {
	if _, ok := sess.CurrentThread().ID(); !ok {
		return nil
	}
	return sess.SetCurrentThread(ctx, NoActiveThread())
}

// AppendTurn persists one completed exchange.
func (m *Manager) AppendTurn(ctx context.Context, threadID int64, prompt, modelName, reply string) (*Entry, error) {
	return m.store.AppendEntry(ctx, threadID, prompt, modelName, reply)
}

// BoundedHistory returns at most maxTurns of the latest turns, oldest first.
func (m *Manager) BoundedHistory(ctx context.Context, threadID int64, maxTurns int) ([]llm.Turn, error) {
	entries, err := m.store.RecentEntries(ctx, threadID, maxTurns)
	if err != nil {
		return nil, err
	}
	return lo.Map(entries, func(e Entry, _ int) llm.Turn {
		return llm.Turn{User: e.UserInput, Assistant: e.ModelResponse}
	}), nil
}

// FullHistory returns every entry of a thread in insertion order.
func (m *Manager) FullHistory(ctx context.Context, threadID int64) ([]Entry, error) {
	return m.store.Entries(ctx, threadID)
}

func (m *Manager) startThread(ctx context.Context, sess SessionState, userID int64, prompt string) (*Thread, error) {
	thread, err := m.store.CreateThread(ctx, userID, ThreadName(prompt))
	if err != nil {
		return nil, err
	}
	if err := sess.SetCurrentThread(ctx, ActiveThread(thread.ID)); err != nil {
		return nil, fmt.Errorf("set current thread: %w", err)
	}
	m.logger.Debug().Int64("threadID", thread.ID).Int64("userID", userID).Msg("Started thread")
	return thread, nil
}

func sameModels(a, b []string) bool {
	ua, ub := lo.Uniq(a), lo.Uniq(b)
	return len(ua) == len(ub) && lo.Every(ua, ub)
}
