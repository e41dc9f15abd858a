package conversations

import (
	"context"
	"strconv"
)

const (
	threadNameChars     = 10
	threadEllipsisAfter = 50
)

// ThreadName derives a thread title from the prompt that opened it: the
// first ten characters, with "..." appended only when the prompt is longer
// than fifty characters.
func ThreadName(prompt string) string {
	runes := []rune(prompt)
	name := runes
	if len(name) > threadNameChars {
		name = name[:threadNameChars]
	}
	if len(runes) > threadEllipsisAfter {
		return string(name) + "..."
	}
	return string(name)
}

// CurrentThread is the thread a session is writing to. The zero value is
// NoActiveThread.
type CurrentThread struct {
	id     int64
	active bool
}

// NoActiveThread reports that the next message starts a new thread.
func NoActiveThread() CurrentThread {
	return CurrentThread{}
}

// ActiveThread reports that messages go to thread id.
func ActiveThread(id int64) CurrentThread {
	return CurrentThread{id: id, active: true}
}

// ID returns the active thread id and whether there is one.
func (c CurrentThread) ID() (int64, bool) {
	return c.id, c.active
}

func (c CurrentThread) String() string {
	if !c.active {
		return "none"
	}
	return strconv.FormatInt(c.id, 10)
}

// SessionState is the per-session slot holding the current thread.
type SessionState interface {
	CurrentThread() CurrentThread
	SetCurrentThread(ctx context.Context, thread CurrentThread) error
}
