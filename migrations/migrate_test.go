package migrations

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestRun_CreatesSchemaAndIsIdempotent(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup

	if err := Run(db, zerolog.Nop()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := Run(db, zerolog.Nop()); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	for _, table := range []string{"users", "chat_threads", "chat_history", "sessions"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestOpen_EnforcesForeignKeys(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup

	var enabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if enabled != 1 {
		t.Errorf("expected foreign_keys=1, got %d", enabled)
	}
}
