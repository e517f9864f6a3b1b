package storage

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingObserver struct {
	mu  sync.Mutex
	ops []string
}

func (r *recordingObserver) ObserveQuery(op string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func openTimed(t *testing.T) (*TimedDB, *recordingObserver) {
	t.Helper()
	db, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec("CREATE TABLE test (id TEXT PRIMARY KEY, val TEXT)"); err != nil {
		t.Fatalf("create: %v", err)
	}
	obs := &recordingObserver{}
	return NewTimedDB(db, obs, time.Hour), obs
}

// TestTimedDB_ObservesEveryStatement verifies each wrapped call reports once.
func TestTimedDB_ObservesEveryStatement(t *testing.T) {
	tdb, obs := openTimed(t)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello"); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	rows, err := tdb.QueryContext(ctx, "SELECT id FROM test")
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	rows.Close()

	var val string
	if err := tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "1").Scan(&val); err != nil {
		t.Fatalf("QueryRowContext: %v", err)
	}
	if val != "hello" {
		t.Errorf("val = %q", val)
	}

	want := []string{"exec", "query", "query_row"}
	if len(obs.ops) != len(want) {
		t.Fatalf("ops = %v, want %v", obs.ops, want)
	}
	for i := range want {
		if obs.ops[i] != want[i] {
			t.Errorf("ops[%d] = %q, want %q", i, obs.ops[i], want[i])
		}
	}
}

// TestTimedDB_NilObserver verifies the wrapper works without an observer.
func TestTimedDB_NilObserver(t *testing.T) {
	db, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	tdb := NewTimedDB(db, nil, 0)
	if tdb.threshold != DefaultSlowQuery {
		t.Errorf("threshold = %v, want default", tdb.threshold)
	}
	if err := tdb.PingContext(context.Background()); err != nil {
		t.Fatalf("PingContext: %v", err)
	}
}
