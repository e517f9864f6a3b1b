package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
)

func TestParseRelations(t *testing.T) {
	rels, counts := ParseRelations([]string{"user", " team ", "training_plan.count", ""})
	if len(rels) != 2 || rels[0] != "user" || rels[1] != "team" {
		t.Errorf("relations = %v", rels)
	}
	if len(counts) != 1 || counts[0] != "training_plan" {
		t.Errorf("counts = %v", counts)
	}
}

func TestCheckNames(t *testing.T) {
	if err := CheckNames([]string{"team"}, "team", "user"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CheckNames([]string{"stadium"}, "team"); !errors.Is(err, ErrUnknownRelation) {
		t.Errorf("err = %v, want ErrUnknownRelation", err)
	}
}

func TestOrderClause(t *testing.T) {
	cols := map[string]string{"name": "name"}
	tests := []struct {
		q    Query
		want string
	}{
		{Query{Sort: "name", Dir: "desc"}, " ORDER BY name DESC, id ASC"},
		{Query{Sort: "name"}, " ORDER BY name ASC, id ASC"},
		{Query{Sort: "1; DROP TABLE team", Dir: "DESC"}, " ORDER BY created_at DESC, id ASC"},
	}
	for _, tt := range tests {
		if got := OrderClause(tt.q, cols, "created_at"); got != tt.want {
			t.Errorf("OrderClause(%+v) = %q, want %q", tt.q, got, tt.want)
		}
	}
}

func TestLimitClause(t *testing.T) {
	clause, args := LimitClause(Query{}, nil)
	if clause != "" || len(args) != 0 {
		t.Errorf("no limit: %q %v", clause, args)
	}
	clause, args = LimitClause(Query{Limit: 10, Offset: -5}, []any{"x"})
	if clause != " LIMIT ? OFFSET ?" || len(args) != 3 || args[1] != 10 || args[2] != 0 {
		t.Errorf("limit: %q %v", clause, args)
	}
}

func TestPlaceholders(t *testing.T) {
	if got := Placeholders(3); got != "?, ?, ?" {
		t.Errorf("Placeholders(3) = %q", got)
	}
	if got := Placeholders(0); got != "" {
		t.Errorf("Placeholders(0) = %q", got)
	}
}

func TestTranslate(t *testing.T) {
	if !errors.Is(Translate(sql.ErrNoRows), ErrNotFound) {
		t.Error("ErrNoRows should map to ErrNotFound")
	}
	if Translate(nil) != nil {
		t.Error("nil should stay nil")
	}
	other := fmt.Errorf("disk on fire")
	if Translate(other) != other {
		t.Error("unrelated errors pass through")
	}

	db, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	db.Exec(`CREATE TABLE parent (id TEXT PRIMARY KEY)`)
	db.Exec(`CREATE TABLE child (id TEXT PRIMARY KEY, parent_id TEXT NOT NULL REFERENCES parent(id))`)
	_, err = db.Exec(`INSERT INTO child (id, parent_id) VALUES ('c1', 'nobody')`)
	if !errors.Is(Translate(err), ErrConflict) {
		t.Errorf("FK failure = %v, want ErrConflict", Translate(err))
	}
}
