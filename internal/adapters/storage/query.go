package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store errors shared by every entity store.
var (
	ErrNotFound        = errors.New("record not found")
	ErrUnknownRelation = errors.New("unknown relation")
	ErrConflict        = errors.New("record conflicts with related data")
)

// TimeLayout is the text format timestamps are stored in.
const TimeLayout = time.RFC3339

// Sort directions
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// countSuffix marks a relation name as a count request ("training_plan.count").
const countSuffix = ".count"

// Query selects, orders and expands records.
type Query struct {
	Relations []string // relations to expand on each record
	Counts    []string // relations to count on each record
	Sort      string
	Dir       string
	Limit     int // 0 means no limit
	Offset    int
}

// ParseRelations splits a mixed relation list into expansions and counts.
// "training_plan.count" requests a count, "team" an expansion.
func ParseRelations(names []string) (relations, counts []string) {
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if base, ok := strings.CutSuffix(n, countSuffix); ok {
			counts = append(counts, base)
			continue
		}
		relations = append(relations, n)
	}
	return relations, counts
}

// CheckNames rejects any requested name not in allowed.
func CheckNames(requested []string, allowed ...string) error {
	for _, name := range requested {
		if !slices.Contains(allowed, name) {
			return fmt.Errorf("%w: %q", ErrUnknownRelation, name)
		}
	}
	return nil
}

// Wants reports whether name was requested.
func Wants(requested []string, name string) bool {
	return slices.Contains(requested, name)
}

// OrderClause builds an ORDER BY for q using only whitelisted columns.
// PRE: columns maps sort keys to SQL expressions
func OrderClause(q Query, columns map[string]string, fallback string) string {
	col, ok := columns[q.Sort]
	if !ok {
		col = fallback
	}
	dir := "ASC"
	if strings.EqualFold(q.Dir, SortDesc) {
		dir = "DESC"
	}
	// id breaks ties so pages are stable.
	return " ORDER BY " + col + " " + dir + ", id ASC"
}

// LimitClause appends LIMIT/OFFSET when q.Limit is set.
func LimitClause(q Query, args []any) (string, []any) {
	if q.Limit <= 0 {
		return "", args
	}
	return " LIMIT ? OFFSET ?", append(args, q.Limit, max(q.Offset, 0))
}

// Placeholders returns "?, ?, ..." with n markers.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// FormatTime renders t in the storage layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime reads a stored timestamp; malformed values yield the zero time.
func ParseTime(s string) time.Time {
	t, _ := time.Parse(TimeLayout, s)
	return t
}

// NullString maps "" to NULL.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Translate maps driver errors to store errors.
// POST: sql.ErrNoRows becomes ErrNotFound; constraint failures wrap ErrConflict
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("%w: %s", ErrConflict, constraintDetail(se.Code()))
	}
	return err
}

func constraintDetail(code int) string {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return "it is still referenced by other records, or references a record that does not exist"
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return "a record with the same value already exists"
	}
	return "constraint failed"
}

// ExpectAffected returns ErrNotFound when a write touched no rows.
func ExpectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of rows in table.
// PRE: table is a trusted identifier
func Count(ctx context.Context, db SQLDB, table string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n)
	return n, err
}
