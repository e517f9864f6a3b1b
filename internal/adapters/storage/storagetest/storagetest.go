// Package storagetest opens migrated in-memory databases and seeds roster
// rows for store and handler tests.
package storagetest

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"squad/internal/adapters/storage"
)

// Epoch is the creation time stamped on seeded rows.
var Epoch = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

// Open returns a migrated in-memory database closed at test cleanup.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	db, err := storage.Open(storage.MemoryPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func exec(t testing.TB, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func created() string { return Epoch.Format(storage.TimeLayout) }

// Team inserts a team and returns its id.
func Team(t testing.TB, db *sql.DB, name string) string {
	t.Helper()
	id := uuid.NewString()
	exec(t, db, `INSERT INTO team (id, name, description, created_at) VALUES (?, ?, '', ?)`, id, name, created())
	return id
}

// User inserts a user with an unusable password hash and returns its id.
func User(t testing.TB, db *sql.DB, email, role string) string {
	t.Helper()
	id := uuid.NewString()
	exec(t, db, `INSERT INTO user (id, email, role, password_hash, created_at) VALUES (?, ?, ?, '', ?)`,
		id, email, role, created())
	return id
}

// Coach inserts a coach and returns its id.
func Coach(t testing.TB, db *sql.DB, userID, teamID string) string {
	t.Helper()
	id := uuid.NewString()
	exec(t, db, `INSERT INTO coach (id, user_id, team_id, created_at) VALUES (?, ?, ?, ?)`, id, userID, teamID, created())
	return id
}

// Player inserts a player and returns its id.
func Player(t testing.TB, db *sql.DB, userID, teamID string) string {
	t.Helper()
	id := uuid.NewString()
	exec(t, db, `INSERT INTO player (id, user_id, team_id, created_at) VALUES (?, ?, ?, ?)`, id, userID, teamID, created())
	return id
}

// Event inserts a one-hour event starting at start and returns its id.
func Event(t testing.TB, db *sql.DB, name, teamID string, start time.Time) string {
	t.Helper()
	id := uuid.NewString()
	exec(t, db, `INSERT INTO event (id, name, start_time, end_time, team_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, name, start.UTC().Format(storage.TimeLayout), start.Add(time.Hour).UTC().Format(storage.TimeLayout), teamID, created())
	return id
}

// TrainingPlan inserts a training plan; coachID may be empty.
func TrainingPlan(t testing.TB, db *sql.DB, name, playerID, coachID string) string {
	t.Helper()
	id := uuid.NewString()
	exec(t, db, `INSERT INTO training_plan (id, name, description, player_id, coach_id, created_at) VALUES (?, ?, '', ?, ?, ?)`,
		id, name, playerID, storage.NullString(coachID), created())
	return id
}
