package event

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"squad/internal/adapters/storage"
	"squad/internal/domain/roster"
)

const relTeam = "team"

var sortColumns = map[string]string{
	"name":       "name",
	"start_time": "start_time",
	"end_time":   "end_time",
	"created_at": "created_at",
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db    storage.SQLDB
	clock clockwork.Clock
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB, clock clockwork.Clock) *SQLiteStore {
	return &SQLiteStore{db: db, clock: clock}
}

// List returns events ordered by q (start time by default).
// PRE: q names only the team relation and no counts
func (s *SQLiteStore) List(ctx context.Context, q storage.Query) ([]roster.Event, error) {
	if err := checkQuery(q.Relations, q.Counts); err != nil {
		return nil, err
	}
	query := `SELECT ` + storage.EventColumns + ` FROM event` + storage.OrderClause(q, sortColumns, "start_time")
	limit, args := storage.LimitClause(q, nil)
	rows, err := s.db.QueryContext(ctx, query+limit, args...)
	if err != nil {
		return nil, err
	}
	events, err := storage.ScanAll(rows, storage.ScanEvent)
	if err != nil {
		return nil, err
	}
	if err := s.expand(ctx, events, q.Relations); err != nil {
		return nil, err
	}
	return events, nil
}

// Count returns the number of events.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	return storage.Count(ctx, s.db, "event")
}

// Get retrieves an Event by its ID.
// POST: Returns the event or ErrNotFound
func (s *SQLiteStore) Get(ctx context.Context, id string, relations []string) (roster.Event, error) {
	rels, counts := storage.ParseRelations(relations)
	if err := checkQuery(rels, counts); err != nil {
		return roster.Event{}, err
	}
	e, err := storage.ScanEvent(s.db.QueryRowContext(ctx, `SELECT `+storage.EventColumns+` FROM event WHERE id = ?`, id))
	if err != nil {
		return roster.Event{}, storage.Translate(err)
	}
	events := []roster.Event{e}
	if err := s.expand(ctx, events, rels); err != nil {
		return roster.Event{}, err
	}
	return events[0], nil
}

// Create inserts an Event.
// PRE: e has been validated (end not before start)
func (s *SQLiteStore) Create(ctx context.Context, e roster.Event) (roster.Event, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO event (id, name, start_time, end_time, team_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, storage.FormatTime(e.StartTime), storage.FormatTime(e.EndTime), e.TeamID,
		storage.FormatTime(e.CreatedAt))
	if err != nil {
		return roster.Event{}, storage.Translate(err)
	}
	return e, nil
}

// Update overwrites the editable fields of an existing Event.
func (s *SQLiteStore) Update(ctx context.Context, e roster.Event) (roster.Event, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE event SET name = ?, start_time = ?, end_time = ?, team_id = ? WHERE id = ?`,
		e.Name, storage.FormatTime(e.StartTime), storage.FormatTime(e.EndTime), e.TeamID, e.ID)
	if err != nil {
		return roster.Event{}, storage.Translate(err)
	}
	if err := storage.ExpectAffected(res); err != nil {
		return roster.Event{}, err
	}
	return s.Get(ctx, e.ID, nil)
}

// Delete removes an Event.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM event WHERE id = ?`, id)
	if err != nil {
		return storage.Translate(err)
	}
	return storage.ExpectAffected(res)
}

func checkQuery(relations, counts []string) error {
	if err := storage.CheckNames(relations, relTeam); err != nil {
		return err
	}
	return storage.CheckNames(counts)
}

func (s *SQLiteStore) expand(ctx context.Context, events []roster.Event, relations []string) error {
	if len(events) == 0 || !storage.Wants(relations, relTeam) {
		return nil
	}
	teamIDs := make([]string, len(events))
	for i, e := range events {
		teamIDs[i] = e.TeamID
	}
	teams, err := storage.LoadTeams(ctx, s.db, teamIDs)
	if err != nil {
		return err
	}
	for i := range events {
		if t, ok := teams[events[i].TeamID]; ok {
			events[i].Team = &t
		}
	}
	return nil
}
