package team

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"squad/internal/adapters/storage"
	"squad/internal/domain/roster"
)

const (
	relPlayer = "player"
	relCoach  = "coach"
	relEvent  = "event"

	relPlayerUser = "player.user"
	relCoachUser  = "coach.user"
)

var sortColumns = map[string]string{
	"name":       "name",
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

// List returns teams ordered by q, with requested relations and counts.
// PRE: q names only player, coach and event
// POST: returns ErrUnknownRelation for any other name
func (s *SQLiteStore) List(ctx context.Context, q storage.Query) ([]roster.Team, error) {
	if err := checkQuery(q.Relations, q.Counts); err != nil {
		return nil, err
	}
	query := `SELECT ` + storage.TeamColumns + ` FROM team` + storage.OrderClause(q, sortColumns, "name")
	limit, args := storage.LimitClause(q, nil)
	rows, err := s.db.QueryContext(ctx, query+limit, args...)
	if err != nil {
		return nil, err
	}
	teams, err := storage.ScanAll(rows, storage.ScanTeam)
	if err != nil {
		return nil, err
	}
	if err := s.expand(ctx, teams, q.Relations, q.Counts); err != nil {
		return nil, err
	}
	return teams, nil
}

// Count returns the number of teams.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	return storage.Count(ctx, s.db, "team")
}

// Get retrieves a Team by its ID.
// PRE: id is non-empty
// POST: Returns the team or ErrNotFound
func (s *SQLiteStore) Get(ctx context.Context, id string, relations []string) (roster.Team, error) {
	rels, counts := storage.ParseRelations(relations)
	if err := checkQuery(rels, counts); err != nil {
		return roster.Team{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+storage.TeamColumns+` FROM team WHERE id = ?`, id)
	t, err := storage.ScanTeam(row)
	if err != nil {
		return roster.Team{}, storage.Translate(err)
	}
	teams := []roster.Team{t}
	if err := s.expand(ctx, teams, rels, counts); err != nil {
		return roster.Team{}, err
	}
	return teams[0], nil
}

// Create inserts a Team, assigning an ID and creation time when unset.
// PRE: t has been validated
func (s *SQLiteStore) Create(ctx context.Context, t roster.Team) (roster.Team, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.clock.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO team (id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Name, t.Description, storage.FormatTime(t.CreatedAt))
	if err != nil {
		return roster.Team{}, storage.Translate(err)
	}
	return t, nil
}

// Update overwrites the editable fields of an existing Team.
// POST: Returns ErrNotFound if no team has t.ID
func (s *SQLiteStore) Update(ctx context.Context, t roster.Team) (roster.Team, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE team SET name = ?, description = ? WHERE id = ?`, t.Name, t.Description, t.ID)
	if err != nil {
		return roster.Team{}, storage.Translate(err)
	}
	if err := storage.ExpectAffected(res); err != nil {
		return roster.Team{}, err
	}
	return s.Get(ctx, t.ID, nil)
}

// Delete removes a Team.
// POST: ErrNotFound if missing; ErrConflict while coaches, players or events reference it
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM team WHERE id = ?`, id)
	if err != nil {
		return storage.Translate(err)
	}
	return storage.ExpectAffected(res)
}

func checkQuery(relations, counts []string) error {
	if err := storage.CheckNames(relations, relPlayer, relCoach, relEvent, relPlayerUser, relCoachUser); err != nil {
		return err
	}
	return storage.CheckNames(counts, relPlayer, relCoach, relEvent)
}

func (s *SQLiteStore) expand(ctx context.Context, teams []roster.Team, relations, counts []string) error {
	if len(teams) == 0 {
		return nil
	}
	ids := make([]string, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}

	if storage.Wants(relations, relPlayer) {
		byTeam, err := storage.PlayersBy(ctx, s.db, "team_id", ids, storage.Wants(relations, relPlayerUser))
		if err != nil {
			return err
		}
		for i := range teams {
			teams[i].Players = byTeam[teams[i].ID]
		}
	}
	if storage.Wants(relations, relCoach) {
		byTeam, err := storage.CoachesBy(ctx, s.db, "team_id", ids, storage.Wants(relations, relCoachUser))
		if err != nil {
			return err
		}
		for i := range teams {
			teams[i].Coaches = byTeam[teams[i].ID]
		}
	}
	if storage.Wants(relations, relEvent) {
		byTeam, err := storage.EventsByTeam(ctx, s.db, ids)
		if err != nil {
			return err
		}
		for i := range teams {
			teams[i].Events = byTeam[teams[i].ID]
		}
	}

	for _, name := range counts {
		n, err := storage.CountBy(ctx, s.db, name, "team_id", ids)
		if err != nil {
			return err
		}
		for i := range teams {
			if teams[i].Count == nil {
				teams[i].Count = roster.Counts{}
			}
			teams[i].Count[name] = n[teams[i].ID]
		}
	}
	return nil
}
