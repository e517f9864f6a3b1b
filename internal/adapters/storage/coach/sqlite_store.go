package coach

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"squad/internal/adapters/storage"
	"squad/internal/domain/roster"
)

const (
	relUser         = "user"
	relTeam         = "team"
	relTrainingPlan = "training_plan"
)

var sortColumns = map[string]string{
	"created_at": "created_at",
	"team_id":    "team_id",
	"user_id":    "user_id",
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

// List returns coaches ordered by q, with requested relations and counts.
func (s *SQLiteStore) List(ctx context.Context, q storage.Query) ([]roster.Coach, error) {
	if err := checkQuery(q.Relations, q.Counts); err != nil {
		return nil, err
	}
	query := `SELECT ` + storage.CoachColumns + ` FROM coach` + storage.OrderClause(q, sortColumns, "created_at")
	limit, args := storage.LimitClause(q, nil)
	rows, err := s.db.QueryContext(ctx, query+limit, args...)
	if err != nil {
		return nil, err
	}
	coaches, err := storage.ScanAll(rows, storage.ScanCoach)
	if err != nil {
		return nil, err
	}
	if err := s.expand(ctx, coaches, q.Relations, q.Counts); err != nil {
		return nil, err
	}
	return coaches, nil
}

// Count returns the number of coaches.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	return storage.Count(ctx, s.db, "coach")
}

// Get retrieves a Coach by its ID.
// POST: Returns the coach or ErrNotFound
func (s *SQLiteStore) Get(ctx context.Context, id string, relations []string) (roster.Coach, error) {
	rels, counts := storage.ParseRelations(relations)
	if err := checkQuery(rels, counts); err != nil {
		return roster.Coach{}, err
	}
	c, err := storage.ScanCoach(s.db.QueryRowContext(ctx, `SELECT `+storage.CoachColumns+` FROM coach WHERE id = ?`, id))
	if err != nil {
		return roster.Coach{}, storage.Translate(err)
	}
	coaches := []roster.Coach{c}
	if err := s.expand(ctx, coaches, rels, counts); err != nil {
		return roster.Coach{}, err
	}
	return coaches[0], nil
}

// Create inserts a Coach.
// POST: ErrConflict when the user or team does not exist
func (s *SQLiteStore) Create(ctx context.Context, c roster.Coach) (roster.Coach, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.clock.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO coach (id, user_id, team_id, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.UserID, c.TeamID, storage.FormatTime(c.CreatedAt))
	if err != nil {
		return roster.Coach{}, storage.Translate(err)
	}
	return c, nil
}

// Update reassigns a Coach's user and team.
func (s *SQLiteStore) Update(ctx context.Context, c roster.Coach) (roster.Coach, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE coach SET user_id = ?, team_id = ? WHERE id = ?`, c.UserID, c.TeamID, c.ID)
	if err != nil {
		return roster.Coach{}, storage.Translate(err)
	}
	if err := storage.ExpectAffected(res); err != nil {
		return roster.Coach{}, err
	}
	return s.Get(ctx, c.ID, nil)
}

// Delete removes a Coach.
// POST: ErrConflict while training plans reference the coach
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM coach WHERE id = ?`, id)
	if err != nil {
		return storage.Translate(err)
	}
	return storage.ExpectAffected(res)
}

func checkQuery(relations, counts []string) error {
	if err := storage.CheckNames(relations, relUser, relTeam, relTrainingPlan); err != nil {
		return err
	}
	return storage.CheckNames(counts, relTrainingPlan)
}

func (s *SQLiteStore) expand(ctx context.Context, coaches []roster.Coach, relations, counts []string) error {
	if len(coaches) == 0 {
		return nil
	}
	ids := make([]string, len(coaches))
	userIDs := make([]string, len(coaches))
	teamIDs := make([]string, len(coaches))
	for i, c := range coaches {
		ids[i], userIDs[i], teamIDs[i] = c.ID, c.UserID, c.TeamID
	}

	if storage.Wants(relations, relUser) {
		users, err := storage.LoadUsers(ctx, s.db, userIDs)
		if err != nil {
			return err
		}
		for i := range coaches {
			if u, ok := users[coaches[i].UserID]; ok {
				coaches[i].User = &u
			}
		}
	}
	if storage.Wants(relations, relTeam) {
		teams, err := storage.LoadTeams(ctx, s.db, teamIDs)
		if err != nil {
			return err
		}
		for i := range coaches {
			if t, ok := teams[coaches[i].TeamID]; ok {
				coaches[i].Team = &t
			}
		}
	}
	if storage.Wants(relations, relTrainingPlan) {
		plans, err := storage.TrainingPlansBy(ctx, s.db, "coach_id", ids)
		if err != nil {
			return err
		}
		for i := range coaches {
			coaches[i].TrainingPlans = plans[coaches[i].ID]
		}
	}

	for _, name := range counts {
		n, err := storage.CountBy(ctx, s.db, name, "coach_id", ids)
		if err != nil {
			return err
		}
		for i := range coaches {
			if coaches[i].Count == nil {
				coaches[i].Count = roster.Counts{}
			}
			coaches[i].Count[name] = n[coaches[i].ID]
		}
	}
	return nil
}
