package trainingplan

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

// List returns training plans ordered by q, with requested relations.
func (s *SQLiteStore) List(ctx context.Context, q storage.Query) ([]roster.TrainingPlan, error) {
	if err := checkQuery(q.Relations, q.Counts); err != nil {
		return nil, err
	}
	query := `SELECT ` + storage.TrainingPlanColumns + ` FROM training_plan` + storage.OrderClause(q, sortColumns, "name")
	limit, args := storage.LimitClause(q, nil)
	rows, err := s.db.QueryContext(ctx, query+limit, args...)
	if err != nil {
		return nil, err
	}
	plans, err := storage.ScanAll(rows, storage.ScanTrainingPlan)
	if err != nil {
		return nil, err
	}
	if err := s.expand(ctx, plans, q.Relations); err != nil {
		return nil, err
	}
	return plans, nil
}

// Count returns the number of training plans.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	return storage.Count(ctx, s.db, "training_plan")
}

// Get retrieves a TrainingPlan by its ID.
// POST: Returns the plan or ErrNotFound
func (s *SQLiteStore) Get(ctx context.Context, id string, relations []string) (roster.TrainingPlan, error) {
	rels, counts := storage.ParseRelations(relations)
	if err := checkQuery(rels, counts); err != nil {
		return roster.TrainingPlan{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+storage.TrainingPlanColumns+` FROM training_plan WHERE id = ?`, id)
	tp, err := storage.ScanTrainingPlan(row)
	if err != nil {
		return roster.TrainingPlan{}, storage.Translate(err)
	}
	plans := []roster.TrainingPlan{tp}
	if err := s.expand(ctx, plans, rels); err != nil {
		return roster.TrainingPlan{}, err
	}
	return plans[0], nil
}

// Create inserts a TrainingPlan. An empty CoachID is stored as NULL.
// POST: ErrConflict when the player or coach does not exist
func (s *SQLiteStore) Create(ctx context.Context, tp roster.TrainingPlan) (roster.TrainingPlan, error) {
	if tp.ID == "" {
		tp.ID = uuid.NewString()
	}
	if tp.CreatedAt.IsZero() {
		tp.CreatedAt = s.clock.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO training_plan (id, name, description, player_id, coach_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		tp.ID, tp.Name, tp.Description, tp.PlayerID, storage.NullString(tp.CoachID), storage.FormatTime(tp.CreatedAt))
	if err != nil {
		return roster.TrainingPlan{}, storage.Translate(err)
	}
	return tp, nil
}

// Update overwrites the editable fields of an existing TrainingPlan.
func (s *SQLiteStore) Update(ctx context.Context, tp roster.TrainingPlan) (roster.TrainingPlan, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE training_plan SET name = ?, description = ?, player_id = ?, coach_id = ? WHERE id = ?`,
		tp.Name, tp.Description, tp.PlayerID, storage.NullString(tp.CoachID), tp.ID)
	if err != nil {
		return roster.TrainingPlan{}, storage.Translate(err)
	}
	if err := storage.ExpectAffected(res); err != nil {
		return roster.TrainingPlan{}, err
	}
	return s.Get(ctx, tp.ID, nil)
}

// Delete removes a TrainingPlan.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM training_plan WHERE id = ?`, id)
	if err != nil {
		return storage.Translate(err)
	}
	return storage.ExpectAffected(res)
}

func checkQuery(relations, counts []string) error {
	if err := storage.CheckNames(relations, relPlayer, relCoach, relPlayerUser, relCoachUser); err != nil {
		return err
	}
	return storage.CheckNames(counts)
}

func (s *SQLiteStore) expand(ctx context.Context, plans []roster.TrainingPlan, relations []string) error {
	if len(plans) == 0 {
		return nil
	}
	if storage.Wants(relations, relPlayer) {
		ids := make([]string, len(plans))
		for i, tp := range plans {
			ids[i] = tp.PlayerID
		}
		players, err := storage.LoadPlayers(ctx, s.db, ids, storage.Wants(relations, relPlayerUser))
		if err != nil {
			return err
		}
		for i := range plans {
			if p, ok := players[plans[i].PlayerID]; ok {
				plans[i].Player = &p
			}
		}
	}
	if storage.Wants(relations, relCoach) {
		ids := make([]string, 0, len(plans))
		for _, tp := range plans {
			if tp.HasCoach() {
				ids = append(ids, tp.CoachID)
			}
		}
		coaches, err := storage.LoadCoaches(ctx, s.db, ids, storage.Wants(relations, relCoachUser))
		if err != nil {
			return err
		}
		for i := range plans {
			if c, ok := coaches[plans[i].CoachID]; ok {
				plans[i].Coach = &c
			}
		}
	}
	return nil
}
