package player

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

// List returns players ordered by q, with requested relations and counts.
func (s *SQLiteStore) List(ctx context.Context, q storage.Query) ([]roster.Player, error) {
	if err := checkQuery(q.Relations, q.Counts); err != nil {
		return nil, err
	}
	query := `SELECT ` + storage.PlayerColumns + ` FROM player` + storage.OrderClause(q, sortColumns, "created_at")
	limit, args := storage.LimitClause(q, nil)
	rows, err := s.db.QueryContext(ctx, query+limit, args...)
	if err != nil {
		return nil, err
	}
	players, err := storage.ScanAll(rows, storage.ScanPlayer)
	if err != nil {
		return nil, err
	}
	if err := s.expand(ctx, players, q.Relations, q.Counts); err != nil {
		return nil, err
	}
	return players, nil
}

// Count returns the number of players.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	return storage.Count(ctx, s.db, "player")
}

// Get retrieves a Player by its ID.
// POST: Returns the player or ErrNotFound
func (s *SQLiteStore) Get(ctx context.Context, id string, relations []string) (roster.Player, error) {
	rels, counts := storage.ParseRelations(relations)
	if err := checkQuery(rels, counts); err != nil {
		return roster.Player{}, err
	}
	p, err := storage.ScanPlayer(s.db.QueryRowContext(ctx, `SELECT `+storage.PlayerColumns+` FROM player WHERE id = ?`, id))
	if err != nil {
		return roster.Player{}, storage.Translate(err)
	}
	players := []roster.Player{p}
	if err := s.expand(ctx, players, rels, counts); err != nil {
		return roster.Player{}, err
	}
	return players[0], nil
}

// Create inserts a Player.
// POST: ErrConflict when the user or team does not exist
func (s *SQLiteStore) Create(ctx context.Context, p roster.Player) (roster.Player, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.clock.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO player (id, user_id, team_id, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.UserID, p.TeamID, storage.FormatTime(p.CreatedAt))
	if err != nil {
		return roster.Player{}, storage.Translate(err)
	}
	return p, nil
}

// Update reassigns a Player's user and team.
func (s *SQLiteStore) Update(ctx context.Context, p roster.Player) (roster.Player, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE player SET user_id = ?, team_id = ? WHERE id = ?`, p.UserID, p.TeamID, p.ID)
	if err != nil {
		return roster.Player{}, storage.Translate(err)
	}
	if err := storage.ExpectAffected(res); err != nil {
		return roster.Player{}, err
	}
	return s.Get(ctx, p.ID, nil)
}

// Delete removes a Player.
// POST: ErrConflict while training plans reference the player
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM player WHERE id = ?`, id)
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

func (s *SQLiteStore) expand(ctx context.Context, players []roster.Player, relations, counts []string) error {
	if len(players) == 0 {
		return nil
	}
	ids := make([]string, len(players))
	userIDs := make([]string, len(players))
	teamIDs := make([]string, len(players))
	for i, p := range players {
		ids[i], userIDs[i], teamIDs[i] = p.ID, p.UserID, p.TeamID
	}

	if storage.Wants(relations, relUser) {
		users, err := storage.LoadUsers(ctx, s.db, userIDs)
		if err != nil {
			return err
		}
		for i := range players {
			if u, ok := users[players[i].UserID]; ok {
				players[i].User = &u
			}
		}
	}
	if storage.Wants(relations, relTeam) {
		teams, err := storage.LoadTeams(ctx, s.db, teamIDs)
		if err != nil {
			return err
		}
		for i := range players {
			if t, ok := teams[players[i].TeamID]; ok {
				players[i].Team = &t
			}
		}
	}
	if storage.Wants(relations, relTrainingPlan) {
		plans, err := storage.TrainingPlansBy(ctx, s.db, "player_id", ids)
		if err != nil {
			return err
		}
		for i := range players {
			players[i].TrainingPlans = plans[players[i].ID]
		}
	}

	for _, name := range counts {
		n, err := storage.CountBy(ctx, s.db, name, "player_id", ids)
		if err != nil {
			return err
		}
		for i := range players {
			if players[i].Count == nil {
				players[i].Count = roster.Counts{}
			}
			players[i].Count[name] = n[players[i].ID]
		}
	}
	return nil
}
