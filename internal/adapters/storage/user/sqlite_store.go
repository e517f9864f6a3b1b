package user

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"squad/internal/adapters/storage"
	"squad/internal/domain/roster"
)

const (
	relCoach  = "coach"
	relPlayer = "player"

	relCoachTeam  = "coach.team"
	relPlayerTeam = "player.team"
)

var sortColumns = map[string]string{
	"email":      "email",
	"role":       "role",
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

// List returns users ordered by q, with requested relations and counts.
func (s *SQLiteStore) List(ctx context.Context, q storage.Query) ([]roster.User, error) {
	if err := checkQuery(q.Relations, q.Counts); err != nil {
		return nil, err
	}
	query := `SELECT ` + storage.UserColumns + ` FROM user` + storage.OrderClause(q, sortColumns, "email")
	limit, args := storage.LimitClause(q, nil)
	rows, err := s.db.QueryContext(ctx, query+limit, args...)
	if err != nil {
		return nil, err
	}
	users, err := storage.ScanAll(rows, storage.ScanUser)
	if err != nil {
		return nil, err
	}
	if err := s.expand(ctx, users, q.Relations, q.Counts); err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the number of users.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	return storage.Count(ctx, s.db, "user")
}

// Get retrieves a User by its ID.
// POST: Returns the user or ErrNotFound
func (s *SQLiteStore) Get(ctx context.Context, id string, relations []string) (roster.User, error) {
	rels, counts := storage.ParseRelations(relations)
	if err := checkQuery(rels, counts); err != nil {
		return roster.User{}, err
	}
	u, err := storage.ScanUser(s.db.QueryRowContext(ctx, `SELECT `+storage.UserColumns+` FROM user WHERE id = ?`, id))
	if err != nil {
		return roster.User{}, storage.Translate(err)
	}
	users := []roster.User{u}
	if err := s.expand(ctx, users, rels, counts); err != nil {
		return roster.User{}, err
	}
	return users[0], nil
}

// GetByEmail retrieves a User by email, case-insensitively.
// PRE: email is non-empty
// POST: Returns the user or ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (roster.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+storage.UserColumns+` FROM user WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
	u, err := storage.ScanUser(row)
	if err != nil {
		return roster.User{}, storage.Translate(err)
	}
	return u, nil
}

// Create inserts a User.
// PRE: u has been validated and carries a password hash
// POST: ErrConflict when the email is taken
func (s *SQLiteStore) Create(ctx context.Context, u roster.User) (roster.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.clock.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user (id, email, role, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Role, u.PasswordHash, storage.FormatTime(u.CreatedAt))
	if err != nil {
		return roster.User{}, storage.Translate(err)
	}
	return u, nil
}

// Update overwrites email and role. The password hash changes only when
// u.PasswordHash is non-empty.
func (s *SQLiteStore) Update(ctx context.Context, u roster.User) (roster.User, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE user SET email = ?, role = ?,
		   password_hash = CASE WHEN ? = '' THEN password_hash ELSE ? END
		 WHERE id = ?`,
		u.Email, u.Role, u.PasswordHash, u.PasswordHash, u.ID)
	if err != nil {
		return roster.User{}, storage.Translate(err)
	}
	if err := storage.ExpectAffected(res); err != nil {
		return roster.User{}, err
	}
	return s.Get(ctx, u.ID, nil)
}

// Delete removes a User.
// POST: ErrConflict while a coach or player references the user
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user WHERE id = ?`, id)
	if err != nil {
		return storage.Translate(err)
	}
	return storage.ExpectAffected(res)
}

func checkQuery(relations, counts []string) error {
	if err := storage.CheckNames(relations, relCoach, relPlayer, relCoachTeam, relPlayerTeam); err != nil {
		return err
	}
	return storage.CheckNames(counts, relCoach, relPlayer)
}

func (s *SQLiteStore) expand(ctx context.Context, users []roster.User, relations, counts []string) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	if storage.Wants(relations, relCoach) {
		byUser, err := storage.CoachesBy(ctx, s.db, "user_id", ids, false)
		if err != nil {
			return err
		}
		for i := range users {
			users[i].Coaches = byUser[users[i].ID]
		}
	}
	if storage.Wants(relations, relPlayer) {
		byUser, err := storage.PlayersBy(ctx, s.db, "user_id", ids, false)
		if err != nil {
			return err
		}
		for i := range users {
			users[i].Players = byUser[users[i].ID]
		}
	}
	coachTeams, playerTeams := storage.Wants(relations, relCoachTeam), storage.Wants(relations, relPlayerTeam)
	if coachTeams || playerTeams {
		if err := s.attachTeams(ctx, users, coachTeams, playerTeams); err != nil {
			return err
		}
	}

	for _, name := range counts {
		n, err := storage.CountBy(ctx, s.db, name, "user_id", ids)
		if err != nil {
			return err
		}
		for i := range users {
			if users[i].Count == nil {
				users[i].Count = roster.Counts{}
			}
			users[i].Count[name] = n[users[i].ID]
		}
	}
	return nil
}

// attachTeams expands the team of each nested coach and player row.
func (s *SQLiteStore) attachTeams(ctx context.Context, users []roster.User, coaches, players bool) error {
	var ids []string
	for _, u := range users {
		if coaches {
			for _, c := range u.Coaches {
				ids = append(ids, c.TeamID)
			}
		}
		if players {
			for _, p := range u.Players {
				ids = append(ids, p.TeamID)
			}
		}
	}
	teams, err := storage.LoadTeams(ctx, s.db, ids)
	if err != nil {
		return err
	}
	for i := range users {
		if coaches {
			for j := range users[i].Coaches {
				if t, ok := teams[users[i].Coaches[j].TeamID]; ok {
					users[i].Coaches[j].Team = &t
				}
			}
		}
		if players {
			for j := range users[i].Players {
				if t, ok := teams[users[i].Players[j].TeamID]; ok {
					users[i].Players[j].Team = &t
				}
			}
		}
	}
	return nil
}
