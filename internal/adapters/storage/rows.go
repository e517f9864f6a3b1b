package storage

import (
	"database/sql"

	"squad/internal/domain/roster"
)

// RowScanner is satisfied by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// Column lists, in scan order.
const (
	TeamColumns         = "id, name, description, created_at"
	UserColumns         = "id, email, role, password_hash, created_at"
	CoachColumns        = "id, user_id, team_id, created_at"
	PlayerColumns       = "id, user_id, team_id, created_at"
	EventColumns        = "id, name, start_time, end_time, team_id, created_at"
	TrainingPlanColumns = "id, name, description, player_id, coach_id, created_at"
)

// ScanTeam reads a team row selected with TeamColumns.
func ScanTeam(s RowScanner) (roster.Team, error) {
	var t roster.Team
	var createdAt string
	if err := s.Scan(&t.ID, &t.Name, &t.Description, &createdAt); err != nil {
		return roster.Team{}, err
	}
	t.CreatedAt = ParseTime(createdAt)
	return t, nil
}

// ScanUser reads a user row selected with UserColumns.
func ScanUser(s RowScanner) (roster.User, error) {
	var u roster.User
	var createdAt string
	if err := s.Scan(&u.ID, &u.Email, &u.Role, &u.PasswordHash, &createdAt); err != nil {
		return roster.User{}, err
	}
	u.CreatedAt = ParseTime(createdAt)
	return u, nil
}

// ScanCoach reads a coach row selected with CoachColumns.
func ScanCoach(s RowScanner) (roster.Coach, error) {
	var c roster.Coach
	var createdAt string
	if err := s.Scan(&c.ID, &c.UserID, &c.TeamID, &createdAt); err != nil {
		return roster.Coach{}, err
	}
	c.CreatedAt = ParseTime(createdAt)
	return c, nil
}

// ScanPlayer reads a player row selected with PlayerColumns.
func ScanPlayer(s RowScanner) (roster.Player, error) {
	var p roster.Player
	var createdAt string
	if err := s.Scan(&p.ID, &p.UserID, &p.TeamID, &createdAt); err != nil {
		return roster.Player{}, err
	}
	p.CreatedAt = ParseTime(createdAt)
	return p, nil
}

// ScanEvent reads an event row selected with EventColumns.
func ScanEvent(s RowScanner) (roster.Event, error) {
	var e roster.Event
	var start, end, createdAt string
	if err := s.Scan(&e.ID, &e.Name, &start, &end, &e.TeamID, &createdAt); err != nil {
		return roster.Event{}, err
	}
	e.StartTime = ParseTime(start)
	e.EndTime = ParseTime(end)
	e.CreatedAt = ParseTime(createdAt)
	return e, nil
}

// ScanTrainingPlan reads a training plan row selected with TrainingPlanColumns.
func ScanTrainingPlan(s RowScanner) (roster.TrainingPlan, error) {
	var tp roster.TrainingPlan
	var coachID sql.NullString
	var createdAt string
	if err := s.Scan(&tp.ID, &tp.Name, &tp.Description, &tp.PlayerID, &coachID, &createdAt); err != nil {
		return roster.TrainingPlan{}, err
	}
	tp.CoachID = coachID.String
	tp.CreatedAt = ParseTime(createdAt)
	return tp, nil
}

// ScanAll drains rows through scan.
// POST: rows is closed
func ScanAll[T any](rows *sql.Rows, scan func(RowScanner) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
