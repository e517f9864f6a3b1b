package storage

import (
	"context"
	"fmt"

	"squad/internal/domain/roster"
)

// SelectIn loads every row of table whose key column is one of ids.
// PRE: table, columns and key are trusted identifiers
// POST: returns nil without querying when ids is empty
func SelectIn[T any](ctx context.Context, db SQLDB, table, columns, key string, ids []string, scan func(RowScanner) (T, error)) ([]T, error) {
	ids = unique(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s IN (%s) ORDER BY created_at ASC, id ASC`,
		columns, table, key, Placeholders(len(ids)))
	rows, err := db.QueryContext(ctx, query, anyArgs(ids)...)
	if err != nil {
		return nil, err
	}
	return ScanAll(rows, scan)
}

// CountBy counts rows of table grouped by the key column, for the given ids.
// POST: ids with no rows are absent from the map
func CountBy(ctx context.Context, db SQLDB, table, key string, ids []string) (map[string]int, error) {
	ids = unique(ids)
	out := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := fmt.Sprintf(`SELECT %s, COUNT(*) FROM %s WHERE %s IN (%s) GROUP BY %s`,
		key, table, key, Placeholders(len(ids)), key)
	rows, err := db.QueryContext(ctx, query, anyArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

// IndexBy maps items by key.
func IndexBy[T any](items []T, key func(T) string) map[string]T {
	out := make(map[string]T, len(items))
	for _, it := range items {
		out[key(it)] = it
	}
	return out
}

// GroupBy buckets items by key, preserving order within each bucket.
func GroupBy[T any](items []T, key func(T) string) map[string][]T {
	out := make(map[string][]T)
	for _, it := range items {
		k := key(it)
		out[k] = append(out[k], it)
	}
	return out
}

// Loaders for related records, one batch query per relation.

// LoadTeams returns teams keyed by id.
func LoadTeams(ctx context.Context, db SQLDB, ids []string) (map[string]roster.Team, error) {
	teams, err := SelectIn(ctx, db, "team", TeamColumns, "id", ids, ScanTeam)
	if err != nil {
		return nil, err
	}
	return IndexBy(teams, func(t roster.Team) string { return t.ID }), nil
}

// LoadUsers returns users keyed by id.
func LoadUsers(ctx context.Context, db SQLDB, ids []string) (map[string]roster.User, error) {
	users, err := SelectIn(ctx, db, "user", UserColumns, "id", ids, ScanUser)
	if err != nil {
		return nil, err
	}
	return IndexBy(users, func(u roster.User) string { return u.ID }), nil
}

// LoadCoaches returns coaches keyed by id. withUsers expands each coach's user.
func LoadCoaches(ctx context.Context, db SQLDB, ids []string, withUsers bool) (map[string]roster.Coach, error) {
	coaches, err := SelectIn(ctx, db, "coach", CoachColumns, "id", ids, ScanCoach)
	if err != nil {
		return nil, err
	}
	if err := attachCoachUsers(ctx, db, coaches, withUsers); err != nil {
		return nil, err
	}
	return IndexBy(coaches, func(c roster.Coach) string { return c.ID }), nil
}

// LoadPlayers returns players keyed by id. withUsers expands each player's user.
func LoadPlayers(ctx context.Context, db SQLDB, ids []string, withUsers bool) (map[string]roster.Player, error) {
	players, err := SelectIn(ctx, db, "player", PlayerColumns, "id", ids, ScanPlayer)
	if err != nil {
		return nil, err
	}
	if err := attachPlayerUsers(ctx, db, players, withUsers); err != nil {
		return nil, err
	}
	return IndexBy(players, func(p roster.Player) string { return p.ID }), nil
}

// CoachesBy groups coaches by a foreign key column ("team_id" or "user_id").
func CoachesBy(ctx context.Context, db SQLDB, key string, ids []string, withUsers bool) (map[string][]roster.Coach, error) {
	coaches, err := SelectIn(ctx, db, "coach", CoachColumns, key, ids, ScanCoach)
	if err != nil {
		return nil, err
	}
	if err := attachCoachUsers(ctx, db, coaches, withUsers); err != nil {
		return nil, err
	}
	if key == "user_id" {
		return GroupBy(coaches, func(c roster.Coach) string { return c.UserID }), nil
	}
	return GroupBy(coaches, func(c roster.Coach) string { return c.TeamID }), nil
}

// PlayersBy groups players by a foreign key column ("team_id" or "user_id").
func PlayersBy(ctx context.Context, db SQLDB, key string, ids []string, withUsers bool) (map[string][]roster.Player, error) {
	players, err := SelectIn(ctx, db, "player", PlayerColumns, key, ids, ScanPlayer)
	if err != nil {
		return nil, err
	}
	if err := attachPlayerUsers(ctx, db, players, withUsers); err != nil {
		return nil, err
	}
	if key == "user_id" {
		return GroupBy(players, func(p roster.Player) string { return p.UserID }), nil
	}
	return GroupBy(players, func(p roster.Player) string { return p.TeamID }), nil
}

// EventsByTeam groups events by team id.
func EventsByTeam(ctx context.Context, db SQLDB, teamIDs []string) (map[string][]roster.Event, error) {
	events, err := SelectIn(ctx, db, "event", EventColumns, "team_id", teamIDs, ScanEvent)
	if err != nil {
		return nil, err
	}
	return GroupBy(events, func(e roster.Event) string { return e.TeamID }), nil
}

// TrainingPlansBy groups training plans by "player_id" or "coach_id".
func TrainingPlansBy(ctx context.Context, db SQLDB, key string, ids []string) (map[string][]roster.TrainingPlan, error) {
	plans, err := SelectIn(ctx, db, "training_plan", TrainingPlanColumns, key, ids, ScanTrainingPlan)
	if err != nil {
		return nil, err
	}
	if key == "coach_id" {
		return GroupBy(plans, func(tp roster.TrainingPlan) string { return tp.CoachID }), nil
	}
	return GroupBy(plans, func(tp roster.TrainingPlan) string { return tp.PlayerID }), nil
}

// Nested user expansion lets child tables show an email instead of a bare id.
// It is requested as "player.user" or "coach.user" so callers can leave it out
// for actors who may not read users.
func attachCoachUsers(ctx context.Context, db SQLDB, coaches []roster.Coach, enabled bool) error {
	if !enabled {
		return nil
	}
	ids := make([]string, len(coaches))
	for i, c := range coaches {
		ids[i] = c.UserID
	}
	users, err := LoadUsers(ctx, db, ids)
	if err != nil {
		return err
	}
	for i := range coaches {
		if u, ok := users[coaches[i].UserID]; ok {
			coaches[i].User = &u
		}
	}
	return nil
}

func attachPlayerUsers(ctx context.Context, db SQLDB, players []roster.Player, enabled bool) error {
	if !enabled {
		return nil
	}
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.UserID
	}
	users, err := LoadUsers(ctx, db, ids)
	if err != nil {
		return err
	}
	for i := range players {
		if u, ok := users[players[i].UserID]; ok {
			players[i].User = &u
		}
	}
	return nil
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func anyArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
