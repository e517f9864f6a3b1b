package orchestrators

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"gopkg.in/yaml.v3"

	"squad/internal/adapters/storage"
	"squad/internal/domain/roster"
)

//go:embed fixtures/demo.yaml
var demoFixture []byte

type demoData struct {
	Password string     `yaml:"password"`
	Teams    []demoTeam `yaml:"teams"`
}

type demoTeam struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Coaches     []string     `yaml:"coaches"`
	Players     []demoPlayer `yaml:"players"`
	Events      []demoEvent  `yaml:"events"`
}

type demoPlayer struct {
	Email string     `yaml:"email"`
	Plans []demoPlan `yaml:"plans"`
}

type demoPlan struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Coach       string `yaml:"coach"`
}

type demoEvent struct {
	Name    string `yaml:"name"`
	Day     int    `yaml:"day"`
	At      string `yaml:"at"`
	Minutes int    `yaml:"minutes"`
}

// SeedDemoDeps holds the stores the demo seeder writes to.
type SeedDemoDeps struct {
	Users UserStoreForSeed
	Teams interface {
		Count(ctx context.Context) (int, error)
		Create(ctx context.Context, t roster.Team) (roster.Team, error)
	}
	Coaches interface {
		Create(ctx context.Context, c roster.Coach) (roster.Coach, error)
	}
	Players interface {
		Create(ctx context.Context, p roster.Player) (roster.Player, error)
	}
	Events interface {
		Create(ctx context.Context, e roster.Event) (roster.Event, error)
	}
	TrainingPlans interface {
		Create(ctx context.Context, tp roster.TrainingPlan) (roster.TrainingPlan, error)
	}
	Clock clockwork.Clock
}

// ExecuteSeedDemo loads the embedded demo roster.
// It is idempotent: nothing is written when any team already exists.
// PRE: Database is migrated
// POST: Returns the number of teams created
func ExecuteSeedDemo(ctx context.Context, deps SeedDemoDeps) (int, error) {
	n, err := deps.Teams.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed demo: count teams: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	var data demoData
	if err := yaml.Unmarshal(demoFixture, &data); err != nil {
		return 0, fmt.Errorf("seed demo: decode fixture: %w", err)
	}

	s := demoSeeder{deps: deps, password: data.Password, users: map[string]string{}, coaches: map[string]string{}}
	today := deps.Clock.Now().UTC().Truncate(24 * time.Hour)
	for _, dt := range data.Teams {
		if err := s.team(ctx, dt, today); err != nil {
			return 0, fmt.Errorf("seed demo team %q: %w", dt.Name, err)
		}
	}

	slog.InfoContext(ctx, "seed_event", "event", "demo_seeded", "teams", len(data.Teams), "users", len(s.users))
	return len(data.Teams), nil
}

type demoSeeder struct {
	deps     SeedDemoDeps
	password string
	users    map[string]string // email -> user id
	coaches  map[string]string // email -> coach id
}

func (s *demoSeeder) team(ctx context.Context, dt demoTeam, today time.Time) error {
	team, err := s.deps.Teams.Create(ctx, roster.Team{Name: dt.Name, Description: strings.TrimSpace(dt.Description)})
	if err != nil {
		return err
	}
	for _, email := range dt.Coaches {
		uid, err := s.user(ctx, email, roster.RoleCoach)
		if err != nil {
			return err
		}
		c, err := s.deps.Coaches.Create(ctx, roster.Coach{UserID: uid, TeamID: team.ID})
		if err != nil {
			return err
		}
		s.coaches[email] = c.ID
	}
	for _, dp := range dt.Players {
		uid, err := s.user(ctx, dp.Email, roster.RolePlayer)
		if err != nil {
			return err
		}
		p, err := s.deps.Players.Create(ctx, roster.Player{UserID: uid, TeamID: team.ID})
		if err != nil {
			return err
		}
		for _, plan := range dp.Plans {
			tp := roster.TrainingPlan{
				Name:        plan.Name,
				Description: plan.Description,
				PlayerID:    p.ID,
				CoachID:     s.coaches[plan.Coach],
			}
			if _, err := s.deps.TrainingPlans.Create(ctx, tp); err != nil {
				return err
			}
		}
	}
	for _, de := range dt.Events {
		at, err := time.Parse("15:04", de.At)
		if err != nil {
			return fmt.Errorf("event %q: %w", de.Name, err)
		}
		start := today.AddDate(0, 0, de.Day).Add(time.Duration(at.Hour())*time.Hour + time.Duration(at.Minute())*time.Minute)
		e := roster.Event{
			Name:      de.Name,
			StartTime: start,
			EndTime:   start.Add(time.Duration(de.Minutes) * time.Minute),
			TeamID:    team.ID,
		}
		if _, err := s.deps.Events.Create(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// user returns the id for email, creating the account on first sight.
func (s *demoSeeder) user(ctx context.Context, email, role string) (string, error) {
	if id, ok := s.users[email]; ok {
		return id, nil
	}
	existing, err := s.deps.Users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		s.users[email] = existing.ID
		return existing.ID, nil
	case !errors.Is(err, storage.ErrNotFound):
		return "", err
	}
	u := roster.User{Email: email, Role: role}
	if err := u.SetPassword(s.password); err != nil {
		return "", err
	}
	created, err := s.deps.Users.Create(ctx, u)
	if err != nil {
		return "", err
	}
	s.users[email] = created.ID
	return created.ID, nil
}
