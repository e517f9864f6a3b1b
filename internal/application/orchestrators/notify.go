package orchestrators

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/yuin/goldmark"

	emailAdapter "squad/internal/adapters/email"
	"squad/internal/domain/roster"
)

// NotifyLinkedInput names the user who was just added to a team.
type NotifyLinkedInput struct {
	UserID string
	TeamID string
	Role   string // roster.RoleCoach or roster.RolePlayer
}

// NotifyLinkedDeps holds dependencies for NotifyLinked.
type NotifyLinkedDeps struct {
	Users interface {
		Get(ctx context.Context, id string, relations []string) (roster.User, error)
	}
	Teams interface {
		Get(ctx context.Context, id string, relations []string) (roster.Team, error)
	}
	Sender  emailAdapter.Sender
	BaseURL string // absolute site root for links, e.g. "https://squad.example.com"
}

// ExecuteNotifyLinked emails a user that they were added to a team as a coach or player.
// PRE: the coach or player row has been created
// POST: one email is handed to the sender; failures are returned for the caller to log
func ExecuteNotifyLinked(ctx context.Context, input NotifyLinkedInput, deps NotifyLinkedDeps) error {
	u, err := deps.Users.Get(ctx, input.UserID, nil)
	if err != nil {
		return fmt.Errorf("notify: load user: %w", err)
	}
	t, err := deps.Teams.Get(ctx, input.TeamID, nil)
	if err != nil {
		return fmt.Errorf("notify: load team: %w", err)
	}

	md := linkedMessage(u, t, input.Role, deps.BaseURL)
	var html bytes.Buffer
	if err := goldmark.Convert([]byte(md), &html); err != nil {
		return fmt.Errorf("notify: render: %w", err)
	}

	res, err := deps.Sender.Send(ctx, emailAdapter.SendRequest{
		To:      []string{u.Email},
		Subject: fmt.Sprintf("You have been added to %s", t.Name),
		HTML:    html.String(),
		Text:    md,
	})
	if err != nil {
		return fmt.Errorf("notify: send: %w", err)
	}
	slog.InfoContext(ctx, "notify_event", "event", "linked_to_team", "user_id", u.ID, "team_id", t.ID, "role", input.Role, "message_id", res.MessageID)
	return nil
}

func linkedMessage(u roster.User, t roster.Team, role, baseURL string) string {
	return fmt.Sprintf("Hi %s,\n\nYou have been added to **%s** as a %s.\n\n[View the team](%s/teams/view/%s)\n",
		u.Email, t.Name, role, baseURL, t.ID)
}
