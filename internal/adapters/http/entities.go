package web

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"squad/internal/application/orchestrators"
	"squad/internal/application/pages"
	"squad/internal/application/querycache"
	"squad/internal/domain/access"
	"squad/internal/domain/roster"
)

// Route prefixes. They double as collection cache keys.
const (
	teamsBase         = "/teams"
	usersBase         = "/users"
	coachesBase       = "/coaches"
	playersBase       = "/players"
	eventsBase        = "/events"
	trainingPlansBase = "/training-plans"
)

const timeFormat = "2006-01-02 15:04"

func text(s string) pages.Cell        { return pages.Cell{Text: s} }
func link(s, href string) pages.Cell  { return pages.Cell{Text: s, Href: href} }
func markdown(s string) pages.Cell    { return pages.Cell{Text: s, Markdown: true} }
func count(n int) pages.Cell          { return text(strconv.Itoa(n)) }
func timeCell(t time.Time) pages.Cell { return text(t.UTC().Format(timeFormat)) }
func viewHref(base, id string) string { return base + "/view/" + id }

func cacheKeys(k ...string) []querycache.Key {
	out := make([]querycache.Key, len(k))
	for i, s := range k {
		out[i] = querycache.Key(s)
	}
	return out
}

func userCell(u *roster.User, id string) pages.Cell {
	if u == nil {
		return link(id, viewHref(usersBase, id))
	}
	return link(u.Email, viewHref(usersBase, u.ID))
}

func teamCell(t *roster.Team, id string) pages.Cell {
	if t == nil {
		return link(id, viewHref(teamsBase, id))
	}
	return link(t.Name, viewHref(teamsBase, t.ID))
}

func coachLabel(c roster.Coach) string {
	label := c.ID
	if c.User != nil {
		label = c.User.Email
	}
	if c.Team != nil {
		label += " (" + c.Team.Name + ")"
	}
	return label
}

func playerLabel(p roster.Player) string {
	label := p.ID
	if p.User != nil {
		label = p.User.Email
	}
	if p.Team != nil {
		label += " (" + p.Team.Name + ")"
	}
	return label
}

// createdColumn renders a timestamp column sortable by created_at.
func createdColumn[T any](header string, at func(T) time.Time) pages.Column[T] {
	return pages.Column[T]{Header: header, Sort: "created_at", Cell: func(v T) pages.Cell { return timeCell(at(v)) }}
}

func teamCreated(t roster.Team) time.Time          { return t.CreatedAt }
func userCreated(u roster.User) time.Time          { return u.CreatedAt }
func coachCreated(c roster.Coach) time.Time        { return c.CreatedAt }
func playerCreated(p roster.Player) time.Time      { return p.CreatedAt }
func planCreated(tp roster.TrainingPlan) time.Time { return tp.CreatedAt }

// --- children shared by several detail pages ---

func (s *Server) playerChild(parentField string) pages.Child[roster.Team] {
	return pages.ChildTable(pages.ChildConfig[roster.Team, roster.Player]{
		Resource:    access.ResourcePlayer,
		Title:       "Players",
		Base:        playersBase,
		ParentField: parentField,
		Items:       func(t roster.Team) []roster.Player { return t.Players },
		Columns: []pages.Column[roster.Player]{
			{Header: "User", Resource: access.ResourceUser, Cell: func(p roster.Player) pages.Cell { return userCell(p.User, p.UserID) }},
			createdColumn("Since", playerCreated),
		},
		ID:     func(p roster.Player) string { return p.ID },
		Remove: s.stores.Players.Delete,
	})
}

func (s *Server) coachChild(parentField string) pages.Child[roster.Team] {
	return pages.ChildTable(pages.ChildConfig[roster.Team, roster.Coach]{
		Resource:    access.ResourceCoach,
		Title:       "Coaches",
		Base:        coachesBase,
		ParentField: parentField,
		Items:       func(t roster.Team) []roster.Coach { return t.Coaches },
		Columns: []pages.Column[roster.Coach]{
			{Header: "User", Resource: access.ResourceUser, Cell: func(c roster.Coach) pages.Cell { return userCell(c.User, c.UserID) }},
			createdColumn("Since", coachCreated),
		},
		ID:     func(c roster.Coach) string { return c.ID },
		Remove: s.stores.Coaches.Delete,
	})
}

func planColumns() []pages.Column[roster.TrainingPlan] {
	return []pages.Column[roster.TrainingPlan]{
		{Header: "Name", Cell: func(tp roster.TrainingPlan) pages.Cell { return text(tp.Name) }},
		{Header: "Description", Cell: func(tp roster.TrainingPlan) pages.Cell { return text(tp.Description) }},
	}
}

// --- teams ---

func (s *Server) teamAdmin() *admin[roster.Team] {
	return &admin[roster.Team]{
		s:             s,
		resource:      access.ResourceTeam,
		title:         "Teams",
		singular:      "Team",
		base:          teamsBase,
		store:         s.stores.Teams,
		schema:        roster.TeamSchema,
		sortable:      []string{"name", "created_at"},
		listRelations: []string{"player.count", "coach.count", "event.count"},
		columns: []pages.Column[roster.Team]{
			{Header: "Name", Sort: "name", Cell: func(t roster.Team) pages.Cell { return text(t.Name) }},
			{Header: "Players", Resource: access.ResourcePlayer, Cell: func(t roster.Team) pages.Cell { return count(t.Count.Of("player")) }},
			{Header: "Coaches", Resource: access.ResourceCoach, Cell: func(t roster.Team) pages.Cell { return count(t.Count.Of("coach")) }},
			{Header: "Events", Resource: access.ResourceEvent, Cell: func(t roster.Team) pages.Cell { return count(t.Count.Of("event")) }},
			createdColumn("Created", teamCreated),
		},
		detailRelations: []string{"player", "coach", "event", "player.user", "coach.user"},
		fields: []pages.Column[roster.Team]{
			{Header: "Name", Cell: func(t roster.Team) pages.Cell { return text(t.Name) }},
			{Header: "Description", Cell: func(t roster.Team) pages.Cell { return markdown(t.Description) }},
			createdColumn("Created", teamCreated),
		},
		children: []pages.Child[roster.Team]{
			s.playerChild("team_id"),
			s.coachChild("team_id"),
			pages.ChildTable(pages.ChildConfig[roster.Team, roster.Event]{
				Resource:    access.ResourceEvent,
				Title:       "Events",
				Base:        eventsBase,
				ParentField: "team_id",
				Items:       func(t roster.Team) []roster.Event { return t.Events },
				Columns: []pages.Column[roster.Event]{
					{Header: "Name", Cell: func(e roster.Event) pages.Cell { return text(e.Name) }},
					{Header: "Start", Cell: func(e roster.Event) pages.Cell { return timeCell(e.StartTime) }},
					{Header: "End", Cell: func(e roster.Event) pages.Cell { return timeCell(e.EndTime) }},
				},
				ID:     func(e roster.Event) string { return e.ID },
				Remove: s.stores.Events.Delete,
			}),
		},
		id:          func(t roster.Team) string { return t.ID },
		label:       func(t roster.Team) string { return t.Name },
		values:      roster.Team.Values,
		decode:      roster.DecodeTeam,
		invalidates: cacheKeys(coachesBase, playersBase, eventsBase, usersBase),
	}
}

// --- users ---

func (s *Server) userAdmin() *admin[roster.User] {
	return &admin[roster.User]{
		s:             s,
		resource:      access.ResourceUser,
		title:         "Users",
		singular:      "User",
		base:          usersBase,
		store:         s.stores.Users,
		schema:        roster.UserSchema,
		createSchema:  roster.UserCreateSchema,
		sortable:      []string{"email", "role", "created_at"},
		listRelations: []string{"coach.count", "player.count"},
		columns: []pages.Column[roster.User]{
			{Header: "Email", Sort: "email", Cell: func(u roster.User) pages.Cell { return text(u.Email) }},
			{Header: "Role", Sort: "role", Cell: func(u roster.User) pages.Cell { return text(u.Role) }},
			{Header: "Coaching", Resource: access.ResourceCoach, Cell: func(u roster.User) pages.Cell { return count(u.Count.Of("coach")) }},
			{Header: "Playing", Resource: access.ResourcePlayer, Cell: func(u roster.User) pages.Cell { return count(u.Count.Of("player")) }},
			createdColumn("Created", userCreated),
		},
		detailRelations: []string{"coach", "player", "coach.team", "player.team"},
		fields: []pages.Column[roster.User]{
			{Header: "Email", Cell: func(u roster.User) pages.Cell { return text(u.Email) }},
			{Header: "Role", Cell: func(u roster.User) pages.Cell { return text(u.Role) }},
			createdColumn("Created", userCreated),
		},
		children: []pages.Child[roster.User]{
			pages.ChildTable(pages.ChildConfig[roster.User, roster.Coach]{
				Resource:    access.ResourceCoach,
				Title:       "Coaching",
				Base:        coachesBase,
				ParentField: "user_id",
				Items:       func(u roster.User) []roster.Coach { return u.Coaches },
				Columns: []pages.Column[roster.Coach]{
					{Header: "Team", Resource: access.ResourceTeam, Cell: func(c roster.Coach) pages.Cell { return teamCell(c.Team, c.TeamID) }},
					createdColumn("Since", coachCreated),
				},
				ID:     func(c roster.Coach) string { return c.ID },
				Remove: s.stores.Coaches.Delete,
			}),
			pages.ChildTable(pages.ChildConfig[roster.User, roster.Player]{
				Resource:    access.ResourcePlayer,
				Title:       "Playing",
				Base:        playersBase,
				ParentField: "user_id",
				Items:       func(u roster.User) []roster.Player { return u.Players },
				Columns: []pages.Column[roster.Player]{
					{Header: "Team", Resource: access.ResourceTeam, Cell: func(p roster.Player) pages.Cell { return teamCell(p.Team, p.TeamID) }},
					createdColumn("Since", playerCreated),
				},
				ID:     func(p roster.Player) string { return p.ID },
				Remove: s.stores.Players.Delete,
			}),
		},
		id:          func(u roster.User) string { return u.ID },
		label:       func(u roster.User) string { return u.Email },
		values:      roster.User.Values,
		decode:      roster.DecodeUser,
		invalidates: cacheKeys(coachesBase, playersBase, teamsBase, trainingPlansBase),
	}
}

// --- coaches ---

func (s *Server) coachAdmin() *admin[roster.Coach] {
	return &admin[roster.Coach]{
		s:             s,
		resource:      access.ResourceCoach,
		title:         "Coaches",
		singular:      "Coach",
		base:          coachesBase,
		store:         s.stores.Coaches,
		schema:        roster.CoachSchema,
		sortable:      []string{"created_at", "team_id", "user_id"},
		listRelations: []string{"user", "team", "training_plan.count"},
		columns: []pages.Column[roster.Coach]{
			{Header: "User", Resource: access.ResourceUser, Sort: "user_id", Cell: func(c roster.Coach) pages.Cell { return userCell(c.User, c.UserID) }},
			{Header: "Team", Resource: access.ResourceTeam, Sort: "team_id", Cell: func(c roster.Coach) pages.Cell { return teamCell(c.Team, c.TeamID) }},
			{Header: "Training plans", Resource: access.ResourceTrainingPlan, Cell: func(c roster.Coach) pages.Cell { return count(c.Count.Of("training_plan")) }},
			createdColumn("Since", coachCreated),
		},
		detailRelations: []string{"user", "team", "training_plan"},
		fields: []pages.Column[roster.Coach]{
			{Header: "User", Resource: access.ResourceUser, Cell: func(c roster.Coach) pages.Cell { return userCell(c.User, c.UserID) }},
			{Header: "Team", Resource: access.ResourceTeam, Cell: func(c roster.Coach) pages.Cell { return teamCell(c.Team, c.TeamID) }},
			createdColumn("Since", coachCreated),
		},
		children: []pages.Child[roster.Coach]{
			pages.ChildTable(pages.ChildConfig[roster.Coach, roster.TrainingPlan]{
				Resource:    access.ResourceTrainingPlan,
				Title:       "Training plans",
				Base:        trainingPlansBase,
				ParentField: "coach_id",
				Items:       func(c roster.Coach) []roster.TrainingPlan { return c.TrainingPlans },
				Columns:     planColumns(),
				ID:          func(tp roster.TrainingPlan) string { return tp.ID },
				Remove:      s.stores.TrainingPlans.Delete,
			}),
		},
		id:          func(c roster.Coach) string { return c.ID },
		label:       coachLabel,
		values:      roster.Coach.Values,
		decode:      roster.DecodeCoach,
		invalidates: cacheKeys(teamsBase, usersBase, trainingPlansBase),
		afterCreate: func(ctx context.Context, c roster.Coach) {
			s.notifyLinked(ctx, c.UserID, c.TeamID, roster.RoleCoach)
		},
	}
}

// --- players ---

func (s *Server) playerAdmin() *admin[roster.Player] {
	return &admin[roster.Player]{
		s:             s,
		resource:      access.ResourcePlayer,
		title:         "Players",
		singular:      "Player",
		base:          playersBase,
		store:         s.stores.Players,
		schema:        roster.PlayerSchema,
		sortable:      []string{"created_at", "team_id", "user_id"},
		listRelations: []string{"user", "team", "training_plan.count"},
		columns: []pages.Column[roster.Player]{
			{Header: "User", Resource: access.ResourceUser, Sort: "user_id", Cell: func(p roster.Player) pages.Cell { return userCell(p.User, p.UserID) }},
			{Header: "Team", Resource: access.ResourceTeam, Sort: "team_id", Cell: func(p roster.Player) pages.Cell { return teamCell(p.Team, p.TeamID) }},
			{Header: "Training plans", Resource: access.ResourceTrainingPlan, Cell: func(p roster.Player) pages.Cell { return count(p.Count.Of("training_plan")) }},
			createdColumn("Since", playerCreated),
		},
		detailRelations: []string{"user", "team", "training_plan"},
		fields: []pages.Column[roster.Player]{
			{Header: "User", Resource: access.ResourceUser, Cell: func(p roster.Player) pages.Cell { return userCell(p.User, p.UserID) }},
			{Header: "Team", Resource: access.ResourceTeam, Cell: func(p roster.Player) pages.Cell { return teamCell(p.Team, p.TeamID) }},
			createdColumn("Since", playerCreated),
		},
		children: []pages.Child[roster.Player]{
			pages.ChildTable(pages.ChildConfig[roster.Player, roster.TrainingPlan]{
				Resource:    access.ResourceTrainingPlan,
				Title:       "Training plans",
				Base:        trainingPlansBase,
				ParentField: "player_id",
				Items:       func(p roster.Player) []roster.TrainingPlan { return p.TrainingPlans },
				Columns:     planColumns(),
				ID:          func(tp roster.TrainingPlan) string { return tp.ID },
				Remove:      s.stores.TrainingPlans.Delete,
			}),
		},
		id:          func(p roster.Player) string { return p.ID },
		label:       playerLabel,
		values:      roster.Player.Values,
		decode:      roster.DecodePlayer,
		invalidates: cacheKeys(teamsBase, usersBase, trainingPlansBase),
		afterCreate: func(ctx context.Context, p roster.Player) {
			s.notifyLinked(ctx, p.UserID, p.TeamID, roster.RolePlayer)
		},
	}
}

// --- events ---

func (s *Server) eventAdmin() *admin[roster.Event] {
	team := pages.Column[roster.Event]{Header: "Team", Resource: access.ResourceTeam, Cell: func(e roster.Event) pages.Cell { return teamCell(e.Team, e.TeamID) }}
	return &admin[roster.Event]{
		s:             s,
		resource:      access.ResourceEvent,
		title:         "Events",
		singular:      "Event",
		base:          eventsBase,
		store:         s.stores.Events,
		schema:        roster.EventSchema,
		sortable:      []string{"name", "start_time", "end_time", "created_at"},
		listRelations: []string{"team"},
		columns: []pages.Column[roster.Event]{
			{Header: "Name", Sort: "name", Cell: func(e roster.Event) pages.Cell { return text(e.Name) }},
			{Header: "Start", Sort: "start_time", Cell: func(e roster.Event) pages.Cell { return timeCell(e.StartTime) }},
			{Header: "End", Sort: "end_time", Cell: func(e roster.Event) pages.Cell { return timeCell(e.EndTime) }},
			team,
		},
		detailRelations: []string{"team"},
		fields: []pages.Column[roster.Event]{
			{Header: "Name", Cell: func(e roster.Event) pages.Cell { return text(e.Name) }},
			{Header: "Start", Cell: func(e roster.Event) pages.Cell { return timeCell(e.StartTime) }},
			{Header: "End", Cell: func(e roster.Event) pages.Cell { return timeCell(e.EndTime) }},
			{Header: "Duration", Cell: func(e roster.Event) pages.Cell { return text(e.Duration().String()) }},
			team,
		},
		id:          func(e roster.Event) string { return e.ID },
		label:       func(e roster.Event) string { return e.Name },
		values:      roster.Event.Values,
		decode:      roster.DecodeEvent,
		invalidates: cacheKeys(teamsBase),
	}
}

// --- training plans ---

func (s *Server) trainingPlanAdmin() *admin[roster.TrainingPlan] {
	player := pages.Column[roster.TrainingPlan]{Header: "Player", Resource: access.ResourcePlayer, Cell: func(tp roster.TrainingPlan) pages.Cell {
		if tp.Player == nil {
			return link(tp.PlayerID, viewHref(playersBase, tp.PlayerID))
		}
		return link(playerLabel(*tp.Player), viewHref(playersBase, tp.PlayerID))
	}}
	coach := pages.Column[roster.TrainingPlan]{Header: "Coach", Resource: access.ResourceCoach, Cell: func(tp roster.TrainingPlan) pages.Cell {
		switch {
		case !tp.HasCoach():
			return text("")
		case tp.Coach == nil:
			return link(tp.CoachID, viewHref(coachesBase, tp.CoachID))
		}
		return link(coachLabel(*tp.Coach), viewHref(coachesBase, tp.CoachID))
	}}
	return &admin[roster.TrainingPlan]{
		s:             s,
		resource:      access.ResourceTrainingPlan,
		title:         "Training plans",
		singular:      "Training plan",
		base:          trainingPlansBase,
		store:         s.stores.TrainingPlans,
		schema:        roster.TrainingPlanSchema,
		sortable:      []string{"name", "created_at"},
		listRelations: []string{"player", "coach", "player.user", "coach.user"},
		columns: []pages.Column[roster.TrainingPlan]{
			{Header: "Name", Sort: "name", Cell: func(tp roster.TrainingPlan) pages.Cell { return text(tp.Name) }},
			player,
			coach,
			createdColumn("Created", planCreated),
		},
		detailRelations: []string{"player", "coach", "player.user", "coach.user"},
		fields: []pages.Column[roster.TrainingPlan]{
			{Header: "Name", Cell: func(tp roster.TrainingPlan) pages.Cell { return text(tp.Name) }},
			{Header: "Description", Cell: func(tp roster.TrainingPlan) pages.Cell { return markdown(tp.Description) }},
			player,
			coach,
			createdColumn("Created", planCreated),
		},
		id:          func(tp roster.TrainingPlan) string { return tp.ID },
		label:       func(tp roster.TrainingPlan) string { return tp.Name },
		values:      roster.TrainingPlan.Values,
		decode:      roster.DecodeTrainingPlan,
		invalidates: cacheKeys(playersBase, coachesBase),
	}
}

// notifyLinked emails a user who was just made a coach or player.
// Failures are logged; the create has already succeeded.
func (s *Server) notifyLinked(ctx context.Context, userID, teamID, role string) {
	if s.mailer == nil {
		return
	}
	err := orchestrators.ExecuteNotifyLinked(ctx, orchestrators.NotifyLinkedInput{UserID: userID, TeamID: teamID, Role: role}, orchestrators.NotifyLinkedDeps{
		Users:   s.stores.Users,
		Teams:   s.stores.Teams,
		Sender:  s.mailer,
		BaseURL: s.opts.BaseURL,
	})
	if err != nil {
		slog.WarnContext(ctx, "notify_failed", "user_id", userID, "team_id", teamID, "role", role, "error", err)
	}
}
