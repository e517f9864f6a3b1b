package web

import (
	"context"
	"log/slog"

	"squad/internal/adapters/storage"
	"squad/internal/domain/access"
	"squad/internal/domain/roster"
	"squad/internal/domain/schema"
)

// option is one choice in a select input.
type option struct {
	Value    string
	Label    string
	Selected bool
}

// optionSource lists the records a reference field may point at. Labels only
// draw on relations the actor may read.
type optionSource func(ctx context.Context, c access.Checker) ([]option, error)

// labelRelations keeps the user and team expansions c may read.
func labelRelations(c access.Checker) []string {
	var rels []string
	for _, res := range []access.Resource{access.ResourceUser, access.ResourceTeam} {
		if c.HasAccess(res, access.OpRead, access.ScopeProject) {
			rels = append(rels, string(res))
		}
	}
	return rels
}

func (s *Server) referenceOptions() map[access.Resource]optionSource {
	byName := storage.Query{Sort: "name"}
	return map[access.Resource]optionSource{
		access.ResourceTeam: func(ctx context.Context, _ access.Checker) ([]option, error) {
			teams, err := s.stores.Teams.List(ctx, byName)
			return mapOptions(teams, err, func(t roster.Team) option { return option{Value: t.ID, Label: t.Name} })
		},
		access.ResourceUser: func(ctx context.Context, _ access.Checker) ([]option, error) {
			users, err := s.stores.Users.List(ctx, storage.Query{Sort: "email"})
			return mapOptions(users, err, func(u roster.User) option { return option{Value: u.ID, Label: u.Email} })
		},
		access.ResourceCoach: func(ctx context.Context, c access.Checker) ([]option, error) {
			coaches, err := s.stores.Coaches.List(ctx, storage.Query{Relations: labelRelations(c)})
			return mapOptions(coaches, err, func(c roster.Coach) option { return option{Value: c.ID, Label: coachLabel(c)} })
		},
		access.ResourcePlayer: func(ctx context.Context, c access.Checker) ([]option, error) {
			players, err := s.stores.Players.List(ctx, storage.Query{Relations: labelRelations(c)})
			return mapOptions(players, err, func(p roster.Player) option { return option{Value: p.ID, Label: playerLabel(p)} })
		},
	}
}

func mapOptions[T any](items []T, err error, fn func(T) option) ([]option, error) {
	if err != nil {
		return nil, err
	}
	out := make([]option, len(items))
	for i, it := range items {
		out[i] = fn(it)
	}
	return out, nil
}

var inputTypes = map[schema.Type]string{
	schema.TypeString:    "text",
	schema.TypeText:      "textarea",
	schema.TypeDateTime:  "datetime-local",
	schema.TypeEmail:     "email",
	schema.TypePassword:  "password",
	schema.TypeEnum:      "select",
	schema.TypeReference: "select",
}

// fieldView renders one schema field. Reference fields become a select of
// readable records; when the actor cannot read the target resource, or the
// options fail to load, the raw identifier is edited as text.
func (s *Server) fieldView(ctx context.Context, c access.Checker, f schema.Field, value, errMsg string) fieldView {
	fv := fieldView{
		Name:      f.Name,
		Label:     f.Label,
		Input:     inputTypes[f.Type],
		Value:     value,
		Error:     errMsg,
		Required:  f.Required,
		MinLength: f.Min,
		MaxLength: f.Max,
	}
	switch f.Type {
	case schema.TypeEnum:
		for _, o := range f.Options {
			fv.Options = append(fv.Options, option{Value: o, Label: o})
		}
	case schema.TypeReference:
		src, ok := s.options[f.Ref]
		if !ok || !c.HasAccess(f.Ref, access.OpRead, access.ScopeProject) {
			fv.Input = "text"
			return fv
		}
		opts, err := src(ctx, c)
		if err != nil {
			slog.WarnContext(ctx, "reference_options_failed", "resource", f.Ref, "error", err)
			fv.Input = "text"
			return fv
		}
		fv.Options = opts
	}
	for i := range fv.Options {
		fv.Options[i].Selected = fv.Options[i].Value == value
	}
	return fv
}
