package access_test

import (
	"errors"
	"testing"

	"squad/internal/domain/access"
)

// TestGrants_HasAccess tests capability lookup against a fixed grant set.
func TestGrants_HasAccess(t *testing.T) {
	g := access.Grants{
		access.ResourcePlayer: {access.OpRead, access.OpUpdate},
	}

	tests := []struct {
		name  string
		res   access.Resource
		op    access.Operation
		scope access.Scope
		want  bool
	}{
		{"granted read", access.ResourcePlayer, access.OpRead, access.ScopeProject, true},
		{"granted update", access.ResourcePlayer, access.OpUpdate, access.ScopeProject, true},
		{"missing delete", access.ResourcePlayer, access.OpDelete, access.ScopeProject, false},
		{"other resource", access.ResourceTeam, access.OpRead, access.ScopeProject, false},
		{"other scope", access.ResourcePlayer, access.OpRead, access.Scope("tenant"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.HasAccess(tt.res, tt.op, tt.scope); got != tt.want {
				t.Errorf("HasAccess(%s, %s, %s) = %v, want %v", tt.res, tt.op, tt.scope, got, tt.want)
			}
		})
	}
}

// TestGrants_NilDeniesEverything verifies the zero value is safe to use.
func TestGrants_NilDeniesEverything(t *testing.T) {
	var g access.Grants
	if g.HasAccess(access.ResourceTeam, access.OpRead, access.ScopeProject) {
		t.Error("nil grants should deny")
	}
}

// TestWithout verifies selective denial on top of a base checker.
func TestWithout(t *testing.T) {
	c := access.Without(access.AllowAll, access.ResourcePlayer, access.OpDelete)
	if c.HasAccess(access.ResourcePlayer, access.OpDelete, access.ScopeProject) {
		t.Error("player delete should be denied")
	}
	if !c.HasAccess(access.ResourcePlayer, access.OpRead, access.ScopeProject) {
		t.Error("player read should be allowed")
	}

	all := access.Without(access.AllowAll, access.ResourceUser)
	for _, op := range access.Operations {
		if all.HasAccess(access.ResourceUser, op, access.ScopeProject) {
			t.Errorf("user %s should be denied when no ops are listed", op)
		}
	}
}

// TestParsePolicy tests conversion of configuration tables into policies.
func TestParsePolicy(t *testing.T) {
	p, err := access.ParsePolicy(map[string]map[string][]string{
		"admin": {"team": {"*"}},
		"coach": {"player": {"read", "read", "update"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, op := range access.Operations {
		if !p.For("admin").HasAccess(access.ResourceTeam, op, access.ScopeProject) {
			t.Errorf("admin should have %s on team", op)
		}
	}
	if got := len(p["coach"][access.ResourcePlayer]); got != 2 {
		t.Errorf("coach player ops = %d, want 2 (duplicates collapsed)", got)
	}
	if p.For("nobody").HasAccess(access.ResourceTeam, access.OpRead, access.ScopeProject) {
		t.Error("unknown role should be denied")
	}
}

// TestParsePolicy_Errors tests rejection of unknown names.
func TestParsePolicy_Errors(t *testing.T) {
	_, err := access.ParsePolicy(map[string]map[string][]string{"admin": {"stadium": {"read"}}})
	if !errors.Is(err, access.ErrUnknownResource) {
		t.Errorf("err = %v, want ErrUnknownResource", err)
	}
	_, err = access.ParsePolicy(map[string]map[string][]string{"admin": {"team": {"archive"}}})
	if !errors.Is(err, access.ErrUnknownOperation) {
		t.Errorf("err = %v, want ErrUnknownOperation", err)
	}
}

// TestDefaultPolicy checks the built-in role table.
func TestDefaultPolicy(t *testing.T) {
	p := access.DefaultPolicy()
	if got := p.Roles(); len(got) != 3 || got[0] != "admin" || got[1] != "coach" || got[2] != "player" {
		t.Fatalf("roles = %v", got)
	}
	coach := p.For("coach")
	if !coach.HasAccess(access.ResourceTrainingPlan, access.OpDelete, access.ScopeProject) {
		t.Error("coach should delete training plans")
	}
	if coach.HasAccess(access.ResourcePlayer, access.OpDelete, access.ScopeProject) {
		t.Error("coach should not delete players")
	}
	player := p.For("player")
	if player.HasAccess(access.ResourceUser, access.OpRead, access.ScopeProject) {
		t.Error("player should not read users")
	}
}
