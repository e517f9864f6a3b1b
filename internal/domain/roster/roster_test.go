package roster

import (
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"squad/internal/domain/schema"
)

const (
	userID   = "0b6c9a53-2bb8-4e8e-9a4a-111111111111"
	teamID   = "0b6c9a53-2bb8-4e8e-9a4a-222222222222"
	playerID = "0b6c9a53-2bb8-4e8e-9a4a-333333333333"
	coachID  = "0b6c9a53-2bb8-4e8e-9a4a-444444444444"
)

func init() {
	PasswordCost = bcrypt.MinCost
}

// TestTeam_Validate tests validation of Team.
func TestTeam_Validate(t *testing.T) {
	tests := []struct {
		name    string
		team    Team
		wantErr error
	}{
		{"valid", Team{Name: "U12 Hawks"}, nil},
		{"empty name", Team{Name: "  "}, ErrEmptyName},
		{"long name", Team{Name: strings.Repeat("a", 121)}, ErrNameTooLong},
		{"long description", Team{Name: "A", Description: strings.Repeat("d", 4001)}, ErrDescriptionLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.team.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestDecodeTeam_KeepsIdentity verifies decode only touches form fields.
func TestDecodeTeam_KeepsIdentity(t *testing.T) {
	base := Team{ID: teamID, Name: "Old", Count: Counts{"player": 3}}
	got, err := DecodeTeam(base, schema.Values{"name": " New ", "description": "**bold**"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != teamID || got.Name != "New" || got.Description != "**bold**" {
		t.Errorf("got %+v", got)
	}
	if got.Count.Of("player") != 3 {
		t.Error("counts should be carried over")
	}
}

// TestDecode_FieldErrors verifies schema failures surface as FieldErrors.
func TestDecode_FieldErrors(t *testing.T) {
	_, err := DecodeCoach(Coach{}, schema.Values{"user_id": "", "team_id": "not-a-uuid"})
	var fe schema.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FieldErrors", err)
	}
	if _, ok := fe["user_id"]; !ok {
		t.Error("expected user_id error")
	}
	if _, ok := fe["team_id"]; !ok {
		t.Error("expected team_id error")
	}
}

// TestUser_Password tests hashing and verification.
func TestUser_Password(t *testing.T) {
	u := User{Email: "coach@example.com", Role: RoleCoach}
	if err := u.SetPassword("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("SetPassword(short) = %v", err)
	}
	if err := u.SetPassword(""); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("SetPassword(empty) = %v", err)
	}
	if err := u.SetPassword("correct horse battery"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if err := u.CheckPassword("correct horse battery"); err != nil {
		t.Errorf("CheckPassword(right) = %v", err)
	}
	if err := u.CheckPassword("wrong horse battery"); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("CheckPassword(wrong) = %v", err)
	}
}

// TestDecodeUser tests create and edit password handling.
func TestDecodeUser(t *testing.T) {
	_, err := DecodeUser(User{}, schema.Values{"email": "a@b.co", "role": RolePlayer})
	if err == nil {
		t.Fatal("create without password should fail")
	}

	created, err := DecodeUser(User{}, schema.Values{"email": " Player@Example.com ", "role": RolePlayer, "password": "long enough password"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Email != "player@example.com" || created.PasswordHash == "" {
		t.Errorf("created = %+v", created)
	}

	created.ID = userID
	edited, err := DecodeUser(created, schema.Values{"email": "player@example.com", "role": RoleCoach, "password": ""})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.PasswordHash != created.PasswordHash {
		t.Error("blank password should keep the existing hash")
	}
	if edited.Role != RoleCoach {
		t.Errorf("role = %q", edited.Role)
	}

	if _, err := DecodeUser(created, schema.Values{"email": "player@example.com", "role": "owner"}); err == nil {
		t.Error("unknown role should fail")
	}
}

// TestDecodeEvent tests datetime parsing and ordering.
func TestDecodeEvent(t *testing.T) {
	v := schema.Values{"name": "League match", "start_time": "2026-04-11T10:00", "end_time": "2026-04-11T11:30", "team_id": teamID}
	e, err := DecodeEvent(Event{}, v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Duration() != 90*time.Minute {
		t.Errorf("duration = %v", e.Duration())
	}
	if got := e.Values(); got["start_time"] != "2026-04-11T10:00" || got["end_time"] != "2026-04-11T11:30" {
		t.Errorf("Values() = %v", got)
	}

	v["end_time"] = "2026-04-11T09:00"
	if _, err := DecodeEvent(Event{}, v); !errors.Is(err, ErrEndBeforeStart) {
		t.Errorf("err = %v, want ErrEndBeforeStart", err)
	}

	v["end_time"] = v["start_time"]
	if _, err := DecodeEvent(Event{}, v); err != nil {
		t.Errorf("equal start and end should be valid: %v", err)
	}
}

// TestDecodeTrainingPlan tests the optional coach reference.
func TestDecodeTrainingPlan(t *testing.T) {
	tp, err := DecodeTrainingPlan(TrainingPlan{}, schema.Values{"name": "Sprint block", "player_id": playerID, "coach_id": ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp.HasCoach() {
		t.Error("blank coach should leave no coach attached")
	}

	tp, err = DecodeTrainingPlan(tp, schema.Values{"name": "Sprint block", "player_id": playerID, "coach_id": coachID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp.CoachID != coachID {
		t.Errorf("coach = %q", tp.CoachID)
	}

	if _, err := DecodeTrainingPlan(TrainingPlan{}, schema.Values{"name": "x"}); err == nil {
		t.Error("missing player should fail")
	}
}

// TestPlayer_Validate tests direct validation without a schema pass.
func TestPlayer_Validate(t *testing.T) {
	p := Player{UserID: userID}
	if err := p.Validate(); !errors.Is(err, ErrEmptyTeamID) {
		t.Errorf("err = %v", err)
	}
	p.TeamID = "team-1"
	if err := p.Validate(); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("err = %v", err)
	}
	p.TeamID = teamID
	if err := p.Validate(); err != nil {
		t.Errorf("err = %v", err)
	}
}
