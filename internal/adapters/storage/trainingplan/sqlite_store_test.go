package trainingplan

import (
	"context"
	"testing"

	"github.com/jonboulle/clockwork"

	"squad/internal/adapters/storage"
	"squad/internal/adapters/storage/storagetest"
	"squad/internal/domain/roster"
)

func TestSQLiteStore_OptionalCoach(t *testing.T) {
	db := storagetest.Open(t)
	store := NewSQLiteStore(db, clockwork.NewRealClock())
	ctx := context.Background()

	team := storagetest.Team(t, db, "Hawks")
	pid := storagetest.Player(t, db, storagetest.User(t, db, "p@example.com", roster.RolePlayer), team)
	cid := storagetest.Coach(t, db, storagetest.User(t, db, "c@example.com", roster.RoleCoach), team)

	solo, err := store.Create(ctx, roster.TrainingPlan{Name: "Solo", PlayerID: pid})
	if err != nil {
		t.Fatalf("Create(solo): %v", err)
	}
	if _, err := store.Create(ctx, roster.TrainingPlan{Name: "Coached", PlayerID: pid, CoachID: cid}); err != nil {
		t.Fatalf("Create(coached): %v", err)
	}

	plans, err := store.List(ctx, storage.Query{Relations: []string{"player", "coach", "player.user", "coach.user"}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(plans) != 2 || plans[0].Name != "Coached" || plans[1].Name != "Solo" {
		t.Fatalf("plans = %+v", plans)
	}
	if plans[0].Coach == nil || plans[0].Coach.User == nil || plans[0].Coach.User.Email != "c@example.com" {
		t.Errorf("coach = %+v", plans[0].Coach)
	}
	if plans[1].Coach != nil || plans[1].HasCoach() {
		t.Errorf("solo plan should have no coach: %+v", plans[1])
	}
	if plans[1].Player == nil || plans[1].Player.User == nil {
		t.Errorf("player = %+v", plans[1].Player)
	}

	bare, err := store.Get(ctx, solo.ID, []string{"player", "coach"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if bare.Player == nil || bare.Player.User != nil {
		t.Errorf("player without player.user = %+v", bare.Player)
	}

	solo.CoachID = cid
	got, err := store.Update(ctx, solo)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.CoachID != cid {
		t.Errorf("coach = %q", got.CoachID)
	}
	solo.CoachID = ""
	got, err = store.Update(ctx, solo)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.HasCoach() {
		t.Error("clearing the coach should store NULL")
	}
}
