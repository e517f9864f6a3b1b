package team

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"squad/internal/adapters/storage"
	"squad/internal/adapters/storage/storagetest"
	"squad/internal/domain/roster"
)

func TestSQLiteStore_CreateGetUpdate(t *testing.T) {
	db := storagetest.Open(t)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC))
	store := NewSQLiteStore(db, clock)
	ctx := context.Background()

	created, err := store.Create(ctx, roster.Team{Name: "Hawks", Description: "U12"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" || !created.CreatedAt.Equal(clock.Now()) {
		t.Errorf("created = %+v", created)
	}

	created.Name = "Falcons"
	updated, err := store.Update(ctx, created)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Falcons" || updated.Description != "U12" {
		t.Errorf("updated = %+v", updated)
	}

	if _, err := store.Get(ctx, "missing", nil); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
	if _, err := store.Update(ctx, roster.Team{ID: "missing", Name: "x"}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Update(missing) = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_ListCountsAndRelations(t *testing.T) {
	db := storagetest.Open(t)
	store := NewSQLiteStore(db, clockwork.NewRealClock())
	ctx := context.Background()

	hawks := storagetest.Team(t, db, "Hawks")
	storagetest.Team(t, db, "Bears")
	u1 := storagetest.User(t, db, "p1@example.com", roster.RolePlayer)
	u2 := storagetest.User(t, db, "p2@example.com", roster.RolePlayer)
	storagetest.Player(t, db, u1, hawks)
	storagetest.Player(t, db, u2, hawks)
	storagetest.Event(t, db, "Match", hawks, storagetest.Epoch)

	teams, err := store.List(ctx, storage.Query{
		Relations: []string{"player", "player.user"},
		Counts:    []string{"player", "coach", "event"},
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(teams) != 2 || teams[0].Name != "Bears" || teams[1].Name != "Hawks" {
		t.Fatalf("teams = %+v", teams)
	}
	if got := teams[1].Count.Of("player"); got != 2 {
		t.Errorf("hawks players = %d, want 2", got)
	}
	if got := teams[1].Count.Of("event"); got != 1 {
		t.Errorf("hawks events = %d, want 1", got)
	}
	if got := teams[0].Count.Of("player"); got != 0 {
		t.Errorf("bears players = %d, want 0", got)
	}
	if len(teams[1].Players) != 2 || teams[1].Players[0].User == nil {
		t.Errorf("hawks expanded players = %+v", teams[1].Players)
	}

	n, err := store.Count(ctx)
	if err != nil || n != 2 {
		t.Errorf("Count = %d, %v", n, err)
	}

	got, err := store.Get(ctx, hawks, []string{"event", "player.count"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Events) != 1 || got.Count.Of("player") != 2 {
		t.Errorf("Get expansion = %+v", got)
	}

	bare, err := store.Get(ctx, hawks, []string{"player"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(bare.Players) != 2 || bare.Players[0].User != nil {
		t.Errorf("players without player.user should not carry users: %+v", bare.Players)
	}
}

func TestSQLiteStore_ListPaging(t *testing.T) {
	db := storagetest.Open(t)
	store := NewSQLiteStore(db, clockwork.NewRealClock())
	for _, name := range []string{"A", "B", "C"} {
		storagetest.Team(t, db, name)
	}
	teams, err := store.List(context.Background(), storage.Query{Sort: "name", Dir: storage.SortDesc, Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(teams) != 2 || teams[0].Name != "B" || teams[1].Name != "A" {
		t.Errorf("page = %+v", teams)
	}
}

func TestSQLiteStore_UnknownRelation(t *testing.T) {
	db := storagetest.Open(t)
	store := NewSQLiteStore(db, clockwork.NewRealClock())
	if _, err := store.List(context.Background(), storage.Query{Relations: []string{"stadium"}}); !errors.Is(err, storage.ErrUnknownRelation) {
		t.Errorf("err = %v, want ErrUnknownRelation", err)
	}
	if _, err := store.Get(context.Background(), "x", []string{"user.count"}); !errors.Is(err, storage.ErrUnknownRelation) {
		t.Errorf("err = %v, want ErrUnknownRelation", err)
	}
}

func TestSQLiteStore_DeleteReferencedTeamConflicts(t *testing.T) {
	db := storagetest.Open(t)
	store := NewSQLiteStore(db, clockwork.NewRealClock())
	ctx := context.Background()

	hawks := storagetest.Team(t, db, "Hawks")
	storagetest.Event(t, db, "Match", hawks, storagetest.Epoch)
	empty := storagetest.Team(t, db, "Empty")

	if err := store.Delete(ctx, hawks); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("Delete(referenced) = %v, want ErrConflict", err)
	}
	if err := store.Delete(ctx, empty); err != nil {
		t.Errorf("Delete(empty) = %v", err)
	}
	if err := store.Delete(ctx, empty); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Delete(again) = %v, want ErrNotFound", err)
	}
}
