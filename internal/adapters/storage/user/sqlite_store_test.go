package user

import (
	"context"
	"errors"
	"testing"

	"github.com/jonboulle/clockwork"

	"squad/internal/adapters/storage"
	"squad/internal/adapters/storage/storagetest"
	"squad/internal/domain/roster"
)

func TestSQLiteStore_EmailLookupAndUniqueness(t *testing.T) {
	db := storagetest.Open(t)
	store := NewSQLiteStore(db, clockwork.NewRealClock())
	ctx := context.Background()

	u, err := store.Create(ctx, roster.User{Email: "coach@example.com", Role: roster.RoleCoach, PasswordHash: "hash-1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.GetByEmail(ctx, " Coach@Example.com ")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != u.ID || got.PasswordHash != "hash-1" {
		t.Errorf("got = %+v", got)
	}

	if _, err := store.Create(ctx, roster.User{Email: "coach@example.com", Role: roster.RolePlayer}); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate email = %v, want ErrConflict", err)
	}
	if _, err := store.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing email = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_UpdateKeepsHashWhenBlank(t *testing.T) {
	db := storagetest.Open(t)
	store := NewSQLiteStore(db, clockwork.NewRealClock())
	ctx := context.Background()

	u, err := store.Create(ctx, roster.User{Email: "a@example.com", Role: roster.RolePlayer, PasswordHash: "original"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	u.Role = roster.RoleCoach
	u.PasswordHash = ""
	got, err := store.Update(ctx, u)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Role != roster.RoleCoach || got.PasswordHash != "original" {
		t.Errorf("after blank update = %+v", got)
	}

	u.PasswordHash = "rotated"
	got, err = store.Update(ctx, u)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.PasswordHash != "rotated" {
		t.Errorf("hash = %q, want rotated", got.PasswordHash)
	}
}

func TestSQLiteStore_RelationsAndCounts(t *testing.T) {
	db := storagetest.Open(t)
	store := NewSQLiteStore(db, clockwork.NewRealClock())
	ctx := context.Background()

	team := storagetest.Team(t, db, "Hawks")
	uid := storagetest.User(t, db, "both@example.com", roster.RoleCoach)
	storagetest.Coach(t, db, uid, team)
	storagetest.Player(t, db, uid, team)

	u, err := store.Get(ctx, uid, []string{"coach", "player", "coach.count", "player.count"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(u.Coaches) != 1 || len(u.Players) != 1 {
		t.Errorf("relations = %+v / %+v", u.Coaches, u.Players)
	}
	if u.Count.Of("coach") != 1 || u.Count.Of("player") != 1 {
		t.Errorf("counts = %v", u.Count)
	}
	if u.Coaches[0].Team != nil || u.Players[0].Team != nil {
		t.Error("teams attached without coach.team / player.team")
	}

	u, err = store.Get(ctx, uid, []string{"coach", "player", "coach.team", "player.team"})
	if err != nil {
		t.Fatalf("Get(nested teams): %v", err)
	}
	if u.Coaches[0].Team == nil || u.Coaches[0].Team.Name != "Hawks" {
		t.Errorf("coach team = %+v, want Hawks", u.Coaches[0].Team)
	}
	if u.Players[0].Team == nil || u.Players[0].Team.Name != "Hawks" {
		t.Errorf("player team = %+v, want Hawks", u.Players[0].Team)
	}

	if err := store.Delete(ctx, uid); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("Delete(referenced) = %v, want ErrConflict", err)
	}
}
