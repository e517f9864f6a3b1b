package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"squad/internal/domain/roster"
)

// UserStoreForSeed defines the store interface needed by the seeders.
type UserStoreForSeed interface {
	Count(ctx context.Context) (int, error)
	GetByEmail(ctx context.Context, email string) (roster.User, error)
	Create(ctx context.Context, u roster.User) (roster.User, error)
}

// SeedAdminInput carries the bootstrap admin credentials from configuration.
type SeedAdminInput struct {
	Email    string
	Password string
}

// SeedAdminDeps holds dependencies for SeedAdmin.
type SeedAdminDeps struct {
	UserStore UserStoreForSeed
}

// ExecuteSeedAdmin creates the first admin account when the user table is empty.
// PRE: Database is migrated
// POST: Returns true when an admin was created; false when users already exist
// or no credentials are configured
func ExecuteSeedAdmin(ctx context.Context, input SeedAdminInput, deps SeedAdminDeps) (bool, error) {
	if input.Email == "" || input.Password == "" {
		return false, nil
	}
	n, err := deps.UserStore.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("seed admin: count users: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	u := roster.User{Email: strings.ToLower(strings.TrimSpace(input.Email)), Role: roster.RoleAdmin}
	if err := u.SetPassword(input.Password); err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	if err := u.Validate(); err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	if _, err := deps.UserStore.Create(ctx, u); err != nil {
		return false, fmt.Errorf("seed admin: save: %w", err)
	}

	slog.InfoContext(ctx, "seed_event", "event", "admin_created", "email", u.Email)
	return true, nil
}
