package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"squad/internal/domain/roster"
)

// UserStoreForLogin defines the store interface needed by Login.
type UserStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (roster.User, error)
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	UserID string
	Email  string
	Role   string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	UserStore UserStoreForLogin
}

// ErrInvalidCredentials covers unknown emails and wrong passwords alike.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ExecuteLogin validates credentials and returns user info for session creation.
// PRE: none; empty input is rejected
// POST: Returns user info on success, ErrInvalidCredentials otherwise
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	if input.Email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	u, err := deps.UserStore.GetByEmail(ctx, input.Email)
	if err != nil {
		slog.InfoContext(ctx, "auth_event", "event", "login_failed", "email", input.Email, "reason", "not_found")
		return LoginResult{}, ErrInvalidCredentials
	}

	if err := u.CheckPassword(input.Password); err != nil {
		slog.InfoContext(ctx, "auth_event", "event", "login_failed", "email", input.Email, "reason", "wrong_password")
		return LoginResult{}, ErrInvalidCredentials
	}

	slog.InfoContext(ctx, "auth_event", "event", "login_success", "email", u.Email, "role", u.Role)
	return LoginResult{UserID: u.ID, Email: u.Email, Role: u.Role}, nil
}
