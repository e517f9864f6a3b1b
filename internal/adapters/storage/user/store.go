package user

import (
	"context"

	"squad/internal/adapters/storage"
	"squad/internal/domain/roster"
)

// Store persists User state.
type Store interface {
	List(ctx context.Context, q storage.Query) ([]roster.User, error)
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id string, relations []string) (roster.User, error)
	GetByEmail(ctx context.Context, email string) (roster.User, error)
	Create(ctx context.Context, u roster.User) (roster.User, error)
	Update(ctx context.Context, u roster.User) (roster.User, error)
	Delete(ctx context.Context, id string) error
}
