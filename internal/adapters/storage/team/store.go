package team

import (
	"context"

	"squad/internal/adapters/storage"
	"squad/internal/domain/roster"
)

// Store persists Team state.
type Store interface {
	List(ctx context.Context, q storage.Query) ([]roster.Team, error)
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id string, relations []string) (roster.Team, error)
	Create(ctx context.Context, t roster.Team) (roster.Team, error)
	Update(ctx context.Context, t roster.Team) (roster.Team, error)
	Delete(ctx context.Context, id string) error
}
