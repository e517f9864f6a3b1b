package coach

import (
	"context"

	"squad/internal/adapters/storage"
	"squad/internal/domain/roster"
)

// Store persists Coach state.
type Store interface {
	List(ctx context.Context, q storage.Query) ([]roster.Coach, error)
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id string, relations []string) (roster.Coach, error)
	Create(ctx context.Context, v roster.Coach) (roster.Coach, error)
	Update(ctx context.Context, v roster.Coach) (roster.Coach, error)
	Delete(ctx context.Context, id string) error
}
