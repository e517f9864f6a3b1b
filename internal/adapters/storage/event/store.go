package event

import (
	"context"

	"squad/internal/adapters/storage"
	"squad/internal/domain/roster"
)

// Store persists Event state.
type Store interface {
	List(ctx context.Context, q storage.Query) ([]roster.Event, error)
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id string, relations []string) (roster.Event, error)
	Create(ctx context.Context, v roster.Event) (roster.Event, error)
	Update(ctx context.Context, v roster.Event) (roster.Event, error)
	Delete(ctx context.Context, id string) error
}
