package player

import (
	"context"

	"squad/internal/adapters/storage"
	"squad/internal/domain/roster"
)

// Store persists Player state.
type Store interface {
	List(ctx context.Context, q storage.Query) ([]roster.Player, error)
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id string, relations []string) (roster.Player, error)
	Create(ctx context.Context, v roster.Player) (roster.Player, error)
	Update(ctx context.Context, v roster.Player) (roster.Player, error)
	Delete(ctx context.Context, id string) error
}
