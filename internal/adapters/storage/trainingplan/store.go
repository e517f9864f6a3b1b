package trainingplan

import (
	"context"

	"squad/internal/adapters/storage"
	"squad/internal/domain/roster"
)

// Store persists TrainingPlan state.
type Store interface {
	List(ctx context.Context, q storage.Query) ([]roster.TrainingPlan, error)
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id string, relations []string) (roster.TrainingPlan, error)
	Create(ctx context.Context, v roster.TrainingPlan) (roster.TrainingPlan, error)
	Update(ctx context.Context, v roster.TrainingPlan) (roster.TrainingPlan, error)
	Delete(ctx context.Context, id string) error
}
