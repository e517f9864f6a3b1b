package querycache

import "context"

// Bus carries invalidated keys between server instances.
type Bus interface {
	Publish(ctx context.Context, keys []Key) error
	// Listen calls fn for keys published by other instances.
	Listen(fn func(keys []Key)) (stop func(), err error)
}

// LocalBus is the single-instance bus: nothing to publish, nothing to hear.
type LocalBus struct{}

// Publish does nothing.
func (LocalBus) Publish(context.Context, []Key) error { return nil }

// Listen returns a no-op stop func.
func (LocalBus) Listen(func([]Key)) (func(), error) { return func() {}, nil }
