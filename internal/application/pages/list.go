package pages

import (
	"context"
	"sync/atomic"

	"squad/internal/adapters/storage"
	"squad/internal/application/querycache"
	"squad/internal/domain/access"
)

// ListSource is the data a list page needs.
type ListSource[T any] interface {
	List(ctx context.Context, q storage.Query) ([]T, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
}

// ListConfig declares a list page for one resource.
type ListConfig[T any] struct {
	Resource access.Resource
	Base     string // route prefix and collection cache key, e.g. "/players"
	Query    storage.Query
	Columns  []Column[T]
	ID       func(T) string
	// Invalidates lists collections that show this resource in a relation or count.
	Invalidates []querycache.Key
}

type listResult[T any] struct {
	Records []T
	Total   int
}

// ListPage is a table of records with capability-gated columns and actions.
type ListPage[T any] struct {
	cfg         ListConfig[T]
	src         ListSource[T]
	access      access.Checker
	cache       *querycache.Cache
	key         querycache.Key
	unsubscribe func()
	stale       atomic.Bool

	State     State
	Records   []T
	Total     int
	LoadErr   error
	DeleteErr error
}

// NewListPage builds a list page and subscribes it to its collection key.
// Relations and counts the actor cannot read are dropped from the query.
// An invalidation only marks the page stale; the page refetches on the
// goroutine that owns it (Refresh, or after its own Delete).
// POST: Close must be called to release the subscription
func NewListPage[T any](cfg ListConfig[T], src ListSource[T], checker access.Checker, cache *querycache.Cache) *ListPage[T] {
	cfg.Query.Relations = readable(checker, cfg.Query.Relations)
	cfg.Query.Counts = readable(checker, cfg.Query.Counts)
	p := &ListPage[T]{
		cfg:    cfg,
		src:    src,
		access: checker,
		cache:  cache,
		key:    collectionKey(cfg.Base, cfg.Query),
	}
	p.unsubscribe = cache.Subscribe(p.key, func() { p.stale.Store(true) })
	return p
}

// Key returns the cache key the page fetches under.
func (p *ListPage[T]) Key() querycache.Key { return p.key }

// Close releases the cache subscription.
func (p *ListPage[T]) Close() { p.unsubscribe() }

// Allowed reports whether the actor may see this page at all.
func (p *ListPage[T]) Allowed() bool {
	return can(p.access, p.cfg.Resource, access.OpRead)
}

// CanCreate gates the Create link.
func (p *ListPage[T]) CanCreate() bool {
	return can(p.access, p.cfg.Resource, access.OpCreate)
}

// Stale reports whether a matching invalidation landed since the last Load.
func (p *ListPage[T]) Stale() bool { return p.stale.Load() }

// Refresh reloads the page when it is stale.
func (p *ListPage[T]) Refresh(ctx context.Context) error {
	if !p.stale.Load() {
		return nil
	}
	return p.Load(ctx)
}

// Load fetches the collection through the cache.
// POST: on failure Records keeps its previous value and LoadErr is set
func (p *ListPage[T]) Load(ctx context.Context) error {
	p.stale.Store(false)
	p.State = StateLoading
	res, err := querycache.Fetch(ctx, p.cache, p.key, func(ctx context.Context) (listResult[T], error) {
		records, err := p.src.List(ctx, p.cfg.Query)
		if err != nil {
			return listResult[T]{}, err
		}
		total, err := p.src.Count(ctx)
		if err != nil {
			return listResult[T]{}, err
		}
		return listResult[T]{Records: records, Total: total}, nil
	})
	if err != nil {
		p.LoadErr = err
		p.State = StateError
		return err
	}
	p.Records = res.Records
	p.Total = res.Total
	p.LoadErr = nil
	p.State = StateSuccess
	return nil
}

// Delete removes one record, then invalidates the collection so the page
// refetches exactly once whatever the outcome.
// PRE: the actor holds DELETE on the page resource, else ErrForbidden and no store call
// POST: DeleteErr holds the store failure, if any; LoadErr is untouched by it
func (p *ListPage[T]) Delete(ctx context.Context, id string) error {
	if !can(p.access, p.cfg.Resource, access.OpDelete) {
		return ErrForbidden
	}
	p.State = StateMutating
	err := p.src.Delete(ctx, id)
	p.DeleteErr = err
	keys := append([]querycache.Key{querycache.Key(p.cfg.Base)}, p.cfg.Invalidates...)
	p.cache.Invalidate(ctx, keys...)
	p.Refresh(ctx)
	if err != nil {
		p.State = StateError
	}
	return err
}

// Table renders the loaded records.
func (p *ListPage[T]) Table() Table {
	return buildTable(p.access, p.cfg.Resource, p.cfg.Base, p.cfg.Columns, p.Records, p.cfg.ID)
}
