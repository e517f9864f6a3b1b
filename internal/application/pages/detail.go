package pages

import (
	"context"
	"net/url"
	"sync/atomic"

	"squad/internal/application/querycache"
	"squad/internal/domain/access"
)

// RecordSource loads one record with the named relations expanded.
type RecordSource[T any] interface {
	Get(ctx context.Context, id string, relations []string) (T, error)
}

// Section is one rendered child table on a detail page.
type Section struct {
	Resource   access.Resource
	Title      string
	CreateHref string // empty when the actor cannot create children
	Table      Table
}

// Child is a related collection shown under a parent record.
type Child[T any] interface {
	Resource() access.Resource
	Base() string
	Section(c access.Checker, parent T, parentID string) Section
	Delete(ctx context.Context, id string) error
}

// ChildConfig declares a child table of parent type T with items of type C.
type ChildConfig[T, C any] struct {
	Resource access.Resource
	Title    string
	Base     string // child route prefix, e.g. "/training-plans"
	// ParentField is the child form field that points at the parent; the
	// Create link prefills it.
	ParentField string
	Items       func(T) []C
	Columns     []Column[C]
	ID          func(C) string
	Remove      func(ctx context.Context, id string) error
}

type childTable[T, C any] struct {
	cfg ChildConfig[T, C]
}

// ChildTable builds a Child from cfg.
func ChildTable[T, C any](cfg ChildConfig[T, C]) Child[T] {
	return childTable[T, C]{cfg: cfg}
}

func (ct childTable[T, C]) Resource() access.Resource { return ct.cfg.Resource }
func (ct childTable[T, C]) Base() string              { return ct.cfg.Base }

func (ct childTable[T, C]) Section(c access.Checker, parent T, parentID string) Section {
	s := Section{
		Resource: ct.cfg.Resource,
		Title:    ct.cfg.Title,
		Table:    buildTable(c, ct.cfg.Resource, ct.cfg.Base, ct.cfg.Columns, ct.cfg.Items(parent), ct.cfg.ID),
	}
	if can(c, ct.cfg.Resource, access.OpCreate) {
		q := url.Values{ct.cfg.ParentField: {parentID}}
		s.CreateHref = ct.cfg.Base + "/create?" + q.Encode()
	}
	return s
}

func (ct childTable[T, C]) Delete(ctx context.Context, id string) error {
	return ct.cfg.Remove(ctx, id)
}

// DetailConfig declares a detail page for one resource.
type DetailConfig[T any] struct {
	Resource    access.Resource
	Base        string
	Relations   []string // relation names; "x.count" requests a count
	Fields      []Column[T]
	Children    []Child[T]
	Invalidates []querycache.Key
}

// DetailPage shows one record, its fields and its child tables.
type DetailPage[T any] struct {
	cfg         DetailConfig[T]
	src         RecordSource[T]
	access      access.Checker
	cache       *querycache.Cache
	id          string
	key         querycache.Key
	unsubscribe func()
	stale       atomic.Bool

	State          State
	Record         T
	Loaded         bool
	LoadErr        error
	ChildDeleteErr error
}

// NewDetailPage builds a detail page for record id. Relations and child
// sections the actor cannot read are dropped.
// POST: Close must be called to release the subscription
func NewDetailPage[T any](cfg DetailConfig[T], id string, src RecordSource[T], checker access.Checker, cache *querycache.Cache) *DetailPage[T] {
	cfg.Relations = readable(checker, cfg.Relations)
	children := make([]Child[T], 0, len(cfg.Children))
	for _, ch := range cfg.Children {
		if canRead(checker, ch.Resource()) {
			children = append(children, ch)
		}
	}
	cfg.Children = children

	p := &DetailPage[T]{
		cfg:    cfg,
		src:    src,
		access: checker,
		cache:  cache,
		id:     id,
		key:    recordKey(cfg.Base, id, cfg.Relations),
	}
	p.unsubscribe = cache.Subscribe(p.key, func() { p.stale.Store(true) })
	return p
}

// Close releases the cache subscription.
func (p *DetailPage[T]) Close() { p.unsubscribe() }

// ID returns the record id the page shows.
func (p *DetailPage[T]) ID() string { return p.id }

// Allowed reports whether the actor may see this page.
func (p *DetailPage[T]) Allowed() bool { return can(p.access, p.cfg.Resource, access.OpRead) }

// CanEdit gates the Edit link.
func (p *DetailPage[T]) CanEdit() bool { return can(p.access, p.cfg.Resource, access.OpUpdate) }

// CanDelete gates the Delete button.
func (p *DetailPage[T]) CanDelete() bool { return can(p.access, p.cfg.Resource, access.OpDelete) }

// Stale reports whether a matching invalidation landed since the last Load.
func (p *DetailPage[T]) Stale() bool { return p.stale.Load() }

// Refresh reloads the record when it is stale.
func (p *DetailPage[T]) Refresh(ctx context.Context) error {
	if !p.stale.Load() {
		return nil
	}
	return p.Load(ctx)
}

// Load fetches the record through the cache.
// POST: on failure the previous record is kept and LoadErr is set
func (p *DetailPage[T]) Load(ctx context.Context) error {
	p.stale.Store(false)
	p.State = StateLoading
	rec, err := querycache.Fetch(ctx, p.cache, p.key, func(ctx context.Context) (T, error) {
		return p.src.Get(ctx, p.id, p.cfg.Relations)
	})
	if err != nil {
		p.LoadErr = err
		p.State = StateError
		return err
	}
	p.Record = rec
	p.Loaded = true
	p.LoadErr = nil
	p.State = StateSuccess
	return nil
}

// Fields renders the readable scalar fields of the loaded record.
func (p *DetailPage[T]) Fields() []Field {
	cols := visibleColumns(p.access, p.cfg.Fields)
	out := make([]Field, len(cols))
	for i, col := range cols {
		out[i] = Field{Label: col.Header, Cell: col.Cell(p.Record)}
	}
	return out
}

// Sections renders the child tables of the loaded record.
func (p *DetailPage[T]) Sections() []Section {
	out := make([]Section, len(p.cfg.Children))
	for i, ch := range p.cfg.Children {
		out[i] = ch.Section(p.access, p.Record, p.id)
	}
	return out
}

// DeleteChild removes one child record and invalidates the parent so the
// page refetches once whatever the outcome.
// PRE: the actor holds DELETE on res, else ErrForbidden and no store call
// POST: ChildDeleteErr holds the store failure, if any
func (p *DetailPage[T]) DeleteChild(ctx context.Context, res access.Resource, id string) error {
	var child Child[T]
	for _, ch := range p.cfg.Children {
		if ch.Resource() == res {
			child = ch
			break
		}
	}
	if child == nil {
		return ErrUnknownChild
	}
	if !can(p.access, res, access.OpDelete) {
		return ErrForbidden
	}
	p.State = StateMutating
	err := child.Delete(ctx, id)
	p.ChildDeleteErr = err
	keys := append([]querycache.Key{querycache.Key(p.cfg.Base), querycache.Key(child.Base())}, p.cfg.Invalidates...)
	p.cache.Invalidate(ctx, keys...)
	p.Refresh(ctx)
	if err != nil {
		p.State = StateError
	}
	return err
}
