package pages

import (
	"context"
	"net/url"

	"squad/internal/application/querycache"
	"squad/internal/domain/schema"
)

// Mode distinguishes create from edit forms.
type Mode int

// Mode constants
const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// SubmitFunc persists validated values.
type SubmitFunc func(ctx context.Context, v schema.Values) error

// FormPage is a create or edit form bound to one schema.
type FormPage struct {
	Schema    schema.Schema
	Mode      Mode
	Values    schema.Values
	Errors    schema.FieldErrors
	SubmitErr error
	State     State

	submitting  bool
	cache       *querycache.Cache
	invalidates []querycache.Key
}

// NewCreateForm starts a create form. Declared fields present in q seed the
// initial values; anything else in q is ignored.
func NewCreateForm(s schema.Schema, q url.Values, cache *querycache.Cache, invalidates ...querycache.Key) *FormPage {
	return &FormPage{
		Schema:      s,
		Mode:        ModeCreate,
		Values:      s.FromQuery(q),
		Errors:      schema.FieldErrors{},
		State:       StateSuccess,
		cache:       cache,
		invalidates: invalidates,
	}
}

// NewEditForm starts an edit form from a loaded record's values.
func NewEditForm(s schema.Schema, current schema.Values, cache *querycache.Cache, invalidates ...querycache.Key) *FormPage {
	return &FormPage{
		Schema:      s,
		Mode:        ModeEdit,
		Values:      s.Restrict(current),
		Errors:      schema.FieldErrors{},
		State:       StateSuccess,
		cache:       cache,
		invalidates: invalidates,
	}
}

// Bind replaces the form values with submitted ones, keeping declared fields only.
func (f *FormPage) Bind(v schema.Values) {
	f.Values = f.Schema.Restrict(v)
}

// Validate runs the schema over the current values.
func (f *FormPage) Validate() bool {
	f.Errors = f.Schema.Validate(f.Values)
	return f.Errors.Valid()
}

// CanSubmit reports whether submission is enabled: values are valid and no
// submission is in flight.
func (f *FormPage) CanSubmit() bool {
	return !f.submitting && f.Schema.Validate(f.Values).Valid()
}

// Submit validates, then hands the values to fn.
// PRE: CanSubmit, else ErrSubmitDisabled and fn is not called
// POST: on success the declared keys are invalidated; a create form is reset
// POST: on failure the entered values are kept and SubmitErr is set
func (f *FormPage) Submit(ctx context.Context, fn SubmitFunc) error {
	if f.submitting {
		return ErrSubmitDisabled
	}
	if !f.Validate() {
		return ErrSubmitDisabled
	}
	f.submitting = true
	f.State = StateMutating
	f.SubmitErr = nil
	defer func() { f.submitting = false }()

	if err := fn(ctx, f.Values.Clone()); err != nil {
		f.SubmitErr = err
		f.State = StateError
		return err
	}
	if f.cache != nil && len(f.invalidates) > 0 {
		f.cache.Invalidate(ctx, f.invalidates...)
	}
	if f.Mode == ModeCreate {
		f.Values = f.Schema.Empty()
		f.Errors = schema.FieldErrors{}
	}
	f.State = StateSuccess
	return nil
}
