// Package pages holds the list, form and detail page models: what to fetch,
// which columns and actions the actor may see, and the mutate-then-refetch
// flow. Rendering is left to the HTTP layer.
package pages

import "errors"

// State is where a page is in its fetch/mutate lifecycle.
//
//	idle -> loading -> {success, error}
//	success -> mutating -> {success, error}
//
// error is left by retrying the action that caused it.
type State int

// State constants
const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
	StateMutating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	case StateMutating:
		return "mutating"
	}
	return "unknown"
}

// Page errors
var (
	ErrForbidden      = errors.New("operation not permitted")
	ErrSubmitDisabled = errors.New("form is not ready to submit")
	ErrUnknownChild   = errors.New("page has no such child section")
)
