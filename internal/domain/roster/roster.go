// Package roster holds the sports-team entities: teams, users, coaches,
// players, events and training plans. They live in one package because
// their relations point both ways (a player has training plans, a training
// plan has a player).
package roster

import (
	"errors"

	"squad/internal/domain/schema"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength        = 120
	MaxDescriptionLength = 4000
	MaxEmailLength       = 254
	MinPasswordLength    = 12
)

// Shared domain errors
var (
	ErrEmptyName        = errors.New("name cannot be empty")
	ErrNameTooLong      = errors.New("name cannot exceed 120 characters")
	ErrDescriptionLong  = errors.New("description cannot exceed 4000 characters")
	ErrEmptyTeamID      = errors.New("team is required")
	ErrEmptyUserID      = errors.New("user is required")
	ErrEmptyPlayerID    = errors.New("player is required")
	ErrInvalidReference = errors.New("reference is not a valid identifier")
)

// Counts holds related-record counts keyed by relation name
// (for example "training_plan").
type Counts map[string]int

// Of returns the count for name, zero when absent.
func (c Counts) Of(name string) int {
	return c[name]
}

// checkFields runs schema validation and returns the field errors as an
// error, or nil when every field passes.
func checkFields(s schema.Schema, v schema.Values) error {
	if errs := s.Validate(v); !errs.Valid() {
		return errs
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if len([]rune(name)) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}
