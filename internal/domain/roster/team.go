package roster

import (
	"strings"
	"time"

	"squad/internal/domain/access"
	"squad/internal/domain/schema"
)

// Team is a squad that coaches, players and events belong to.
type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`

	Players []Player `json:"player,omitempty"`
	Coaches []Coach  `json:"coach,omitempty"`
	Events  []Event  `json:"event,omitempty"`
	Count   Counts   `json:"_count,omitempty"`
}

// TeamSchema is the create/edit form rule set for teams.
var TeamSchema = schema.Schema{
	Entity: access.ResourceTeam,
	Fields: []schema.Field{
		{Name: "name", Label: "Name", Type: schema.TypeString, Required: true, Max: MaxNameLength},
		{Name: "description", Label: "Description", Type: schema.TypeText, Max: MaxDescriptionLength},
	},
}

// Validate checks if the Team has valid data.
// PRE: Team struct is populated
// POST: Returns nil if valid, error otherwise
func (t *Team) Validate() error {
	if err := validateName(strings.TrimSpace(t.Name)); err != nil {
		return err
	}
	if len([]rune(t.Description)) > MaxDescriptionLength {
		return ErrDescriptionLong
	}
	return nil
}

// DecodeTeam applies form values on top of base.
// POST: the returned team passed both schema and domain validation
func DecodeTeam(base Team, v schema.Values) (Team, error) {
	if err := checkFields(TeamSchema, v); err != nil {
		return Team{}, err
	}
	base.Name = v.Get("name")
	base.Description = v.Get("description")
	if err := base.Validate(); err != nil {
		return Team{}, err
	}
	return base, nil
}

// Values renders the team as form values.
func (t Team) Values() schema.Values {
	return schema.Values{"name": t.Name, "description": t.Description}
}
