package roster

import (
	"time"

	"github.com/google/uuid"

	"squad/internal/domain/access"
	"squad/internal/domain/schema"
)

// Coach links a user to the team they coach.
type Coach struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TeamID    string    `json:"team_id"`
	CreatedAt time.Time `json:"created_at"`

	User          *User          `json:"user,omitempty"`
	Team          *Team          `json:"team,omitempty"`
	TrainingPlans []TrainingPlan `json:"training_plan,omitempty"`
	Count         Counts         `json:"_count,omitempty"`
}

// CoachSchema is the create/edit form rule set for coaches.
var CoachSchema = schema.Schema{
	Entity: access.ResourceCoach,
	Fields: []schema.Field{
		{Name: "user_id", Label: "User", Type: schema.TypeReference, Required: true, Nullable: true, Ref: access.ResourceUser},
		{Name: "team_id", Label: "Team", Type: schema.TypeReference, Required: true, Nullable: true, Ref: access.ResourceTeam},
	},
}

// Validate checks if the Coach has valid data.
func (c *Coach) Validate() error {
	if c.UserID == "" {
		return ErrEmptyUserID
	}
	if c.TeamID == "" {
		return ErrEmptyTeamID
	}
	return validateRefs(c.UserID, c.TeamID)
}

// DecodeCoach applies form values on top of base.
func DecodeCoach(base Coach, v schema.Values) (Coach, error) {
	if err := checkFields(CoachSchema, v); err != nil {
		return Coach{}, err
	}
	base.UserID = v.Get("user_id")
	base.TeamID = v.Get("team_id")
	if err := base.Validate(); err != nil {
		return Coach{}, err
	}
	return base, nil
}

// Values renders the coach as form values.
func (c Coach) Values() schema.Values {
	return schema.Values{"user_id": c.UserID, "team_id": c.TeamID}
}

// validateRefs rejects identifiers that are not UUIDs.
func validateRefs(ids ...string) error {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			return ErrInvalidReference
		}
	}
	return nil
}
