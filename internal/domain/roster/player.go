package roster

import (
	"time"

	"squad/internal/domain/access"
	"squad/internal/domain/schema"
)

// Player links a user to the team they play for.
type Player struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TeamID    string    `json:"team_id"`
	CreatedAt time.Time `json:"created_at"`

	User          *User          `json:"user,omitempty"`
	Team          *Team          `json:"team,omitempty"`
	TrainingPlans []TrainingPlan `json:"training_plan,omitempty"`
	Count         Counts         `json:"_count,omitempty"`
}

// PlayerSchema is the create/edit form rule set for players.
var PlayerSchema = schema.Schema{
	Entity: access.ResourcePlayer,
	Fields: []schema.Field{
		{Name: "user_id", Label: "User", Type: schema.TypeReference, Required: true, Nullable: true, Ref: access.ResourceUser},
		{Name: "team_id", Label: "Team", Type: schema.TypeReference, Required: true, Nullable: true, Ref: access.ResourceTeam},
	},
}

// Validate checks if the Player has valid data.
func (p *Player) Validate() error {
	if p.UserID == "" {
		return ErrEmptyUserID
	}
	if p.TeamID == "" {
		return ErrEmptyTeamID
	}
	return validateRefs(p.UserID, p.TeamID)
}

// DecodePlayer applies form values on top of base.
func DecodePlayer(base Player, v schema.Values) (Player, error) {
	if err := checkFields(PlayerSchema, v); err != nil {
		return Player{}, err
	}
	base.UserID = v.Get("user_id")
	base.TeamID = v.Get("team_id")
	if err := base.Validate(); err != nil {
		return Player{}, err
	}
	return base, nil
}

// Values renders the player as form values.
func (p Player) Values() schema.Values {
	return schema.Values{"user_id": p.UserID, "team_id": p.TeamID}
}
