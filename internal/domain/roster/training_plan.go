package roster

import (
	"strings"
	"time"

	"squad/internal/domain/access"
	"squad/internal/domain/schema"
)

// TrainingPlan is a named plan assigned to a player, optionally authored by a coach.
type TrainingPlan struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PlayerID    string    `json:"player_id"`
	CoachID     string    `json:"coach_id,omitempty"` // empty when no coach is attached
	CreatedAt   time.Time `json:"created_at"`

	Player *Player `json:"player,omitempty"`
	Coach  *Coach  `json:"coach,omitempty"`
}

// TrainingPlanSchema is the create/edit form rule set for training plans.
var TrainingPlanSchema = schema.Schema{
	Entity: access.ResourceTrainingPlan,
	Fields: []schema.Field{
		{Name: "name", Label: "Name", Type: schema.TypeString, Required: true, Max: MaxNameLength},
		{Name: "description", Label: "Description", Type: schema.TypeText, Max: MaxDescriptionLength},
		{Name: "player_id", Label: "Player", Type: schema.TypeReference, Required: true, Nullable: true, Ref: access.ResourcePlayer},
		{Name: "coach_id", Label: "Coach", Type: schema.TypeReference, Nullable: true, Ref: access.ResourceCoach},
	},
}

// Validate checks if the TrainingPlan has valid data.
func (tp *TrainingPlan) Validate() error {
	if err := validateName(strings.TrimSpace(tp.Name)); err != nil {
		return err
	}
	if len([]rune(tp.Description)) > MaxDescriptionLength {
		return ErrDescriptionLong
	}
	if tp.PlayerID == "" {
		return ErrEmptyPlayerID
	}
	return validateRefs(tp.PlayerID, tp.CoachID)
}

// HasCoach reports whether a coach is attached.
func (tp TrainingPlan) HasCoach() bool { return tp.CoachID != "" }

// DecodeTrainingPlan applies form values on top of base.
func DecodeTrainingPlan(base TrainingPlan, v schema.Values) (TrainingPlan, error) {
	if err := checkFields(TrainingPlanSchema, v); err != nil {
		return TrainingPlan{}, err
	}
	base.Name = v.Get("name")
	base.Description = v.Get("description")
	base.PlayerID = v.Get("player_id")
	base.CoachID = v.Get("coach_id")
	if err := base.Validate(); err != nil {
		return TrainingPlan{}, err
	}
	return base, nil
}

// Values renders the training plan as form values.
func (tp TrainingPlan) Values() schema.Values {
	return schema.Values{
		"name":        tp.Name,
		"description": tp.Description,
		"player_id":   tp.PlayerID,
		"coach_id":    tp.CoachID,
	}
}
