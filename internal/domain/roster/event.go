package roster

import (
	"errors"
	"strings"
	"time"

	"squad/internal/domain/access"
	"squad/internal/domain/schema"
)

// Event errors
var (
	ErrEmptyStartTime = errors.New("start time is required")
	ErrEmptyEndTime   = errors.New("end time is required")
	ErrEndBeforeStart = errors.New("end time cannot be before start time")
)

// Event is a scheduled fixture or session for a team.
type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	TeamID    string    `json:"team_id"`
	CreatedAt time.Time `json:"created_at"`

	Team *Team `json:"team,omitempty"`
}

// EventSchema is the create/edit form rule set for events.
var EventSchema = schema.Schema{
	Entity: access.ResourceEvent,
	Fields: []schema.Field{
		{Name: "name", Label: "Name", Type: schema.TypeString, Required: true, Max: MaxNameLength},
		{Name: "start_time", Label: "Start time", Type: schema.TypeDateTime, Required: true},
		{Name: "end_time", Label: "End time", Type: schema.TypeDateTime, Required: true},
		{Name: "team_id", Label: "Team", Type: schema.TypeReference, Required: true, Nullable: true, Ref: access.ResourceTeam},
	},
}

// Validate checks if the Event has valid data.
// INVARIANT: EndTime is never before StartTime
func (e *Event) Validate() error {
	if err := validateName(strings.TrimSpace(e.Name)); err != nil {
		return err
	}
	if e.StartTime.IsZero() {
		return ErrEmptyStartTime
	}
	if e.EndTime.IsZero() {
		return ErrEmptyEndTime
	}
	if e.EndTime.Before(e.StartTime) {
		return ErrEndBeforeStart
	}
	if e.TeamID == "" {
		return ErrEmptyTeamID
	}
	return validateRefs(e.TeamID)
}

// Duration returns how long the event runs.
func (e Event) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// DecodeEvent applies form values on top of base.
func DecodeEvent(base Event, v schema.Values) (Event, error) {
	if err := checkFields(EventSchema, v); err != nil {
		return Event{}, err
	}
	start, err := schema.ParseDateTime(v.Get("start_time"))
	if err != nil {
		return Event{}, err
	}
	end, err := schema.ParseDateTime(v.Get("end_time"))
	if err != nil {
		return Event{}, err
	}
	base.Name = v.Get("name")
	base.StartTime = start
	base.EndTime = end
	base.TeamID = v.Get("team_id")
	if err := base.Validate(); err != nil {
		return Event{}, err
	}
	return base, nil
}

// Values renders the event as form values.
func (e Event) Values() schema.Values {
	return schema.Values{
		"name":       e.Name,
		"start_time": schema.FormatDateTime(e.StartTime),
		"end_time":   schema.FormatDateTime(e.EndTime),
		"team_id":    e.TeamID,
	}
}
