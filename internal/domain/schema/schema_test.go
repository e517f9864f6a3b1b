package schema_test

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squad/internal/domain/access"
	"squad/internal/domain/schema"
)

var eventSchema = schema.Schema{
	Entity: access.ResourceEvent,
	Fields: []schema.Field{
		{Name: "name", Label: "Name", Type: schema.TypeString, Required: true, Max: 20},
		{Name: "start_time", Label: "Start", Type: schema.TypeDateTime, Required: true},
		{Name: "team_id", Label: "Team", Type: schema.TypeReference, Required: true, Nullable: true, Ref: access.ResourceTeam},
		{Name: "coach_id", Label: "Coach", Type: schema.TypeReference, Nullable: true, Ref: access.ResourceCoach},
	},
}

const teamID = "6f1c2f8e-3a52-4d55-9c3e-1d1f0c6c2b10"

func TestFieldTag(t *testing.T) {
	tests := []struct {
		field schema.Field
		want  string
	}{
		{schema.Field{Type: schema.TypeString, Required: true, Max: 10}, "required,max=10"},
		{schema.Field{Type: schema.TypeReference, Nullable: true}, "omitempty,uuid"},
		{schema.Field{Type: schema.TypeReference, Required: true, Nullable: true}, "required,uuid"},
		{schema.Field{Type: schema.TypeEmail, Required: true}, "required,email"},
		{schema.Field{Type: schema.TypeEnum, Required: true, Options: []string{"a", "b"}}, "required,oneof=a b"},
		{schema.Field{Type: schema.TypePassword, Min: 12}, "omitempty,min=12"},
		{schema.Field{Type: schema.TypeDateTime}, "omitempty,datetime=2006-01-02T15:04"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.field.Tag())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		values schema.Values
		failed []string
	}{
		{
			name:   "all valid",
			values: schema.Values{"name": "Cup final", "start_time": "2026-05-01T18:30", "team_id": teamID},
		},
		{
			name:   "empty required fields",
			values: schema.Values{"name": "   ", "start_time": "", "team_id": ""},
			failed: []string{"name", "start_time", "team_id"},
		},
		{
			name:   "malformed values",
			values: schema.Values{"name": strings.Repeat("x", 21), "start_time": "May 1st", "team_id": "team-1", "coach_id": "nope"},
			failed: []string{"name", "start_time", "team_id", "coach_id"},
		},
		{
			name:   "optional reference left blank",
			values: schema.Values{"name": "Drill", "start_time": "2026-05-01T18:30", "team_id": teamID, "coach_id": ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := eventSchema.Validate(tt.values)
			assert.Len(t, errs, len(tt.failed), "errors: %v", errs)
			for _, name := range tt.failed {
				assert.Contains(t, errs, name)
			}
			assert.Equal(t, len(tt.failed) == 0, errs.Valid())
		})
	}
}

func TestValidate_Messages(t *testing.T) {
	errs := eventSchema.Validate(schema.Values{"name": "", "start_time": "tomorrow", "team_id": teamID})
	assert.Equal(t, "Name is required", errs["name"])
	assert.Equal(t, "Start must be a date and time (YYYY-MM-DDTHH:MM)", errs["start_time"])
	assert.Equal(t, "name: Name is required; start_time: Start must be a date and time (YYYY-MM-DDTHH:MM)", errs.Error())
}

func TestFromQuery_IgnoresUndeclaredKeys(t *testing.T) {
	q := url.Values{"team_id": {teamID}, "role": {"admin"}, "name": {"Scrimmage"}}
	v := eventSchema.FromQuery(q)
	assert.Equal(t, teamID, v["team_id"])
	assert.Equal(t, "Scrimmage", v["name"])
	assert.NotContains(t, v, "role")
	assert.Equal(t, "", v["start_time"])
}

func TestRestrict(t *testing.T) {
	v := eventSchema.Restrict(schema.Values{"name": "A", "id": "spoofed"})
	assert.NotContains(t, v, "id")
	assert.Len(t, v, len(eventSchema.Fields))
}

func TestDateTimeRoundTrip(t *testing.T) {
	parsed, err := schema.ParseDateTime("2026-03-04T09:15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 4, 9, 15, 0, 0, time.UTC), parsed)
	assert.Equal(t, "2026-03-04T09:15", schema.FormatDateTime(parsed))
	assert.Equal(t, "", schema.FormatDateTime(time.Time{}))
}
