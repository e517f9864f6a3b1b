// Package schema declares per-entity form rules and validates submitted values
// against them. Rules compile to go-playground/validator tags.
package schema

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"squad/internal/domain/access"
)

// Type is a form field kind.
type Type string

// Field type constants
const (
	TypeString    Type = "string"
	TypeText      Type = "text"
	TypeDateTime  Type = "datetime"
	TypeReference Type = "reference"
	TypeEmail     Type = "email"
	TypeEnum      Type = "enum"
	TypePassword  Type = "password"
)

// DateTimeLayout is the wire format for datetime fields (matches <input type="datetime-local">).
const DateTimeLayout = "2006-01-02T15:04"

// Field is one rule in a schema.
type Field struct {
	Name     string
	Label    string
	Type     Type
	Required bool
	// Nullable fields accept an empty value unless Required is also set;
	// Required wins.
	Nullable bool
	Min      int
	Max      int
	Options  []string
	Ref      access.Resource
}

// Schema is the ordered rule set for one entity form.
type Schema struct {
	Entity access.Resource
	Fields []Field
}

// Values holds raw submitted form values keyed by field name.
type Values map[string]string

// Get returns the trimmed value for name.
func (v Values) Get(name string) string {
	return strings.TrimSpace(v[name])
}

// Clone returns a copy of v.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// FieldErrors maps field names to a display message.
type FieldErrors map[string]string

// Valid reports whether there are no errors.
func (e FieldErrors) Valid() bool { return len(e) == 0 }

// Error implements error so field errors can travel through error returns.
func (e FieldErrors) Error() string {
	names := make([]string, 0, len(e))
	for n := range e {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + ": " + e[n]
	}
	return strings.Join(parts, "; ")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Tag compiles the field rule to a validator tag.
func (f Field) Tag() string {
	var parts []string
	if f.Required {
		parts = append(parts, "required")
	} else {
		parts = append(parts, "omitempty")
	}
	switch f.Type {
	case TypeDateTime:
		parts = append(parts, "datetime="+DateTimeLayout)
	case TypeReference:
		parts = append(parts, "uuid")
	case TypeEmail:
		parts = append(parts, "email")
	case TypeEnum:
		parts = append(parts, "oneof="+strings.Join(f.Options, " "))
	}
	if f.Min > 0 {
		parts = append(parts, "min="+strconv.Itoa(f.Min))
	}
	if f.Max > 0 {
		parts = append(parts, "max="+strconv.Itoa(f.Max))
	}
	return strings.Join(parts, ",")
}

// Field looks up a rule by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns the declared field names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Empty returns a value set with every declared field blank.
func (s Schema) Empty() Values {
	v := make(Values, len(s.Fields))
	for _, f := range s.Fields {
		v[f.Name] = ""
	}
	return v
}

// FromQuery seeds form values from URL query parameters.
// INVARIANT: only declared fields are taken; everything else is ignored
func (s Schema) FromQuery(q url.Values) Values {
	v := s.Empty()
	for _, f := range s.Fields {
		if val := q.Get(f.Name); val != "" {
			v[f.Name] = val
		}
	}
	return v
}

// Restrict drops any keys not declared by the schema.
func (s Schema) Restrict(in Values) Values {
	v := s.Empty()
	for _, f := range s.Fields {
		if val, ok := in[f.Name]; ok {
			v[f.Name] = val
		}
	}
	return v
}

// Validate checks every field and returns messages for the failing ones.
// POST: the result is non-nil; an empty map means valid
func (s Schema) Validate(v Values) FieldErrors {
	errs := FieldErrors{}
	for _, f := range s.Fields {
		val := v[f.Name]
		if f.Type != TypePassword {
			val = strings.TrimSpace(val)
		}
		if err := validate.Var(val, f.Tag()); err != nil {
			errs[f.Name] = f.message(err)
		}
	}
	return errs
}

func (f Field) message(err error) string {
	label := f.Label
	if label == "" {
		label = f.Name
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return label + " is invalid"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "datetime":
		return label + " must be a date and time (YYYY-MM-DDTHH:MM)"
	case "uuid":
		return label + " must reference an existing record"
	case "email":
		return label + " must be a valid email address"
	case "oneof":
		return label + " must be one of: " + strings.Join(f.Options, ", ")
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	}
	return label + " is invalid"
}

// ParseDateTime parses a datetime field value in UTC.
func ParseDateTime(s string) (time.Time, error) {
	return time.ParseInLocation(DateTimeLayout, strings.TrimSpace(s), time.UTC)
}

// FormatDateTime renders t in the datetime field layout.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateTimeLayout)
}
