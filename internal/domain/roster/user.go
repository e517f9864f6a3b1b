package roster

import (
	"errors"
	"slices"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"squad/internal/domain/access"
	"squad/internal/domain/schema"
)

// Role constants
const (
	RoleAdmin  = "admin"
	RoleCoach  = "coach"
	RolePlayer = "player"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleCoach, RolePlayer}

// PasswordCost is the bcrypt cost used by SetPassword.
var PasswordCost = 12

// User errors
var (
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidEmail     = errors.New("email must contain '@'")
	ErrInvalidRole      = errors.New("role must be one of: admin, coach, player")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrWrongPassword    = errors.New("incorrect password")
)

// User is a login identity. Coaches and players each point at one.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`

	Coaches []Coach  `json:"coach,omitempty"`
	Players []Player `json:"player,omitempty"`
	Count   Counts   `json:"_count,omitempty"`
}

func userFields(passwordRequired bool) []schema.Field {
	return []schema.Field{
		{Name: "email", Label: "Email", Type: schema.TypeEmail, Required: true, Max: MaxEmailLength},
		{Name: "role", Label: "Role", Type: schema.TypeEnum, Required: true, Options: ValidRoles},
		{Name: "password", Label: "Password", Type: schema.TypePassword, Required: passwordRequired, Min: MinPasswordLength},
	}
}

// UserSchema is the edit form rule set; a blank password keeps the current one.
var UserSchema = schema.Schema{Entity: access.ResourceUser, Fields: userFields(false)}

// UserCreateSchema requires an initial password.
var UserCreateSchema = schema.Schema{Entity: access.ResourceUser, Fields: userFields(true)}

// Validate checks if the User has valid data.
// PRE: User struct is populated
// POST: Returns nil if valid, error otherwise
func (u *User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	if len(u.Email) > MaxEmailLength {
		return errors.New("email cannot exceed 254 characters")
	}
	if !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}
	if !slices.Contains(ValidRoles, u.Role) {
		return ErrInvalidRole
	}
	return nil
}

// SetPassword hashes and stores a password using bcrypt.
// PRE: plaintext is non-empty and >= 12 characters
// POST: PasswordHash is set to bcrypt hash
func (u *User) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), PasswordCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// INVARIANT: User fields are not mutated
func (u *User) CheckPassword(plaintext string) error {
	if u.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// DecodeUser applies form values on top of base. A non-empty password is
// hashed; an empty one leaves PasswordHash as it was.
func DecodeUser(base User, v schema.Values) (User, error) {
	s := UserSchema
	if base.ID == "" {
		s = UserCreateSchema
	}
	if err := checkFields(s, v); err != nil {
		return User{}, err
	}
	base.Email = strings.ToLower(v.Get("email"))
	base.Role = v.Get("role")
	if pw := v["password"]; pw != "" {
		if err := base.SetPassword(pw); err != nil {
			return User{}, err
		}
	}
	if err := base.Validate(); err != nil {
		return User{}, err
	}
	return base, nil
}

// Values renders the user as form values. The password is never echoed.
func (u User) Values() schema.Values {
	return schema.Values{"email": u.Email, "role": u.Role, "password": ""}
}
