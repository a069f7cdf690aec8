// Package domain contains the core business entities for the YaMDb API.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the review aggregation service.
package domain

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// Role represents a user's role in the system.
type Role string

// Valid user roles. The role is stored as a plain string in the database
// and drives the authorization predicates below.
const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// Username and email constraints, mirrored by the database schema.
const (
	UsernameMaxLength = 150
	EmailMaxLength    = 254
	BioMaxLength      = 150

	// ReservedUsername is a routing keyword ("/users/me/") and can never
	// be claimed as an account name.
	ReservedUsername = "me"
)

// usernamePattern matches letters, digits and the characters . @ + - _
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9.@+\-_]+$`)

// User represents a registered user of the review service.
type User struct {
	// ID is the unique identifier for the user (auto-generated).
	ID int64 `json:"-"`

	// Username is the unique account name. Constraints: 1-150 characters
	// of letters, digits and . @ + - _; the value "me" is reserved.
	Username string `json:"username"`

	// Email is the unique email address for the user.
	Email string `json:"email"`

	// FirstName and LastName are optional display names.
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Bio is a free-text self description, at most 150 characters.
	Bio string `json:"bio"`

	// Role determines the user's base privileges.
	Role Role `json:"role"`

	// IsSuperuser overrides Role for admin checks. Superusers are
	// created operationally, never through the API.
	IsSuperuser bool `json:"-"`

	// IsStaff is an optional extra admin-equivalent signal. Whether it
	// actually grants admin rights is a deployment choice (see
	// auth.Policy).
	IsStaff bool `json:"-"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"-"`
}

// NewUser creates a new unprivileged User claiming the given identity.
func NewUser(username, email string) *User {
	return &User{
		Username:  username,
		Email:     email,
		Role:      RoleUser,
		CreatedAt: time.Now().UTC(),
	}
}

// IsAdmin reports whether the user has admin privileges: an explicit
// admin role or the superuser override.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsSuperuser
}

// IsModerator reports whether the user holds exactly the moderator role.
// Superusers do not implicitly satisfy this predicate; callers needing
// moderator-or-higher must also check IsAdmin.
func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}

// ValidateUsername checks the username against the account name rules.
// It returns ErrInvalidUsername for pattern/length violations and
// ErrReservedUsername for the reserved value "me".
func ValidateUsername(username string) error {
	if username == "" || len(username) > UsernameMaxLength {
		return ErrInvalidUsername
	}
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	if strings.EqualFold(username, ReservedUsername) {
		return ErrReservedUsername
	}
	return nil
}

// ValidateEmail checks the email address format and length bound.
func ValidateEmail(email string) error {
	if email == "" || len(email) > EmailMaxLength {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateBio checks the bio length bound.
func ValidateBio(bio string) error {
	if len(bio) > BioMaxLength {
		return ErrInvalidBio
	}
	return nil
}
