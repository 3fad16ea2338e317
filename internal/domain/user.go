package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrUserNotFound is returned when an id can never match a stored user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidUser is returned when a user candidate fails validation.
	ErrInvalidUser = errors.New("invalid user")
	// ErrUserCreationFailed is returned when the storage layer could not persist a user.
	ErrUserCreationFailed = errors.New("user creation failed")
)

//nolint:gochecknoglobals
var emailPattern = regexp.MustCompile(
	`^[^\s\v\p{Zs}\x{FEFF}\x{2028}\x{2029}@]+@[^\s\v\p{Zs}\x{FEFF}\x{2028}\x{2029}@]+\.[^\s\v\p{Zs}\x{FEFF}\x{2028}\x{2029}@]+$`,
)

// User represents a stored user record.
type User struct {
	ID       int64  `json:"id"`       // Assigned by storage, zero before persistence
	Username string `json:"username"` // Display name, non-empty
	Email    string `json:"email"`    // Contact address in local@domain.tld shape
}

// NewUser creates a user candidate that has not been persisted yet.
func NewUser(username, email string) User {
	return User{
		Username: username,
		Email:    email,
	}
}

// Violation describes a single failed field check.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

// ValidationError carries the violations found for a user candidate.
// It matches ErrInvalidUser with errors.Is.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.String())
	}

	return fmt.Sprintf("%s: %s", ErrInvalidUser, strings.Join(msgs, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidUser
}

// IsValidEmail reports whether s has a basic local@domain.tld shape.
// Unicode space separators count as whitespace.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidateUser checks the candidate fields required for creation.
// Returns the list of violations, empty if the candidate is valid.
func ValidateUser(u User) []Violation {
	var violations []Violation

	if u.Username == "" {
		violations = append(violations, Violation{Field: "username", Message: "must not be empty"})
	}

	switch {
	case u.Email == "":
		violations = append(violations, Violation{Field: "email", Message: "must not be empty"})
	case !IsValidEmail(u.Email):
		violations = append(violations, Violation{Field: "email", Message: "must be an email address"})
	}

	return violations
}
