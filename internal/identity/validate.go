package identity

import (
	"fmt"
	"regexp"
	"strings"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError reports a rejected sign-up field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Field: "email", Message: "is required"}
	}
	if len(email) > 254 || !emailRE.MatchString(email) {
		return &ValidationError{Field: "email", Message: "is not a valid address"}
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return &ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength),
		}
	}
	// bcrypt ignores everything past 72 bytes.
	if len(password) > 72 {
		return &ValidationError{Field: "password", Message: "must be at most 72 bytes"}
	}
	return nil
}
