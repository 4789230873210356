package domain

import (
	"errors"
	"regexp"
	"slices"
)

// ErrNotFound is returned by repositories when an entity does not exist or
// does not resolve under the requested organization. Callers must not be
// able to tell the two cases apart.
var ErrNotFound = errors.New("not found")

// ValidationError reports a constraint violation found before a write.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	slugRe  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// IsValidSlug reports whether s is a URL-safe slug.
func IsValidSlug(s string) bool {
	return slugRe.MatchString(s)
}

// IsValidChoice reports whether value is one of the enumerated choices.
func IsValidChoice(value string, choices []string) bool {
	return slices.Contains(choices, value)
}
