package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

var phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SanitizeString strips control characters and surrounding whitespace from
// user-supplied input before it reaches validation or storage.
func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)

	return strings.TrimSpace(s)
}

// ValidatePhoneNumber checks the session key. The number is an unverified
// identifier, so only the shape is checked, not ownership.
func ValidatePhoneNumber(phone string) error {
	if phone == "" {
		return &ValidationError{
			Field:   "phone_number",
			Message: "phone number is required",
		}
	}

	phone = SanitizeString(phone)

	if !phoneRegex.MatchString(phone) {
		return &ValidationError{
			Field:   "phone_number",
			Message: "phone number must be digits with an optional leading +",
		}
	}

	return nil
}

// ValidateName checks a beneficiary name component.
func ValidateName(name, fieldName string) error {
	if SanitizeString(name) == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", strings.ReplaceAll(fieldName, "_", " ")),
		}
	}

	return nil
}

// ValidateTimeString parses an RFC3339 timestamp from a request parameter.
func ValidateTimeString(timeStr string) (time.Time, error) {
	if timeStr == "" {
		return time.Time{}, &ValidationError{
			Field:   "time",
			Message: "is required",
		}
	}

	t, err := time.Parse(time.RFC3339, timeStr)
	if err != nil {
		return time.Time{}, &ValidationError{
			Field:   "time",
			Message: "must be a valid RFC3339 timestamp",
		}
	}

	return t, nil
}
