package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Err wraps a single failure as an *Error. A nil receiver returns nil.
func (v *ValidationError) Err() error {
	if v == nil {
		return nil
	}
	return &Error{Fields: []ValidationError{*v}}
}

// Error is returned by operations whose input failed validation.
// Callers detect it with errors.As.
type Error struct {
	Fields []ValidationError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// New returns an *Error holding a single field failure.
func New(field, message string) *Error {
	return &Error{Fields: []ValidationError{{Field: field, Message: message}}}
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// Err returns the accumulated failures as an *Error, or nil when there are none.
func (c *Collector) Err() error {
	if !c.HasErrors() {
		return nil
	}
	return &Error{Fields: c.errors}
}

// ValidateUTF8 returns an error if the value is not valid UTF-8.
func ValidateUTF8(field, value string) *ValidationError {
	if !utf8.ValidString(value) {
		return &ValidationError{
			Field:   field,
			Message: "must be valid UTF-8",
		}
	}
	return nil
}

// ValidateNoNullBytes returns an error if the value contains null bytes.
func ValidateNoNullBytes(field, value string) *ValidationError {
	if strings.Contains(value, "\x00") {
		return &ValidationError{
			Field:   field,
			Message: "must not contain null bytes",
		}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// ValidateULID returns an error if the value is not a valid ULID format.
// ULIDs are 26 characters using Crockford Base32 (excludes I, L, O, U).
func ValidateULID(field, value string) *ValidationError {
	if len(value) != 26 {
		return &ValidationError{
			Field:   field,
			Message: "must be a valid ULID (26 characters)",
		}
	}

	const crockfordBase32 = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
	for _, r := range strings.ToUpper(value) {
		if !strings.ContainsRune(crockfordBase32, r) {
			return &ValidationError{
				Field:   field,
				Message: "must be a valid ULID (invalid character)",
			}
		}
	}
	return nil
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateEnum returns an error if the value is not in the allowed list.
func ValidateEnum(field, value string, allowed []string) *ValidationError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateNonNegative returns an error if value is below zero.
func ValidateNonNegative(field string, value float64) *ValidationError {
	if value < 0 {
		return &ValidationError{
			Field:   field,
			Message: "must not be negative",
		}
	}
	return nil
}

// ValidateDate returns an error unless value is a real YYYY-MM-DD date.
func ValidateDate(field, value string) *ValidationError {
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return &ValidationError{
			Field:   field,
			Message: "must be a date in YYYY-MM-DD format",
		}
	}
	return nil
}

// ValidateMonth returns an error unless value is a YYYY-MM month.
func ValidateMonth(field, value string) *ValidationError {
	if _, err := time.Parse("2006-01", value); err != nil || len(value) != 7 {
		return &ValidationError{
			Field:   field,
			Message: "must be a month in YYYY-MM format",
		}
	}
	return nil
}

var weekPattern = regexp.MustCompile(`^\d{4}-W(\d{2})$`)

// ValidateWeek returns an error unless value is an ISO week label YYYY-Www
// with a week number from 01 to 53.
func ValidateWeek(field, value string) *ValidationError {
	m := weekPattern.FindStringSubmatch(value)
	if m != nil {
		if n, _ := strconv.Atoi(m[1]); n >= 1 && n <= 53 {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Message: "must be an ISO week in YYYY-Www format",
	}
}

// ValidateDateOrder returns an error if start falls after end.
// Both values must already be valid YYYY-MM-DD dates.
func ValidateDateOrder(field, start, end string) *ValidationError {
	if start > end {
		return &ValidationError{
			Field:   field,
			Message: "start must not be after end",
		}
	}
	return nil
}
