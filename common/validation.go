package common

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError represents a single validation error for a record
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error renders the error as "field: message" for flat display in a review table
func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// RecordValidationResult holds validation results for a single record.
// Validity is derived from Errors only; results are not mutated once returned.
type RecordValidationResult struct {
	RowNumber int               `json:"row_number"`
	Data      map[string]string `json:"data"`
	Errors    []ValidationError `json:"errors,omitempty"`
	Malformed bool              `json:"malformed,omitempty"`
}

// AddError adds a validation error to the result
func (r *RecordValidationResult) AddError(field, message string) {
	r.Errors = append(r.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// IsValid reports whether the record carries no validation errors
func (r *RecordValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Messages returns the errors as ordered "field: message" strings
func (r *RecordValidationResult) Messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Error())
	}
	return out
}

// Email validation regex (simplified RFC 5322)
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks if email format is valid
func ValidateEmail(email string) bool {
	if email == "" {
		return false
	}
	return emailRegex.MatchString(email)
}

// Kebab-case regex (lowercase alphanumeric with hyphens)
var kebabRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidateKebabCase checks if string is in kebab-case format
func ValidateKebabCase(s string) bool {
	if s == "" {
		return false
	}
	return kebabRegex.MatchString(s)
}

// Literal YYYY-MM-DD shape; calendar validity is not checked
var datePatternRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateDatePattern checks that s looks like YYYY-MM-DD
func ValidateDatePattern(s string) bool {
	return datePatternRegex.MatchString(s)
}

// ValidateRequired checks if a string field is not empty
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateEnum checks if value is in allowed list
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
