// Package api provides validation utilities for API request handling.
package api

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxDreamTextRunes bounds a single dream description
const maxDreamTextRunes = 10000

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateDreamText validates the dream description of a request.
// An empty text is allowed and yields the "no symbols" response.
func ValidateDreamText(text string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if !utf8.ValidString(text) {
		result.AddError("dream_text", "Dream text must be valid UTF-8")
		return result
	}

	if n := utf8.RuneCountInString(text); n > maxDreamTextRunes {
		result.AddError("dream_text", "Dream text cannot exceed "+strconv.Itoa(maxDreamTextRunes)+" characters, got "+strconv.Itoa(n))
	}

	return result
}

// ValidateTerm validates a dictionary term path parameter
func ValidateTerm(term string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if strings.TrimSpace(term) == "" {
		result.AddError("term", "Term is required")
	}

	return result
}
