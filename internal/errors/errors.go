package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrLoad is returned when the dictionary source is unreadable or malformed
	ErrLoad = errors.New("dictionary load failed")

	// ErrQuery is returned when a single query cannot be vectorized or scored
	ErrQuery = errors.New("query failed")

	// ErrExtraction is returned when keyword extraction fails
	ErrExtraction = errors.New("keyword extraction failed")

	// ErrEntryNotFound is returned when a dictionary term lookup misses
	ErrEntryNotFound = errors.New("dictionary entry not found")

	// ErrDegraded is returned when the retrieval service failed to initialize
	ErrDegraded = errors.New("retrieval service is degraded")

	// ErrJobNotFound is returned when a reload job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)

// LoadError represents a dictionary load failure with context
type LoadError struct {
	Source string
	Row    int // 1-based data row, 0 when the failure is not row specific
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("failed to load dictionary from '%s'", e.Source)
	if e.Row > 0 {
		msg += fmt.Sprintf(" (row %d)", e.Row)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError creates a new LoadError
func NewLoadError(source, reason string, err error) *LoadError {
	return &LoadError{Source: source, Reason: reason, Err: err}
}

// NewRowLoadError creates a LoadError pointing at a specific data row
func NewRowLoadError(source string, row int, reason string) *LoadError {
	return &LoadError{Source: source, Row: row, Reason: reason}
}

// QueryError represents a failure while scoring one query
type QueryError struct {
	Query  string
	Reason string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query '%s' failed: %s", truncate(e.Query, 50), e.Reason)
}

func (e *QueryError) Is(target error) bool {
	return target == ErrQuery
}

// NewQueryError creates a new QueryError
func NewQueryError(query, reason string) *QueryError {
	return &QueryError{Query: query, Reason: reason}
}

// ExtractionError represents a keyword extraction failure
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("keyword extraction failed: %s", e.Reason)
}

func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

// NewExtractionError creates a new ExtractionError
func NewExtractionError(reason string) *ExtractionError {
	return &ExtractionError{Reason: reason}
}

// EntryNotFoundError represents a missing dictionary term
type EntryNotFoundError struct {
	Term string
}

func (e *EntryNotFoundError) Error() string {
	return fmt.Sprintf("dictionary entry '%s' not found", e.Term)
}

func (e *EntryNotFoundError) Is(target error) bool {
	return target == ErrEntryNotFound
}

// NewEntryNotFoundError creates a new EntryNotFoundError
func NewEntryNotFoundError(term string) *EntryNotFoundError {
	return &EntryNotFoundError{Term: term}
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
