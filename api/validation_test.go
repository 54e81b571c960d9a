package api

import (
	"strings"
	"testing"
)

func TestValidationResult_AddError(t *testing.T) {
	result := &ValidationResult{Valid: true}

	result.AddError("field1", "error message")

	if result.Valid {
		t.Error("Expected Valid to be false after adding error")
	}

	if len(result.Errors) != 1 {
		t.Errorf("Expected 1 error, got %d", len(result.Errors))
	}

	if result.Errors[0].Field != "field1" {
		t.Errorf("Expected field 'field1', got '%s'", result.Errors[0].Field)
	}

	if result.Errors[0].Message != "error message" {
		t.Errorf("Expected message 'error message', got '%s'", result.Errors[0].Message)
	}
}

func TestValidationResult_HasErrors(t *testing.T) {
	result := &ValidationResult{Valid: true}

	if result.HasErrors() {
		t.Error("Expected HasErrors to be false for empty result")
	}

	result.AddError("field", "message")

	if !result.HasErrors() {
		t.Error("Expected HasErrors to be true after adding error")
	}
}

func TestValidateDreamText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantValid bool
		wantError string
	}{
		{
			name:      "regular dream",
			text:      "I was flying over a dark ocean",
			wantValid: true,
		},
		{
			name:      "empty dream",
			text:      "",
			wantValid: true,
		},
		{
			name:      "multibyte text at the limit",
			text:      strings.Repeat("ü", maxDreamTextRunes),
			wantValid: true,
		},
		{
			name:      "too long",
			text:      strings.Repeat("a", maxDreamTextRunes+1),
			wantValid: false,
			wantError: "cannot exceed",
		},
		{
			name:      "invalid utf-8",
			text:      "water \xff\xfe",
			wantValid: false,
			wantError: "valid UTF-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateDreamText(tt.text)

			if result.Valid != tt.wantValid {
				t.Errorf("ValidateDreamText() valid = %v, want %v", result.Valid, tt.wantValid)
			}

			if !tt.wantValid {
				if len(result.Errors) == 0 {
					t.Fatal("Expected validation errors")
				}
				if result.Errors[0].Field != "dream_text" {
					t.Errorf("Expected field 'dream_text', got '%s'", result.Errors[0].Field)
				}
				if !strings.Contains(result.Errors[0].Message, tt.wantError) {
					t.Errorf("Expected error containing '%s', got '%s'", tt.wantError, result.Errors[0].Message)
				}
			}
		})
	}
}

func TestValidateTerm(t *testing.T) {
	tests := []struct {
		name      string
		term      string
		wantValid bool
	}{
		{name: "single word", term: "water", wantValid: true},
		{name: "multi word", term: "black cat", wantValid: true},
		{name: "empty", term: "", wantValid: false},
		{name: "whitespace only", term: "   ", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateTerm(tt.term)
			if result.Valid != tt.wantValid {
				t.Errorf("ValidateTerm(%q) valid = %v, want %v", tt.term, result.Valid, tt.wantValid)
			}
		})
	}
}
