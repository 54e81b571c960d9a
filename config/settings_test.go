package config

import (
	"testing"
)

func TestRetrievalSettings_ApplyDefaults(t *testing.T) {
	s := RetrievalSettings{}
	s.ApplyDefaults()

	checks := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"min exact before partial", s.MinExactBeforePartial, 3},
		{"min partial word length", s.MinPartialWordLength, 4},
		{"max direct matches", s.MaxDirectMatches, 5},
		{"exact score", s.ExactMatchScore, 1.0},
		{"partial score", s.PartialMatchScore, 0.8},
		{"max keywords", s.MaxKeywords, 15},
		{"min keyword length", s.MinKeywordLength, 3},
		{"backfill target", s.BackfillTarget, 5},
		{"min backfill length", s.MinBackfillLength, 4},
		{"text top k", s.TextTopK, 5},
		{"keyword top k", s.KeywordTopK, 2},
		{"relevance floor", s.RelevanceFloor, 0.01},
		{"max context entries", s.MaxContextEntries, 8},
	}

	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, c.got)
		}
	}

	if errs := s.Validate(); len(errs) != 0 {
		t.Errorf("Expected defaults to validate, got %v", errs)
	}
}

func TestRetrievalSettings_ApplyDefaultsKeepsOverrides(t *testing.T) {
	s := RetrievalSettings{MaxContextEntries: 3, TextTopK: 10}
	s.ApplyDefaults()

	if s.MaxContextEntries != 3 {
		t.Errorf("Expected MaxContextEntries override 3, got %d", s.MaxContextEntries)
	}
	if s.TextTopK != 10 {
		t.Errorf("Expected TextTopK override 10, got %d", s.TextTopK)
	}
}

func TestRetrievalSettings_Validate(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(*RetrievalSettings)
		expectedErrors int
	}{
		{"defaults are valid", func(*RetrievalSettings) {}, 0},
		{"negative top k", func(s *RetrievalSettings) { s.TextTopK = -1 }, 1},
		{"exact score above one", func(s *RetrievalSettings) { s.ExactMatchScore = 1.5 }, 1},
		{"partial above exact", func(s *RetrievalSettings) { s.ExactMatchScore = 0.5; s.PartialMatchScore = 0.7 }, 1},
		{"relevance floor of one", func(s *RetrievalSettings) { s.RelevanceFloor = 1 }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultRetrievalSettings()
			tt.mutate(&s)
			errs := s.Validate()
			if len(errs) != tt.expectedErrors {
				t.Errorf("Expected %d errors, got %d: %v", tt.expectedErrors, len(errs), errs)
			}
		})
	}
}

func TestServerSettings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s := ServerSettings{}
		s.ApplyDefaults()
		if s.Port != "8000" {
			t.Errorf("Expected port 8000, got %s", s.Port)
		}
		if s.DictionaryPath == "" {
			t.Error("Expected a default dictionary path")
		}
		if s.MaxBodyBytes != 1<<20 {
			t.Errorf("Expected 1MiB body limit, got %d", s.MaxBodyBytes)
		}
		if errs := s.Validate(); len(errs) != 0 {
			t.Errorf("Expected defaults to validate, got %v", errs)
		}
	})

	t.Run("sqlite table default", func(t *testing.T) {
		s := ServerSettings{SQLitePath: "dict.db"}
		s.ApplyDefaults()
		if s.SQLiteTable != "dictionary" {
			t.Errorf("Expected table 'dictionary', got %q", s.SQLiteTable)
		}
		if s.DictionaryPath != "" {
			t.Errorf("Expected no CSV path when SQLite is configured, got %q", s.DictionaryPath)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		s := ServerSettings{Port: "abc", LLMHost: "http://localhost:11434/v1", RateLimit: -1}
		s.ApplyDefaults()
		errs := s.Validate()
		if len(errs) != 3 {
			t.Errorf("Expected 3 errors, got %d: %v", len(errs), errs)
		}
	})
}
