// Package config provides configuration structures for the retrieval service.
// It defines the retrieval thresholds and the HTTP server options.
package config

import (
	"strconv"
	"strings"
)

// RetrievalSettings contains the tunable thresholds of the retrieval pipeline.
// Zero values are replaced by ApplyDefaults.
//
// The pipeline runs in this order:
// 1. Direct lookup: exact substring matches, then partial word matches while
// fewer than MinExactBeforePartial exact matches were found, capped at MaxDirectMatches
// 2. Keyword extraction (up to MaxKeywords)
// 3. Vector search over the whole text (TextTopK) and per keyword (KeywordTopK)
// 4. Dedupe, sort by score, keep MaxContextEntries
type RetrievalSettings struct {
	MinExactBeforePartial int     `json:"min_exact_before_partial"` // Partial matches are added while exact matches < this (e.g., 3)
	MinPartialWordLength  int     `json:"min_partial_word_length"`  // Words must be longer than this to drive a partial match (e.g., 4)
	MaxDirectMatches      int     `json:"max_direct_matches"`       // Cap on exact + partial matches (e.g., 5)
	ExactMatchScore       float64 `json:"exact_match_score"`        // Score assigned to exact substring matches (e.g., 1.0)
	PartialMatchScore     float64 `json:"partial_match_score"`      // Score assigned to partial word matches (e.g., 0.8)
	MaxKeywords           int     `json:"max_keywords"`             // Keywords extracted per query (e.g., 15)
	MinKeywordLength      int     `json:"min_keyword_length"`       // Unigrams must be longer than this (e.g., 3)
	BackfillTarget        int     `json:"backfill_target"`          // Backfill runs when fewer keywords than this were found (e.g., 5)
	MinBackfillLength     int     `json:"min_backfill_length"`      // Backfilled words must be longer than this (e.g., 4)
	TextTopK              int     `json:"text_top_k"`               // Vector hits for the whole text (e.g., 5)
	KeywordTopK           int     `json:"keyword_top_k"`            // Vector hits per keyword (e.g., 2)
	RelevanceFloor        float64 `json:"relevance_floor"`          // Vector hits scoring at or below this are dropped (e.g., 0.01)
	MaxContextEntries     int     `json:"max_context_entries"`      // Entries kept in the rendered context (e.g., 8)
}

// DefaultRetrievalSettings returns settings with every default applied.
func DefaultRetrievalSettings() RetrievalSettings {
	var s RetrievalSettings
	s.ApplyDefaults()
	return s
}

// ApplyDefaults applies default values to the retrieval settings
func (s *RetrievalSettings) ApplyDefaults() {
	if s.MinExactBeforePartial == 0 {
		s.MinExactBeforePartial = 3
	}
	if s.MinPartialWordLength == 0 {
		s.MinPartialWordLength = 4
	}
	if s.MaxDirectMatches == 0 {
		s.MaxDirectMatches = 5
	}
	if s.ExactMatchScore == 0 {
		s.ExactMatchScore = 1.0
	}
	if s.PartialMatchScore == 0 {
		s.PartialMatchScore = 0.8
	}
	if s.MaxKeywords == 0 {
		s.MaxKeywords = 15
	}
	if s.MinKeywordLength == 0 {
		s.MinKeywordLength = 3
	}
	if s.BackfillTarget == 0 {
		s.BackfillTarget = 5
	}
	if s.MinBackfillLength == 0 {
		s.MinBackfillLength = 4
	}
	if s.TextTopK == 0 {
		s.TextTopK = 5
	}
	if s.KeywordTopK == 0 {
		s.KeywordTopK = 2
	}
	if s.RelevanceFloor == 0 {
		s.RelevanceFloor = 0.01
	}
	if s.MaxContextEntries == 0 {
		s.MaxContextEntries = 8
	}
}

// Validate returns a message for every invalid setting. An empty result means the settings are usable.
func (s *RetrievalSettings) Validate() []string {
	var errors []string

	positive := []struct {
		name  string
		value int
	}{
		{"min_exact_before_partial", s.MinExactBeforePartial},
		{"max_direct_matches", s.MaxDirectMatches},
		{"max_keywords", s.MaxKeywords},
		{"text_top_k", s.TextTopK},
		{"keyword_top_k", s.KeywordTopK},
		{"max_context_entries", s.MaxContextEntries},
	}
	for _, p := range positive {
		if p.value < 0 {
			errors = append(errors, "Setting '"+p.name+"' must not be negative, got "+strconv.Itoa(p.value))
		}
	}

	if s.ExactMatchScore < 0 || s.ExactMatchScore > 1 {
		errors = append(errors, "Setting 'exact_match_score' must be within [0, 1]")
	}
	if s.PartialMatchScore < 0 || s.PartialMatchScore > 1 {
		errors = append(errors, "Setting 'partial_match_score' must be within [0, 1]")
	}
	if s.PartialMatchScore > s.ExactMatchScore {
		errors = append(errors, "Setting 'partial_match_score' must not exceed 'exact_match_score'")
	}
	if s.RelevanceFloor < 0 || s.RelevanceFloor >= 1 {
		errors = append(errors, "Setting 'relevance_floor' must be within [0, 1)")
	}

	return errors
}

// ServerSettings holds the options of the HTTP service and its collaborators.
type ServerSettings struct {
	Port            string  `json:"port"`
	DictionaryPath  string  `json:"dictionary_path"`  // CSV file with Term, Details and Summary columns
	SQLitePath      string  `json:"sqlite_path"`      // Optional SQLite database used instead of DictionaryPath
	SQLiteTable     string  `json:"sqlite_table"`     // Table holding the dictionary when SQLitePath is set
	MaxBodyBytes    int64   `json:"max_body_bytes"`   // Request body limit
	RateLimit       float64 `json:"rate_limit"`       // Requests per second across all clients, 0 disables limiting
	RateBurst       int     `json:"rate_burst"`       // Token bucket burst
	LLMHost         string  `json:"llm_host"`         // OpenAI-compatible endpoint, empty disables /interpret
	LLMModel        string  `json:"llm_model"`        // Model identifier
	LLMMaxTokens    int     `json:"llm_max_tokens"`   // Generation budget
	LLMTemperature  float64 `json:"llm_temperature"`  // Sampling temperature
	RequestTimeoutS int     `json:"request_timeout_s"` // Per-request timeout for generation
	AnalyticsDir    string  `json:"analytics_dir"`     // BadgerDB directory for retrieval events, empty keeps them in memory
}

// ApplyDefaults applies default values to the server settings
func (s *ServerSettings) ApplyDefaults() {
	if s.Port == "" {
		s.Port = "8000"
	}
	if s.DictionaryPath == "" && s.SQLitePath == "" {
		s.DictionaryPath = "data/dream_dictionary.csv"
	}
	if s.SQLitePath != "" && s.SQLiteTable == "" {
		s.SQLiteTable = "dictionary"
	}
	if s.MaxBodyBytes == 0 {
		s.MaxBodyBytes = 1 << 20
	}
	if s.RateBurst == 0 {
		s.RateBurst = 10
	}
	if s.LLMMaxTokens == 0 {
		s.LLMMaxTokens = 800
	}
	if s.RequestTimeoutS == 0 {
		s.RequestTimeoutS = 60
	}
}

// Validate returns a message for every invalid server setting.
func (s *ServerSettings) Validate() []string {
	var errors []string

	if strings.TrimSpace(s.Port) == "" {
		errors = append(errors, "Port cannot be empty")
	} else if p, err := strconv.Atoi(s.Port); err != nil || p <= 0 || p > 65535 {
		errors = append(errors, "Port '"+s.Port+"' is not a valid TCP port")
	}
	if s.MaxBodyBytes < 0 {
		errors = append(errors, "Max body bytes must not be negative")
	}
	if s.RateLimit < 0 {
		errors = append(errors, "Rate limit must not be negative")
	}
	if s.RateBurst < 0 {
		errors = append(errors, "Rate burst must not be negative")
	}
	if s.LLMHost != "" && strings.TrimSpace(s.LLMModel) == "" {
		errors = append(errors, "LLM model is required when an LLM host is configured")
	}
	if s.LLMMaxTokens < 0 {
		errors = append(errors, "LLM max tokens must not be negative")
	}

	return errors
}
