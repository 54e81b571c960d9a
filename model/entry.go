package model

// DictionaryEntry is one row of the symbol dictionary.
// Entries are created once at load time and never mutated.
type DictionaryEntry struct {
	Term      string `json:"term"`
	TermLower string `json:"term_lower"` // Case-folded Term, used for exact and substring matching
	Details   string `json:"details"`
	Summary   string `json:"summary"`
}

// CombinedText returns the text the vector index is fitted on.
func (e DictionaryEntry) CombinedText() string {
	return e.Term + " " + e.Details + " " + e.Summary
}

// RetrievedEntry is a dictionary entry paired with the relevance score it
// received for one retrieval call.
type RetrievedEntry struct {
	Term    string  `json:"term"`
	Details string  `json:"details"`
	Summary string  `json:"summary"`
	Score   float64 `json:"score"` // 1.0 exact match, 0.8 partial word match, cosine similarity otherwise
}

// NewRetrievedEntry copies the entry's text fields and attaches a score.
func NewRetrievedEntry(e DictionaryEntry, score float64) RetrievedEntry {
	return RetrievedEntry{
		Term:    e.Term,
		Details: e.Details,
		Summary: e.Summary,
		Score:   score,
	}
}
