// Package keywords derives candidate dictionary symbols from free text.
package keywords

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gcbaptista/dreamsense/config"
	internalErrors "github.com/gcbaptista/dreamsense/internal/errors"
	"github.com/gcbaptista/dreamsense/internal/tokenizer"
	"github.com/gcbaptista/dreamsense/model"
)

// stopWords are common function words never used as keyword candidates.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "was": {}, "were": {}, "that": {}, "this": {},
	"with": {}, "for": {}, "about": {}, "from": {}, "into": {}, "then": {},
	"there": {}, "their": {}, "they": {}, "them": {}, "have": {}, "had": {},
	"been": {}, "being": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"while": {}, "would": {}, "could": {}, "should": {}, "some": {}, "very": {},
	"just": {}, "like": {},
}

// Dictionary is the read-only view of the corpus the extractor matches against.
type Dictionary interface {
	Entries() []model.DictionaryEntry
}

// Extractor finds dictionary terms mentioned in or related to a text.
type Extractor struct {
	dict     Dictionary
	settings config.RetrievalSettings
}

// NewExtractor creates an Extractor. Zero settings fields take their defaults.
func NewExtractor(dict Dictionary, settings config.RetrievalSettings) *Extractor {
	settings.ApplyDefaults()
	return &Extractor{dict: dict, settings: settings}
}

// Extract returns up to maxKeywords candidate symbols for text.
//
// Dictionary terms found verbatim in the text take precedence and are
// returned alone. Otherwise each word, bigram and trigram is matched by
// containment against the dictionary terms, and when too few keywords are
// found the longest remaining words are added. The result never contains
// duplicates. On failure the slice is empty and the error is an
// *errors.ExtractionError; Extract never panics.
func (e *Extractor) Extract(text string, maxKeywords int) (keywords []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			keywords = []string{}
			err = internalErrors.NewExtractionError(fmt.Sprintf("panic: %v", r))
		}
	}()

	if !utf8.ValidString(text) {
		return []string{}, internalErrors.NewExtractionError("text is not valid UTF-8")
	}
	if maxKeywords <= 0 || e.dict == nil {
		return []string{}, nil
	}

	// 1. Normalize and split
	folded := tokenizer.Fold(text)
	words := tokenizer.Words(text)

	// 2. Candidate pool
	filtered := make([]string, 0, len(words))
	for _, w := range words {
		if e.isCandidate(w) {
			filtered = append(filtered, w)
		}
	}
	pool := make([]string, 0, 3*len(words))
	pool = append(pool, words...)
	pool = append(pool, tokenizer.GenerateWordNGrams(words, 2)...)
	pool = append(pool, tokenizer.GenerateWordNGrams(words, 3)...)

	entries := e.dict.Entries()

	// 3. Verbatim dictionary terms short-circuit everything else
	direct := make([]string, 0)
	for _, entry := range entries {
		if strings.Contains(folded, entry.TermLower) {
			direct = append(direct, entry.Term)
		}
	}
	if len(direct) > 0 {
		return capped(dedupe(direct), maxKeywords), nil
	}

	// 4. Containment matches in pool order
	found := make([]string, 0, maxKeywords)
	for _, candidate := range pool {
		if !e.isCandidate(candidate) {
			continue
		}
		for _, entry := range entries {
			if strings.Contains(entry.TermLower, candidate) || strings.Contains(candidate, entry.TermLower) {
				found = append(found, entry.Term)
				break
			}
		}
		if len(found) >= maxKeywords {
			break
		}
	}

	// 5. Backfill with the longest remaining words
	if len(found) < e.settings.BackfillTarget && len(filtered) > 0 {
		found = e.backfill(found, filtered, maxKeywords)
	}

	// 6. Dedupe
	return dedupe(found), nil
}

// isCandidate reports whether a word or phrase may be matched against the dictionary.
func (e *Extractor) isCandidate(s string) bool {
	if tokenizer.RuneLen(s) <= e.settings.MinKeywordLength {
		return false
	}
	_, stop := stopWords[s]
	return !stop
}

func (e *Extractor) backfill(found, filtered []string, maxKeywords int) []string {
	present := make(map[string]struct{}, len(found))
	for _, k := range found {
		present[tokenizer.Fold(k)] = struct{}{}
	}

	remaining := make([]string, 0, len(filtered))
	for _, w := range filtered {
		if tokenizer.RuneLen(w) <= e.settings.MinBackfillLength {
			continue
		}
		if _, ok := present[w]; ok {
			continue
		}
		present[w] = struct{}{}
		remaining = append(remaining, w)
	}

	sort.SliceStable(remaining, func(i, j int) bool {
		return tokenizer.RuneLen(remaining[i]) > tokenizer.RuneLen(remaining[j])
	})

	for _, w := range remaining {
		if len(found) >= maxKeywords {
			break
		}
		found = append(found, w)
	}
	return found
}

// dedupe keeps the first occurrence of every keyword.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func capped(in []string, n int) []string {
	if len(in) > n {
		return in[:n]
	}
	return in
}
