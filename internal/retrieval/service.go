// Package retrieval assembles the ranked dictionary context for a dream text.
//
// A Service combines three signals over the loaded dictionary: terms that
// appear verbatim in the text, vector similarity against the whole text and
// vector similarity against each extracted keyword. The merged result is
// deduplicated by term, ranked by score and rendered as a context block.
// A Service is immutable after construction and safe for concurrent use.
package retrieval

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/gcbaptista/dreamsense/config"
	internalErrors "github.com/gcbaptista/dreamsense/internal/errors"
	"github.com/gcbaptista/dreamsense/internal/keywords"
	"github.com/gcbaptista/dreamsense/internal/tokenizer"
	"github.com/gcbaptista/dreamsense/internal/typoutil"
	"github.com/gcbaptista/dreamsense/index"
	"github.com/gcbaptista/dreamsense/model"
	"github.com/gcbaptista/dreamsense/store"
)

const (
	// ContextHeader opens every rendered context block.
	ContextHeader = "Dream Dictionary References:\n\n"

	// NoSymbolsMessage is returned instead of a context block when nothing matched.
	NoSymbolsMessage = "No relevant dream symbols found."
)

// Service is the retrieval orchestrator.
type Service struct {
	dict      *store.DictionaryStore
	vectors   *index.VectorIndex
	extractor *keywords.Extractor
	termWords [][]string // entry -> words of its term, for partial matching
	settings  config.RetrievalSettings
	logger    *slog.Logger
	initErr   error
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "retrieval")
	}
}

// WithSettings overrides the retrieval thresholds. Zero fields keep their defaults.
func WithSettings(settings config.RetrievalSettings) Option {
	return func(s *Service) {
		settings.ApplyDefaults()
		s.settings = settings
	}
}

func newService(opts []Option) *Service {
	s := &Service{
		settings: config.DefaultRetrievalSettings(),
		logger:   slog.Default().With("component", "retrieval"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewService creates a Service over an already loaded dictionary and its vector index.
func NewService(dict *store.DictionaryStore, vectors *index.VectorIndex, opts ...Option) (*Service, error) {
	if dict == nil {
		return nil, ErrDictionaryRequired
	}
	if vectors == nil {
		return nil, ErrVectorIndexRequired
	}

	s := newService(opts)
	if problems := s.settings.Validate(); len(problems) > 0 {
		return nil, internalErrors.NewValidationError("settings", strings.Join(problems, "; "))
	}

	s.dict = dict
	s.vectors = vectors
	s.extractor = keywords.NewExtractor(dict, s.settings)
	s.termWords = make([][]string, dict.Len())
	for i, entry := range dict.Entries() {
		s.termWords[i] = tokenizer.Words(entry.Term)
	}
	return s, nil
}

// Build fits the vector index over dict and creates a Service.
func Build(dict *store.DictionaryStore, opts ...Option) (*Service, error) {
	if dict == nil {
		return nil, ErrDictionaryRequired
	}
	settings := newService(opts).settings
	vectors, err := index.Build(dict.Entries(), index.WithRelevanceFloor(settings.RelevanceFloor))
	if err != nil {
		return nil, err
	}
	return NewService(dict, vectors, opts...)
}

// Open loads the dictionary and builds a Service. It never fails: when
// loading or building fails the error is logged and a degraded Service is
// returned that answers every query with the empty-result fallback.
func Open(load func() (*store.DictionaryStore, error), opts ...Option) *Service {
	if load == nil {
		return NewDegraded(ErrDictionaryRequired, opts...)
	}

	dict, err := load()
	if err != nil {
		return NewDegraded(err, opts...)
	}

	s, err := Build(dict, opts...)
	if err != nil {
		return NewDegraded(err, opts...)
	}

	s.logger.Info("retrieval service initialized", "source", dict.Source(), "count", dict.Len(), "vocabulary", s.vectors.VocabularySize())
	return s
}

// NewDegraded creates a Service that records initErr and returns the fallback for every query.
func NewDegraded(initErr error, opts ...Option) *Service {
	if initErr == nil {
		initErr = errors.New("unknown initialization failure")
	}
	s := newService(opts)
	s.initErr = initErr
	s.logger.Error("retrieval service degraded", "err", initErr)
	return s
}

// Degraded reports whether initialization failed.
func (s *Service) Degraded() bool {
	return s.initErr != nil
}

// InitError returns the initialization failure of a degraded Service.
func (s *Service) InitError() error {
	return s.initErr
}

// Dictionary returns the loaded dictionary, or nil for a degraded Service.
func (s *Service) Dictionary() *store.DictionaryStore {
	return s.dict
}

// EntryCount returns the number of loaded dictionary entries, 0 when degraded.
func (s *Service) EntryCount() int {
	if s.dict == nil {
		return 0
	}
	return s.dict.Len()
}

// Lookup returns the entry whose lowercase term matches term.
func (s *Service) Lookup(term string) (model.DictionaryEntry, error) {
	if s.dict == nil {
		return model.DictionaryEntry{}, internalErrors.ErrDegraded
	}
	return s.dict.Lookup(term)
}

// Suggest returns up to limit dictionary terms a few typos away from term.
// The tolerated distance grows with the term's length.
func (s *Service) Suggest(term string, limit int) []string {
	if s.dict == nil {
		return []string{}
	}

	folded := tokenizer.Fold(strings.TrimSpace(term))
	candidates := make([]string, 0, s.dict.Len())
	seen := make(map[string]struct{}, s.dict.Len())
	for _, entry := range s.dict.Entries() {
		if _, dup := seen[entry.TermLower]; dup {
			continue
		}
		seen[entry.TermLower] = struct{}{}
		candidates = append(candidates, entry.TermLower)
	}

	matches := typoutil.Suggest(folded, candidates, typoutil.MaxDistanceFor(folded), limit)
	out := make([]string, len(matches))
	for i, m := range matches {
		entry, _ := s.dict.LookupByLowerTerm(m.Term)
		out[i] = entry.Term
	}
	return out
}

// Settings returns the effective retrieval thresholds.
func (s *Service) Settings() config.RetrievalSettings {
	return s.settings
}

// GenerateContext retrieves the ranked entries for dreamText and renders them.
// It never fails: on any fault, and when nothing matches, it returns
// NoSymbolsMessage and an empty slice.
func (s *Service) GenerateContext(dreamText string) (context string, entries []model.RetrievedEntry) {
	if s.Degraded() {
		s.logger.Warn("returning fallback context from degraded service", "err", s.initErr)
		return NoSymbolsMessage, []model.RetrievedEntry{}
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("error generating context", "err", fmt.Sprint(r))
			context, entries = NoSymbolsMessage, []model.RetrievedEntry{}
		}
	}()

	direct := s.DirectTermLookup(dreamText)
	if len(direct) > 0 {
		s.logger.Debug("direct term matches", "count", len(direct))
	}

	kws, err := s.extractor.Extract(dreamText, s.settings.MaxKeywords)
	if err != nil {
		s.logger.Warn("keyword extraction failed, continuing without keywords", "err", err)
	}
	s.logger.Debug("extracted keywords", "keywords", kws)

	merged := make([]model.RetrievedEntry, 0, len(direct)+s.settings.TextTopK+len(kws)*s.settings.KeywordTopK)
	merged = append(merged, direct...)
	merged = append(merged, s.vectorEntries(dreamText, s.settings.TextTopK)...)
	for _, k := range kws {
		merged = append(merged, s.vectorEntries(k, s.settings.KeywordTopK)...)
	}

	ranked := Rank(merged, s.settings.MaxContextEntries)
	if len(ranked) == 0 {
		return NoSymbolsMessage, []model.RetrievedEntry{}
	}

	s.logger.Info("generated context", "count", len(ranked))
	return Render(ranked), ranked
}

// DirectTermLookup returns entries whose term occurs verbatim in text, in
// corpus order. When fewer than MinExactBeforePartial are found it adds
// entries sharing a whole word longer than MinPartialWordLength with the
// text. The result holds at most MaxDirectMatches entries.
//
// Both passes scan the whole corpus: O(corpus size × query length).
func (s *Service) DirectTermLookup(text string) []model.RetrievedEntry {
	matches := make([]model.RetrievedEntry, 0)
	if s.dict == nil {
		return matches
	}

	folded := tokenizer.Fold(text)
	seen := make(map[string]struct{})
	for _, entry := range s.dict.Entries() {
		if strings.Contains(folded, entry.TermLower) {
			matches = append(matches, model.NewRetrievedEntry(entry, s.settings.ExactMatchScore))
			seen[entry.Term] = struct{}{}
		}
	}

	if len(matches) < s.settings.MinExactBeforePartial {
		matches = s.appendPartialMatches(matches, seen, text)
	}

	if len(matches) > s.settings.MaxDirectMatches {
		matches = matches[:s.settings.MaxDirectMatches]
	}
	return matches
}

func (s *Service) appendPartialMatches(matches []model.RetrievedEntry, seen map[string]struct{}, text string) []model.RetrievedEntry {
	significant := make(map[string]struct{})
	for _, w := range tokenizer.Words(text) {
		if tokenizer.RuneLen(w) > s.settings.MinPartialWordLength {
			significant[w] = struct{}{}
		}
	}
	if len(significant) == 0 {
		return matches
	}

	for i, entry := range s.dict.Entries() {
		if len(matches) >= s.settings.MaxDirectMatches {
			break
		}
		if _, dup := seen[entry.Term]; dup {
			continue
		}
		for _, w := range s.termWords[i] {
			if _, ok := significant[w]; ok {
				matches = append(matches, model.NewRetrievedEntry(entry, s.settings.PartialMatchScore))
				seen[entry.Term] = struct{}{}
				break
			}
		}
	}
	return matches
}

// vectorEntries runs one vector query. A failed query contributes no entries.
func (s *Service) vectorEntries(text string, topK int) []model.RetrievedEntry {
	hits, err := s.vectors.Query(text, topK)
	if err != nil {
		s.logger.Warn("vector query failed", "err", err)
		return nil
	}

	out := make([]model.RetrievedEntry, 0, len(hits))
	for _, h := range hits {
		out = append(out, model.NewRetrievedEntry(s.dict.Entry(h.Index), h.Score))
	}
	return out
}

// Rank deduplicates entries by term, keeping the first occurrence, sorts them
// by descending score (stable, so earlier entries win ties) and keeps at most limit.
func Rank(entries []model.RetrievedEntry, limit int) []model.RetrievedEntry {
	seen := make(map[string]struct{}, len(entries))
	unique := make([]model.RetrievedEntry, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Term]; ok {
			continue
		}
		seen[e.Term] = struct{}{}
		unique = append(unique, e)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Score > unique[j].Score
	})

	if limit >= 0 && len(unique) > limit {
		unique = unique[:limit]
	}
	return unique
}

// Render formats ranked entries as the context block handed to the interpreter.
func Render(entries []model.RetrievedEntry) string {
	if len(entries) == 0 {
		return NoSymbolsMessage
	}

	var b strings.Builder
	b.WriteString(ContextHeader)
	for i, e := range entries {
		fmt.Fprintf(&b, "Symbol %d: %s\nMeaning: %s\n\n", i+1, e.Term, e.Details)
	}
	return b.String()
}
