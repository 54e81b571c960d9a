package index

import (
	"math"
	"sort"
	"unicode/utf8"

	internalErrors "github.com/gcbaptista/dreamsense/internal/errors"
	"github.com/gcbaptista/dreamsense/internal/tokenizer"
	"github.com/gcbaptista/dreamsense/model"
)

const defaultRelevanceFloor = 0.01

// Hit is one scored entry returned by Query.
type Hit struct {
	Index int     // Position of the entry in the corpus
	Score float64 // Cosine similarity, always above the relevance floor
}

// VectorIndex is a TF-IDF model fitted once over the combined text of every
// dictionary entry. The vocabulary and IDF weights are frozen after Build and
// the index is safe for concurrent queries.
type VectorIndex struct {
	vocabulary map[string]int // term -> dimension
	idf        []float64      // dimension -> inverse document frequency
	postings   []PostingList  // dimension -> entries containing the term
	vectors    []sparseVector // entry -> normalised TF-IDF vector
	floor      float64
}

// Option configures a VectorIndex.
type Option func(*VectorIndex)

// WithRelevanceFloor sets the score at or below which hits are dropped.
func WithRelevanceFloor(floor float64) Option {
	return func(vi *VectorIndex) {
		vi.floor = floor
	}
}

// Build fits the TF-IDF model over the entries' combined text.
//
// Term frequency is the raw count, IDF = ln((1+n)/(1+df)) + 1 and every entry
// vector is L2-normalised, so cosine similarity reduces to a dot product
// divided by the query norm.
func Build(entries []model.DictionaryEntry, opts ...Option) (*VectorIndex, error) {
	vi := &VectorIndex{floor: defaultRelevanceFloor}
	for _, opt := range opts {
		opt(vi)
	}

	if len(entries) == 0 {
		return nil, internalErrors.NewLoadError("vector index", "corpus is empty", nil)
	}

	// 1. Count terms per entry and document frequencies
	termCounts := make([]map[string]int, len(entries))
	docFreq := make(map[string]int)
	for i, entry := range entries {
		counts := make(map[string]int)
		for _, token := range tokenizer.Tokenize(entry.CombinedText()) {
			counts[token]++
		}
		for term := range counts {
			docFreq[term]++
		}
		termCounts[i] = counts
	}

	if len(docFreq) == 0 {
		return nil, internalErrors.NewLoadError("vector index", "empty vocabulary; entries contain only stopwords", nil)
	}

	// 2. Freeze the vocabulary in sorted order so dimensions are deterministic
	terms := make([]string, 0, len(docFreq))
	for term := range docFreq {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(entries))
	vi.vocabulary = make(map[string]int, len(terms))
	vi.idf = make([]float64, len(terms))
	for dim, term := range terms {
		vi.vocabulary[term] = dim
		vi.idf[dim] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	// 3. Weight, normalise and invert
	vi.postings = make([]PostingList, len(terms))
	vi.vectors = make([]sparseVector, len(entries))
	for docID, counts := range termCounts {
		vec := vi.weigh(counts)
		normalize(vec)
		vi.vectors[docID] = vec
		for _, wt := range vec {
			vi.postings[wt.Dim] = append(vi.postings[wt.Dim], PostingEntry{DocID: docID, Weight: wt.Weight})
		}
	}

	return vi, nil
}

// weigh turns raw term counts into a TF-IDF vector over the frozen vocabulary.
// Terms outside the vocabulary are dropped.
func (vi *VectorIndex) weigh(counts map[string]int) sparseVector {
	vec := make(sparseVector, 0, len(counts))
	for term, count := range counts {
		dim, ok := vi.vocabulary[term]
		if !ok {
			continue
		}
		vec = append(vec, weightedTerm{Dim: dim, Weight: float64(count) * vi.idf[dim]})
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].Dim < vec[j].Dim })
	return vec
}

func normalize(vec sparseVector) float64 {
	var sum float64
	for _, wt := range vec {
		sum += wt.Weight * wt.Weight
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return 0
	}
	for i := range vec {
		vec[i].Weight /= norm
	}
	return norm
}

// Query scores every entry against text and returns at most topK hits with a
// score above the relevance floor, by descending score and then ascending
// corpus index. A query with no in-vocabulary terms yields no hits.
func (vi *VectorIndex) Query(text string, topK int) ([]Hit, error) {
	if !utf8.ValidString(text) {
		return []Hit{}, internalErrors.NewQueryError(text, "text is not valid UTF-8")
	}
	if topK <= 0 {
		return []Hit{}, nil
	}

	counts := make(map[string]int)
	for _, token := range tokenizer.Tokenize(text) {
		counts[token]++
	}
	query := vi.weigh(counts)
	if normalize(query) == 0 {
		return []Hit{}, nil
	}

	scores := make(map[int]float64)
	for _, wt := range query {
		for _, p := range vi.postings[wt.Dim] {
			scores[p.DocID] += wt.Weight * p.Weight
		}
	}

	hits := make([]Hit, 0, len(scores))
	for docID, score := range scores {
		if score > 1 {
			score = 1
		}
		if score <= vi.floor {
			continue
		}
		hits = append(hits, Hit{Index: docID, Score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Index < hits[j].Index
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Len returns the number of indexed entries.
func (vi *VectorIndex) Len() int {
	return len(vi.vectors)
}

// VocabularySize returns the number of frozen vocabulary terms.
func (vi *VectorIndex) VocabularySize() int {
	return len(vi.vocabulary)
}

// IDF returns the inverse document frequency of a vocabulary term, or 0 when
// the term is not in the vocabulary.
func (vi *VectorIndex) IDF(term string) float64 {
	dim, ok := vi.vocabulary[term]
	if !ok {
		return 0
	}
	return vi.idf[dim]
}
