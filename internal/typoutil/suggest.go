// Package typoutil finds dictionary terms that are a few typos away from a query.
package typoutil

import (
	"sort"
	"unicode/utf8"
)

const (
	// MinWordSizeFor1Typo is the shortest term that tolerates one edit
	MinWordSizeFor1Typo = 4
	// MinWordSizeFor2Typos is the shortest term that tolerates two edits
	MinWordSizeFor2Typos = 7
)

// Suggestion is a candidate term and its edit distance from the query
type Suggestion struct {
	Term     string `json:"term"`
	Distance int    `json:"distance"`
}

// MaxDistanceFor returns how many edits a term of this length may contain.
func MaxDistanceFor(term string) int {
	n := utf8.RuneCountInString(term)
	switch {
	case n >= MinWordSizeFor2Typos:
		return 2
	case n >= MinWordSizeFor1Typo:
		return 1
	default:
		return 0
	}
}

// Distance computes the Damerau-Levenshtein distance (adjacent transpositions
// count as one edit) between a and b over runes. When the distance exceeds
// maxDistance it stops early and returns maxDistance + 1.
func Distance(a, b string, maxDistance int) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)

	if diff := la - lb; diff > maxDistance || -diff > maxDistance {
		return maxDistance + 1
	}
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	// Three rolling rows: i-2 for transpositions, i-1 and i
	prevPrev := make([]int, lb+1)
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		rowMin := i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			best := min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				best = min(best, prevPrev[j-2]+cost)
			}
			curr[j] = best
			rowMin = min(rowMin, best)
		}
		if rowMin > maxDistance {
			return maxDistance + 1
		}
		prevPrev, prev, curr = prev, curr, prevPrev
	}

	return prev[lb]
}

// Suggest returns the candidates within maxDistance edits of term, closest
// first and in candidate order among equals. Exact matches are skipped and at
// most limit suggestions are returned (limit <= 0 means no limit).
func Suggest(term string, candidates []string, maxDistance, limit int) []Suggestion {
	suggestions := make([]Suggestion, 0)
	if term == "" || maxDistance <= 0 {
		return suggestions
	}

	for _, candidate := range candidates {
		if candidate == term {
			continue
		}
		if d := Distance(term, candidate, maxDistance); d <= maxDistance {
			suggestions = append(suggestions, Suggestion{Term: candidate, Distance: d})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Distance < suggestions[j].Distance
	})
	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}
