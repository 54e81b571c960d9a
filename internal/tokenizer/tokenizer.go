package tokenizer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// wordRegex matches runs of letters and digits.
var wordRegex = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Fold case-folds text the same way for dictionary terms and queries.
// A new Caser is created per call because Casers are stateful and must not be
// shared between goroutines.
func Fold(text string) string {
	return cases.Lower(language.Und).String(text)
}

// Words case-folds text and returns its alphanumeric runs in order.
func Words(text string) []string {
	found := wordRegex.FindAllString(Fold(text), -1)
	if found == nil {
		return make([]string, 0) // Return empty slice instead of nil
	}
	return found
}

// Tokenize produces the tokens used for TF-IDF weighting: case-folded
// alphanumeric runs of at least two characters, English stopwords removed.
func Tokenize(text string) []string {
	tokens := make([]string, 0)
	for _, w := range Words(text) {
		if utf8.RuneCountInString(w) < 2 {
			continue
		}
		if _, stop := englishStopWords[w]; stop {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// GenerateWordNGrams joins every n adjacent words with a single space.
// For ["flying", "over", "water"] and n=2 it produces "flying over", "over water".
func GenerateWordNGrams(words []string, n int) []string {
	if n <= 0 || len(words) < n {
		return make([]string, 0)
	}

	ngrams := make([]string, 0, len(words)-n+1)
	for i := 0; i+n <= len(words); i++ {
		ngrams = append(ngrams, strings.Join(words[i:i+n], " "))
	}
	return ngrams
}

// IsEnglishStopWord reports whether the case-folded word is in the English
// stopword list applied during TF-IDF tokenization.
func IsEnglishStopWord(word string) bool {
	_, ok := englishStopWords[word]
	return ok
}

// RuneLen returns the number of characters in s.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
