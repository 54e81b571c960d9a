package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/dreamsense/config"
	internalErrors "github.com/gcbaptista/dreamsense/internal/errors"
	"github.com/gcbaptista/dreamsense/model"
	"github.com/gcbaptista/dreamsense/store"
)

func newExtractor(t *testing.T, terms ...string) *Extractor {
	t.Helper()
	entries := make([]model.DictionaryEntry, len(terms))
	for i, term := range terms {
		entries[i] = model.DictionaryEntry{Term: term, Details: "details of " + term, Summary: term}
	}
	ds, err := store.NewDictionaryStore("test", entries)
	require.NoError(t, err)
	return NewExtractor(ds, config.RetrievalSettings{})
}

func TestExtract_DirectMatches(t *testing.T) {
	ex := newExtractor(t, "Water", "Snake", "Tower")

	t.Run("returns original-cased terms in corpus order", func(t *testing.T) {
		got, err := ex.Extract("I saw a SNAKE near water", 15)
		require.NoError(t, err)
		assert.Equal(t, []string{"Water", "Snake"}, got)
	})

	t.Run("capped at max keywords", func(t *testing.T) {
		got, err := ex.Extract("I saw a snake near water", 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"Water"}, got)
	})

	t.Run("substring inside a longer word counts", func(t *testing.T) {
		got, err := ex.Extract("waterfalls everywhere", 15)
		require.NoError(t, err)
		assert.Equal(t, []string{"Water"}, got)
	})
}

func TestExtract_ContainmentAndBackfill(t *testing.T) {
	ex := newExtractor(t, "Flying Dragon", "Teeth falling out")

	t.Run("containment then backfill", func(t *testing.T) {
		got, err := ex.Extract("I dreamt about a dragon and my teeth", 15)
		require.NoError(t, err)
		assert.Equal(t, []string{"Flying Dragon", "Teeth falling out", "dreamt", "dragon", "teeth"}, got)
	})

	t.Run("backfill stops at max keywords", func(t *testing.T) {
		got, err := ex.Extract("I dreamt about a dragon and my teeth", 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"Flying Dragon", "Teeth falling out", "dreamt"}, got)
	})

	t.Run("duplicates removed", func(t *testing.T) {
		got, err := ex.Extract("dragon dragon", 15)
		require.NoError(t, err)
		assert.Equal(t, []string{"Flying Dragon", "dragon"}, got)
	})

	t.Run("backfill prefers longest words", func(t *testing.T) {
		got, err := ex.Extract("purple elephants danced beautifully", 15)
		require.NoError(t, err)
		assert.Equal(t, []string{"beautifully", "elephants", "purple", "danced"}, got)
	})
}

func TestExtract_NoCandidates(t *testing.T) {
	ex := newExtractor(t, "Water", "Snake")

	tests := []struct {
		name string
		text string
		max  int
	}{
		{"empty text", "", 15},
		{"short words only", "the cat was big", 15},
		{"stopwords only", "about there where which", 15},
		{"zero max", "I saw a snake", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ex.Extract(tt.text, tt.max)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestExtract_Failures(t *testing.T) {
	ex := newExtractor(t, "Water")

	got, err := ex.Extract("water \xff", 15)
	assert.ErrorIs(t, err, internalErrors.ErrExtraction)
	assert.Empty(t, got)

	nilDict := NewExtractor(nil, config.RetrievalSettings{})
	got, err = nilDict.Extract("water", 15)
	require.NoError(t, err)
	assert.Empty(t, got)
}

type panickingDictionary struct{}

func (panickingDictionary) Entries() []model.DictionaryEntry { panic("corrupt dictionary") }

func TestExtract_RecoversFromPanic(t *testing.T) {
	ex := NewExtractor(panickingDictionary{}, config.RetrievalSettings{})

	got, err := ex.Extract("anything at all", 15)
	assert.ErrorIs(t, err, internalErrors.ErrExtraction)
	assert.Empty(t, got)
}
