package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalErrors "github.com/gcbaptista/dreamsense/internal/errors"
	"github.com/gcbaptista/dreamsense/model"
)

const sampleCSV = `Term,Details,Summary
Water,Represents emotion,Emotion
Snake,Represents transformation,Transformation
Falling,"Loss of control, anxiety",Anxiety
`

func TestLoadCSV(t *testing.T) {
	ds, err := LoadCSV(strings.NewReader(sampleCSV), "sample.csv")
	require.NoError(t, err)

	require.Equal(t, 3, ds.Len())
	assert.Equal(t, "sample.csv", ds.Source())

	first := ds.Entry(0)
	assert.Equal(t, "Water", first.Term)
	assert.Equal(t, "water", first.TermLower)
	assert.Equal(t, "Represents emotion", first.Details)
	assert.Equal(t, "Emotion", first.Summary)

	assert.Equal(t, "Loss of control, anxiety", ds.Entry(2).Details)
	assert.Equal(t, []string{"Water", "Snake", "Falling"}, terms(ds.Entries()))
}

func TestLoadCSV_ColumnHandling(t *testing.T) {
	t.Run("extra and reordered columns", func(t *testing.T) {
		data := "\ufeffSummary,Id,Term,Details\nEmotion,1,Water,Represents emotion\n"
		ds, err := LoadCSV(strings.NewReader(data), "reordered.csv")
		require.NoError(t, err)
		require.Equal(t, 1, ds.Len())
		assert.Equal(t, model.DictionaryEntry{
			Term: "Water", TermLower: "water", Details: "Represents emotion", Summary: "Emotion",
		}, ds.Entry(0))
	})

	t.Run("short row yields empty cells", func(t *testing.T) {
		ds, err := LoadCSV(strings.NewReader("Term,Details,Summary\nMoon\n"), "short.csv")
		require.NoError(t, err)
		assert.Equal(t, "", ds.Entry(0).Details)
		assert.Equal(t, "", ds.Entry(0).Summary)
	})

	t.Run("blank lines skipped", func(t *testing.T) {
		ds, err := LoadCSV(strings.NewReader("Term,Details,Summary\nMoon,a,b\n,,\nSun,c,d\n"), "blank.csv")
		require.NoError(t, err)
		assert.Equal(t, []string{"Moon", "Sun"}, terms(ds.Entries()))
	})
}

func TestLoadCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty input", ""},
		{"missing Term column", "Name,Details,Summary\nWater,a,b\n"},
		{"column names are case sensitive", "term,details,summary\nWater,a,b\n"},
		{"missing Summary column", "Term,Details\nWater,a\n"},
		{"empty Term", "Term,Details,Summary\n ,a,b\n"},
		{"malformed quoting", "Term,Details,Summary\n\"Water,a,b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(strings.NewReader(tt.data), "bad.csv")
			require.Error(t, err)
			assert.True(t, errors.Is(err, internalErrors.ErrLoad), "expected ErrLoad, got %v", err)
		})
	}
}

func TestLoadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	ds, err := LoadCSVFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())

	_, err = LoadCSVFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, internalErrors.ErrLoad)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLookupByLowerTerm(t *testing.T) {
	ds, err := LoadCSV(strings.NewReader(sampleCSV+"WATER,Duplicate,Dup\n"), "dup.csv")
	require.NoError(t, err)

	for _, e := range ds.Entries()[:3] {
		got, ok := ds.LookupByLowerTerm(e.TermLower)
		require.True(t, ok, "lookup of %q", e.TermLower)
		assert.Equal(t, e, got)
	}

	got, ok := ds.LookupByLowerTerm("water")
	require.True(t, ok)
	assert.Equal(t, "Represents emotion", got.Details, "first occurrence wins for duplicate terms")

	_, ok = ds.LookupByLowerTerm("Water")
	assert.False(t, ok, "lookup expects a case-folded key")

	entry, err := ds.Lookup("  SNAKE ")
	require.NoError(t, err)
	assert.Equal(t, "Snake", entry.Term)

	_, err = ds.Lookup("dragon")
	assert.ErrorIs(t, err, internalErrors.ErrEntryNotFound)
}

func TestNewDictionaryStore_RejectsEmptyTerm(t *testing.T) {
	_, err := NewDictionaryStore("inline", []model.DictionaryEntry{{Term: "Moon"}, {Term: ""}})
	require.Error(t, err)

	var loadErr *internalErrors.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, 2, loadErr.Row)
}

func terms(entries []model.DictionaryEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Term
	}
	return out
}
