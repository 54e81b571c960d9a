package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	internalErrors "github.com/gcbaptista/dreamsense/internal/errors"
	"github.com/gcbaptista/dreamsense/internal/tokenizer"
	"github.com/gcbaptista/dreamsense/model"
)

// Required column names of a tabular dictionary source. Matching is case-sensitive.
const (
	ColumnTerm    = "Term"
	ColumnDetails = "Details"
	ColumnSummary = "Summary"
)

// DictionaryStore holds the loaded dictionary in load order together with a
// lowercase-term index. It is read-only after construction, so concurrent
// readers need no locking.
type DictionaryStore struct {
	entries     []model.DictionaryEntry
	byLowerTerm map[string]int // TermLower -> position of its first occurrence
	source      string
}

// NewDictionaryStore builds a store from raw entries, deriving TermLower for each.
// Entries with an empty Term are rejected.
func NewDictionaryStore(source string, entries []model.DictionaryEntry) (*DictionaryStore, error) {
	ds := &DictionaryStore{
		entries:     make([]model.DictionaryEntry, 0, len(entries)),
		byLowerTerm: make(map[string]int, len(entries)),
		source:      source,
	}

	for i, e := range entries {
		if strings.TrimSpace(e.Term) == "" {
			return nil, internalErrors.NewRowLoadError(source, i+1, "empty "+ColumnTerm)
		}
		e.TermLower = tokenizer.Fold(e.Term)
		ds.entries = append(ds.entries, e)
		if _, exists := ds.byLowerTerm[e.TermLower]; !exists {
			ds.byLowerTerm[e.TermLower] = len(ds.entries) - 1
		}
	}

	return ds, nil
}

// LoadCSVFile loads a dictionary from a CSV file.
func LoadCSVFile(path string) (*DictionaryStore, error) {
	file, err := os.Open(path) // #nosec G304 -- path comes from operator configuration
	if err != nil {
		return nil, internalErrors.NewLoadError(path, "open file", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", path, closeErr)
		}
	}()

	return LoadCSV(file, path)
}

// LoadCSV loads a dictionary from CSV data whose header contains the Term,
// Details and Summary columns. Extra columns are ignored; short rows yield
// empty values for the missing cells.
func LoadCSV(r io.Reader, source string) (*DictionaryStore, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, internalErrors.NewLoadError(source, "missing header row", nil)
		}
		return nil, internalErrors.NewLoadError(source, "read header", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	columns, err := resolveColumns(source, header)
	if err != nil {
		return nil, err
	}

	var entries []model.DictionaryEntry
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, internalErrors.NewLoadError(source, fmt.Sprintf("read row %d", row), err)
		}
		if isBlankRecord(record) {
			continue
		}

		term := cell(record, columns[ColumnTerm])
		if strings.TrimSpace(term) == "" {
			return nil, internalErrors.NewRowLoadError(source, row, "empty "+ColumnTerm)
		}
		entries = append(entries, model.DictionaryEntry{
			Term:    term,
			Details: cell(record, columns[ColumnDetails]),
			Summary: cell(record, columns[ColumnSummary]),
		})
	}

	return NewDictionaryStore(source, entries)
}

// resolveColumns maps each required column to its position in the header.
func resolveColumns(source string, header []string) (map[string]int, error) {
	columns := make(map[string]int, 3)
	for i, name := range header {
		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
	}

	for _, required := range []string{ColumnTerm, ColumnDetails, ColumnSummary} {
		if _, ok := columns[required]; !ok {
			return nil, internalErrors.NewLoadError(source, "missing required column '"+required+"'", nil)
		}
	}
	return columns, nil
}

func cell(record []string, idx int) string {
	if idx < len(record) {
		return record[idx]
	}
	return ""
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Entries returns all entries in load order. Callers must not modify the slice.
func (ds *DictionaryStore) Entries() []model.DictionaryEntry {
	return ds.entries
}

// Entry returns the entry at position i.
func (ds *DictionaryStore) Entry(i int) model.DictionaryEntry {
	return ds.entries[i]
}

// Len returns the number of entries.
func (ds *DictionaryStore) Len() int {
	return len(ds.entries)
}

// Source describes where the dictionary was loaded from.
func (ds *DictionaryStore) Source() string {
	return ds.source
}

// LookupByLowerTerm returns the entry whose case-folded term equals s.
// For duplicate terms the first loaded entry wins.
func (ds *DictionaryStore) LookupByLowerTerm(s string) (model.DictionaryEntry, bool) {
	idx, ok := ds.byLowerTerm[s]
	if !ok {
		return model.DictionaryEntry{}, false
	}
	return ds.entries[idx], true
}

// Lookup case-folds term before looking it up.
func (ds *DictionaryStore) Lookup(term string) (model.DictionaryEntry, error) {
	entry, ok := ds.LookupByLowerTerm(tokenizer.Fold(strings.TrimSpace(term)))
	if !ok {
		return model.DictionaryEntry{}, internalErrors.NewEntryNotFoundError(term)
	}
	return entry, nil
}
