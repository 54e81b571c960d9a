package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalErrors "github.com/gcbaptista/dreamsense/internal/errors"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestLoadSQLite(t *testing.T) {
	conn := openMemoryDB(t)
	_, err := conn.Exec(`CREATE TABLE dictionary (Term TEXT, Details TEXT, Summary TEXT)`)
	require.NoError(t, err)
	_, err = conn.Exec(`INSERT INTO dictionary (Term, Details, Summary) VALUES
		('Water', 'Represents emotion', 'Emotion'),
		('Snake', 'Represents transformation', NULL)`)
	require.NoError(t, err)

	ds, err := LoadSQLite(conn, "dictionary")
	require.NoError(t, err)

	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "sqlite:dictionary", ds.Source())
	assert.Equal(t, "water", ds.Entry(0).TermLower)
	assert.Equal(t, "", ds.Entry(1).Summary)

	entry, ok := ds.LookupByLowerTerm("snake")
	require.True(t, ok)
	assert.Equal(t, "Represents transformation", entry.Details)
}

func TestLoadSQLite_Errors(t *testing.T) {
	conn := openMemoryDB(t)
	_, err := conn.Exec(`CREATE TABLE nulls (Term TEXT, Details TEXT, Summary TEXT)`)
	require.NoError(t, err)
	_, err = conn.Exec(`INSERT INTO nulls VALUES (NULL, 'x', 'y')`)
	require.NoError(t, err)
	_, err = conn.Exec(`CREATE TABLE partial (Term TEXT, Details TEXT)`)
	require.NoError(t, err)

	tests := []struct {
		name  string
		table string
	}{
		{"null term", "nulls"},
		{"missing column", "partial"},
		{"missing table", "absent"},
		{"invalid table name", "dictionary; DROP TABLE nulls"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSQLite(conn, tt.table)
			require.Error(t, err)
			assert.ErrorIs(t, err, internalErrors.ErrLoad)
		})
	}
}

func TestLoadSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.db")
	conn, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = conn.Exec(`CREATE TABLE symbols (Term TEXT, Details TEXT, Summary TEXT)`)
	require.NoError(t, err)
	_, err = conn.Exec(`INSERT INTO symbols VALUES ('Moon', 'Intuition', 'Cycles')`)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	ds, err := LoadSQLiteFile(path, "symbols")
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())

	_, err = LoadSQLiteFile(filepath.Join(t.TempDir(), "missing.db"), "symbols")
	assert.ErrorIs(t, err, internalErrors.ErrLoad)
}
