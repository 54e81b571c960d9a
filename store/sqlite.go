package store

import (
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/mattn/go-sqlite3"

	internalErrors "github.com/gcbaptista/dreamsense/internal/errors"
	"github.com/gcbaptista/dreamsense/model"
)

var tableNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// LoadSQLiteFile opens the SQLite database at path read-only and loads the dictionary from table.
func LoadSQLiteFile(path, table string) (*DictionaryStore, error) {
	conn, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, internalErrors.NewLoadError(path, "open database", err)
	}
	defer conn.Close()

	if err := conn.Ping(); err != nil {
		return nil, internalErrors.NewLoadError(path, "open database", err)
	}
	return LoadSQLite(conn, table)
}

// LoadSQLite loads the dictionary from a table with Term, Details and Summary
// columns, in rowid order. NULL Details or Summary become empty strings; a
// NULL or empty Term fails the load.
func LoadSQLite(conn *sql.DB, table string) (*DictionaryStore, error) {
	source := "sqlite:" + table
	if !tableNameRegex.MatchString(table) {
		return nil, internalErrors.NewLoadError(source, "invalid table name", nil)
	}

	query := fmt.Sprintf(`SELECT %s, %s, %s FROM %s ORDER BY rowid`, ColumnTerm, ColumnDetails, ColumnSummary, table)
	rows, err := conn.Query(query)
	if err != nil {
		return nil, internalErrors.NewLoadError(source, "query table", err)
	}
	defer rows.Close()

	var entries []model.DictionaryEntry
	for row := 1; rows.Next(); row++ {
		var term, details, summary sql.NullString
		if err := rows.Scan(&term, &details, &summary); err != nil {
			return nil, internalErrors.NewLoadError(source, fmt.Sprintf("scan row %d", row), err)
		}
		if !term.Valid {
			return nil, internalErrors.NewRowLoadError(source, row, "null "+ColumnTerm)
		}
		entries = append(entries, model.DictionaryEntry{
			Term:    term.String,
			Details: details.String,
			Summary: summary.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, internalErrors.NewLoadError(source, "iterate rows", err)
	}

	return NewDictionaryStore(source, entries)
}
