package services

import (
	"context"

	"github.com/gcbaptista/dreamsense/internal/interpret"
	"github.com/gcbaptista/dreamsense/model"
)

// ContextGenerator builds the ranked dictionary context for a dream text.
// Implementations never fail; an empty entry list comes with a fallback message.
type ContextGenerator interface {
	GenerateContext(dreamText string) (string, []model.RetrievedEntry)
}

// EntryLookup resolves a dictionary term case-insensitively
type EntryLookup interface {
	Lookup(term string) (model.DictionaryEntry, error)
	// Suggest returns up to limit terms a few typos away from term
	Suggest(term string, limit int) []string
}

// StatusReporter exposes the initialization state of the dictionary
type StatusReporter interface {
	Degraded() bool
	InitError() error
	EntryCount() int
}

// Retriever combines everything the HTTP layer needs from the retrieval core
type Retriever interface {
	ContextGenerator
	EntryLookup
	StatusReporter
}

// Reloader rebuilds the retrieval core from its dictionary source
type Reloader interface {
	Reload() (int, error)
	Source() string
}

// Interpreter generates a model interpretation grounded on retrieved entries
type Interpreter interface {
	Interpret(ctx context.Context, dreamText string) (interpret.Result, error)
}
