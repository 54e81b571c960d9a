// Package interpret turns a dream and its retrieved dictionary context into a
// model-generated interpretation.
package interpret

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"

	"github.com/gcbaptista/dreamsense/model"
)

var (
	// ErrRetrieverRequired is returned when no retriever is provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrModelRequired is returned when no language model is provided.
	ErrModelRequired = errors.New("language model required")
)

// Retriever produces the dictionary context for a dream.
type Retriever interface {
	GenerateContext(dreamText string) (string, []model.RetrievedEntry)
}

// Result is one interpretation together with the symbols it was grounded on.
type Result struct {
	Interpretation string
	Entries        []model.RetrievedEntry
	Context        string
}

// Interpreter generates interpretations grounded on retrieved dictionary entries.
type Interpreter struct {
	retriever   Retriever
	model       llms.Model
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		if logger == nil {
			logger = slog.Default()
		}
		i.logger = logger.With("component", "interpret")
	}
}

// WithMaxTokens limits the generated length.
func WithMaxTokens(n int) Option {
	return func(i *Interpreter) {
		i.maxTokens = n
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(i *Interpreter) {
		i.temperature = t
	}
}

// NewInterpreter creates an Interpreter.
func NewInterpreter(retriever Retriever, model llms.Model, opts ...Option) (*Interpreter, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if model == nil {
		return nil, ErrModelRequired
	}

	i := &Interpreter{
		retriever: retriever,
		model:     model,
		maxTokens: 800,
		logger:    slog.Default().With("component", "interpret"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Interpret retrieves context for dreamText, asks the model for an
// interpretation and makes sure the retrieved symbols are visible in it.
// Retrieval never fails; an error means generation failed, and the returned
// Result still carries the retrieved entries.
func (i *Interpreter) Interpret(ctx context.Context, dreamText string) (Result, error) {
	dictContext, entries := i.retriever.GenerateContext(dreamText)
	result := Result{Entries: entries, Context: dictContext}

	for n, e := range entries {
		if n >= mentionWindow {
			break
		}
		i.logger.Info("top entry", "term", e.Term, "score", fmt.Sprintf("%.2f", e.Score))
	}

	prompt := BuildPrompt(dictContext, dreamText)
	generated, err := llms.GenerateFromSinglePrompt(ctx, i.model, prompt,
		llms.WithMaxTokens(i.maxTokens),
		llms.WithTemperature(i.temperature),
	)
	if err != nil {
		i.logger.Error("error generating interpretation", "err", err)
		return result, fmt.Errorf("generate interpretation: %w", err)
	}

	interpretation := ExtractInterpretation(generated, dreamText)
	result.Interpretation = Enhance(interpretation, entries)
	return result, nil
}
