package interpret

import (
	"errors"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ModelConfig describes an OpenAI-compatible generation endpoint.
type ModelConfig struct {
	// Host is the base URL, e.g. "http://localhost:11434/v1" for a local server.
	Host string
	// Model is the model identifier, e.g. "tinyllama".
	Model string
	// Token is the API token. Local servers that don't require one accept "none".
	Token string
}

// Validate checks that the endpoint is usable.
func (c ModelConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, errors.New("model host is required"))
	}
	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, errors.New("model name is required"))
	}
	return errors.Join(errs...)
}

// NewOpenAIModel creates a langchaingo client for an OpenAI-compatible chat API.
func NewOpenAIModel(cfg ModelConfig) (llms.Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	token := cfg.Token
	if token == "" {
		token = "none"
	}
	return openai.New(
		openai.WithBaseURL(cfg.Host),
		openai.WithToken(token),
		openai.WithModel(cfg.Model),
	)
}
