// Package chat implements NormaBot's text assistant: a stateless prompt
// built from the trailing conversation, answered by Gemini or any
// OpenAI-compatible chat model.
package chat

import (
	"context"
	"net/http"
)

// Generator answers a single prompt under a system instruction.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Default models per provider.
const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// Provider names accepted by ParseProvider.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type config struct {
	model      string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Generator.
type Option func(*config)

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(c *config) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at a compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

func newConfig(model string, opts []Option) config {
	cfg := config{model: model, httpClient: http.DefaultClient}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}
