package llm

import (
	"context"
	"net/http"

	"github.com/m-mizutani/gollem"
)

// Request is one structuring call
type Request struct {
	System string
	User   string
	// Structured asks for a single JSON object as answer
	Structured bool
	// Schema is the declared output shape. Backends that support schema constrained
	// output use it; others rely on the prompt.
	Schema *gollem.Parameter
}

// Backend invokes a language model and returns its answer text. When the request is
// structured, the returned text is the JSON object found in the answer.
type Backend interface {
	Invoke(ctx context.Context, req Request) (string, error)
}

// Option configures the HTTP based backends
type Option func(*httpConfig)

type httpConfig struct {
	httpClient *http.Client
	debug      bool
}

// WithHTTPClient replaces the HTTP client. Its timeout overrides the backend default.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *httpConfig) {
		cfg.httpClient = c
	}
}

// WithDebug logs raw model output at debug level
func WithDebug(debug bool) Option {
	return func(cfg *httpConfig) {
		cfg.debug = debug
	}
}

func newHTTPConfig(defaultClient *http.Client, opts []Option) httpConfig {
	cfg := httpConfig{httpClient: defaultClient}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// snippet shortens a response body for error context
func snippet(b []byte) string {
	const limit = 512
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
