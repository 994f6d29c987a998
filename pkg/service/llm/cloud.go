package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	gollemopenai "github.com/m-mizutani/gollem/llm/openai"
	"github.com/sashabaranov/go-openai"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/utils/logging"
)

const (
	// DefaultCloudBaseURL is the hosted Ollama endpoint
	DefaultCloudBaseURL = "https://ollama.com"
	cloudTimeout        = 600 * time.Second

	// apiKeyPlaceholder is the value shipped in the sample settings file
	apiKeyPlaceholder = "YOUR_OLLAMA_CLOUD_API_KEY"
)

// Cloud calls an OpenAI compatible chat completions endpoint with bearer auth through
// the gollem OpenAI client
type Cloud struct {
	apiKey  string
	model   string
	timeout time.Duration
	backend *Gollem
}

var _ Backend = &Cloud{}

// NewCloud creates a backend for the chat completions API under baseURL. The timeout of
// a client given by WithHTTPClient bounds every call.
func NewCloud(ctx context.Context, baseURL, apiKey, modelName string, opts ...Option) (*Cloud, error) {
	if baseURL == "" {
		baseURL = DefaultCloudBaseURL
	}
	cfg := newHTTPConfig(&http.Client{Timeout: cloudTimeout}, opts)

	client, err := gollemopenai.New(ctx, apiKey,
		gollemopenai.WithModel(modelName),
		gollemopenai.WithBaseURL(strings.TrimRight(baseURL, "/")+"/v1"),
	)
	if err != nil {
		return nil, goerr.Wrap(model.ErrConfig, "failed to create cloud model client",
			goerr.V("base_url", baseURL), goerr.V("cause", err.Error()))
	}

	return &Cloud{
		apiKey:  apiKey,
		model:   modelName,
		timeout: cfg.httpClient.Timeout,
		backend: &Gollem{client: client, classify: classifyCloudError, debug: cfg.debug},
	}, nil
}

// HasAPIKey reports whether a usable credential is configured
func HasAPIKey(apiKey string) bool {
	return strings.TrimSpace(apiKey) != "" && !strings.Contains(apiKey, apiKeyPlaceholder)
}

// Invoke sends a single chat completion request
func (x *Cloud) Invoke(ctx context.Context, req Request) (string, error) {
	if !HasAPIKey(x.apiKey) {
		return "", goerr.Wrap(model.ErrAuth, "cloud API key is not configured")
	}

	if x.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}

	logging.From(ctx).Debug("calling cloud model", "model", x.model, "structured", req.Structured)
	return x.backend.Invoke(ctx, req)
}

// classifyCloudError maps chat completion failures. Rejected credentials are auth
// errors, undecodable bodies are schema errors and everything else is transport.
func classifyCloudError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusSentinel(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return statusSentinel(reqErr.HTTPStatusCode)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return model.ErrSchema
	}
	return model.ErrTransport
}

func statusSentinel(code int) error {
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return model.ErrAuth
	}
	return model.ErrTransport
}
