package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/utils/logging"
	"github.com/secmon-lab/mindforge/pkg/utils/safe"
)

const (
	// DefaultLocalBaseURL is the default address of a local Ollama server
	DefaultLocalBaseURL = "http://localhost:11434"
	localTimeout        = 120 * time.Second
)

// Local calls the generate endpoint of a local Ollama server
type Local struct {
	baseURL string
	model   string
	cfg     httpConfig
}

var _ Backend = &Local{}

// NewLocal creates a backend for the server at baseURL
func NewLocal(baseURL, modelName string, opts ...Option) *Local {
	if baseURL == "" {
		baseURL = DefaultLocalBaseURL
	}
	return &Local{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   modelName,
		cfg:     newHTTPConfig(&http.Client{Timeout: localTimeout}, opts),
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type generateEnvelope struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Invoke sends the joined prompts and returns the answer. The server may emit several
// newline delimited envelopes; only the last non-blank line is used.
func (x *Local) Invoke(ctx context.Context, req Request) (string, error) {
	logger := logging.From(ctx)

	payload := generateRequest{
		Model:  x.model,
		Prompt: req.System + "\n\n" + req.User,
		Stream: false,
	}
	if req.Structured {
		payload.Format = "json"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal generate request")
	}

	url := x.baseURL + "/api/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", goerr.Wrap(model.ErrTransport, "failed to create request", goerr.V("url", url), goerr.V("cause", err.Error()))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	logger.Debug("calling local model", "url", url, "model", x.model, "structured", req.Structured)

	resp, err := x.cfg.httpClient.Do(httpReq)
	if err != nil {
		return "", goerr.Wrap(model.ErrTransport, "failed to call local model", goerr.V("url", url), goerr.V("cause", err.Error()))
	}
	defer safe.Close(ctx, resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", goerr.Wrap(model.ErrTransport, "failed to read local model response", goerr.V("cause", err.Error()))
	}
	if resp.StatusCode != http.StatusOK {
		return "", goerr.Wrap(model.ErrTransport, "local model returned error status",
			goerr.V("status", resp.StatusCode), goerr.V("body", snippet(raw)))
	}

	line := lastNonBlankLine(string(raw))
	if line == "" {
		return "", goerr.Wrap(model.ErrEmptyResponse, "local model returned empty body")
	}

	var envelope generateEnvelope
	if err := json.Unmarshal([]byte(line), &envelope); err != nil {
		return "", goerr.Wrap(model.ErrSchema, "failed to parse local model envelope",
			goerr.V("line", snippet([]byte(line))), goerr.V("cause", err.Error()))
	}
	if envelope.Error != "" {
		return "", goerr.Wrap(model.ErrTransport, "local model reported error", goerr.V("error", envelope.Error))
	}

	content := envelope.Response
	if x.cfg.debug {
		logger.Debug("local model raw output", "length", len(content), "content", content)
	}

	// Blank answers are usually caused by resource exhaustion of the local server
	if strings.TrimSpace(content) == "" {
		return "", goerr.Wrap(model.ErrEmptyResponse, "local model returned empty content", goerr.V("model", x.model))
	}

	if !req.Structured {
		return content, nil
	}

	span, ok := FirstJSONObject(content)
	if !ok {
		return "", goerr.Wrap(model.ErrNoStructureFound, "no JSON object in local model answer",
			goerr.V("content", snippet([]byte(content))))
	}
	return span, nil
}

func lastNonBlankLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
