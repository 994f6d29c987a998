package llm

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/utils/logging"
)

// Gollem adapts a gollem LLM client (e.g. Gemini on Vertex AI) as a backend. Structured
// requests use the client's native JSON mode with the request schema.
type Gollem struct {
	client gollem.LLMClient
	// classify maps a generation failure to a domain sentinel
	classify func(err error) error
	debug    bool
}

var _ Backend = &Gollem{}

// NewGollem wraps client
func NewGollem(client gollem.LLMClient) (*Gollem, error) {
	if client == nil {
		return nil, goerr.Wrap(model.ErrConfig, "LLM client is required")
	}
	return &Gollem{client: client, classify: func(error) error { return model.ErrTransport }}, nil
}

// Invoke runs one single-turn session
func (x *Gollem) Invoke(ctx context.Context, req Request) (string, error) {
	opts := []gollem.SessionOption{
		gollem.WithSessionSystemPrompt(req.System),
	}
	if req.Structured {
		opts = append(opts, gollem.WithSessionContentType(gollem.ContentTypeJSON))
		if req.Schema != nil {
			opts = append(opts, gollem.WithSessionResponseSchema(req.Schema))
		}
	}

	session, err := x.client.NewSession(ctx, opts...)
	if err != nil {
		return "", goerr.Wrap(model.ErrTransport, "failed to create LLM session", goerr.V("cause", err.Error()))
	}

	resp, err := session.Generate(ctx, []gollem.Input{gollem.Text(req.User)})
	if err != nil {
		return "", goerr.Wrap(x.classify(err), "failed to generate content", goerr.V("cause", err.Error()))
	}
	if resp == nil || len(resp.Texts) == 0 {
		return "", goerr.Wrap(model.ErrEmptyResponse, "LLM returned no text")
	}

	content := strings.Join(resp.Texts, "")
	if x.debug {
		logging.From(ctx).Debug("LLM raw output", "length", len(content), "content", content)
	}
	if strings.TrimSpace(content) == "" {
		return "", goerr.Wrap(model.ErrEmptyResponse, "LLM returned empty content")
	}

	if !req.Structured {
		return content, nil
	}

	span, ok := FirstJSONObject(content)
	if !ok {
		return "", goerr.Wrap(model.ErrNoStructureFound, "no JSON object in LLM answer",
			goerr.V("content", snippet([]byte(content))))
	}
	return span, nil
}
