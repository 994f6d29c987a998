package structuring

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/domain/types"
	"github.com/secmon-lab/mindforge/pkg/service/llm"
	"github.com/secmon-lab/mindforge/pkg/utils/logging"
)

// DefaultLanguage is the output language of every contract unless configured
const DefaultLanguage = "Traditional Chinese"

// Agent applies extraction contracts through a language model backend
type Agent struct {
	backend  llm.Backend
	language string
}

// Option configures Agent
type Option func(*Agent)

// WithLanguage sets the required output language
func WithLanguage(language string) Option {
	return func(a *Agent) {
		if language != "" {
			a.language = language
		}
	}
}

// New creates an agent over backend
func New(backend llm.Backend, opts ...Option) *Agent {
	a := &Agent{
		backend:  backend,
		language: DefaultLanguage,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Structure runs contract over input and decodes the answer into out. Backend failures
// are returned as is; an answer that is not valid JSON or lacks a required key fails
// with model.ErrSchema.
func (a *Agent) Structure(ctx context.Context, input string, contract Contract, out any) error {
	logger := logging.From(ctx).With("contract", contract.Name)
	logger.Info("calling structuring backend", "input_length", len([]rune(input)))

	answer, err := a.backend.Invoke(ctx, llm.Request{
		System:     contract.SystemPrompt(a.language),
		User:       contract.UserPrompt(input),
		Structured: contract.Structured,
		Schema:     contract.Schema(),
	})
	if err != nil {
		return goerr.Wrap(err, "structuring backend failed", goerr.V(model.ContractKey, contract.Name))
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(answer), &keys); err != nil {
		return goerr.Wrap(model.ErrSchema, "answer is not a JSON object",
			goerr.V(model.ContractKey, contract.Name), goerr.V("cause", err.Error()))
	}

	for _, name := range contract.Required() {
		if isMissing(keys[name]) {
			return goerr.Wrap(model.ErrSchema, "required key is missing",
				goerr.V(model.ContractKey, contract.Name), goerr.V("key", name))
		}
	}

	if err := json.Unmarshal([]byte(answer), out); err != nil {
		return goerr.Wrap(model.ErrSchema, "answer does not match the contract",
			goerr.V(model.ContractKey, contract.Name), goerr.V("cause", err.Error()))
	}

	return nil
}

func isMissing(raw json.RawMessage) bool {
	v := strings.TrimSpace(string(raw))
	if v == "" || v == "null" {
		return true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// ExtractInbox structures a captured raw text
func (a *Agent) ExtractInbox(ctx context.Context, rawText string) (*model.InboxFields, error) {
	var fields model.InboxFields
	if err := a.Structure(ctx, rawText, InboxContract(), &fields); err != nil {
		return nil, err
	}
	return &fields, nil
}

// ExtractKnowledge distills the synthesis input of an inbox record
func (a *Agent) ExtractKnowledge(ctx context.Context, content string) (*model.KnowledgeFields, error) {
	var fields model.KnowledgeFields
	if err := a.Structure(ctx, content, KnowledgeContract(), &fields); err != nil {
		return nil, err
	}
	return &fields, nil
}

// ExtractReview analyzes consolidated notes of a period
func (a *Agent) ExtractReview(ctx context.Context, notes string, period types.Period) (*model.ReviewFields, error) {
	var fields model.ReviewFields
	if err := a.Structure(ctx, notes, ReviewContract(period), &fields); err != nil {
		return nil, err
	}
	return &fields, nil
}
