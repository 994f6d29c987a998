package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/repository/memory"
	"github.com/secmon-lab/mindforge/pkg/service/llm"
	"github.com/secmon-lab/mindforge/pkg/service/notify"
	"github.com/secmon-lab/mindforge/pkg/service/notion"
	"github.com/secmon-lab/mindforge/pkg/usecase"
)

// Fallback database IDs of the in-memory store
const (
	memoryInboxDB     = "inbox"
	memoryKnowledgeDB = "knowledge"
	memoryReviewDB    = "review"
)

// NewBackend creates the structuring backend selected by LLM_PROVIDER
func NewBackend(ctx context.Context, s *Settings) (llm.Backend, error) {
	opts := []llm.Option{llm.WithDebug(s.DebugMode)}

	switch s.LLMProvider {
	case ProviderLocal:
		return llm.NewLocal(s.Local.BaseURL, s.Local.ModelName, opts...), nil

	case ProviderCloud:
		if !llm.HasAPIKey(s.Cloud.APIKey) {
			return nil, goerr.Wrap(model.ErrAuth, "cloud API key is not configured")
		}
		return llm.NewCloud(ctx, s.Cloud.BaseURL, s.Cloud.APIKey, s.Cloud.ModelName, opts...)

	case ProviderGemini:
		if s.Gemini.Project == "" {
			return nil, goerr.Wrap(model.ErrConfig, "gemini project is not configured")
		}
		client, err := gemini.New(ctx, s.Gemini.Project, s.Gemini.Location)
		if err != nil {
			return nil, goerr.Wrap(model.ErrConfig, "failed to create Gemini client",
				goerr.V("project", s.Gemini.Project),
				goerr.V("location", s.Gemini.Location),
				goerr.V("cause", err.Error()))
		}
		return llm.NewGollem(client)
	}

	return nil, goerr.Wrap(model.ErrConfig, "invalid LLM_PROVIDER", goerr.V("provider", s.LLMProvider))
}

// NewStore creates the knowledge store selected by STORE_BACKEND
func NewStore(s *Settings) (notion.Service, error) {
	switch s.StoreBackend {
	case StoreNotion:
		return notion.New(s.NotionToken)
	case StoreMemory:
		return memory.New(), nil
	}
	return nil, goerr.Wrap(model.ErrConfig, "invalid STORE_BACKEND", goerr.V("backend", s.StoreBackend))
}

// Databases returns the store IDs. The in-memory store falls back to fixed names.
func (s *Settings) Databases() usecase.Databases {
	dbs := usecase.Databases{
		Inbox:     s.InboxDBID,
		Knowledge: s.KnowledgeDBID,
		Review:    s.ReviewDBID,
	}
	if s.StoreBackend == StoreMemory {
		if dbs.Inbox == "" {
			dbs.Inbox = memoryInboxDB
		}
		if dbs.Knowledge == "" {
			dbs.Knowledge = memoryKnowledgeDB
		}
		if dbs.Review == "" {
			dbs.Review = memoryReviewDB
		}
	}
	return dbs
}

// NewNotifier creates the notification fan-out. Disabled sinks are left out.
func NewNotifier(s *Settings) notify.Sink {
	var sinks []notify.Sink
	if s.Email.Enabled {
		sinks = append(sinks, notify.NewEmail(notify.EmailConfig{
			Enabled:  true,
			Sender:   s.Email.Sender,
			Receiver: s.Email.Receiver,
			Server:   s.Email.Server,
			Port:     s.Email.Port,
			Username: s.Email.Username,
			Password: s.Email.Password,
		}))
	}
	if s.Slack.WebhookURL != "" {
		sinks = append(sinks, notify.NewSlack(s.Slack.WebhookURL))
	}
	return notify.New(sinks...)
}
