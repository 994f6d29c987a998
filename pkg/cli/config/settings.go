package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/service/extract"
	"github.com/secmon-lab/mindforge/pkg/service/llm"
	"github.com/secmon-lab/mindforge/pkg/service/structuring"
)

const (
	ProviderLocal  = "local"
	ProviderCloud  = "cloud"
	ProviderGemini = "gemini"

	StoreNotion = "notion"
	StoreMemory = "memory"

	// DefaultConfigPath is read when --config is not given; its absence is not an error
	DefaultConfigPath = "mindforge.toml"

	defaultLocalModel = "llama3.1"
	defaultCloudModel = "gpt-oss:120b"
)

// LocalConfig is the local inference endpoint
type LocalConfig struct {
	BaseURL   string `toml:"LLM_API_BASE_URL" json:"LLM_API_BASE_URL"`
	ModelName string `toml:"LLM_MODEL_NAME" json:"LLM_MODEL_NAME"`
}

// CloudConfig is the hosted chat completions endpoint
type CloudConfig struct {
	BaseURL   string `toml:"API_BASE_URL" json:"API_BASE_URL"`
	APIKey    string `toml:"OLLAMA_API_KEY" json:"OLLAMA_API_KEY" masq:"secret"`
	ModelName string `toml:"LLM_MODEL_NAME" json:"LLM_MODEL_NAME"`
}

// GeminiConfig is the Vertex AI project used by the gemini provider
type GeminiConfig struct {
	Project  string `toml:"project" json:"project"`
	Location string `toml:"location" json:"location"`
}

// EmailConfig is the SMTP notification sink
type EmailConfig struct {
	Enabled  bool   `toml:"enabled" json:"enabled"`
	Sender   string `toml:"sender_email" json:"sender_email"`
	Receiver string `toml:"receiver_email" json:"receiver_email"`
	Server   string `toml:"smtp_server" json:"smtp_server"`
	Port     int    `toml:"smtp_port" json:"smtp_port"`
	Username string `toml:"username" json:"username"`
	// Password is accepted from flags and environment only
	Password string `toml:"-" json:"-" masq:"secret"`
}

// SlackConfig is the incoming webhook notification sink
type SlackConfig struct {
	// WebhookURL is accepted from flags and environment only
	WebhookURL string `toml:"-" json:"-" masq:"secret"`
}

// Settings is the single settings object of the pipeline
type Settings struct {
	LLMProvider           string       `toml:"LLM_PROVIDER" json:"LLM_PROVIDER"`
	Local                 LocalConfig  `toml:"LOCAL_CONFIG" json:"LOCAL_CONFIG"`
	Cloud                 CloudConfig  `toml:"CLOUD_CONFIG" json:"CLOUD_CONFIG"`
	Gemini                GeminiConfig `toml:"GEMINI_CONFIG" json:"GEMINI_CONFIG"`
	NotionToken           string       `toml:"NOTION_TOKEN" json:"NOTION_TOKEN" masq:"secret"`
	InboxDBID             string       `toml:"INBOX_DB_ID" json:"INBOX_DB_ID"`
	KnowledgeDBID         string       `toml:"KNOWLEDGE_DB_ID" json:"KNOWLEDGE_DB_ID"`
	ReviewDBID            string       `toml:"REVIEW_DB_ID" json:"REVIEW_DB_ID"`
	DebugMode             bool         `toml:"DEBUG_MODE" json:"DEBUG_MODE"`
	OutputLanguage        string       `toml:"OUTPUT_LANGUAGE" json:"OUTPUT_LANGUAGE"`
	OCRLanguages          string       `toml:"OCR_LANGUAGES" json:"OCR_LANGUAGES"`
	SynthesisDelaySeconds int          `toml:"SYNTHESIS_DELAY_SECONDS" json:"SYNTHESIS_DELAY_SECONDS"`
	StoreBackend          string       `toml:"STORE_BACKEND" json:"STORE_BACKEND"`
	OllamaAutostart       bool         `toml:"OLLAMA_AUTOSTART" json:"OLLAMA_AUTOSTART"`
	Email                 EmailConfig  `toml:"EMAIL_CONFIG" json:"EMAIL_CONFIG"`
	Slack                 SlackConfig  `toml:"SLACK_CONFIG" json:"SLACK_CONFIG"`
}

// Defaults returns settings filled with default values
func Defaults() *Settings {
	return &Settings{
		LLMProvider: ProviderLocal,
		Local: LocalConfig{
			BaseURL:   llm.DefaultLocalBaseURL,
			ModelName: defaultLocalModel,
		},
		Cloud: CloudConfig{
			BaseURL:   llm.DefaultCloudBaseURL,
			ModelName: defaultCloudModel,
		},
		Gemini:                GeminiConfig{Location: "us-central1"},
		OutputLanguage:        structuring.DefaultLanguage,
		OCRLanguages:          extract.DefaultOCRLanguages,
		SynthesisDelaySeconds: 5,
		StoreBackend:          StoreNotion,
		Email:                 EmailConfig{Port: 587},
	}
}

// Load reads settings from a TOML file, or a JSON file when the extension is .json,
// on top of the defaults. A missing file is an error unless path is the default path.
func Load(path string) (*Settings, error) {
	s := Defaults()
	if path == "" {
		path = DefaultConfigPath
	}

	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && path == DefaultConfigPath {
			return s, nil
		}
		return nil, goerr.Wrap(model.ErrConfig, "failed to read config file", goerr.V("path", path), goerr.V("cause", err.Error()))
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, s); err != nil {
			return nil, goerr.Wrap(model.ErrConfig, "failed to parse JSON config", goerr.V("path", path), goerr.V("cause", err.Error()))
		}
	} else {
		if err := toml.Unmarshal(data, s); err != nil {
			return nil, goerr.Wrap(model.ErrConfig, "failed to parse TOML config", goerr.V("path", path), goerr.V("cause", err.Error()))
		}
	}

	return s, nil
}

// Validate checks the settings needed by pipeline commands
func (s *Settings) Validate() error {
	switch s.LLMProvider {
	case ProviderLocal:
		if s.Local.BaseURL == "" || s.Local.ModelName == "" {
			return goerr.Wrap(model.ErrConfig, "LOCAL_CONFIG requires LLM_API_BASE_URL and LLM_MODEL_NAME")
		}
	case ProviderCloud:
		if !llm.HasAPIKey(s.Cloud.APIKey) {
			return goerr.Wrap(model.ErrConfig, "CLOUD_CONFIG.OLLAMA_API_KEY is not configured")
		}
		if s.Cloud.ModelName == "" {
			return goerr.Wrap(model.ErrConfig, "CLOUD_CONFIG.LLM_MODEL_NAME is required")
		}
	case ProviderGemini:
		if s.Gemini.Project == "" {
			return goerr.Wrap(model.ErrConfig, "GEMINI_CONFIG.project is required")
		}
	default:
		return goerr.Wrap(model.ErrConfig, "invalid LLM_PROVIDER", goerr.V("provider", s.LLMProvider))
	}

	switch s.StoreBackend {
	case StoreNotion:
		if s.NotionToken == "" {
			return goerr.Wrap(model.ErrConfig, "NOTION_TOKEN is required")
		}
		var missing []string
		for _, db := range []struct{ name, id string }{
			{"INBOX_DB_ID", s.InboxDBID},
			{"KNOWLEDGE_DB_ID", s.KnowledgeDBID},
			{"REVIEW_DB_ID", s.ReviewDBID},
		} {
			if db.id == "" {
				missing = append(missing, db.name)
			}
		}
		if len(missing) > 0 {
			return goerr.Wrap(model.ErrConfig, "database IDs are required", goerr.V("missing", missing))
		}
	case StoreMemory:
	default:
		return goerr.Wrap(model.ErrConfig, "invalid STORE_BACKEND", goerr.V("backend", s.StoreBackend))
	}

	if s.SynthesisDelaySeconds < 0 {
		return goerr.Wrap(model.ErrConfig, "SYNTHESIS_DELAY_SECONDS must not be negative")
	}

	return nil
}

// SynthesisDelay returns the pause between synthesis items
func (s *Settings) SynthesisDelay() time.Duration {
	return time.Duration(s.SynthesisDelaySeconds) * time.Second
}

// LogValue renders the settings with secrets reduced to whether they are set
func (s *Settings) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", s.LLMProvider),
		slog.String("store", s.StoreBackend),
		slog.Bool("notion_token", s.NotionToken != ""),
		slog.Bool("cloud_api_key", llm.HasAPIKey(s.Cloud.APIKey)),
		slog.String("inbox_db", s.InboxDBID),
		slog.String("knowledge_db", s.KnowledgeDBID),
		slog.String("review_db", s.ReviewDBID),
		slog.Bool("debug", s.DebugMode),
		slog.Bool("email", s.Email.Enabled),
		slog.Bool("slack", s.Slack.WebhookURL != ""),
	)
}
