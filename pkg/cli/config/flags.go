package config

import (
	"github.com/urfave/cli/v3"
)

// Pipeline holds the CLI flags of pipeline commands. Flags and environment variables
// override values read from the settings file.
type Pipeline struct {
	path string

	provider        string
	localBaseURL    string
	localModel      string
	cloudBaseURL    string
	cloudAPIKey     string
	cloudModel      string
	geminiProject   string
	geminiLocation  string
	notionToken     string
	inboxDB         string
	knowledgeDB     string
	reviewDB        string
	store           string
	language        string
	ocrLanguages    string
	delaySeconds    int
	debug           bool
	ollamaAutostart bool

	emailEnabled  bool
	smtpServer    string
	smtpPort      int
	smtpUser      string
	smtpPassword  string
	emailSender   string
	emailReceiver string
	slackWebhook  string
}

// Flags returns CLI flags for pipeline configuration
func (p *Pipeline) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Settings file (TOML, or JSON when the extension is .json)",
			Value:       DefaultConfigPath,
			Sources:     cli.EnvVars("MINDFORGE_CONFIG"),
			Destination: &p.path,
		},
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "Structuring backend (local, cloud, gemini)",
			Category:    "LLM",
			Sources:     cli.EnvVars("MINDFORGE_LLM_PROVIDER"),
			Destination: &p.provider,
		},
		&cli.StringFlag{
			Name:        "local-base-url",
			Usage:       "Local inference endpoint",
			Category:    "LLM",
			Sources:     cli.EnvVars("MINDFORGE_LOCAL_BASE_URL"),
			Destination: &p.localBaseURL,
		},
		&cli.StringFlag{
			Name:        "local-model",
			Usage:       "Local model name",
			Category:    "LLM",
			Sources:     cli.EnvVars("MINDFORGE_LOCAL_MODEL"),
			Destination: &p.localModel,
		},
		&cli.StringFlag{
			Name:        "cloud-base-url",
			Usage:       "Cloud chat completions endpoint",
			Category:    "LLM",
			Sources:     cli.EnvVars("MINDFORGE_CLOUD_BASE_URL"),
			Destination: &p.cloudBaseURL,
		},
		&cli.StringFlag{
			Name:        "cloud-api-key",
			Usage:       "Cloud API key",
			Category:    "LLM",
			Sources:     cli.EnvVars("MINDFORGE_CLOUD_API_KEY", "OLLAMA_API_KEY"),
			Destination: &p.cloudAPIKey,
		},
		&cli.StringFlag{
			Name:        "cloud-model",
			Usage:       "Cloud model name",
			Category:    "LLM",
			Sources:     cli.EnvVars("MINDFORGE_CLOUD_MODEL"),
			Destination: &p.cloudModel,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for the gemini provider",
			Category:    "LLM",
			Sources:     cli.EnvVars("MINDFORGE_GEMINI_PROJECT"),
			Destination: &p.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for the gemini provider",
			Category:    "LLM",
			Sources:     cli.EnvVars("MINDFORGE_GEMINI_LOCATION"),
			Destination: &p.geminiLocation,
		},
		&cli.BoolFlag{
			Name:        "ollama-autostart",
			Usage:       "Start `ollama serve` when the local endpoint does not answer",
			Category:    "LLM",
			Sources:     cli.EnvVars("MINDFORGE_OLLAMA_AUTOSTART"),
			Destination: &p.ollamaAutostart,
		},
		&cli.StringFlag{
			Name:        "output-language",
			Usage:       "Language of structured output",
			Category:    "LLM",
			Sources:     cli.EnvVars("MINDFORGE_OUTPUT_LANGUAGE"),
			Destination: &p.language,
		},
		&cli.StringFlag{
			Name:        "notion-token",
			Usage:       "Notion API token",
			Category:    "Store",
			Sources:     cli.EnvVars("MINDFORGE_NOTION_TOKEN", "NOTION_TOKEN"),
			Destination: &p.notionToken,
		},
		&cli.StringFlag{
			Name:        "inbox-db",
			Usage:       "Inbox database ID",
			Category:    "Store",
			Sources:     cli.EnvVars("MINDFORGE_INBOX_DB_ID"),
			Destination: &p.inboxDB,
		},
		&cli.StringFlag{
			Name:        "knowledge-db",
			Usage:       "Knowledge database ID",
			Category:    "Store",
			Sources:     cli.EnvVars("MINDFORGE_KNOWLEDGE_DB_ID"),
			Destination: &p.knowledgeDB,
		},
		&cli.StringFlag{
			Name:        "review-db",
			Usage:       "Review database ID",
			Category:    "Store",
			Sources:     cli.EnvVars("MINDFORGE_REVIEW_DB_ID"),
			Destination: &p.reviewDB,
		},
		&cli.StringFlag{
			Name:        "store-backend",
			Usage:       "Store backend (notion or memory)",
			Category:    "Store",
			Sources:     cli.EnvVars("MINDFORGE_STORE_BACKEND"),
			Destination: &p.store,
		},
		&cli.StringFlag{
			Name:        "ocr-languages",
			Usage:       "Tesseract language set",
			Sources:     cli.EnvVars("MINDFORGE_OCR_LANGUAGES"),
			Destination: &p.ocrLanguages,
		},
		&cli.IntFlag{
			Name:        "synthesis-delay",
			Usage:       "Seconds to wait between synthesis items",
			Sources:     cli.EnvVars("MINDFORGE_SYNTHESIS_DELAY"),
			Destination: &p.delaySeconds,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "Debug mode: debug logs and raw model output",
			Sources:     cli.EnvVars("MINDFORGE_DEBUG"),
			Destination: &p.debug,
		},
		&cli.BoolFlag{
			Name:        "email",
			Usage:       "Enable email notification",
			Category:    "Notification",
			Sources:     cli.EnvVars("MINDFORGE_EMAIL_ENABLED"),
			Destination: &p.emailEnabled,
		},
		&cli.StringFlag{
			Name:        "smtp-server",
			Usage:       "SMTP server host",
			Category:    "Notification",
			Sources:     cli.EnvVars("MINDFORGE_SMTP_SERVER"),
			Destination: &p.smtpServer,
		},
		&cli.IntFlag{
			Name:        "smtp-port",
			Usage:       "SMTP server port",
			Category:    "Notification",
			Sources:     cli.EnvVars("MINDFORGE_SMTP_PORT"),
			Destination: &p.smtpPort,
		},
		&cli.StringFlag{
			Name:        "smtp-user",
			Usage:       "SMTP user name (defaults to the sender address)",
			Category:    "Notification",
			Sources:     cli.EnvVars("MINDFORGE_SMTP_USER"),
			Destination: &p.smtpUser,
		},
		&cli.StringFlag{
			Name:        "smtp-password",
			Usage:       "SMTP password",
			Category:    "Notification",
			Sources:     cli.EnvVars("MINDFORGE_SMTP_PASSWORD"),
			Destination: &p.smtpPassword,
		},
		&cli.StringFlag{
			Name:        "email-sender",
			Usage:       "Sender address",
			Category:    "Notification",
			Sources:     cli.EnvVars("MINDFORGE_EMAIL_SENDER"),
			Destination: &p.emailSender,
		},
		&cli.StringFlag{
			Name:        "email-receiver",
			Usage:       "Receiver address",
			Category:    "Notification",
			Sources:     cli.EnvVars("MINDFORGE_EMAIL_RECEIVER"),
			Destination: &p.emailReceiver,
		},
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL",
			Category:    "Notification",
			Sources:     cli.EnvVars("MINDFORGE_SLACK_WEBHOOK_URL"),
			Destination: &p.slackWebhook,
		},
	}
}

// Configure loads the settings file and applies every flag that was set
func (p *Pipeline) Configure(c *cli.Command) (*Settings, error) {
	s, err := Load(p.path)
	if err != nil {
		return nil, err
	}
	p.apply(c.IsSet, s)
	return s, nil
}

func (p *Pipeline) apply(isSet func(name string) bool, s *Settings) {
	setString := func(name string, dst *string, v string) {
		if isSet(name) {
			*dst = v
		}
	}

	setString("llm-provider", &s.LLMProvider, p.provider)
	setString("local-base-url", &s.Local.BaseURL, p.localBaseURL)
	setString("local-model", &s.Local.ModelName, p.localModel)
	setString("cloud-base-url", &s.Cloud.BaseURL, p.cloudBaseURL)
	setString("cloud-api-key", &s.Cloud.APIKey, p.cloudAPIKey)
	setString("cloud-model", &s.Cloud.ModelName, p.cloudModel)
	setString("gemini-project", &s.Gemini.Project, p.geminiProject)
	setString("gemini-location", &s.Gemini.Location, p.geminiLocation)
	setString("notion-token", &s.NotionToken, p.notionToken)
	setString("inbox-db", &s.InboxDBID, p.inboxDB)
	setString("knowledge-db", &s.KnowledgeDBID, p.knowledgeDB)
	setString("review-db", &s.ReviewDBID, p.reviewDB)
	setString("store-backend", &s.StoreBackend, p.store)
	setString("output-language", &s.OutputLanguage, p.language)
	setString("ocr-languages", &s.OCRLanguages, p.ocrLanguages)
	setString("smtp-server", &s.Email.Server, p.smtpServer)
	setString("smtp-user", &s.Email.Username, p.smtpUser)
	setString("smtp-password", &s.Email.Password, p.smtpPassword)
	setString("email-sender", &s.Email.Sender, p.emailSender)
	setString("email-receiver", &s.Email.Receiver, p.emailReceiver)
	setString("slack-webhook-url", &s.Slack.WebhookURL, p.slackWebhook)

	if isSet("synthesis-delay") {
		s.SynthesisDelaySeconds = p.delaySeconds
	}
	if isSet("smtp-port") {
		s.Email.Port = p.smtpPort
	}
	if isSet("debug") {
		s.DebugMode = p.debug
	}
	if isSet("email") {
		s.Email.Enabled = p.emailEnabled
	}
	if isSet("ollama-autostart") {
		s.OllamaAutostart = p.ollamaAutostart
	}
}
