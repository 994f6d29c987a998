package config

import "log/slog"

// ApplyForTest applies flag values as if the named flags were set
func (p *Pipeline) ApplyForTest(s *Settings, values map[string]any) {
	for name, v := range values {
		switch name {
		case "llm-provider":
			p.provider = v.(string)
		case "cloud-api-key":
			p.cloudAPIKey = v.(string)
		case "notion-token":
			p.notionToken = v.(string)
		case "store-backend":
			p.store = v.(string)
		case "smtp-password":
			p.smtpPassword = v.(string)
		case "synthesis-delay":
			p.delaySeconds = v.(int)
		case "debug":
			p.debug = v.(bool)
		}
	}
	p.apply(func(name string) bool {
		_, ok := values[name]
		return ok
	}, s)
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output, file string) *Logger {
	return &Logger{level: level, format: format, output: output, file: file}
}

// BuildForTest exposes the logger builder
func (l *Logger) BuildForTest() (*slog.Logger, func(), error) {
	return l.build()
}
