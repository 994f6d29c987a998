package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/utils/logging"
	slogmulti "github.com/samber/slog-multi"
	"github.com/urfave/cli/v3"
)

// Logger holds CLI flags for the process logger
type Logger struct {
	level  string
	format string
	output string
	file   string
}

// Flags returns CLI flags for logger configuration
func (l *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Category:    "Logging",
			Sources:     cli.EnvVars("MINDFORGE_LOG_LEVEL"),
			Destination: &l.level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       "console",
			Category:    "Logging",
			Sources:     cli.EnvVars("MINDFORGE_LOG_FORMAT"),
			Destination: &l.format,
		},
		&cli.StringFlag{
			Name:        "log-output",
			Usage:       "Log output (stdout, stderr, or a file path)",
			Value:       "stderr",
			Category:    "Logging",
			Sources:     cli.EnvVars("MINDFORGE_LOG_OUTPUT"),
			Destination: &l.output,
		},
		&cli.StringFlag{
			Name:        "log-file",
			Usage:       "Additionally write JSON logs to this file",
			Category:    "Logging",
			Sources:     cli.EnvVars("MINDFORGE_LOG_FILE"),
			Destination: &l.file,
		},
	}
}

// LogValue renders the logger flags for the startup log
func (l Logger) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("level", l.level),
		slog.String("format", l.format),
		slog.String("output", l.output),
		slog.String("file", l.file),
	)
}

// ForceDebug raises the level to debug, used by DEBUG_MODE
func (l *Logger) ForceDebug() {
	l.level = "debug"
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, goerr.Wrap(model.ErrConfig, "invalid log level", goerr.V("level", s))
	}
}

// secretFilter redacts struct fields tagged masq:"secret" and well known secret keys
func secretFilter() func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(
		masq.WithTag("secret"),
		masq.WithFieldName("NotionToken"),
		masq.WithFieldName("APIKey"),
		masq.WithFieldName("Password"),
		masq.WithFieldName("WebhookURL"),
	)
}

// Configure builds the logger, installs it as the default and returns a closer for
// opened files
func (l *Logger) Configure() (func(), error) {
	logger, closer, err := l.build()
	if err != nil {
		return nil, err
	}
	logging.SetDefault(logger)
	slog.SetDefault(logger)
	return closer, nil
}

func (l *Logger) build() (*slog.Logger, func(), error) {
	level, err := parseLevel(l.level)
	if err != nil {
		return nil, nil, err
	}

	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	var w io.Writer
	switch l.output {
	case "", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.OpenFile(l.output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, goerr.Wrap(model.ErrConfig, "failed to open log output", goerr.V("path", l.output), goerr.V("cause", err.Error()))
		}
		closers = append(closers, f)
		w = f
	}

	filter := secretFilter()

	var handler slog.Handler
	switch l.format {
	case "", "console":
		handler = clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithReplaceAttr(filter),
		)
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: filter,
		})
	default:
		closeAll()
		return nil, nil, goerr.Wrap(model.ErrConfig, "invalid log format", goerr.V("format", l.format))
	}

	if l.file != "" {
		f, err := os.OpenFile(l.file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			closeAll()
			return nil, nil, goerr.Wrap(model.ErrConfig, "failed to open log file", goerr.V("path", l.file), goerr.V("cause", err.Error()))
		}
		closers = append(closers, f)
		handler = slogmulti.Fanout(handler, slog.NewJSONHandler(f, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: filter,
		}))
	}

	return slog.New(handler), closeAll, nil
}
