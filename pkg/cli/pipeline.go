package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mindforge/pkg/cli/config"
	"github.com/secmon-lab/mindforge/pkg/service/extract"
	"github.com/secmon-lab/mindforge/pkg/service/health"
	"github.com/secmon-lab/mindforge/pkg/service/structuring"
	"github.com/secmon-lab/mindforge/pkg/usecase"
	"github.com/secmon-lab/mindforge/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// buildPipeline wires the collaborators of pipeline commands. Settings are validated
// before anything is contacted.
func (p *process) buildPipeline(ctx context.Context, c *cli.Command, cfg *config.Pipeline) (*usecase.UseCases, *config.Settings, error) {
	s, err := cfg.Configure(c)
	if err != nil {
		return nil, nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}

	if s.DebugMode {
		if err := p.enableDebug(); err != nil {
			return nil, nil, err
		}
	}
	logging.Default().Debug("Settings loaded", "settings", s)

	if s.LLMProvider == config.ProviderLocal {
		var opts []health.Option
		if s.OllamaAutostart {
			opts = append(opts, health.WithStarter(health.OllamaServe))
		}
		if err := health.New(s.Local.BaseURL, opts...).Ensure(ctx); err != nil {
			return nil, nil, goerr.Wrap(err, "local inference server is not available")
		}
	}

	backend, err := config.NewBackend(ctx, s)
	if err != nil {
		return nil, nil, err
	}
	store, err := config.NewStore(s)
	if err != nil {
		return nil, nil, err
	}

	extractor := extract.New(extract.NewWeb(), extract.NewOCR(extract.WithOCRLanguages(s.OCRLanguages)))
	structurer := structuring.New(backend, structuring.WithLanguage(s.OutputLanguage))

	uc := usecase.New(store, s.Databases(), extractor, structurer,
		usecase.WithNotifier(config.NewNotifier(s)),
		usecase.WithSynthesisDelay(s.SynthesisDelay()),
	)
	return uc, s, nil
}

// logReporter forwards pipeline progress to the logger
type logReporter struct {
	logger *slog.Logger
}

func (x *logReporter) Step(msg string) {
	x.logger.Info(msg)
}

func (x *logReporter) Progress(done, total int) {
	x.logger.Debug("progress", "done", done, "total", total)
}

func withLogReporter(ctx context.Context) context.Context {
	return usecase.WithReporter(ctx, &logReporter{logger: logging.From(ctx)})
}

func output(c *cli.Command) io.Writer {
	if w := c.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
