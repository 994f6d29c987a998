package cli

import (
	"context"

	"github.com/secmon-lab/mindforge/pkg/cli/config"
	"github.com/secmon-lab/mindforge/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// process is the process wide state shared by commands
type process struct {
	logger  config.Logger
	closers []func()
}

// enableDebug reinstalls the logger at debug level for DEBUG_MODE
func (p *process) enableDebug() error {
	p.logger.ForceDebug()
	closer, err := p.logger.Configure()
	if err != nil {
		return err
	}
	p.closers = append(p.closers, closer)
	return nil
}

func (p *process) close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
	p.closers = nil
}

func Run(ctx context.Context, args []string, version string) error {
	p := &process{}
	var sentryCfg config.Sentry

	var flags []cli.Flag
	flags = append(flags, p.logger.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	app := &cli.Command{
		Name:    "mindforge",
		Usage:   "Capture raw notes, distill them into knowledge nodes and review trends",
		Version: version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			closer, err := p.logger.Configure()
			if err != nil {
				return ctx, err
			}
			p.closers = append(p.closers, closer)

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return ctx, err
			}
			p.closers = append(p.closers, flush)

			logging.Default().Debug("Starting mindforge", "logger", p.logger, "sentry", sentryCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			p.close()
			return nil
		},
		Commands: []*cli.Command{
			cmdAdd(p),
			cmdAddURL(p),
			cmdAddImage(p),
			cmdRunSynthesis(p),
			cmdRunReview(p),
			cmdServe(p),
			cmdValidate(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}
