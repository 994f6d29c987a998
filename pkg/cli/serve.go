package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mindforge/pkg/cli/config"
	httpctrl "github.com/secmon-lab/mindforge/pkg/controller/http"
	"github.com/secmon-lab/mindforge/pkg/service/worker"
	"github.com/secmon-lab/mindforge/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func cmdServe(p *process) *cli.Command {
	var cfg config.Pipeline
	var addr string
	var uploadDir string
	var synthesisInterval time.Duration

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       "127.0.0.1:8080",
			Sources:     cli.EnvVars("MINDFORGE_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "upload-dir",
			Usage:       "Directory for uploaded images (defaults to the system temp directory)",
			Sources:     cli.EnvVars("MINDFORGE_UPLOAD_DIR"),
			Destination: &uploadDir,
		},
		&cli.DurationFlag{
			Name:        "synthesis-interval",
			Usage:       "Run synthesis periodically at this interval (0 disables)",
			Sources:     cli.EnvVars("MINDFORGE_SYNTHESIS_INTERVAL"),
			Destination: &synthesisInterval,
		},
	}
	flags = append(flags, cfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			uc, _, err := p.buildPipeline(ctx, c, &cfg)
			if err != nil {
				return err
			}

			var opts []httpctrl.Options
			if uploadDir != "" {
				opts = append(opts, httpctrl.WithUploadDir(uploadDir))
			}
			handler := httpctrl.New(uc, opts...)
			server := httpctrl.NewHTTPServer(addr, handler)

			if synthesisInterval > 0 {
				scheduler := worker.NewPeriodic("synthesis", synthesisInterval, handler.ScheduledSynthesis)
				scheduler.Start(ctx)
				defer scheduler.Stop()
			}

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return goerr.Wrap(err, "failed to start server", goerr.V("addr", addr))
				}
				return nil
			})
			eg.Go(func() error {
				<-ctx.Done()
				logging.Default().Info("Shutting down HTTP server")

				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				return nil
			})

			if err := eg.Wait(); err != nil {
				return err
			}
			logging.Default().Info("Server shutdown completed")
			return nil
		},
	}
}
