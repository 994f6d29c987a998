package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/secmon-lab/mindforge/pkg/cli/config"
	"github.com/urfave/cli/v3"
)

func cmdRunSynthesis(p *process) *cli.Command {
	var cfg config.Pipeline

	return &cli.Command{
		Name:  "run-synthesis",
		Usage: "Promote every new inbox record to a knowledge node",
		Flags: cfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, _, err := p.buildPipeline(ctx, c, &cfg)
			if err != nil {
				return err
			}

			result, err := uc.Synthesis.Run(withLogReporter(ctx))
			w := output(c)
			if result != nil {
				for _, node := range result.Nodes {
					color.New(color.FgGreen).Fprintf(w, "✓ %s\n", node.Title)
				}
				fmt.Fprintf(w, "processed=%d skipped=%d failed=%d status_errors=%d total=%d\n",
					result.Processed, result.Skipped, result.Failed, result.StatusErrors, result.Total)
			}
			if err != nil {
				color.New(color.FgRed).Fprintf(w, "✗ Synthesis stopped: %s\n", err.Error())
				return err
			}
			return nil
		},
	}
}
