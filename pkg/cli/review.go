package cli

import (
	"context"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mindforge/pkg/cli/config"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

func cmdRunReview(p *process) *cli.Command {
	var cfg config.Pipeline
	var period string

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "period",
			Aliases:     []string{"p"},
			Usage:       "Review period (weekly, monthly, quarterly)",
			Value:       types.PeriodWeekly.String(),
			Destination: &period,
		},
	}
	flags = append(flags, cfg.Flags()...)

	return &cli.Command{
		Name:  "run-review",
		Usage: "Aggregate the knowledge nodes of a period into a review",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			pd, err := types.ParsePeriod(period)
			if err != nil {
				return goerr.Wrap(model.ErrInvalidInput, "invalid period", goerr.V("period", period))
			}

			uc, _, err := p.buildPipeline(ctx, c, &cfg)
			if err != nil {
				return err
			}

			result, err := uc.Review.Run(withLogReporter(ctx), pd)
			w := output(c)
			if err != nil {
				color.New(color.FgRed).Fprintf(w, "✗ Review failed: %s\n", err.Error())
				return err
			}

			if result.NothingToDo() {
				color.New(color.FgYellow).Fprintf(w, "No knowledge nodes between %s and %s\n",
					result.DateRange.Start.Format(time.DateOnly), result.DateRange.End.Format(time.DateOnly))
				return nil
			}
			color.New(color.FgGreen).Fprintf(w, "✓ %s (%d nodes)\n", result.Record.Title, result.NodeCount)
			return nil
		},
	}
}
