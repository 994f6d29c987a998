package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mindforge/pkg/cli/config"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdAdd(p *process) *cli.Command {
	return ingestCommand(p, "add", "<text>", "Capture a text note into the inbox", func(args []string) model.RawCapture {
		return model.NewTextCapture(strings.Join(args, " "))
	})
}

func cmdAddURL(p *process) *cli.Command {
	return ingestCommand(p, "add-url", "<url>", "Capture the main content of a web page into the inbox", func(args []string) model.RawCapture {
		return model.NewURLCapture(strings.TrimSpace(strings.Join(args, "")))
	})
}

func cmdAddImage(p *process) *cli.Command {
	return ingestCommand(p, "add-image", "<path>", "Capture the text of an image into the inbox", func(args []string) model.RawCapture {
		return model.NewImageCapture(strings.Join(args, " "), false)
	})
}

func ingestCommand(p *process, name, argsUsage, usage string, capture func(args []string) model.RawCapture) *cli.Command {
	var cfg config.Pipeline

	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: argsUsage,
		Flags:     cfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() == 0 {
				return goerr.Wrap(model.ErrEmptyContent, "argument is required", goerr.V("usage", argsUsage))
			}

			uc, _, err := p.buildPipeline(ctx, c, &cfg)
			if err != nil {
				return err
			}

			result, err := uc.Ingest.Ingest(withLogReporter(ctx), capture(c.Args().Slice()))
			if err != nil {
				color.New(color.FgRed).Fprintf(output(c), "✗ Failed at %s: %s\n", result.FailedAt, err.Error())
				return err
			}

			printIngest(c, result)
			return nil
		},
	}
}

func printIngest(c *cli.Command, result *usecase.IngestResult) {
	w := output(c)
	if result.Degraded {
		color.New(color.FgYellow).Fprintf(w, "⚠ Structuring failed, raw content saved: %s\n", result.StructuringErr.Error())
	}
	color.New(color.FgGreen).Fprintf(w, "✓ Saved to inbox: %s\n", result.Record.Title)
	if result.Record.ShortSummary != "" {
		fmt.Fprintf(w, "  %s\n", result.Record.ShortSummary)
	}
}
