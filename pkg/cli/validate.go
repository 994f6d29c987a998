package cli

import (
	"context"

	"github.com/fatih/color"
	"github.com/secmon-lab/mindforge/pkg/cli/config"
	"github.com/secmon-lab/mindforge/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var cfg config.Pipeline

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate settings without contacting any service",
		Flags:   cfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			s, err := cfg.Configure(c)
			if err != nil {
				return err
			}
			if err := s.Validate(); err != nil {
				color.New(color.FgRed).Fprintf(output(c), "✗ %s\n", err.Error())
				return err
			}

			logging.Default().Info("Configuration validation passed", "settings", s)
			color.New(color.FgGreen).Fprintf(output(c), "✓ Settings are valid (provider=%s, store=%s)\n", s.LLMProvider, s.StoreBackend)
			return nil
		},
	}
}
