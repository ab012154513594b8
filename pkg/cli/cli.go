package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/m-mizutani/moontools/pkg/cli/config"
	"github.com/m-mizutani/moontools/pkg/domain/types"
	"github.com/m-mizutani/moontools/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type runOptions struct {
	stdout io.Writer
}

// Option is a functional option for Run
type Option func(*runOptions)

// WithWriter redirects command output (not logs) to w
func WithWriter(w io.Writer) Option {
	return func(o *runOptions) {
		o.stdout = w
	}
}

// Run runs the CLI application
func Run(ctx context.Context, args []string, opts ...Option) error {
	o := &runOptions{stdout: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	var (
		loggerCfg   config.Logger
		defaultsCfg config.Defaults
		logger      *slog.Logger
	)

	app := &cli.Command{
		Name:    "moontools",
		Usage:   "Moonlight developer tooling",
		Version: types.Version,
		Writer:  o.stdout,
		Flags:   append(loggerCfg.Flags(), defaultsCfg.Flags()...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}

			slog.SetDefault(logger)
			ctx = logging.With(ctx, logger)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			return loggerCfg.Close()
		},
		Commands: []*cli.Command{
			cmdCRX(&defaultsCfg, o.stdout),
			cmdDRTList(&defaultsCfg, o.stdout),
			cmdMasters(&defaultsCfg, o.stdout),
			cmdTypes(o.stdout),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		return err
	}

	return nil
}
