package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/moontools/pkg/cli/config"
	"github.com/m-mizutani/moontools/pkg/domain/model"
	"github.com/m-mizutani/moontools/pkg/usecase"
	"github.com/urfave/cli/v3"
)

const mastersUsage = `usage: moontools masters [--missing|-m] [--regen|-r]
  --missing, -m  archive images whose master does not exist yet
  --regen, -r    replace existing masters`

func cmdMasters(defaults *config.Defaults, stdout io.Writer) *cli.Command {
	var (
		assetsCfg config.Assets
		mode      model.ArchiveMode
		noColor   bool
	)

	flags := append(assetsCfg.Flags(),
		&cli.BoolFlag{
			Name:        "missing",
			Aliases:     []string{"m"},
			Usage:       "Archive images whose master does not exist yet",
			Destination: &mode.Missing,
		},
		&cli.BoolFlag{
			Name:        "regen",
			Aliases:     []string{"r"},
			Usage:       "Replace existing master images",
			Destination: &mode.Regen,
		},
		&cli.BoolFlag{
			Name:        "no-color",
			Usage:       "Disable colored output",
			Destination: &noColor,
			Sources:     cli.EnvVars("MOONTOOLS_NO_COLOR"),
		},
	)

	return &cli.Command{
		Name:  "masters",
		Usage: "Move rendered test images into the masters directory",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if !mode.Valid() {
				_, _ = fmt.Fprintln(stdout, mastersUsage)
				return goerr.Wrap(usecase.ErrNoArchiveMode, "masters needs --missing or --regen")
			}

			file, err := defaults.Load()
			if err != nil {
				return err
			}
			assetsCfg.ApplyDefaults(c, file)

			report, err := usecase.NewMasters(assetsCfg.XamlDir, assetsCfg.MastersDir).Archive(ctx, mode)
			if report != nil {
				printArchiveReport(newPalette(stdout, noColor), report)
			}
			return err
		},
	}
}

func printArchiveReport(p *palette, report *model.ArchiveReport) {
	p.line(p.title, "%d new master image(s)", len(report.Archived))
	if len(report.Archived) > 0 {
		p.line(p.ok, "  %s", strings.Join(report.Archived, " "))
	}
	if len(report.Skipped) > 0 {
		p.line(p.warn, "%d skipped (master exists)", len(report.Skipped))
		p.plain("  %s", strings.Join(report.Skipped, " "))
	}
}
