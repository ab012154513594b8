package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/moontools/pkg/cli/config"
	"github.com/m-mizutani/moontools/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// DefaultManifestName is the manifest read when no file is given
const DefaultManifestName = "drtlist.xml"

func cmdDRTList(defaults *config.Defaults, stdout io.Writer) *cli.Command {
	var (
		assetsCfg config.Assets
		missing   bool
	)

	flags := append(assetsCfg.Flags(),
		&cli.BoolFlag{
			Name:        "missing",
			Aliases:     []string{"m"},
			Usage:       "Only list tests whose master image does not exist yet",
			Destination: &missing,
		},
	)

	return &cli.Command{
		Name:      "drtlist",
		Usage:     "Convert a DRT test manifest into the harness test-list format",
		ArgsUsage: "[manifest]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() > 1 {
				_, _ = fmt.Fprintln(stdout, "usage: moontools drtlist [--missing] [manifest]")
				return goerr.Wrap(ErrUsage, "drtlist takes at most one argument", goerr.V("given", c.NArg()))
			}

			file, err := defaults.Load()
			if err != nil {
				return err
			}
			assetsCfg.ApplyDefaults(c, file)

			name := DefaultManifestName
			if c.NArg() == 1 {
				name = c.Args().First()
			}
			path := filepath.Join(assetsCfg.XamlDir, name)

			uc := usecase.NewDRTList(usecase.WithMissingOnly(missing))
			if _, err := uc.Convert(ctx, path, stdout); err != nil {
				return err
			}
			return nil
		},
	}
}
