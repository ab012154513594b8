package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/moontools/pkg/cli/config"
	"github.com/m-mizutani/moontools/pkg/infra/keysign"
	"github.com/m-mizutani/moontools/pkg/usecase"
	"github.com/m-mizutani/moontools/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// ErrUsage is returned when a command is called with the wrong arguments
var ErrUsage = errors.New("invalid usage")

const crxPackUsage = "moontools crx pack <private-key-pem> <input-zip> <output-path>"

func cmdCRX(defaults *config.Defaults, stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "crx",
		Usage: "Build and check signed extension packages (CRX v2)",
		Commands: []*cli.Command{
			cmdCRXPack(defaults, stdout),
			cmdCRXVerify(stdout),
		},
	}
}

func cmdCRXPack(defaults *config.Defaults, stdout io.Writer) *cli.Command {
	var signerCfg config.Signer

	return &cli.Command{
		Name:      "pack",
		Usage:     "Sign a zip archive and wrap it into a CRX v2 package",
		ArgsUsage: "<private-key-pem> <input-zip> <output-path>",
		Flags:     signerCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() != 3 {
				_, _ = fmt.Fprintln(stdout, "usage: "+crxPackUsage)
				return goerr.Wrap(ErrUsage, "crx pack takes exactly three arguments", goerr.V("given", c.NArg()))
			}
			keyPath, inputPath, outputPath := c.Args().Get(0), c.Args().Get(1), c.Args().Get(2)

			file, err := defaults.Load()
			if err != nil {
				return err
			}
			signerCfg.ApplyDefaults(c, file)

			signer, err := signerCfg.New()
			if err != nil {
				return err
			}

			header, err := usecase.NewPackager(signer, keysign.NewVerifier()).Pack(ctx, keyPath, inputPath, outputPath)
			if err != nil {
				return err
			}

			logging.From(ctx).Info("Package written",
				slog.String("output", outputPath),
				slog.String("signer", signerCfg.Kind),
				slog.Any("public_key_len", header.PublicKeyLen),
				slog.Any("signature_len", header.SignatureLen),
			)
			return nil
		},
	}
}

func cmdCRXVerify(stdout io.Writer) *cli.Command {
	var noColor bool

	return &cli.Command{
		Name:      "verify",
		Usage:     "Check the header and signature of a CRX v2 package",
		ArgsUsage: "<package>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "no-color",
				Usage:       "Disable colored output",
				Destination: &noColor,
				Sources:     cli.EnvVars("MOONTOOLS_NO_COLOR"),
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() != 1 {
				_, _ = fmt.Fprintln(stdout, "usage: moontools crx verify <package>")
				return goerr.Wrap(ErrUsage, "crx verify takes exactly one argument", goerr.V("given", c.NArg()))
			}
			path := c.Args().First()
			p := newPalette(stdout, noColor)

			header, err := usecase.NewPackager(nil, keysign.NewVerifier()).Verify(ctx, path)
			if err != nil {
				p.line(p.bad, "INVALID %s", path)
				return err
			}

			p.line(p.ok, "OK %s", path)
			p.plain("  magic:      %s", string(header.Magic[:]))
			p.plain("  version:    %d", header.Version)
			p.plain("  public key: %d bytes", header.PublicKeyLen)
			p.plain("  signature:  %d bytes", header.SignatureLen)
			return nil
		},
	}
}
