package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/moontools/pkg/domain/interfaces"
	"github.com/m-mizutani/moontools/pkg/infra/keysign"
	"github.com/m-mizutani/moontools/pkg/infra/openssl"
	"github.com/urfave/cli/v3"
)

const (
	SignerOpenSSL = "openssl"
	SignerNative  = "native"
)

// Signer holds configuration of the package signing backend
type Signer struct {
	Kind        string
	OpenSSLPath string
}

// Flags returns CLI flags for signer configuration
func (c *Signer) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "signer",
			Usage:       "Signing backend (openssl, native)",
			Value:       SignerOpenSSL,
			Destination: &c.Kind,
			Sources:     cli.EnvVars("MOONTOOLS_SIGNER"),
		},
		&cli.StringFlag{
			Name:        "openssl-path",
			Usage:       "Path to the openssl binary",
			Value:       openssl.DefaultPath,
			Destination: &c.OpenSSLPath,
			Sources:     cli.EnvVars("MOONTOOLS_OPENSSL_PATH"),
		},
	}
}

// ApplyDefaults fills fields not set on the command line from the defaults file
func (c *Signer) ApplyDefaults(cmd *cli.Command, f *DefaultsFile) {
	if f == nil {
		return
	}
	if f.Signer != "" && !cmd.IsSet("signer") {
		c.Kind = f.Signer
	}
	if f.OpenSSLPath != "" && !cmd.IsSet("openssl-path") {
		c.OpenSSLPath = f.OpenSSLPath
	}
}

// New creates the configured signer
func (c *Signer) New() (interfaces.Signer, error) {
	switch c.Kind {
	case "", SignerOpenSSL:
		return openssl.NewSigner(openssl.WithPath(c.OpenSSLPath)), nil
	case SignerNative:
		return keysign.NewSigner(), nil
	default:
		return nil, goerr.New("unknown signer", goerr.V("signer", c.Kind))
	}
}
