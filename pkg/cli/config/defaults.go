package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// DefaultsFileName is looked up in the working directory when --config is not given
const DefaultsFileName = "moontools.toml"

// DefaultsFile is the content of a project defaults file. Values given as
// flags or environment variables take precedence.
type DefaultsFile struct {
	XamlDir     string `toml:"xaml_dir"`
	MastersDir  string `toml:"masters_dir"`
	Signer      string `toml:"signer"`
	OpenSSLPath string `toml:"openssl_path"`
}

// Defaults holds the location of the project defaults file
type Defaults struct {
	Path string
}

// Flags returns CLI flags for the defaults file
func (c *Defaults) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Project defaults file (TOML)",
			Destination: &c.Path,
			Sources:     cli.EnvVars("MOONTOOLS_CONFIG"),
		},
	}
}

// Load parses the defaults file. An explicitly given file must exist; the
// implicit moontools.toml is optional.
func (c *Defaults) Load() (*DefaultsFile, error) {
	path := c.Path
	explicit := path != ""
	if !explicit {
		path = DefaultsFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &DefaultsFile{}, nil
		}
		return nil, goerr.Wrap(err, "failed to read defaults file", goerr.V("path", path))
	}

	var f DefaultsFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, goerr.Wrap(err, "failed to parse defaults file", goerr.V("path", path))
	}
	return &f, nil
}
