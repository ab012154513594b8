package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/moontools/pkg/debugger"
	"github.com/m-mizutani/moontools/pkg/infra/typetable"
	"github.com/urfave/cli/v3"
)

// TypeTable holds the location of a type table dump
type TypeTable struct {
	Path string
}

// Flags returns CLI flags for the type table
func (c *TypeTable) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "types",
			Usage:       "Path to a TOML type table dump",
			Required:    true,
			Destination: &c.Path,
			Sources:     cli.EnvVars("MOONTOOLS_TYPES"),
		},
	}
}

// Load reads the configured type table
func (c *TypeTable) Load() (*debugger.MapTypeTable, error) {
	if c.Path == "" {
		return nil, goerr.New("type table path is not set")
	}
	return typetable.Load(c.Path)
}
