package config

import "github.com/urfave/cli/v3"

// Assets holds the locations of the test tree
type Assets struct {
	XamlDir    string
	MastersDir string
}

// Flags returns CLI flags for asset locations
func (c *Assets) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "xaml-dir",
			Usage:       "Directory holding the test XAML files and rendered images",
			Value:       "xaml",
			Destination: &c.XamlDir,
			Sources:     cli.EnvVars("MOONTOOLS_XAML_DIR"),
		},
		&cli.StringFlag{
			Name:        "masters-dir",
			Usage:       "Directory holding the master images",
			Value:       "harness/masters",
			Destination: &c.MastersDir,
			Sources:     cli.EnvVars("MOONTOOLS_MASTERS_DIR"),
		},
	}
}

// ApplyDefaults fills fields not set on the command line from the defaults file
func (c *Assets) ApplyDefaults(cmd *cli.Command, f *DefaultsFile) {
	if f == nil {
		return
	}
	if f.XamlDir != "" && !cmd.IsSet("xaml-dir") {
		c.XamlDir = f.XamlDir
	}
	if f.MastersDir != "" && !cmd.IsSet("masters-dir") {
		c.MastersDir = f.MastersDir
	}
}
