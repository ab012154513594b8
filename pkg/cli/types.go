package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/moontools/pkg/cli/config"
	"github.com/m-mizutani/moontools/pkg/debugger"
	"github.com/urfave/cli/v3"
)

func cmdTypes(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "types",
		Usage: "Query a type table dump and check debugger command lines",
		Commands: []*cli.Command{
			cmdTypesIsA(stdout),
			cmdTypesChain(stdout),
			cmdTypesCheckForEach(stdout),
		},
	}
}

// resolveType accepts a numeric id or a type name
func resolveType(table debugger.TypeTable, s string) (debugger.TypeRecord, error) {
	if id, err := strconv.ParseUint(s, 10, 32); err == nil {
		if r, ok := table.Lookup(debugger.TypeID(id)); ok {
			return r, nil
		}
		return debugger.TypeRecord{}, goerr.New("unknown type id", goerr.V("id", id))
	}
	if r, ok := table.LookupName(s); ok {
		return r, nil
	}
	return debugger.TypeRecord{}, goerr.New("unknown type name", goerr.V("name", s))
}

func cmdTypesIsA(stdout io.Writer) *cli.Command {
	var tableCfg config.TypeTable

	return &cli.Command{
		Name:      "isa",
		Usage:     "Report whether a type derives from another",
		ArgsUsage: "<type> <base-type>",
		Flags:     tableCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() != 2 {
				return goerr.Wrap(ErrUsage, "isa takes a type and a base type", goerr.V("given", c.NArg()))
			}

			table, err := tableCfg.Load()
			if err != nil {
				return err
			}
			typ, err := resolveType(table, c.Args().Get(0))
			if err != nil {
				return err
			}
			base, err := resolveType(table, c.Args().Get(1))
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(stdout, debugger.IsAssignableFrom(table, typ.ID, base.ID))
			return nil
		},
	}
}

func cmdTypesChain(stdout io.Writer) *cli.Command {
	var tableCfg config.TypeTable

	return &cli.Command{
		Name:      "chain",
		Usage:     "Print the ancestry of a type",
		ArgsUsage: "<type>",
		Flags:     tableCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() != 1 {
				return goerr.Wrap(ErrUsage, "chain takes one type", goerr.V("given", c.NArg()))
			}

			table, err := tableCfg.Load()
			if err != nil {
				return err
			}
			typ, err := resolveType(table, c.Args().First())
			if err != nil {
				return err
			}

			chain, err := debugger.Ancestors(table, typ.ID)
			if err != nil {
				return err
			}
			names := make([]string, len(chain))
			for i, r := range chain {
				names[i] = fmt.Sprintf("%s(%d)", r.Name, r.ID)
			}
			_, _ = fmt.Fprintln(stdout, strings.Join(names, " -> "))
			return nil
		},
	}
}

func cmdTypesCheckForEach(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "check-foreach",
		Usage:     "Validate an mforeach command line",
		ArgsUsage: "'<var> in <container-expr>:<command>'",
		Action: func(ctx context.Context, c *cli.Command) error {
			line := strings.Join(c.Args().Slice(), " ")
			fe, err := debugger.ParseForEach(line)
			if err != nil {
				_, _ = fmt.Fprintln(stdout, "usage: "+debugger.ForEachUsage)
				return goerr.Wrap(err, "invalid mforeach line", goerr.V("line", line))
			}

			_, _ = fmt.Fprintf(stdout, "var:       $%s\n", fe.Var)
			_, _ = fmt.Fprintf(stdout, "container: %s\n", fe.Container)
			_, _ = fmt.Fprintf(stdout, "command:   %s\n", fe.Command)
			return nil
		},
	}
}
