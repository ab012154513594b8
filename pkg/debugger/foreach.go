package debugger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/moontools/pkg/utils/logging"
)

// ForEachCommandName is the name the iteration command is registered under
const ForEachCommandName = "mforeach"

var (
	ErrMissingVariable  = errors.New("mforeach: missing variable name")
	ErrInvalidVariable  = errors.New("mforeach: variable name must start with a letter")
	ErrMissingIn        = errors.New("mforeach: expected 'in' after variable name")
	ErrMissingColon     = errors.New("mforeach: expected ':' between container and command")
	ErrMissingContainer = errors.New("mforeach: missing container expression")
	ErrMissingCommand   = errors.New("mforeach: missing command")
)

// ForEachUsage is shown by hosts when parsing fails
const ForEachUsage = "mforeach <var> in <container-expr>:<command>"

// Session is the host debugger as seen by commands
type Session interface {
	// Evaluate evaluates a debugger expression to an address
	Evaluate(ctx context.Context, expr string) (uint64, error)
	// ReadPointer reads a pointer-sized value at addr
	ReadPointer(ctx context.Context, addr uint64) (uint64, error)
	// SetConvenienceVariable binds $name to addr cast to void*
	SetConvenienceVariable(ctx context.Context, name string, addr uint64) error
	// Execute runs a debugger command line
	Execute(ctx context.Context, command string) error
}

// ForEach is a parsed mforeach command line
type ForEach struct {
	Var       string
	Container string
	Command   string
}

// ParseForEach parses "<var> in <container-expr>:<command>". A C++ scope
// operator "::" inside the expression is not taken as the separator.
func ParseForEach(line string) (*ForEach, error) {
	line = strings.TrimSpace(line)

	name, rest := cutSpace(line)
	if name == "" || name == "in" {
		return nil, ErrMissingVariable
	}
	if !isIdentifier(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVariable, name)
	}

	kw, rest := cutSpace(rest)
	if kw != "in" {
		return nil, ErrMissingIn
	}

	sep := findSeparator(rest)
	if sep < 0 {
		return nil, ErrMissingColon
	}

	fe := &ForEach{
		Var:       name,
		Container: strings.TrimSpace(rest[:sep]),
		Command:   strings.TrimSpace(rest[sep+1:]),
	}
	if fe.Container == "" {
		return nil, ErrMissingContainer
	}
	if fe.Command == "" {
		return nil, ErrMissingCommand
	}
	return fe, nil
}

// cutSpace splits s at its first run of whitespace
func cutSpace(s string) (head, tail string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func isIdentifier(s string) bool {
	for i, r := range s {
		if i == 0 && !unicode.IsLetter(r) {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return s != ""
}

// findSeparator returns the index of the first single ':' in s, or -1
func findSeparator(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] != ':' {
			continue
		}
		if i+1 < len(s) && s[i+1] == ':' {
			i++
			continue
		}
		return i
	}
	return -1
}

// RunForEach walks the list whose header fe.Container evaluates to and runs
// fe.Command once per node with $fe.Var bound to the node. It returns the
// number of iterations. The walk trusts the inspected list: a cycle only ends
// when ctx is cancelled.
func RunForEach(ctx context.Context, s Session, layout Layout, fe *ForEach) (int, error) {
	logger := logging.From(ctx)

	header, err := s.Evaluate(ctx, fe.Container)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to evaluate container", goerr.V("expr", fe.Container))
	}
	if header == 0 {
		logger.Debug("Container is NULL", "expr", fe.Container)
		return 0, nil
	}

	node, err := s.ReadPointer(ctx, header+layout.ListFirst)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to read list head", goerr.V("header", header))
	}

	count := 0
	for node != 0 {
		if err := ctx.Err(); err != nil {
			return count, goerr.Wrap(err, "iteration interrupted", goerr.V("iterations", count))
		}

		if err := s.SetConvenienceVariable(ctx, fe.Var, node); err != nil {
			return count, goerr.Wrap(err, "failed to bind variable", goerr.V("var", fe.Var))
		}
		if err := s.Execute(ctx, fe.Command); err != nil {
			return count, goerr.Wrap(err, "command failed",
				goerr.V("command", fe.Command),
				goerr.V("node", node))
		}
		count++

		node, err = s.ReadPointer(ctx, node+layout.NodeNext)
		if err != nil {
			return count, goerr.Wrap(err, "failed to read next node", goerr.V("iterations", count))
		}
	}

	return count, nil
}

// NewForEachCommand returns the mforeach command bound to s
func NewForEachCommand(s Session, layout Layout) Command {
	return func(ctx context.Context, args string) error {
		fe, err := ParseForEach(args)
		if err != nil {
			return goerr.Wrap(err, "usage: "+ForEachUsage)
		}
		_, err = RunForEach(ctx, s, layout, fe)
		return err
	}
}
