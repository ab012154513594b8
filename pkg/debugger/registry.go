package debugger

import (
	"context"
	"errors"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/moontools/pkg/utils/safe"
)

// ErrUnknownCommand is returned by Invoke for unregistered command names
var ErrUnknownCommand = errors.New("unknown command")

// PrinterFactory returns a printer for h, or nil when h is not its concern
type PrinterFactory func(h Handle) Printer

// Command is a named debugger command taking the raw argument string
type Command func(ctx context.Context, args string) error

type printerEntry struct {
	name    string
	factory PrinterFactory
}

type commandEntry struct {
	cmd Command
}

// Registry owns the printers and commands exposed to a host debugger
type Registry struct {
	mu       sync.Mutex
	printers []*printerEntry
	commands map[string]*commandEntry
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*commandEntry),
	}
}

// Registration is the ownership handle returned by Add* calls
type Registration struct {
	Name       string
	unregister func()
	once       sync.Once
}

// Unregister removes the printer or command. Further calls are no-ops.
func (r *Registration) Unregister() {
	r.once.Do(r.unregister)
}

// AddPrinter appends a printer factory. Factories are consulted in
// registration order.
func (reg *Registry) AddPrinter(name string, factory PrinterFactory) *Registration {
	entry := &printerEntry{name: name, factory: factory}

	reg.mu.Lock()
	reg.printers = append(reg.printers, entry)
	reg.mu.Unlock()

	return &Registration{
		Name: name,
		unregister: func() {
			reg.mu.Lock()
			defer reg.mu.Unlock()
			for i, e := range reg.printers {
				if e == entry {
					reg.printers = append(reg.printers[:i], reg.printers[i+1:]...)
					return
				}
			}
		},
	}
}

// AddCommand registers cmd under name. An existing command of the same name
// is replaced.
func (reg *Registry) AddCommand(name string, cmd Command) *Registration {
	entry := &commandEntry{cmd: cmd}

	reg.mu.Lock()
	reg.commands[name] = entry
	reg.mu.Unlock()

	return &Registration{
		Name: name,
		unregister: func() {
			reg.mu.Lock()
			defer reg.mu.Unlock()
			// a later AddCommand may have replaced this entry
			if reg.commands[name] == entry {
				delete(reg.commands, name)
			}
		},
	}
}

// Lookup returns the first printer that accepts h, or nil
func (reg *Registry) Lookup(h Handle) Printer {
	reg.mu.Lock()
	entries := append([]*printerEntry(nil), reg.printers...)
	reg.mu.Unlock()

	for _, e := range entries {
		if p := e.factory(h); p != nil {
			return p
		}
	}
	return nil
}

// Render looks up and runs a printer for h. Failures of any kind report
// false instead of reaching the host.
func (reg *Registry) Render(ctx context.Context, h Handle) (string, bool) {
	p, ok := safe.Try(ctx, func() (Printer, error) {
		return reg.Lookup(h), nil
	})
	if !ok || p == nil {
		return "", false
	}
	return safe.Try(ctx, p.String)
}

// Invoke runs the named command
func (reg *Registry) Invoke(ctx context.Context, name, args string) (err error) {
	reg.mu.Lock()
	entry, ok := reg.commands[name]
	reg.mu.Unlock()

	if !ok {
		return goerr.Wrap(ErrUnknownCommand, "cannot invoke command", goerr.V("name", name))
	}

	defer safe.Recover(&err)
	return entry.cmd(ctx, args)
}

// Install registers the standard printers, backed by in, and the mforeach
// command, backed by s. It returns one registration per entry.
func Install(reg *Registry, in *Inspector, s Session) []*Registration {
	shaped := func(shape Shape) PrinterFactory {
		return func(h Handle) Printer {
			if Classify(h) != shape {
				return nil
			}
			return in.PrinterFor(h)
		}
	}

	return []*Registration{
		reg.AddPrinter("moonlight-object", shaped(ShapeObject)),
		reg.AddPrinter("moonlight-weakref", shaped(ShapeWeakRef)),
		reg.AddPrinter("moonlight-value", shaped(ShapeValue)),
		reg.AddPrinter("moonlight-property", shaped(ShapeProperty)),
		reg.AddCommand(ForEachCommandName, NewForEachCommand(s, in.Layout())),
	}
}
