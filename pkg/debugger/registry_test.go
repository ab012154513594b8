package debugger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/moontools/pkg/debugger"
)

type constPrinter string

func (p constPrinter) String() (string, error) { return string(p), nil }

type panicPrinter struct{}

func (panicPrinter) String() (string, error) { panic("boom") }

func TestRegistry_Install(t *testing.T) {
	ctx := context.Background()
	s := newListSession()
	in := debugger.NewInspector(s.mem, newTypeTable(t))
	reg := debugger.NewRegistry()

	regs := debugger.Install(reg, in, s)
	gt.Equal(t, len(regs), 5)

	got, ok := reg.Render(ctx, debugger.Symbol{Addr: addrElement, Tag: "UIElement *", FirstField: "EventObject"})
	gt.True(t, ok)
	gt.Equal(t, got, "FrameworkElement@0x1000")

	got, ok = reg.Render(ctx, debugger.Symbol{Addr: addrProperty, Tag: "Moonlight::DependencyProperty"})
	gt.True(t, ok)
	gt.Equal(t, got, "DependencyProperty(UIElement.Opacity)")

	_, ok = reg.Render(ctx, debugger.Symbol{Addr: addrElement, Tag: "char *"})
	gt.False(t, ok)

	gt.NoError(t, reg.Invoke(ctx, debugger.ForEachCommandName, "n in layers:p $n"))
	gt.Equal(t, len(s.executed), 3)

	for _, r := range regs {
		r.Unregister()
	}
	_, ok = reg.Render(ctx, debugger.Symbol{Addr: addrElement, Tag: "UIElement *", FirstField: "EventObject"})
	gt.False(t, ok)

	err := reg.Invoke(ctx, debugger.ForEachCommandName, "n in layers:p $n")
	gt.True(t, errors.Is(err, debugger.ErrUnknownCommand))
}

func TestRegistry_PrinterOrder(t *testing.T) {
	ctx := context.Background()
	reg := debugger.NewRegistry()
	h := debugger.Symbol{Tag: "Anything"}

	first := reg.AddPrinter("first", func(h debugger.Handle) debugger.Printer { return constPrinter("first") })
	reg.AddPrinter("second", func(h debugger.Handle) debugger.Printer { return constPrinter("second") })

	got, ok := reg.Render(ctx, h)
	gt.True(t, ok)
	gt.Equal(t, got, "first")

	first.Unregister()
	first.Unregister()

	got, ok = reg.Render(ctx, h)
	gt.True(t, ok)
	gt.Equal(t, got, "second")
}

func TestRegistry_PanicsAreContained(t *testing.T) {
	ctx := context.Background()
	reg := debugger.NewRegistry()

	reg.AddPrinter("panics", func(h debugger.Handle) debugger.Printer { return panicPrinter{} })
	_, ok := reg.Render(ctx, debugger.Symbol{})
	gt.False(t, ok)

	reg.AddCommand("explode", func(ctx context.Context, args string) error { panic(args) })
	gt.Error(t, reg.Invoke(ctx, "explode", "now"))
}

func TestRegistry_ReplacedCommand(t *testing.T) {
	ctx := context.Background()
	reg := debugger.NewRegistry()

	var calls []string
	old := reg.AddCommand("cmd", func(ctx context.Context, args string) error {
		calls = append(calls, "old")
		return nil
	})
	reg.AddCommand("cmd", func(ctx context.Context, args string) error {
		calls = append(calls, "new")
		return nil
	})

	// stale handle must not remove the replacement
	old.Unregister()
	gt.NoError(t, reg.Invoke(ctx, "cmd", ""))
	gt.Equal(t, len(calls), 1)
	gt.Equal(t, calls[0], "new")
}
