package debugger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/moontools/pkg/debugger"
)

func TestParseForEach(t *testing.T) {
	t.Run("valid lines", func(t *testing.T) {
		tests := []struct {
			line string
			want debugger.ForEach
		}{
			{
				line: "n in surface->layers:p *$n",
				want: debugger.ForEach{Var: "n", Container: "surface->layers", Command: "p *$n"},
			},
			{
				line: "  item   in   Moonlight::Deployment::GetCurrent()->downloaders : print $item ",
				want: debugger.ForEach{Var: "item", Container: "Moonlight::Deployment::GetCurrent()->downloaders", Command: "print $item"},
			},
			{
				line: "x2\tin list:p ((Foo::Bar*)$x2)->baz",
				want: debugger.ForEach{Var: "x2", Container: "list", Command: "p ((Foo::Bar*)$x2)->baz"},
			},
		}

		for _, tt := range tests {
			t.Run(tt.line, func(t *testing.T) {
				fe, err := debugger.ParseForEach(tt.line)
				gt.NoError(t, err)
				gt.Equal(t, *fe, tt.want)
			})
		}
	})

	t.Run("invalid lines", func(t *testing.T) {
		tests := []struct {
			name string
			line string
			want error
		}{
			{"empty", "", debugger.ErrMissingVariable},
			{"keyword only", "in list:p $n", debugger.ErrMissingVariable},
			{"digit first", "1n in list:p $n", debugger.ErrInvalidVariable},
			{"punctuation", "$n in list:p $n", debugger.ErrInvalidVariable},
			{"no in", "n of list:p $n", debugger.ErrMissingIn},
			{"no colon", "n in list p $n", debugger.ErrMissingColon},
			{"scope only", "n in Moonlight::List p $n", debugger.ErrMissingColon},
			{"no container", "n in :p $n", debugger.ErrMissingContainer},
			{"no command", "n in list:", debugger.ErrMissingCommand},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := debugger.ParseForEach(tt.line)
				gt.Error(t, err)
				gt.True(t, errors.Is(err, tt.want))
			})
		}
	})
}

const (
	addrListHeader = 0xA000
	addrEmptyList  = 0xA100
	addrNode1      = 0xB000
	addrNode2      = 0xB100
	addrNode3      = 0xB200
)

func newListSession() *fakeSession {
	mem := newMemory()
	mem.Map(addrListHeader, newBlock(8).u64(0, addrNode1))
	mem.Map(addrEmptyList, newBlock(8))
	mem.Map(addrNode1, newBlock(8).u64(0, addrNode2))
	mem.Map(addrNode2, newBlock(8).u64(0, addrNode3))
	mem.Map(addrNode3, newBlock(8))

	return &fakeSession{
		mem: mem,
		exprs: map[string]uint64{
			"layers":  addrListHeader,
			"empty":   addrEmptyList,
			"nothing": 0,
		},
	}
}

func TestRunForEach(t *testing.T) {
	ctx := context.Background()
	layout := debugger.DefaultLayout()

	t.Run("visits every node in order", func(t *testing.T) {
		s := newListSession()
		n, err := debugger.RunForEach(ctx, s, layout, &debugger.ForEach{Var: "n", Container: "layers", Command: "p *$n"})
		gt.NoError(t, err)
		gt.Equal(t, n, 3)
		gt.Equal(t, len(s.bindings), 3)
		gt.Equal(t, s.bindings[0], uint64(addrNode1))
		gt.Equal(t, s.bindings[1], uint64(addrNode2))
		gt.Equal(t, s.bindings[2], uint64(addrNode3))
		gt.Equal(t, len(s.executed), 3)
		gt.Equal(t, s.executed[2], "p *$n")
	})

	t.Run("null container runs nothing", func(t *testing.T) {
		s := newListSession()
		n, err := debugger.RunForEach(ctx, s, layout, &debugger.ForEach{Var: "n", Container: "nothing", Command: "p *$n"})
		gt.NoError(t, err)
		gt.Equal(t, n, 0)
		gt.Equal(t, len(s.bindings), 0)
		gt.Equal(t, len(s.executed), 0)
	})

	t.Run("empty list runs nothing", func(t *testing.T) {
		s := newListSession()
		n, err := debugger.RunForEach(ctx, s, layout, &debugger.ForEach{Var: "n", Container: "empty", Command: "p *$n"})
		gt.NoError(t, err)
		gt.Equal(t, n, 0)
		gt.Equal(t, len(s.bindings), 0)
	})

	t.Run("evaluation failure", func(t *testing.T) {
		s := newListSession()
		_, err := debugger.RunForEach(ctx, s, layout, &debugger.ForEach{Var: "n", Container: "missing", Command: "p *$n"})
		gt.Error(t, err)
		gt.Equal(t, len(s.executed), 0)
	})

	t.Run("command failure stops the walk", func(t *testing.T) {
		s := newListSession()
		s.execErr = errors.New("Cannot access memory")
		n, err := debugger.RunForEach(ctx, s, layout, &debugger.ForEach{Var: "n", Container: "layers", Command: "p *$n"})
		gt.Error(t, err)
		gt.Equal(t, n, 0)
		gt.Equal(t, len(s.executed), 1)
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := newListSession()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := debugger.RunForEach(cctx, s, layout, &debugger.ForEach{Var: "n", Container: "layers", Command: "p *$n"})
		gt.True(t, errors.Is(err, context.Canceled))
	})
}

func TestForEachCommand(t *testing.T) {
	ctx := context.Background()
	s := newListSession()
	cmd := debugger.NewForEachCommand(s, debugger.DefaultLayout())

	gt.NoError(t, cmd(ctx, "n in layers:p $n"))
	gt.Equal(t, len(s.executed), 3)

	err := cmd(ctx, "n layers p $n")
	gt.True(t, errors.Is(err, debugger.ErrMissingIn))
}
