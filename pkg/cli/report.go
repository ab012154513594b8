package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// palette renders report lines, optionally without ANSI colors
type palette struct {
	w     io.Writer
	title *color.Color
	ok    *color.Color
	warn  *color.Color
	bad   *color.Color
}

func newPalette(w io.Writer, noColor bool) *palette {
	p := &palette{
		w:     w,
		title: color.New(color.Bold),
		ok:    color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		bad:   color.New(color.FgRed, color.Bold),
	}
	if noColor {
		for _, c := range []*color.Color{p.title, p.ok, p.warn, p.bad} {
			c.DisableColor()
		}
	}
	return p
}

func (p *palette) line(c *color.Color, format string, args ...any) {
	_, _ = c.Fprintf(p.w, format, args...)
	_, _ = fmt.Fprintln(p.w)
}

func (p *palette) plain(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}
