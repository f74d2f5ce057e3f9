package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"blockfix/internal/diag"
	"blockfix/internal/source"
)

type palette struct {
	err, warn, info, code, gutter, note, path *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan),
		code:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		note:   color.New(color.FgGreen),
		path:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.gutter, p.note, p.path} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>: <SEV> <CODE>: <Message>
// затем контекст строк с маркером '>' у primary, затем Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil || fs == nil {
		return
	}
	pal := newPalette(opts.Color)
	for _, d := range bag.Items() {
		if uint8(d.Severity) < opts.MinSeverity {
			continue
		}
		f := fs.Get(d.Primary.File)
		if f == nil {
			continue
		}
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			pal.path.Sprint(location(f, d.Primary, fs, opts.PathMode)),
			pal.severity(d.Severity).Sprint(d.Severity.String()),
			pal.code.Sprint(d.Code.ID()),
			d.Message,
		)
		writeContext(w, f, d.Primary, int(opts.Context), pal)
		if opts.ShowNotes {
			for _, n := range d.Notes {
				nf := fs.Get(n.Span.File)
				if nf == nil {
					continue
				}
				fmt.Fprintf(w, "  %s %s: %s\n", pal.note.Sprint("note:"), location(nf, n.Span, fs, opts.PathMode), n.Msg)
			}
		}
	}
}

func location(f *source.File, sp source.Span, fs *source.FileSet, mode PathMode) string {
	path := formatPath(f, fs, mode)
	first := sp.Start + 1
	if sp.Len() > 1 {
		return fmt.Sprintf("%s:%d-%d", path, first, sp.End)
	}
	return fmt.Sprintf("%s:%d", path, first)
}

func formatPath(f *source.File, fs *source.FileSet, mode PathMode) string {
	if mode == PathModeRelative {
		return f.FormatPath(mode.String(), fs.BaseDir())
	}
	return f.FormatPath(mode.String(), "")
}

// writeContext prints the primary lines plus ctx lines around them.
func writeContext(w io.Writer, f *source.File, sp source.Span, ctx int, pal palette) {
	if len(f.Lines) == 0 || ctx < 0 {
		return
	}
	first := int(sp.Start)
	last := int(sp.End) - 1
	if last < first {
		last = first
	}
	from := max(first-ctx, 0)
	to := min(last+ctx, len(f.Lines)-1)
	if from > to {
		return
	}
	width := len(fmt.Sprint(to + 1))
	for i := from; i <= to; i++ {
		mark := " "
		if i >= first && i <= last {
			mark = ">"
		}
		gutter := fmt.Sprintf("%s %*d |", mark, width, i+1)
		fmt.Fprintf(w, "%s %s\n", pal.gutter.Sprint(gutter), strings.TrimRight(f.Lines[i], " \t"))
	}
}
