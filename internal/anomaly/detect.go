package anomaly

import (
	"fmt"
	"strings"

	"blockfix/internal/outline"
)

// Options tune detection.
type Options struct {
	// Misnested enables MisnestedSibling detection.
	Misnested bool
}

// DefaultOptions enables every detector.
func DefaultOptions() Options { return Options{Misnested: true} }

type detector struct {
	o       *outline.Outline
	opts    Options
	stack   []outline.BlockID
	parents []outline.BlockID
	matched []bool
	closes  []int // close line of matched blocks
	out     []Anomaly
}

// Detect simulates the block stack over the outline events.
func Detect(o *outline.Outline, opts Options) *Result {
	d := &detector{
		o:       o,
		opts:    opts,
		parents: make([]outline.BlockID, len(o.Blocks)),
		matched: make([]bool, len(o.Blocks)),
		closes:  make([]int, len(o.Blocks)),
	}
	for i := range d.parents {
		d.parents[i] = outline.NoBlock
		d.closes[i] = -1
	}

	for _, ev := range o.Events {
		switch {
		case ev.Opens():
			d.open(ev)
		case ev.Kind == outline.EventClose && d.top() == ev.Block:
			d.matched[ev.Block] = true
			d.closes[ev.Block] = ev.Line
			d.stack = d.stack[:len(d.stack)-1]
		default:
			d.stray(ev)
		}
	}

	if n := len(d.stack); n > 0 {
		eof := len(o.Lines)
		d.out = append(d.out, Anomaly{
			Class:    Unclosed,
			Line:     eof,
			Anchor:   d.anchor(eof, -1),
			Expected: reversed(d.stack),
			Opened:   outline.NoBlock,
			Reason:   fmt.Sprintf("end of file with %d open block(s)", n),
			Parent:   outline.NoBlock,
		})
		d.stack = nil
	}

	res := &Result{Outline: o, Anomalies: d.out, Parents: d.parents}
	if opts.Misnested && !res.Ambiguous() {
		d.misnested(res)
	}
	return res
}

func (d *detector) top() outline.BlockID {
	if len(d.stack) == 0 {
		return outline.NoBlock
	}
	return d.stack[len(d.stack)-1]
}

// open pops every entry at the new block's indentation or deeper.
func (d *detector) open(ev outline.Event) {
	var expected []outline.BlockID
	for len(d.stack) > 0 {
		b := d.o.Block(d.top())
		if b.Indent < ev.Indent {
			break
		}
		expected = append(expected, b.ID)
		d.stack = d.stack[:len(d.stack)-1]
	}
	d.parents[ev.Block] = d.top()
	d.stack = append(d.stack, ev.Block)
	if len(expected) == 0 {
		return
	}

	opened := d.o.Block(ev.Block)
	for _, id := range expected {
		b := d.o.Block(id)
		if b.Indent == ev.Indent && canHold(b, opened) && d.emptyBody(b, ev.Line) {
			d.out = append(d.out, Anomaly{
				Class:    StructuralAmbiguity,
				Line:     ev.Line,
				Anchor:   ev.Line - 1,
				Expected: expected,
				Opened:   ev.Block,
				Reason: fmt.Sprintf("%s opens at the indentation of empty %s on line %d; it may belong to either",
					describe(opened), describe(b), b.OpenLine+1),
				Parent: outline.NoBlock,
			})
			return
		}
	}

	d.out = append(d.out, Anomaly{
		Class:    Unclosed,
		Line:     ev.Line,
		Anchor:   d.anchor(ev.Line, ev.Indent),
		Expected: expected,
		Opened:   ev.Block,
		Reason:   fmt.Sprintf("%s opens while %d block(s) are still open", describe(d.o.Block(ev.Block)), len(expected)),
		Parent:   outline.NoBlock,
	})
}

// stray handles a close line that the scanner could not pair with the top
// block. An open entry at exactly its indentation takes it; anything else is
// ambiguous.
func (d *detector) stray(ev outline.Event) {
	k := len(d.stack) - 1
	for ; k >= 0; k-- {
		ind := d.o.Block(d.stack[k]).Indent
		if ind <= ev.Indent {
			break
		}
	}
	if k < 0 || d.o.Block(d.stack[k]).Indent != ev.Indent {
		d.out = append(d.out, Anomaly{
			Class:  StructuralAmbiguity,
			Line:   ev.Line,
			Anchor: ev.Line - 1,
			Opened: outline.NoBlock,
			Reason: fmt.Sprintf("close at column %d matches no open block", ev.Indent),
			Parent: outline.NoBlock,
		})
		return
	}

	match := d.stack[k]
	expected := reversed(d.stack[k+1:])
	d.stack = d.stack[:k]
	d.matched[match] = true
	d.closes[match] = ev.Line
	if len(expected) == 0 {
		return
	}
	d.out = append(d.out, Anomaly{
		Class:    Unclosed,
		Line:     ev.Line,
		Anchor:   d.anchor(ev.Line, ev.Indent),
		Expected: expected,
		Opened:   outline.NoBlock,
		Reason: fmt.Sprintf("close of %s on line %d skips %d open block(s)",
			describe(d.o.Block(match)), ev.Line+1, len(expected)),
		Parent: outline.NoBlock,
	})
}

// canHold reports whether child could be nested in parent. Tests hold
// statements and inner callbacks, never other suites or tests.
func canHold(parent, child *outline.Block) bool {
	return parent.Kind != outline.KindTest || child.Kind == outline.KindInner
}

// emptyBody reports a block with nothing between its body line and limit.
func (d *detector) emptyBody(b *outline.Block, limit int) bool {
	for i := b.BodyLine + 1; i < limit; i++ {
		if strings.TrimSpace(d.o.Lines[i]) != "" {
			return false
		}
	}
	return true
}

// anchor finds the line after which closes for a junction go: the last
// non-blank line before it, skipping comments at or left of indent since
// they describe the junction line.
func (d *detector) anchor(junction, indent int) int {
	i := junction - 1
	for ; i >= 0; i-- {
		line := d.o.Lines[i]
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		if indent >= 0 && isComment(t) && d.o.Style.Width(line) <= indent {
			continue
		}
		break
	}
	return i
}

func isComment(t string) bool {
	return strings.HasPrefix(t, "//") || strings.HasPrefix(t, "/*") || strings.HasPrefix(t, "*")
}

func describe(b *outline.Block) string {
	if b == nil {
		return "block"
	}
	switch {
	case b.Head != "" && b.Title != "":
		return fmt.Sprintf("%s %q", b.Head, b.Title)
	case b.Head != "":
		return b.Head
	}
	return fmt.Sprintf("%s block %q", b.Kind, b.Text)
}

func reversed(ids []outline.BlockID) []outline.BlockID {
	out := make([]outline.BlockID, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}
