package testkit

import (
	"fmt"
	"strings"

	"blockfix/internal/outline"
)

// CheckRepairInvariants runs the structural invariants on repaired text:
// 1) the open-block stack is empty at end of file and no close is stray
// 2) per nesting level, opens equal closes
// 3) every close line sits at exactly its block's indentation
func CheckRepairInvariants(lines []string, opts outline.Options) error {
	o := outline.Scan(lines, opts)
	if err := CheckBalance(o); err != nil {
		return err
	}
	if err := CheckCountLaw(o); err != nil {
		return err
	}
	return CheckCloseIndent(o)
}

// CheckBalance verifies an empty stack at end of file.
func CheckBalance(o *outline.Outline) error {
	if len(o.Open) > 0 {
		b := o.Block(o.Open[len(o.Open)-1])
		return fmt.Errorf("%d block(s) open at end of file, innermost %q on line %d", len(o.Open), b.Text, b.OpenLine+1)
	}
	if n := o.Strays(); n > 0 {
		return fmt.Errorf("%d stray close line(s)", n)
	}
	return nil
}

// CheckCountLaw verifies opens and closes match for every nesting level.
func CheckCountLaw(o *outline.Outline) error {
	opens, closes := o.CountsByLevel()
	for lvl, n := range opens {
		if closes[lvl] != n {
			return fmt.Errorf("level %d: %d open(s), %d close(s)", lvl, n, closes[lvl])
		}
	}
	return nil
}

// CheckCloseIndent verifies each close line is indented like its open line.
func CheckCloseIndent(o *outline.Outline) error {
	for i := range o.Blocks {
		b := &o.Blocks[i]
		if !b.Closed {
			continue
		}
		if got := o.Style.Width(o.Lines[b.CloseLine]); got != b.Indent {
			return fmt.Errorf("close of %q on line %d at column %d, want %d",
				strings.TrimSpace(b.Text), b.CloseLine+1, got, b.Indent)
		}
	}
	return nil
}

// Lines splits a test fixture, dropping one leading newline.
func Lines(text string) []string {
	return strings.Split(strings.TrimPrefix(text, "\n"), "\n")
}
