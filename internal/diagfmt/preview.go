package diagfmt

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

type editKind uint8

const (
	editEqual editKind = iota
	editDelete
	editInsert
)

type lineEdit struct {
	kind editKind
	text string
}

type hunk struct {
	from, to int // индексы в edits, [from, to)
}

// Preview writes a unified line diff between before and after and reports
// whether anything differs. Nothing is written for identical input.
func Preview(w io.Writer, path string, before, after []string, opts PreviewOpts) bool {
	edits := diffLines(before, after, opts.Timeout)
	hs := hunks(edits, max(opts.Context, 0))
	if len(hs) == 0 {
		return false
	}

	del := color.New(color.FgRed)
	ins := color.New(color.FgGreen)
	head := color.New(color.FgCyan)
	for _, c := range []*color.Color{del, ins, head} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	// позиции строк перед каждым edit
	oldAt := make([]int, len(edits)+1)
	newAt := make([]int, len(edits)+1)
	for i, e := range edits {
		oldAt[i+1], newAt[i+1] = oldAt[i], newAt[i]
		if e.kind != editInsert {
			oldAt[i+1]++
		}
		if e.kind != editDelete {
			newAt[i+1]++
		}
	}

	fmt.Fprintf(w, "--- %s\n+++ %s\n", path, path)
	for _, h := range hs {
		oldCount := oldAt[h.to] - oldAt[h.from]
		newCount := newAt[h.to] - newAt[h.from]
		head.Fprintf(w, "@@ -%d,%d +%d,%d @@\n", oldAt[h.from]+1, oldCount, newAt[h.from]+1, newCount)
		for _, e := range edits[h.from:h.to] {
			switch e.kind {
			case editEqual:
				fmt.Fprintf(w, " %s\n", e.text)
			case editDelete:
				del.Fprintf(w, "-%s\n", e.text)
			case editInsert:
				ins.Fprintf(w, "+%s\n", e.text)
			}
		}
	}
	return true
}

// diffLines diffs a and b line by line: every distinct line becomes one
// rune, so the character diff is a line diff.
func diffLines(a, b []string, timeout time.Duration) []lineEdit {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = timeout
	ca, cb, table := dmp.DiffLinesToChars(joinLines(a), joinLines(b))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), table)

	out := make([]lineEdit, 0, len(a)+len(b))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		kind := editEqual
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			kind = editDelete
		case diffmatchpatch.DiffInsert:
			kind = editInsert
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			out = append(out, lineEdit{kind, line})
		}
	}
	return out
}

// joinLines terminates every line so the last one diffs like the others.
func joinLines(lines []string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// hunks groups changes whose gap is at most 2*ctx equal lines.
func hunks(edits []lineEdit, ctx int) []hunk {
	var hs []hunk
	for i := 0; i < len(edits); {
		if edits[i].kind == editEqual {
			i++
			continue
		}
		start := max(i-ctx, 0)
		end := i
		for end < len(edits) {
			if edits[end].kind != editEqual {
				end++
				continue
			}
			k := end
			for k < len(edits) && edits[k].kind == editEqual {
				k++
			}
			if k == len(edits) || k-end > 2*ctx {
				break
			}
			end = k
		}
		stop := min(end+ctx, len(edits))
		hs = append(hs, hunk{from: start, to: stop})
		i = stop
	}
	return hs
}
