// Package plan turns detected anomalies into repair operations.
package plan

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"blockfix/internal/anomaly"
	"blockfix/internal/diag"
	"blockfix/internal/fix"
	"blockfix/internal/outline"
	"blockfix/internal/source"
)

// ErrAmbiguous is returned for files with a StructuralAmbiguity.
var ErrAmbiguous = errors.New("structural ambiguity")

// Plan is the ordered operation list for one file.
type Plan struct {
	File      source.FileID
	Detection *anomaly.Result
	Ops       []fix.Operation
}

// Empty reports a plan with nothing to do.
func (p *Plan) Empty() bool { return p == nil || len(p.Ops) == 0 }

// Closes counts planned close insertions.
func (p *Plan) Closes() int {
	n := 0
	for _, op := range p.Ops {
		if op.Kind == fix.OpInsertClose {
			n++
		}
	}
	return n
}

// Build computes operations for res. Every anchor comes from the outline;
// nothing here depends on fixed line numbers. Reindents come first, then
// inserts and relocations grouped by junction, innermost close first.
func Build(res *anomaly.Result, file source.FileID) (*Plan, error) {
	p := &Plan{File: file, Detection: res}
	if res.Ambiguous() {
		for _, a := range res.Anomalies {
			if a.Class == anomaly.StructuralAmbiguity {
				return p, fmt.Errorf("%w at line %d: %s", ErrAmbiguous, a.Line+1, a.Reason)
			}
		}
	}

	o := res.Outline
	unit := o.Style.Unit
	var shifts []anomaly.Anomaly
	for _, a := range res.Anomalies {
		if a.Class != anomaly.MisnestedSibling {
			continue
		}
		shifts = append(shifts, a)
		span := lineSpan(file, a.Start, a.End)
		p.Ops = append(p.Ops, fix.Reindent(span, -1,
			fix.WithID(fmt.Sprintf("reindent-%d", a.Start+1)),
			fix.WithGuard(o.Lines[a.Start:a.End]),
		))
	}

	indentOf := func(b *outline.Block) int {
		ind := b.Indent
		for _, s := range shifts {
			if b.OpenLine >= s.Start && b.OpenLine < s.End {
				ind -= unit
			}
		}
		return max(ind, 0)
	}

	for idx, a := range res.Anomalies {
		if a.Class != anomaly.Unclosed {
			continue
		}
		for _, id := range a.Expected {
			b := o.Block(id)
			p.Ops = append(p.Ops, fix.InsertClose(file, a.Anchor, indentOf(b), id, b.CloseToken,
				fix.WithID(fmt.Sprintf("close-%d-%d", b.OpenLine+1, a.Line+1)),
				fix.WithTitle(fmt.Sprintf("close %s %q opened on line %d", b.Kind, b.Title, b.OpenLine+1)),
			))
			for _, s := range shifts {
				if !s.Relocate || s.Parent != id || s.Target != idx {
					continue
				}
				p.Ops = append(p.Ops, fix.Relocate(lineSpan(file, s.Lead, s.End), a.Anchor,
					fix.WithID(fmt.Sprintf("move-%d", s.Start+1)),
					fix.WithCode(diag.BlkMisnestedSibling),
				))
			}
		}
	}
	return p, nil
}

func lineSpan(file source.FileID, start, end int) source.Span {
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		s = 0
	}
	e, err := safecast.Conv[uint32](end)
	if err != nil {
		e = s
	}
	return source.LineSpan(file, s, e)
}
