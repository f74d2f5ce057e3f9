package anomaly

import (
	"fmt"

	"fortio.org/safecast"

	"blockfix/internal/diag"
	"blockfix/internal/outline"
	"blockfix/internal/source"
)

// Report emits one diagnostic per anomaly. Unclosed and MisnestedSibling
// findings are informational since the planner repairs them; ambiguities
// are errors.
func (r *Result) Report(rep diag.Reporter, file source.FileID) {
	for i := range r.Anomalies {
		a := &r.Anomalies[i]
		at := source.At(file, lineIndex(a.Line))
		var b *diag.ReportBuilder
		switch a.Class {
		case Unclosed:
			b = diag.ReportInfo(rep, diag.BlkUnclosed, at, a.Reason)
			for _, id := range a.Expected {
				blk := r.Outline.Block(id)
				b = b.WithNote(source.At(file, lineIndex(blk.OpenLine)),
					fmt.Sprintf("%s opened here, missing %q", describe(blk), blk.CloseToken))
			}
		case MisnestedSibling:
			b = diag.ReportInfo(rep, diag.BlkMisnestedSibling,
				source.LineSpan(file, lineIndex(a.Start), lineIndex(a.End)), a.Reason)
			parent := r.Outline.Block(a.Parent)
			b = b.WithNote(source.At(file, lineIndex(parent.OpenLine)), describe(parent)+" opened here")
		case StructuralAmbiguity:
			b = diag.ReportError(rep, diag.BlkStructuralAmbiguity, at, a.Reason)
			for _, id := range a.Expected {
				blk := r.Outline.Block(id)
				b = b.WithNote(source.At(file, lineIndex(blk.OpenLine)), "candidate "+describe(blk))
			}
		}
		b.Emit()
	}
}

// Blocks renders the expected list of an anomaly for logs.
func (r *Result) Blocks(ids []outline.BlockID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, describe(r.Outline.Block(id)))
	}
	return out
}

func lineIndex(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0
	}
	return v
}
