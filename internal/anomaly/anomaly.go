// Package anomaly finds the places where block nesting in an Outline is
// broken and decides which blocks must be closed there.
package anomaly

import (
	"fmt"

	"blockfix/internal/outline"
)

// Class of a structural finding.
type Class uint8

const (
	Unclosed Class = iota
	MisnestedSibling
	StructuralAmbiguity
)

func (c Class) String() string {
	switch c {
	case Unclosed:
		return "Unclosed"
	case MisnestedSibling:
		return "MisnestedSibling"
	case StructuralAmbiguity:
		return "StructuralAmbiguity"
	}
	return fmt.Sprintf("Class(%d)", uint8(c))
}

// Anomaly is one junction where nesting breaks.
type Anomaly struct {
	Class Class
	// Line is the junction: the line that exposed the problem. It equals
	// len(lines) for end-of-file anomalies.
	Line int
	// Anchor is the line after which missing closes belong; -1 means before
	// the first line.
	Anchor int
	// Expected lists blocks that need a close here, innermost first.
	Expected []outline.BlockID
	// Opened is the block whose open line triggered the junction.
	Opened outline.BlockID
	Reason string

	// MisnestedSibling details.
	Parent   outline.BlockID   // suite the subtree wrongly sits in
	Subtree  []outline.BlockID // suites to move out, in source order
	Start    int               // first subtree line (its open line)
	End      int               // line after the subtree's last close
	Lead     int               // Start minus the blank lines preceding it
	Relocate bool              // subtree must move behind Parent's close
	Target   int               // index of the anomaly that closes Parent
}

// Result is the detector output for one file.
type Result struct {
	Outline   *outline.Outline
	Anomalies []Anomaly
	// Parents is the repaired nesting: the parent of every block once the
	// planned closes are in place.
	Parents []outline.BlockID
}

// Ambiguous reports whether any junction needs manual review.
func (r *Result) Ambiguous() bool {
	for i := range r.Anomalies {
		if r.Anomalies[i].Class == StructuralAmbiguity {
			return true
		}
	}
	return false
}

// Clean reports a file with nothing to repair.
func (r *Result) Clean() bool { return len(r.Anomalies) == 0 }

// Count returns how many anomalies of class c were found.
func (r *Result) Count(c Class) int {
	n := 0
	for i := range r.Anomalies {
		if r.Anomalies[i].Class == c {
			n++
		}
	}
	return n
}

// Missing is the number of closes the repair inserts.
func (r *Result) Missing() int {
	n := 0
	for i := range r.Anomalies {
		if r.Anomalies[i].Class == Unclosed {
			n += len(r.Anomalies[i].Expected)
		}
	}
	return n
}
