package anomaly

import (
	"fmt"
	"slices"
	"strings"

	"blockfix/internal/outline"
)

// misnested looks for suites whose own close is missing and whose tail of
// child suites starts right after an earlier junction inside them. Those
// child suites are really siblings that ended up one level too deep.
func (d *detector) misnested(res *Result) {
	seen := make(map[outline.BlockID]bool)
	for a2 := range res.Anomalies {
		if res.Anomalies[a2].Class != Unclosed {
			continue
		}
		for _, p := range slices.Clone(res.Anomalies[a2].Expected) {
			parent := d.o.Block(p)
			if parent.Kind != outline.KindSuite || d.parents[p] == outline.NoBlock || seen[p] {
				continue
			}
			if d.splitParent(res, a2, p) {
				seen[p] = true
			}
		}
	}

	// drop junctions whose only close moved elsewhere
	keep := make([]Anomaly, 0, len(res.Anomalies))
	remap := make([]int, len(res.Anomalies))
	for i, a := range res.Anomalies {
		remap[i] = len(keep)
		if a.Class == Unclosed && len(a.Expected) == 0 {
			continue
		}
		keep = append(keep, a)
	}
	for i := range keep {
		if keep[i].Class == MisnestedSibling {
			keep[i].Target = remap[keep[i].Target]
		}
	}
	res.Anomalies = keep
	res.Parents = d.parents
}

func (d *detector) splitParent(res *Result, a2 int, p outline.BlockID) bool {
	for a1 := 0; a1 < a2; a1++ {
		j := &res.Anomalies[a1]
		if j.Class != Unclosed || j.Opened == outline.NoBlock {
			continue
		}
		n := d.o.Block(j.Opened)
		if n.Kind != outline.KindSuite || d.parents[n.ID] != p {
			continue
		}
		run, trailing := d.suiteRun(p, n.ID)
		if len(run) == 0 {
			return false
		}

		start := n.OpenLine
		end := d.closes[run[len(run)-1]] + 1
		lead := start
		for lead-1 > j.Anchor && strings.TrimSpace(d.o.Lines[lead-1]) == "" {
			lead--
		}
		parent := d.o.Block(p)
		mis := Anomaly{
			Class:   MisnestedSibling,
			Line:    j.Line,
			Anchor:  j.Anchor,
			Opened:  n.ID,
			Parent:  p,
			Subtree: run,
			Start:   start,
			End:     end,
			Lead:    lead,
			Target:  a2,
		}
		if trailing {
			mis.Relocate = true
			mis.Reason = fmt.Sprintf("%d suite(s) from line %d sit inside %s but belong after it",
				len(run), start+1, describe(parent))
		} else {
			exp := res.Anomalies[a2].Expected
			res.Anomalies[a2].Expected = slices.DeleteFunc(slices.Clone(exp), func(id outline.BlockID) bool { return id == p })
			j.Expected = append(j.Expected, p)
			mis.Target = a1
			mis.Reason = fmt.Sprintf("%s should close before line %d; %d suite(s) after it are siblings",
				describe(parent), j.Line+1, len(run))
		}
		for _, id := range run {
			d.parents[id] = d.parents[p]
		}
		res.Anomalies = append(res.Anomalies, mis)
		return true
	}
	return false
}

// suiteRun returns the consecutive closed suite children of p starting at
// first, and whether p has further children after them.
func (d *detector) suiteRun(p, first outline.BlockID) (run []outline.BlockID, trailing bool) {
	var children []outline.BlockID
	for i := range d.parents {
		if d.parents[i] == p {
			children = append(children, outline.BlockID(i))
		}
	}
	at := slices.Index(children, first)
	if at < 0 {
		return nil, false
	}
	k := at
	for ; k < len(children); k++ {
		b := d.o.Block(children[k])
		if b.Kind != outline.KindSuite || !d.matched[b.ID] {
			break
		}
	}
	return children[at:k], k < len(children)
}
