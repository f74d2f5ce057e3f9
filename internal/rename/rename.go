// Package rename rewrites dotted field paths such as response.body.location
// without touching longer identifiers that share a prefix.
package rename

import (
	"errors"
	"fmt"
	"strings"

	"fortio.org/safecast"

	"blockfix/internal/diag"
	"blockfix/internal/source"
)

// ErrInvalidPair is returned by Validate.
var ErrInvalidPair = errors.New("invalid rename pair")

// Pair maps an old field path to a new one.
type Pair struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

func (p Pair) String() string { return p.From + " -> " + p.To }

// Validate rejects empty paths and no-op pairs.
func Validate(pairs []Pair) error {
	for i, p := range pairs {
		if p.From == "" || p.To == "" {
			return fmt.Errorf("%w #%d: empty path", ErrInvalidPair, i+1)
		}
		if p.From == p.To {
			return fmt.Errorf("%w #%d: %q maps to itself", ErrInvalidPair, i+1, p.From)
		}
	}
	return nil
}

// Hit is one rewritten occurrence.
type Hit struct {
	Pair int // index into pairs
	Line int // 0-based
	Col  int // byte offset in the line before the rewrite
}

// Result of Apply.
type Result struct {
	Lines  []string
	Hits   []Hit
	Counts []int // per pair
}

// Changed reports whether anything was rewritten.
func (r *Result) Changed() bool { return len(r.Hits) > 0 }

// Apply runs pairs in order over lines. Each pair sees the output of the
// previous one.
func Apply(lines []string, pairs []Pair) *Result {
	res := &Result{
		Lines:  append([]string(nil), lines...),
		Counts: make([]int, len(pairs)),
	}
	for pi, p := range pairs {
		for li, line := range res.Lines {
			out, cols := replace(line, p.From, p.To)
			if len(cols) == 0 {
				continue
			}
			res.Lines[li] = out
			res.Counts[pi] += len(cols)
			for _, c := range cols {
				res.Hits = append(res.Hits, Hit{Pair: pi, Line: li, Col: c})
			}
		}
	}
	return res
}

// Report emits one info diagnostic per rewritten line.
func (r *Result) Report(rep diag.Reporter, file source.FileID, pairs []Pair) {
	last := -1
	for _, h := range r.Hits {
		key := h.Line*len(pairs) + h.Pair
		if key == last {
			continue
		}
		last = key
		line, err := safecast.Conv[uint32](h.Line)
		if err != nil {
			continue
		}
		diag.ReportInfo(rep, diag.RenApplied, source.At(file, line), pairs[h.Pair].String()).Emit()
	}
}

// replace rewrites every bounded occurrence of from in s.
func replace(s, from, to string) (string, []int) {
	if !strings.Contains(s, from) {
		return s, nil
	}
	var b strings.Builder
	var cols []int
	i := 0
	for i < len(s) {
		j := strings.Index(s[i:], from)
		if j < 0 {
			break
		}
		at := i + j
		end := at + len(from)
		if bounded(s, at, end) {
			b.WriteString(s[i:at])
			b.WriteString(to)
			cols = append(cols, at)
			i = end
			continue
		}
		b.WriteString(s[i : at+1])
		i = at + 1
	}
	if len(cols) == 0 {
		return s, nil
	}
	b.WriteString(s[i:])
	return b.String(), cols
}

// bounded checks that s[at:end] is not glued to a longer identifier on
// either side. A following `.` continues the path and is allowed.
func bounded(s string, at, end int) bool {
	if at > 0 && isIdent(s[at-1]) {
		return false
	}
	if end < len(s) && isIdent(s[end]) {
		return false
	}
	return true
}

func isIdent(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
