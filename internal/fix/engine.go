package fix

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"fortio.org/safecast"

	"blockfix/internal/outline"
)

var (
	// ErrImbalanced is returned when the patched text still fails the
	// re-scan. The original lines must be kept.
	ErrImbalanced = errors.New("repair did not restore balance")
	// ErrConflict is returned for operations that overlap.
	ErrConflict = errors.New("conflicting operations")
	// ErrGuard is returned when the buffer no longer holds the text an
	// operation was planned against.
	ErrGuard = errors.New("existing text does not match expected content")
)

// Options configure Apply.
type Options struct {
	// Style renders inserted indentation and applies reindents.
	Style outline.IndentStyle
	// Scan configures the validating re-scan.
	Scan outline.Options
}

// AppliedOp records an operation that made it into the output.
type AppliedOp struct {
	ID    string
	Title string
	Kind  OpKind
	Lines int
}

// ApplyResult is the patched buffer plus what was done to it.
type ApplyResult struct {
	Lines      []string
	Applied    []AppliedOp
	Inserted   int
	Moved      int
	Reindented int
	// Outline is the re-scan of Lines.
	Outline *outline.Outline
}

// primitive is a single line edit in original coordinates.
type primitive struct {
	del   bool
	at    int      // insertion index or first deleted line
	end   int      // deletes only
	lines []string // inserted lines or expected deleted lines
	seq   int
}

// Apply runs ops against lines and returns the patched copy. lines is never
// modified. Reindents run first and keep the line count; the remaining
// operations become primitive edits applied from the bottom of the buffer
// up, so no edit shifts the anchor of one not yet applied.
func Apply(lines []string, ops []Operation, opts Options) (*ApplyResult, error) {
	res := &ApplyResult{Applied: make([]AppliedOp, 0, len(ops))}
	if err := validate(lines, ops); err != nil {
		return res, err
	}

	buf := slices.Clone(lines)
	for _, op := range ops {
		if op.Kind != OpReindent {
			continue
		}
		for i := op.start(); i < op.end(); i++ {
			buf[i] = opts.Style.Shift(buf[i], op.Delta)
		}
		res.Reindented += op.end() - op.start()
		res.Applied = append(res.Applied, AppliedOp{ID: op.ID, Title: op.Title, Kind: op.Kind, Lines: op.end() - op.start()})
	}

	prims := lower(buf, ops, opts.Style)
	if err := checkConflicts(prims); err != nil {
		return res, err
	}
	sortPrimitives(prims)

	for _, p := range prims {
		var err error
		buf, err = applyPrimitive(buf, p)
		if err != nil {
			return res, err
		}
	}

	for _, op := range ops {
		switch op.Kind {
		case OpInsertClose:
			res.Inserted++
			res.Applied = append(res.Applied, AppliedOp{ID: op.ID, Title: op.Title, Kind: op.Kind, Lines: 1})
		case OpRelocate:
			res.Moved += op.end() - op.start()
			res.Applied = append(res.Applied, AppliedOp{ID: op.ID, Title: op.Title, Kind: op.Kind, Lines: op.end() - op.start()})
		}
	}

	res.Lines = buf
	res.Outline = outline.Scan(buf, opts.Scan)
	if !res.Outline.Balanced() {
		return res, fmt.Errorf("%w: %d open block(s), %d stray close(s) after re-scan",
			ErrImbalanced, len(res.Outline.Open), res.Outline.Strays())
	}
	return res, nil
}

func validate(lines []string, ops []Operation) error {
	n := len(lines)
	var reindents []Operation
	for _, op := range ops {
		switch op.Kind {
		case OpInsertClose:
			if op.AfterLine < -1 || op.AfterLine >= n {
				return fmt.Errorf("%s: anchor line %d out of range", op.Kind, op.AfterLine+1)
			}
		case OpReindent, OpRelocate:
			if op.start() < 0 || op.end() < op.start() || op.end() > n {
				return fmt.Errorf("%s: span %s out of range", op.Kind, op.Span)
			}
			if len(op.Guard) > 0 && !slices.Equal(op.Guard, lines[op.start():op.end()]) {
				return fmt.Errorf("%w: %s over %s", ErrGuard, op.Kind, op.Span)
			}
			if op.Kind == OpRelocate {
				if op.AfterLine < -1 || op.AfterLine >= n {
					return fmt.Errorf("%s: anchor line %d out of range", op.Kind, op.AfterLine+1)
				}
				if to := op.AfterLine + 1; to > op.start() && to < op.end() {
					return fmt.Errorf("%w: %s target inside moved lines %s", ErrConflict, op.Kind, op.Span)
				}
				continue
			}
			for _, prev := range reindents {
				if prev.Span.Overlaps(op.Span) {
					return fmt.Errorf("%w: reindent %s overlaps %s", ErrConflict, op.Span, prev.Span)
				}
			}
			reindents = append(reindents, op)
		default:
			return fmt.Errorf("unknown operation kind %d", op.Kind)
		}
	}
	return nil
}

// lower converts inserts and relocations into primitive edits against buf,
// which already carries the reindents.
func lower(buf []string, ops []Operation, style outline.IndentStyle) []primitive {
	prims := make([]primitive, 0, len(ops))
	seq := 0
	for _, op := range ops {
		switch op.Kind {
		case OpInsertClose:
			prims = append(prims, primitive{
				at:    op.AfterLine + 1,
				lines: []string{style.Render(op.Indent) + op.Token},
				seq:   seq,
			})
		case OpRelocate:
			moved := slices.Clone(buf[op.start():op.end()])
			prims = append(prims, primitive{
				del:   true,
				at:    op.start(),
				end:   op.end(),
				lines: moved,
				seq:   seq,
			})
			seq++
			prims = append(prims, primitive{
				at:    op.AfterLine + 1,
				lines: moved,
				seq:   seq,
			})
		default:
			continue
		}
		seq++
	}
	return prims
}

// checkConflicts rejects overlapping deletions and insertions that land
// strictly inside a deleted range.
func checkConflicts(prims []primitive) error {
	for i := range prims {
		a := prims[i]
		if !a.del {
			continue
		}
		for j := range prims {
			if i == j {
				continue
			}
			b := prims[j]
			switch {
			case b.del && a.at < b.end && b.at < a.end:
				return fmt.Errorf("%w: moved ranges %d-%d and %d-%d overlap", ErrConflict, a.at+1, a.end, b.at+1, b.end)
			case !b.del && a.at < b.at && b.at < a.end:
				return fmt.Errorf("%w: insertion before line %d falls inside moved range %d-%d", ErrConflict, b.at+1, a.at+1, a.end)
			}
		}
	}
	return nil
}

// sortPrimitives orders edits by position descending. At one position
// deletions go first, then insertions in reverse plan order so that they
// end up in plan order.
func sortPrimitives(prims []primitive) {
	sort.SliceStable(prims, func(i, j int) bool {
		a, b := prims[i], prims[j]
		if a.at != b.at {
			return a.at > b.at
		}
		if a.del != b.del {
			return a.del
		}
		return a.seq > b.seq
	})
}

func applyPrimitive(buf []string, p primitive) ([]string, error) {
	if p.del {
		if p.end > len(buf) || !slices.Equal(buf[p.at:p.end], p.lines) {
			return buf, fmt.Errorf("%w: lines %d-%d", ErrGuard, p.at+1, p.end)
		}
		return slices.Delete(buf, p.at, p.end), nil
	}
	if p.at > len(buf) {
		return buf, fmt.Errorf("insertion at line %d beyond end of buffer", p.at+1)
	}
	return slices.Insert(buf, p.at, p.lines...), nil
}

func lineIndex(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0
	}
	return v
}
