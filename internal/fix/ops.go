package fix

import (
	"fmt"

	"blockfix/internal/diag"
	"blockfix/internal/outline"
	"blockfix/internal/source"
)

// OpKind enumerates repair operations.
type OpKind uint8

const (
	OpInsertClose OpKind = iota
	OpReindent
	OpRelocate
)

func (k OpKind) String() string {
	switch k {
	case OpInsertClose:
		return "insert-close"
	case OpReindent:
		return "reindent"
	case OpRelocate:
		return "relocate"
	}
	return fmt.Sprintf("OpKind(%d)", uint8(k))
}

// Operation is one declarative repair step resolved against the original
// line numbering. Lines are 0-based.
type Operation struct {
	Kind  OpKind
	ID    string
	Title string
	Code  diag.Code

	// InsertClose: a line Token at Indent columns goes after AfterLine.
	// Relocate: the Span lines move after AfterLine. -1 means the top.
	AfterLine int
	Indent    int
	Block     outline.BlockID
	Token     string

	// Reindent and Relocate cover Span lines.
	Span  source.Span
	Delta int // nesting units for Reindent

	// Guard holds the expected original text of Span; empty skips the check.
	Guard []string
}

// Describe renders the operation for dry-run output.
func (op Operation) Describe() string {
	switch op.Kind {
	case OpInsertClose:
		return fmt.Sprintf("insert %q after line %d", op.Token, op.AfterLine+1)
	case OpReindent:
		return fmt.Sprintf("reindent lines %d-%d by %+d", op.Span.Start+1, op.Span.End, op.Delta)
	case OpRelocate:
		return fmt.Sprintf("move lines %d-%d after line %d", op.Span.Start+1, op.Span.End, op.AfterLine+1)
	}
	return op.Kind.String()
}

func (op Operation) start() int { return int(op.Span.Start) }
func (op Operation) end() int   { return int(op.Span.End) }
