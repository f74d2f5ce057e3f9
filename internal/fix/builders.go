package fix

import (
	"blockfix/internal/diag"
	"blockfix/internal/outline"
	"blockfix/internal/source"
)

// Option mutates an operation during construction.
type Option func(*Operation)

// WithID sets a stable identifier.
func WithID(id string) Option {
	return func(op *Operation) {
		op.ID = id
	}
}

// WithTitle overrides the human readable title.
func WithTitle(title string) Option {
	return func(op *Operation) {
		op.Title = title
	}
}

// WithCode attaches the diagnostic code that motivated the operation.
func WithCode(code diag.Code) Option {
	return func(op *Operation) {
		op.Code = code
	}
}

// WithGuard records the text the covered lines must still have when the
// operation is applied.
func WithGuard(lines []string) Option {
	return func(op *Operation) {
		op.Guard = append([]string(nil), lines...)
	}
}

func applyOptions(op Operation, opts []Option) Operation {
	for _, opt := range opts {
		if opt != nil {
			opt(&op)
		}
	}
	return op
}

// InsertClose builds an operation adding the close line of block after line.
func InsertClose(file source.FileID, after, indent int, block outline.BlockID, token string, opts ...Option) Operation {
	op := Operation{
		Kind:      OpInsertClose,
		Title:     "insert missing close",
		Code:      diag.BlkUnclosed,
		AfterLine: after,
		Indent:    indent,
		Block:     block,
		Token:     token,
		Span:      source.At(file, lineIndex(after+1)),
	}
	return applyOptions(op, opts)
}

// Reindent shifts the leading whitespace of span by delta nesting units.
func Reindent(span source.Span, delta int, opts ...Option) Operation {
	op := Operation{
		Kind:      OpReindent,
		Title:     "reindent misnested subtree",
		Code:      diag.BlkMisnestedSibling,
		AfterLine: -1,
		Block:     outline.NoBlock,
		Span:      span,
		Delta:     delta,
	}
	return applyOptions(op, opts)
}

// Relocate moves span so that it follows line after.
func Relocate(span source.Span, after int, opts ...Option) Operation {
	op := Operation{
		Kind:      OpRelocate,
		Title:     "move subtree behind its parent",
		Code:      diag.BlkMisnestedSibling,
		AfterLine: after,
		Block:     outline.NoBlock,
		Span:      span,
	}
	return applyOptions(op, opts)
}
