package source

import (
	"fmt"
)

// Span is a half-open range of 0-based line indices within one file.
type Span struct {
	File  FileID
	Start uint32 // первая строка, включительно
	End   uint32 // строка после последней, не включительно
}

// LineSpan returns a span covering lines [start, end).
func LineSpan(file FileID, start, end uint32) Span {
	return Span{File: file, Start: start, End: end}
}

// At returns an empty span anchored before line.
func At(file FileID, line uint32) Span {
	return Span{File: file, Start: line, End: line}
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

// String renders the span with 1-based line numbers.
func (s Span) String() string {
	if s.Empty() || s.Len() == 1 {
		return fmt.Sprintf("%d:%d", s.File, s.Start+1)
	}
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start+1, s.End)
}

func (s Span) Contains(line uint32) bool {
	return s.Start <= line && line < s.End
}

// Overlaps reports whether two non-empty spans share a line.
func (s Span) Overlaps(other Span) bool {
	if s.File != other.File || s.Empty() || other.Empty() {
		return false
	}
	return s.Start < other.End && other.Start < s.End
}

func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}
