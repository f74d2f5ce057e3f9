package outline

import (
	"strings"
)

const defaultTabWidth = 4

// Options configure Scan.
type Options struct {
	Tokens TokenSet
	// Style supplies the tab width and, when non-zero, the indentation unit.
	Style IndentStyle
}

// pendingHead is a head whose bracket run continues on following lines.
type pendingHead struct {
	line   int
	indent int
	kind   Kind
	head   string
	text   string
	run    []byte
}

type scanner struct {
	opts    Options
	style   IndentStyle
	out     *Outline
	stack   []BlockID
	pending *pendingHead
}

// Scan walks lines once and builds their Outline. It is a pure function of
// its input.
func Scan(lines []string, opts Options) *Outline {
	style := opts.Style
	if style.TabWidth <= 0 {
		style.TabWidth = defaultTabWidth
	}
	s := &scanner{
		opts:  opts,
		style: style,
		out: &Outline{
			Lines:     lines,
			Enclosing: make([]BlockID, len(lines)),
		},
	}

	st := lexCode
	for i, line := range lines {
		var sh shape
		sh, st = analyze(line, st)
		if sh.structural() {
			s.line(i, line, sh)
		}
		s.out.Enclosing[i] = s.top()
	}

	s.out.Open = append([]BlockID(nil), s.stack...)
	indents := make([]int, 0, len(s.out.Blocks))
	for _, b := range s.out.Blocks {
		indents = append(indents, b.Indent)
	}
	s.out.Style = DetectStyle(lines, indents, style)
	return s.out
}

func (s *scanner) top() BlockID {
	if len(s.stack) == 0 {
		return NoBlock
	}
	return s.stack[len(s.stack)-1]
}

func (s *scanner) line(i int, raw string, sh shape) {
	indent := s.style.Width(raw)
	trimmed := strings.TrimSpace(raw)

	if s.pending != nil && s.continuePending(i, trimmed, sh) {
		return
	}

	switch {
	case sh.continuation():
		kind, head := KindInner, ""
		matched := s.closeAt(i, indent)
		if matched != NoBlock {
			prev := s.out.Blocks[matched]
			kind, head = prev.Kind, prev.Head
		}
		s.push(EventContinue, i, i, indent, kind, head, trimmed, sh.unclosed)
	case sh.closeLike():
		s.closeAt(i, indent)
	case sh.endsWithOpener():
		kind, head, _ := s.opts.Tokens.classifyHead(trimmed)
		s.push(EventOpen, i, i, indent, kind, head, trimmed, sh.unclosed)
	case sh.unclosed != "" && sh.danglers == "":
		kind, head, _ := s.opts.Tokens.classifyHead(trimmed)
		s.pending = &pendingHead{
			line:   i,
			indent: indent,
			kind:   kind,
			head:   head,
			text:   trimmed,
			run:    []byte(sh.unclosed),
		}
	}
}

// continuePending feeds a line into a multi-line head. It returns false when
// the line closes more than the head opened or is a recognised head itself,
// in which case the pending head is dropped and the line is handled on its
// own.
func (s *scanner) continuePending(i int, trimmed string, sh shape) bool {
	p := s.pending
	if _, _, ok := s.opts.Tokens.classifyHead(trimmed); ok || len(sh.danglers) > len(p.run) {
		s.pending = nil
		return false
	}
	p.run = p.run[:len(p.run)-len(sh.danglers)]
	p.run = append(p.run, sh.unclosed...)
	switch {
	case len(p.run) == 0:
		s.pending = nil
	case sh.endsWithOpener():
		s.pending = nil
		s.push(EventOpen, p.line, i, p.indent, p.kind, p.head, p.text, string(p.run))
	}
	return true
}

// closeAt handles a close line at indent J. It returns the popped block or
// NoBlock when the line was body content or a stray.
func (s *scanner) closeAt(i, indent int) BlockID {
	top := s.top()
	if top == NoBlock {
		s.event(EventStray, i, indent, NoBlock)
		return NoBlock
	}
	b := &s.out.Blocks[top]
	switch {
	case indent == b.Indent:
		b.Closed = true
		b.CloseLine = i
		s.stack = s.stack[:len(s.stack)-1]
		s.event(EventClose, i, indent, top)
		return top
	case indent > b.Indent:
		return NoBlock
	}
	s.event(EventStray, i, indent, NoBlock)
	return NoBlock
}

func (s *scanner) push(kind EventKind, openLine, bodyLine, indent int, bk Kind, head, text, run string) {
	id := BlockID(len(s.out.Blocks))
	closeTok := deriveClose(run, text)
	if bk != KindInner && s.opts.Tokens.Close != "" {
		closeTok = s.opts.Tokens.Close
	}
	s.out.Blocks = append(s.out.Blocks, Block{
		ID:         id,
		Kind:       bk,
		Head:       head,
		Title:      firstString(text),
		Text:       text,
		OpenLine:   openLine,
		BodyLine:   bodyLine,
		Indent:     indent,
		Parent:     s.top(),
		CloseLine:  -1,
		CloseToken: closeTok,
	})
	s.stack = append(s.stack, id)
	s.event(kind, openLine, indent, id)
}

func (s *scanner) event(kind EventKind, line, indent int, id BlockID) {
	s.out.Events = append(s.out.Events, Event{Kind: kind, Line: line, Indent: indent, Block: id})
}
