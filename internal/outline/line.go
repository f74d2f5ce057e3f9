package outline

import (
	"regexp"
	"strings"
)

// lexState carries multi-line lexical context between lines.
type lexState uint8

const (
	lexCode lexState = iota
	lexBlockComment
	lexTemplate
)

// shape is the bracket-level summary of one line with strings and comments
// masked out.
type shape struct {
	blank     bool   // raw line is whitespace only
	masked    string // trimmed text outside strings/comments
	danglers  string // closers that match openers from earlier lines, in order
	unclosed  string // openers left open at end of line, outermost first
	leadClose bool   // first significant char is a closer
}

func isOpener(c byte) bool { return c == '(' || c == '[' || c == '{' }
func isCloser(c byte) bool { return c == ')' || c == ']' || c == '}' }

func closerFor(c byte) byte {
	switch c {
	case '(':
		return ')'
	case '[':
		return ']'
	case '{':
		return '}'
	}
	return 0
}

// analyze masks strings/comments in text and computes its bracket shape.
func analyze(text string, st lexState) (shape, lexState) {
	var sh shape
	if strings.TrimSpace(text) == "" {
		sh.blank = true
		return sh, st
	}

	var masked strings.Builder
	var stack []byte
	var dangle []byte
	var quote byte
	var last byte // last significant code byte written

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch st {
		case lexBlockComment:
			if c == '*' && i+1 < len(text) && text[i+1] == '/' {
				st = lexCode
				i++
			}
			continue
		case lexTemplate:
			if c == '\\' {
				i++
				continue
			}
			if c == '`' {
				st = lexCode
				masked.WriteByte('`')
				last = c
			}
			continue
		}

		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
				masked.WriteByte(c)
				last = c
			}
			continue
		}

		switch {
		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			i = len(text)
			continue
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			st = lexBlockComment
			i++
			continue
		case c == '/' && regexAllowed(last, masked.String()):
			if end := regexEnd(text, i); end > 0 {
				masked.WriteString("//")
				last = '/'
				i = end
				continue
			}
		case c == '`':
			st = lexTemplate
			masked.WriteByte(c)
			continue
		case c == '\'' || c == '"':
			quote = c
			masked.WriteByte(c)
			continue
		case isOpener(c):
			stack = append(stack, c)
		case isCloser(c):
			if n := len(stack); n > 0 && closerFor(stack[n-1]) == c {
				stack = stack[:n-1]
			} else {
				dangle = append(dangle, c)
			}
		}
		masked.WriteByte(c)
		if c != ' ' && c != '\t' {
			last = c
		}
	}

	sh.masked = strings.TrimSpace(masked.String())
	sh.danglers = string(dangle)
	sh.unclosed = string(stack)
	sh.leadClose = sh.masked != "" && isCloser(sh.masked[0])
	return sh, st
}

// regexAllowed reports whether a '/' after last starts a regex literal
// rather than a division.
func regexAllowed(last byte, masked string) bool {
	if last == 0 {
		return true
	}
	if strings.IndexByte("(,=:[!&|?{;+-*%<>~^", last) >= 0 {
		return true
	}
	if isIdentByte(last) {
		t := strings.TrimRight(masked, " \t")
		j := len(t)
		for j > 0 && isIdentByte(t[j-1]) {
			j--
		}
		switch t[j:] {
		case "return", "typeof", "case", "void", "in", "of", "delete", "throw", "yield", "await":
			return true
		}
	}
	return false
}

// regexEnd returns the index of the slash closing the regex literal opened
// at text[start], or -1 when the line has none.
func regexEnd(text string, start int) int {
	inClass := false
	for j := start + 1; j < len(text); j++ {
		switch c := text[j]; {
		case c == '\\':
			j++
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '/':
			return j
		}
	}
	return -1
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// endsWithOpener reports whether the line's last significant character opens
// a bracket that stays open.
func (sh shape) endsWithOpener() bool {
	if sh.unclosed == "" || sh.masked == "" {
		return false
	}
	return isOpener(sh.masked[len(sh.masked)-1])
}

// structural reports whether the line has any code outside strings and
// comments.
func (sh shape) structural() bool { return sh.masked != "" }

// closeLike reports lines that start by closing earlier openers and open
// nothing new, e.g. `});`, `}, 10000);` or `}).expect(200);`.
func (sh shape) closeLike() bool {
	return sh.leadClose && sh.danglers != "" && sh.unclosed == ""
}

// continuation reports `} else {` style lines: close then reopen.
func (sh shape) continuation() bool {
	return sh.leadClose && sh.danglers != "" && sh.endsWithOpener()
}

var (
	propertyRe   = regexp.MustCompile(`^[\w$'"\[\]]+\s*:`)
	assignmentRe = regexp.MustCompile(`(^|[^=!<>])=\s*[\[{(]+$`)
	stringLitRe  = regexp.MustCompile(`'([^'\\]*(?:\\.[^'\\]*)*)'|"([^"\\]*(?:\\.[^"\\]*)*)"|` + "`([^`]*)`")
)

// deriveClose builds the close line text for an open run: the reversed
// closers plus a statement terminator guessed from the head line.
func deriveClose(run, trimmed string) string {
	if run == "" {
		return ""
	}
	var b strings.Builder
	for i := len(run) - 1; i >= 0; i-- {
		b.WriteByte(closerFor(run[i]))
	}
	switch {
	case strings.HasPrefix(trimmed, "."):
	case propertyRe.MatchString(trimmed):
		b.WriteByte(',')
	case run[0] == '(':
		b.WriteByte(';')
	case assignmentRe.MatchString(trimmed):
		b.WriteByte(';')
	}
	return b.String()
}

// firstString returns the first string literal on a line, used as a title.
func firstString(trimmed string) string {
	m := stringLitRe.FindStringSubmatch(trimmed)
	if m == nil {
		return ""
	}
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
