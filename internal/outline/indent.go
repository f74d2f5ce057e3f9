package outline

import (
	"strings"
)

const defaultUnit = 2

// IndentStyle describes how a file indents nesting levels.
type IndentStyle struct {
	Unit     int  // columns per nesting level
	TabWidth int  // columns a tab advances
	UseTabs  bool // render indentation with tabs
}

// Width measures the leading whitespace of line in columns.
func (s IndentStyle) Width(line string) int {
	tab := s.tabWidth()
	cols := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
			cols++
		case '\t':
			cols += tab - cols%tab
		default:
			return cols
		}
	}
	return cols
}

// Render produces leading whitespace for cols columns.
func (s IndentStyle) Render(cols int) string {
	if cols <= 0 {
		return ""
	}
	if !s.UseTabs {
		return strings.Repeat(" ", cols)
	}
	tab := s.tabWidth()
	return strings.Repeat("\t", cols/tab) + strings.Repeat(" ", cols%tab)
}

// Shift rewrites the leading whitespace of line by delta nesting levels.
// Blank lines are returned unchanged; indentation never drops below column 0.
func (s IndentStyle) Shift(line string, delta int) string {
	if strings.TrimSpace(line) == "" {
		return line
	}
	body := strings.TrimLeft(line, " \t")
	cols := s.Width(line) + delta*s.unit()
	return s.Render(cols) + body
}

func (s IndentStyle) unit() int {
	if s.Unit <= 0 {
		return defaultUnit
	}
	return s.Unit
}

func (s IndentStyle) tabWidth() int {
	if s.TabWidth <= 0 {
		return s.unit()
	}
	return s.TabWidth
}

// DetectStyle infers the indentation unit from block-open indentations and
// the indentation character from the majority of indented lines. A non-zero
// unit in base wins over detection.
func DetectStyle(lines []string, openIndents []int, base IndentStyle) IndentStyle {
	style := base
	tabs, spaces := 0, 0
	for _, line := range lines {
		if line == "" || strings.TrimSpace(line) == "" {
			continue
		}
		switch line[0] {
		case '\t':
			tabs++
		case ' ':
			spaces++
		}
	}
	style.UseTabs = tabs > spaces

	if style.Unit > 0 {
		return style
	}
	g := 0
	for _, ind := range openIndents {
		if ind > 0 {
			g = gcd(g, ind)
		}
	}
	if g == 0 {
		g = defaultUnit
	}
	style.Unit = g
	return style
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
