package outline

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// TokenSet names the block heads the scanner recognises. Keywords are data:
// any identifier that starts a call whose callback opens a body can be listed.
type TokenSet struct {
	Suites []string
	Tests  []string
	// Close overrides the synthesized close line for suites and tests.
	// Empty means "derive from the bracket run of the open line".
	Close string
}

// ErrInvalidTokens is returned by Validate.
var ErrInvalidTokens = errors.New("invalid token set")

var identRe = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

// headRe matches `await? ident(.ident)* (` at the start of a trimmed line.
var headRe = regexp.MustCompile(`^(?:await\s+)?([A-Za-z_$][\w$]*)(?:\.[A-Za-z_$][\w$]*)*\s*\(`)

// DefaultTokens covers jest/mocha/vitest style test files.
func DefaultTokens() TokenSet {
	return TokenSet{
		Suites: []string{"describe", "context", "suite"},
		Tests:  []string{"it", "test", "beforeEach", "afterEach", "beforeAll", "afterAll", "before", "after"},
	}
}

// Validate checks keywords are identifiers and do not overlap.
func (ts TokenSet) Validate() error {
	if len(ts.Suites) == 0 {
		return fmt.Errorf("%w: no suite keywords", ErrInvalidTokens)
	}
	seen := make(map[string]bool, len(ts.Suites)+len(ts.Tests))
	for _, kw := range append(slices.Clone(ts.Suites), ts.Tests...) {
		if !identRe.MatchString(kw) {
			return fmt.Errorf("%w: %q is not an identifier", ErrInvalidTokens, kw)
		}
		if seen[kw] {
			return fmt.Errorf("%w: %q listed twice", ErrInvalidTokens, kw)
		}
		seen[kw] = true
	}
	if ts.Close != "" && !isCloseText(ts.Close) {
		return fmt.Errorf("%w: close token %q must consist of closing brackets", ErrInvalidTokens, ts.Close)
	}
	return nil
}

// classifyHead returns the block kind and keyword for a trimmed line that
// starts with a recognised head call.
func (ts TokenSet) classifyHead(trimmed string) (Kind, string, bool) {
	m := headRe.FindStringSubmatch(trimmed)
	if m == nil {
		return KindInner, "", false
	}
	switch {
	case slices.Contains(ts.Suites, m[1]):
		return KindSuite, m[1], true
	case slices.Contains(ts.Tests, m[1]):
		return KindTest, m[1], true
	}
	return KindInner, "", false
}

func isCloseText(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || !isCloser(s[0]) {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isCloser(c) && c != ';' && c != ',' && c != ' ' {
			return false
		}
	}
	return true
}
