package fix

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"blockfix/internal/outline"
	"blockfix/internal/source"
)

func testOptions() Options {
	return Options{
		Style: outline.IndentStyle{Unit: 2, TabWidth: 4},
		Scan:  outline.Options{Tokens: outline.DefaultTokens()},
	}
}

func TestApplyInsertsKeepPlanOrder(t *testing.T) {
	lines := []string{
		"describe('a', () => {",
		"  it('x', () => {",
		"    foo();",
	}
	ops := []Operation{
		InsertClose(0, 2, 2, 1, "});"),
		InsertClose(0, 2, 0, 0, "});"),
	}
	res, err := Apply(lines, ops, testOptions())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := append(slices.Clone(lines), "  });", "});")
	if diff := cmp.Diff(want, res.Lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	if res.Inserted != 2 || len(res.Applied) != 2 {
		t.Fatalf("stats = %+v", res)
	}
	if len(lines) != 3 {
		t.Fatal("input slice modified")
	}
}

func TestApplyRelocateBehindInsertedClose(t *testing.T) {
	lines := []string{
		"describe('a', () => {",
		"  describe('b', () => {",
		"    describe('c', () => {",
		"    });",
		"    it('x', () => {});",
		"});",
	}
	moved := source.LineSpan(0, 2, 4)
	ops := []Operation{
		Reindent(moved, -1, WithGuard(lines[2:4])),
		InsertClose(0, 4, 2, 1, "});"),
		Relocate(moved, 4),
	}
	res, err := Apply(lines, ops, testOptions())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := []string{
		"describe('a', () => {",
		"  describe('b', () => {",
		"    it('x', () => {});",
		"  });",
		"  describe('c', () => {",
		"  });",
		"});",
	}
	if diff := cmp.Diff(want, res.Lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	if res.Moved != 2 || res.Reindented != 2 {
		t.Fatalf("stats moved=%d reindented=%d", res.Moved, res.Reindented)
	}
}

func TestApplyConflict(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e"}
	ops := []Operation{
		Relocate(source.LineSpan(0, 1, 4), 4),
		InsertClose(0, 1, 0, 0, "}"),
	}
	if _, err := Apply(lines, ops, testOptions()); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	ops = []Operation{Relocate(source.LineSpan(0, 1, 4), 1)}
	if _, err := Apply(lines, ops, testOptions()); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for target inside range, got %v", err)
	}

	ops = []Operation{
		Reindent(source.LineSpan(0, 0, 3), -1),
		Reindent(source.LineSpan(0, 2, 4), -1),
	}
	if _, err := Apply(lines, ops, testOptions()); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for overlapping reindents, got %v", err)
	}
}

func TestApplyGuard(t *testing.T) {
	lines := []string{"describe('a', () => {", "});"}
	ops := []Operation{Reindent(source.LineSpan(0, 0, 1), -1, WithGuard([]string{"it('b', () => {"}))}
	if _, err := Apply(lines, ops, testOptions()); !errors.Is(err, ErrGuard) {
		t.Fatalf("expected ErrGuard, got %v", err)
	}
}

func TestApplyFailsClosedOnImbalance(t *testing.T) {
	lines := []string{"describe('a', () => {", "  it('x', () => {", "  });"}
	res, err := Apply(lines, nil, testOptions())
	if !errors.Is(err, ErrImbalanced) {
		t.Fatalf("expected ErrImbalanced, got %v", err)
	}
	if res.Outline == nil || res.Outline.Balanced() {
		t.Fatal("expected unbalanced re-scan")
	}
}

func TestApplyNoOpsOnBalancedText(t *testing.T) {
	lines := []string{"describe('a', () => {", "", "});"}
	res, err := Apply(lines, nil, testOptions())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !slices.Equal(res.Lines, lines) {
		t.Fatalf("lines changed: %q", res.Lines)
	}
}

func TestReindentKeepsBlankLines(t *testing.T) {
	lines := []string{
		"describe('a', () => {",
		"    describe('b', () => {",
		"",
		"    });",
		"});",
	}
	res, err := Apply(lines, []Operation{Reindent(source.LineSpan(0, 1, 4), -1)}, testOptions())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Lines[1] != "  describe('b', () => {" || res.Lines[2] != "" || res.Lines[3] != "  });" {
		t.Fatalf("lines = %q", res.Lines)
	}
}

func TestOperationDescribe(t *testing.T) {
	op := InsertClose(0, 5, 4, 2, "});")
	if got := op.Describe(); got != `insert "});" after line 6` {
		t.Fatalf("Describe() = %q", got)
	}
	if op.Span.Start != 6 {
		t.Fatalf("insert span = %v", op.Span)
	}
}
