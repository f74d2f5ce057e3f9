package anomaly

import (
	"slices"
	"strings"
	"testing"

	"blockfix/internal/diag"
	"blockfix/internal/outline"
)

func detect(t *testing.T, text string, opts Options) *Result {
	t.Helper()
	lines := strings.Split(strings.TrimPrefix(text, "\n"), "\n")
	o := outline.Scan(lines, outline.Options{Tokens: outline.DefaultTokens()})
	return Detect(o, opts)
}

func titles(r *Result, ids []outline.BlockID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.Outline.Block(id).Title)
	}
	return out
}

const integrationInput = `
describe('Orders API', () => {
  describe('GET /orders', () => {
    it('lists', async () => {
      await request(app)
        .get('/orders')
        .expect(200);
  describe('INTEGRATION-orders', () => {
    it('works', () => {
      expect(true).toBe(true);
    });
  });
});`

func TestDetectIntegrationJunction(t *testing.T) {
	r := detect(t, integrationInput, DefaultOptions())
	if r.Ambiguous() {
		t.Fatalf("unexpected ambiguity: %+v", r.Anomalies)
	}
	if len(r.Anomalies) != 1 {
		t.Fatalf("anomalies = %d, want 1: %+v", len(r.Anomalies), r.Anomalies)
	}
	a := r.Anomalies[0]
	if a.Class != Unclosed || a.Line != 6 || a.Anchor != 5 {
		t.Fatalf("anomaly = %+v", a)
	}
	if got := titles(r, a.Expected); !slices.Equal(got, []string{"lists", "GET /orders"}) {
		t.Fatalf("expected closes = %v", got)
	}
	if r.Missing() != 2 {
		t.Fatalf("missing = %d, want 2", r.Missing())
	}
	integ := r.Outline.Blocks[a.Opened]
	if p := r.Parents[integ.ID]; r.Outline.Block(p).Title != "Orders API" {
		t.Fatalf("repaired parent = %d", p)
	}
}

func TestDetectBalancedIsClean(t *testing.T) {
	r := detect(t, `
describe('a', () => {
  it('x', () => {
    expect(1).toBe(1);
  });
});`, DefaultOptions())
	if !r.Clean() {
		t.Fatalf("expected clean, got %+v", r.Anomalies)
	}
}

func TestDetectEndOfFile(t *testing.T) {
	r := detect(t, `
describe('a', () => {
  it('x', () => {
    expect(1).toBe(1);

`, DefaultOptions())
	if len(r.Anomalies) != 1 {
		t.Fatalf("anomalies = %+v", r.Anomalies)
	}
	a := r.Anomalies[0]
	if a.Line != len(r.Outline.Lines) || a.Anchor != 2 {
		t.Fatalf("eof anomaly = %+v", a)
	}
	if got := titles(r, a.Expected); !slices.Equal(got, []string{"x", "a"}) {
		t.Fatalf("expected = %v", got)
	}
}

func TestDetectCloseSkipsInnerBlocks(t *testing.T) {
	r := detect(t, `
describe('a', () => {
  it('x', () => {
    items.forEach((i) => {
      expect(i).toBeDefined();
  });
});`, DefaultOptions())
	if len(r.Anomalies) != 1 || r.Anomalies[0].Class != Unclosed {
		t.Fatalf("anomalies = %+v", r.Anomalies)
	}
	a := r.Anomalies[0]
	if a.Line != 4 || len(a.Expected) != 1 {
		t.Fatalf("anomaly = %+v", a)
	}
	if b := r.Outline.Block(a.Expected[0]); b.Kind != outline.KindInner || b.CloseToken != "});" {
		t.Fatalf("inner block = %+v", b)
	}
}

func TestDetectAmbiguousEmptySibling(t *testing.T) {
	r := detect(t, `
describe('a', () => {
  describe('b', () => {
  describe('c', () => {
    it('x', () => {});
  });
});`, DefaultOptions())
	if !r.Ambiguous() {
		t.Fatalf("expected ambiguity, got %+v", r.Anomalies)
	}
	if r.Count(StructuralAmbiguity) != 1 {
		t.Fatalf("ambiguities = %d", r.Count(StructuralAmbiguity))
	}
}

func TestDetectAmbiguousStray(t *testing.T) {
	r := detect(t, `
describe('a', () => {
    it('x', () => {
      foo();
  });
});`, DefaultOptions())
	if !r.Ambiguous() {
		t.Fatalf("expected ambiguity, got %+v", r.Anomalies)
	}
	if r.Anomalies[0].Line != 3 {
		t.Fatalf("ambiguity line = %d", r.Anomalies[0].Line)
	}
}

const supplierInput = `
describe('Supplier API', () => {
  describe('POST /suppliers', () => {
    it('creates', async () => {
      await create();

    describe('GET /suppliers', () => {
      it('lists', async () => {
        await list();
      });
    });

    describe('PUT /suppliers', () => {
      it('updates', async () => {
        await update();
      });
    });
});`

func TestDetectMisnestedSiblingMovesParentClose(t *testing.T) {
	r := detect(t, supplierInput, DefaultOptions())
	if r.Ambiguous() {
		t.Fatalf("unexpected ambiguity: %+v", r.Anomalies)
	}
	if r.Count(Unclosed) != 1 || r.Count(MisnestedSibling) != 1 {
		t.Fatalf("anomalies = %+v", r.Anomalies)
	}
	un := r.Anomalies[0]
	if got := titles(r, un.Expected); !slices.Equal(got, []string{"creates", "POST /suppliers"}) {
		t.Fatalf("junction closes = %v", got)
	}
	mis := r.Anomalies[1]
	if mis.Relocate || mis.Target != 0 {
		t.Fatalf("misnested = %+v", mis)
	}
	if mis.Start != 5 || mis.End != 16 || mis.Lead != 4 {
		t.Fatalf("range = [%d,%d) lead %d", mis.Start, mis.End, mis.Lead)
	}
	if got := titles(r, mis.Subtree); !slices.Equal(got, []string{"GET /suppliers", "PUT /suppliers"}) {
		t.Fatalf("subtree = %v", got)
	}
	root := r.Outline.Blocks[0].ID
	for _, id := range mis.Subtree {
		if r.Parents[id] != root {
			t.Fatalf("subtree parent = %d", r.Parents[id])
		}
	}
}

func TestDetectMisnestedSiblingRelocates(t *testing.T) {
	input := strings.TrimSuffix(supplierInput, "\n});") + `

    it('deletes', () => {
      remove();
    });
});`
	r := detect(t, input, DefaultOptions())
	if r.Count(Unclosed) != 2 || r.Count(MisnestedSibling) != 1 {
		t.Fatalf("anomalies = %+v", r.Anomalies)
	}
	var mis Anomaly
	for _, a := range r.Anomalies {
		if a.Class == MisnestedSibling {
			mis = a
		}
	}
	if !mis.Relocate {
		t.Fatalf("expected relocation: %+v", mis)
	}
	target := r.Anomalies[mis.Target]
	if got := titles(r, target.Expected); !slices.Equal(got, []string{"POST /suppliers"}) {
		t.Fatalf("target closes = %v", got)
	}
}

func TestDetectMisnestedDisabled(t *testing.T) {
	r := detect(t, supplierInput, Options{})
	if r.Count(MisnestedSibling) != 0 || r.Count(Unclosed) != 2 {
		t.Fatalf("anomalies = %+v", r.Anomalies)
	}
}

func TestReportDiagnostics(t *testing.T) {
	r := detect(t, integrationInput, DefaultOptions())
	bag := diag.NewBag(0)
	r.Report(diag.BagReporter{Bag: bag}, 0)
	if bag.Len() != 1 || !bag.HasCode(diag.BlkUnclosed) {
		t.Fatalf("diagnostics = %+v", bag.Items())
	}
	if bag.HasErrors() {
		t.Fatal("unclosed findings are informational")
	}
	if n := len(bag.Items()[0].Notes); n != 2 {
		t.Fatalf("notes = %d, want 2", n)
	}
}

func TestDetectEmptyTestBeforeSiblingTest(t *testing.T) {
	r := detect(t, `
describe('a', () => {
  it('x', () => {
  it('y', () => {
    expect(1).toBe(1);
  });
});`, DefaultOptions())
	if r.Ambiguous() {
		t.Fatalf("a test cannot hold another test: %+v", r.Anomalies)
	}
	if r.Count(Unclosed) != 1 {
		t.Fatalf("unclosed = %d", r.Count(Unclosed))
	}
	if got := titles(r, r.Anomalies[0].Expected); !slices.Equal(got, []string{"x"}) {
		t.Fatalf("expected = %v", got)
	}
}
