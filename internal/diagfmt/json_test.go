package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"blockfix/internal/diag"
	"blockfix/internal/source"
)

// TestJSONBasic проверяет базовое JSON форматирование
func TestJSONBasic(t *testing.T) {
	bag, fs, _ := sampleBag(t)

	var buf bytes.Buffer
	opts := JSONOpts{
		IncludePositions: true,
		PathMode:         PathModeBasename,
		IncludeNotes:     true,
	}
	if err := JSON(&buf, bag, fs, opts); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput: %s", err, buf.String())
	}
	if output.Count != 1 || len(output.Diagnostics) != 1 {
		t.Fatalf("Expected one diagnostic, got %+v", output)
	}

	d := output.Diagnostics[0]
	if d.Severity != "INFO" || d.Code != "BLK1001" {
		t.Errorf("unexpected severity/code: %s %s", d.Severity, d.Code)
	}
	if d.Title != diag.BlkUnclosed.Title() {
		t.Errorf("title = %q", d.Title)
	}
	if d.Location.File != "orders.spec.ts" {
		t.Errorf("Expected file=orders.spec.ts, got %s", d.Location.File)
	}
	if d.Location.StartLine != 4 || d.Location.EndLine != 4 {
		t.Errorf("Expected line 4, got %d-%d", d.Location.StartLine, d.Location.EndLine)
	}
	if len(d.Notes) != 1 || d.Notes[0].Location.StartLine != 2 {
		t.Errorf("unexpected notes: %+v", d.Notes)
	}
}

func TestJSONWithoutPositionsAndNotes(t *testing.T) {
	bag, fs, _ := sampleBag(t)

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{PathMode: PathModeBasename})
	d := out.Diagnostics[0]
	if d.Location.StartLine != 0 || d.Location.EndLine != 0 {
		t.Errorf("positions should be omitted, got %+v", d.Location)
	}
	if d.Notes != nil {
		t.Errorf("notes should be omitted, got %+v", d.Notes)
	}
}

func TestJSONMax(t *testing.T) {
	bag, fs, fileID := sampleBag(t)
	bag.Add(diag.NewError(diag.BlkStructuralAmbiguity, source.LineSpan(fileID, 2, 5), "cannot decide"))

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 1})
	if out.Count != 1 {
		t.Fatalf("Expected count=1, got %d", out.Count)
	}

	out = BuildDiagnosticsOutput(bag, fs, JSONOpts{IncludePositions: true})
	if got := out.Diagnostics[1].Location; got.StartLine != 3 || got.EndLine != 5 {
		t.Fatalf("range = %d-%d, want 3-5", got.StartLine, got.EndLine)
	}
}
