package diagfmt

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"blockfix/internal/diag"
	"blockfix/internal/source"
)

const sample = `describe('orders', () => {
  it('lists', () => {
    expect(1).toBe(1);
  it('creates', () => {
  });
});
`

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet, source.FileID) {
	t.Helper()
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("/home/user/project/spec/orders.spec.ts", []byte(sample))
	fs.SetBaseDir("/home/user/project")

	bag := diag.NewBag(10)
	d := diag.New(diag.SevInfo, diag.BlkUnclosed, source.At(fileID, 3), "it 'lists' is not closed")
	d = d.WithNote(source.At(fileID, 1), "it 'lists' opened here, missing \"});\"")
	bag.Add(d)
	return bag, fs, fileID
}

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	bag, fs, _ := sampleBag(t)

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"Absolute path", PathModeAbsolute, "/home/user/project/spec/orders.spec.ts:4"},
		{"Relative path", PathModeRelative, "spec/orders.spec.ts:4"},
		{"Basename only", PathModeBasename, "orders.spec.ts:4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: tt.mode})
			output := buf.String()

			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			if !strings.Contains(output, "INFO BLK1001: it 'lists' is not closed") {
				t.Errorf("Expected header line, got:\n%s", output)
			}
		})
	}
}

func TestPrettyContextAndNotes(t *testing.T) {
	bag, fs, _ := sampleBag(t)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: PathModeBasename, ShowNotes: true})
	output := buf.String()

	for _, want := range []string{
		"  3 |     expect(1).toBe(1);\n",
		"> 4 |   it('creates', () => {\n",
		"  5 |   });\n",
		"note: orders.spec.ts:2: it 'lists' opened here",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
	if strings.Contains(output, "describe('orders'") {
		t.Errorf("context leaked beyond one line:\n%s", output)
	}
	if strings.Contains(output, "\x1b[") {
		t.Errorf("color escape without Color:\n%s", output)
	}
}

func TestPrettyMinSeverity(t *testing.T) {
	bag, fs, fileID := sampleBag(t)
	bag.Add(diag.NewError(diag.BlkStructuralAmbiguity, source.At(fileID, 4), "cannot decide"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: -1, PathMode: PathModeBasename, MinSeverity: uint8(diag.SevError)})
	output := buf.String()
	if strings.Contains(output, "BLK1001") {
		t.Fatalf("info diagnostic not filtered:\n%s", output)
	}
	if output != "orders.spec.ts:5: ERROR BLK1003: cannot decide\n" {
		t.Fatalf("unexpected output:\n%q", output)
	}
}

func TestPreview(t *testing.T) {
	before := []string{"a", "  b", "c"}
	after := []string{"a", "  b", "  });", "c"}

	var buf bytes.Buffer
	if !Preview(&buf, "x.spec.ts", before, after, PreviewOpts{Context: 1}) {
		t.Fatal("Preview reported no change")
	}
	want := "--- x.spec.ts\n+++ x.spec.ts\n@@ -2,2 +2,3 @@\n   b\n+  });\n c\n"
	if buf.String() != want {
		t.Fatalf("preview mismatch:\n%s\nwant:\n%s", buf.String(), want)
	}

	buf.Reset()
	if Preview(&buf, "x.spec.ts", before, before, PreviewOpts{Context: 3}) || buf.Len() != 0 {
		t.Fatal("identical input produced a diff")
	}
}

func TestPreviewSplitsDistantHunks(t *testing.T) {
	before := []string{"1", "2", "3", "4", "5", "6", "7", "8"}
	after := []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}

	var buf bytes.Buffer
	Preview(&buf, "f", before, after, PreviewOpts{Context: 1})
	if got := strings.Count(buf.String(), "@@ -"); got != 2 {
		t.Fatalf("expected 2 hunks, got %d:\n%s", got, buf.String())
	}
	if !strings.Contains(buf.String(), "@@ -8,1 +9,2 @@\n 8\n+9\n") {
		t.Fatalf("unexpected tail hunk:\n%s", buf.String())
	}

}

func TestPreviewMovedAndEditedLines(t *testing.T) {
	before := []string{"describe('a', () => {", "    it('x', () => {", "    });", "", "});"}
	after := []string{"describe('a', () => {", "  it('x', () => {", "  });", "", "});"}

	var buf bytes.Buffer
	Preview(&buf, "f", before, after, PreviewOpts{Context: 1, Timeout: time.Second})
	want := "--- f\n+++ f\n@@ -1,4 +1,4 @@\n describe('a', () => {\n-    it('x', () => {\n-    });\n+  it('x', () => {\n+  });\n \n"
	if buf.String() != want {
		t.Fatalf("preview mismatch:\n%s\nwant:\n%s", buf.String(), want)
	}
}
