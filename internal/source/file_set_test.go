package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("a.spec.ts", []byte("one\n"), 0)
	id2 := fs.Add("a.spec.ts", []byte("two\n"), 0)
	if id1 == id2 {
		t.Fatalf("expected distinct ids, got %d twice", id1)
	}

	latest, ok := fs.GetLatest("a.spec.ts")
	if !ok || latest != id2 {
		t.Fatalf("expected latest id %d, got %d (ok=%v)", id2, latest, ok)
	}
	if got := fs.Get(id1).Lines[0]; got != "one" {
		t.Errorf("old version should stay reachable, got %q", got)
	}
}

func TestAddSplitsLines(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		lines    []string
		trailing bool
	}{
		{"empty", "", nil, false},
		{"single no newline", "x", []string{"x"}, false},
		{"trailing newline", "a\nb\n", []string{"a", "b"}, true},
		{"blank lines kept", "a\n\nb", []string{"a", "", "b"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := NewFileSet()
			f := fs.Get(fs.AddVirtual("x.ts", []byte(tt.content)))
			if len(f.Lines) != len(tt.lines) {
				t.Fatalf("expected %d lines, got %d (%q)", len(tt.lines), len(f.Lines), f.Lines)
			}
			for i := range tt.lines {
				if f.Lines[i] != tt.lines[i] {
					t.Errorf("line %d: expected %q, got %q", i, tt.lines[i], f.Lines[i])
				}
			}
			if got := f.Flags&FileTrailingNewline != 0; got != tt.trailing {
				t.Errorf("trailing newline flag: expected %v, got %v", tt.trailing, got)
			}
			if f.Flags&FileVirtual == 0 {
				t.Error("expected FileVirtual flag")
			}
		})
	}
}

// TestLoadEncodeRoundTrip проверяет, что BOM и CRLF восстанавливаются при записи.
func TestLoadEncodeRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "crlf.spec.ts")
	original := append([]byte{0xEF, 0xBB, 0xBF}, []byte("describe('x', () => {\r\n});\r\n")...)
	if err := os.WriteFile(path, original, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := fs.Get(id)
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("expected BOM and CRLF flags, got %b", f.Flags)
	}
	if len(f.Lines) != 2 || f.Lines[1] != "});" {
		t.Fatalf("unexpected lines %q", f.Lines)
	}
	if f.Mode != 0o600 {
		t.Errorf("expected mode 0600, got %v", f.Mode)
	}

	if got := f.Encode(f.Lines); string(got) != string(original) {
		t.Fatalf("round trip mismatch:\n got %q\nwant %q", got, original)
	}
}

func TestLoadMissingFile(t *testing.T) {
	fs := NewFileSet()
	_, err := fs.Load(filepath.Join(t.TempDir(), "missing.ts"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestGetLineBounds(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("x.ts", []byte("a\nb\n")))
	if f.GetLine(0) != "" || f.GetLine(3) != "" {
		t.Error("out-of-range lines should be empty")
	}
	if f.GetLine(2) != "b" {
		t.Errorf("expected %q, got %q", "b", f.GetLine(2))
	}
}

func TestRelativePathOutsideBaseFallsBackToAbsolute(t *testing.T) {
	tmp := t.TempDir()

	baseDir := filepath.Join(tmp, "base")
	target := filepath.Join(tmp, "other", "file.spec.ts")

	got, err := RelativePath(target, baseDir)
	if err != nil {
		t.Fatalf("RelativePath returned error: %v", err)
	}
	if want := normalizePath(target); got != want {
		t.Fatalf("expected absolute fallback %q, got %q", want, got)
	}
}

func TestRelativePathInsideBaseStaysRelative(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "nested", "file.spec.ts")

	got, err := RelativePath(target, tmp)
	if err != nil {
		t.Fatalf("RelativePath returned error: %v", err)
	}
	if want := "nested/file.spec.ts"; got != want {
		t.Fatalf("expected relative path %q, got %q", want, got)
	}
}

func TestSpanOverlaps(t *testing.T) {
	a := LineSpan(0, 2, 5)
	if !a.Overlaps(LineSpan(0, 4, 6)) {
		t.Error("expected overlap")
	}
	if a.Overlaps(LineSpan(0, 5, 6)) {
		t.Error("adjacent spans must not overlap")
	}
	if a.Overlaps(At(0, 3)) {
		t.Error("empty spans never overlap")
	}
	if got := a.String(); got != "0:3-5" {
		t.Errorf("unexpected String() %q", got)
	}
}
