package project

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), "")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	path, ok, err := FindManifest(nested)
	if err != nil || !ok {
		t.Fatalf("FindManifest: ok=%v err=%v", ok, err)
	}
	if path != filepath.Join(root, ManifestName) {
		t.Fatalf("path = %s", path)
	}
	dir, ok, err := FindProjectRoot(nested)
	if err != nil || !ok || dir != root {
		t.Fatalf("FindProjectRoot = %s %v %v", dir, ok, err)
	}
}

func TestLoadFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	writeFile(t, path, `
[tokens]
suite = ["describe", "feature"]

[repair]
misnested = false

[[rename]]
from = "response.body.location"
to = "response.body.data"

[targets]
files = ["test/a.spec.ts"]
`)
	m, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	cfg := m.Config
	if !slices.Equal(cfg.Tokens.Suite, []string{"describe", "feature"}) {
		t.Fatalf("suites = %v", cfg.Tokens.Suite)
	}
	if len(cfg.Tokens.Test) == 0 || cfg.Indent.TabWidth != 4 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if cfg.Repair.Misnested {
		t.Fatal("misnested should be disabled")
	}
	if len(cfg.Rename) != 1 || cfg.Rename[0].To != "response.body.data" {
		t.Fatalf("rename = %+v", cfg.Rename)
	}
	if !slices.Equal(cfg.Targets.Globs, DefaultGlobs) {
		t.Fatalf("globs = %v", cfg.Targets.Globs)
	}
	if got := m.Resolve("test/a.spec.ts"); got != filepath.Join(dir, "test", "a.spec.ts") {
		t.Fatalf("Resolve = %s", got)
	}
}

func TestLoadFileRejectsBadConfig(t *testing.T) {
	cases := map[string]string{
		"unknown key":  "[repair]\nretries = 3\n",
		"bad token":    "[tokens]\nsuite = [\"de-scribe\"]\n",
		"empty suites": "[tokens]\nsuite = []\n",
		"bad close":    "[tokens]\nclose = \"end\"\n",
		"negative":     "[repair]\njobs = -1\n",
		"self rename":  "[[rename]]\nfrom = \"a\"\nto = \"a\"\n",
		"bad glob":     "[targets]\nglobs = [\"[\"]\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ManifestName)
			writeFile(t, path, body)
			_, err := LoadFile(path)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteDefault(dir)
	if err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	m, ok, err := Load(dir)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if m.Config.Fingerprint() != Default().Fingerprint() {
		t.Fatal("default manifest does not decode to defaults")
	}
	if _, err := WriteDefault(dir); err == nil {
		t.Fatalf("second init should fail, %s exists", path)
	}
}

func TestFingerprintTracksRepairSettings(t *testing.T) {
	a := Default()
	b := Default()
	b.Repair.Misnested = false
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("fingerprint ignores misnested")
	}
	c := Default()
	c.Cache.Enabled = true
	c.Repair.Jobs = 8
	if a.Fingerprint() != c.Fingerprint() {
		t.Fatal("fingerprint depends on settings that do not change output")
	}
	if Combine(a.Fingerprint()) == Combine(a.Fingerprint(), b.Fingerprint()) {
		t.Fatal("Combine ignores deps")
	}
}
