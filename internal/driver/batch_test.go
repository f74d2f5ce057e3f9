package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"blockfix/internal/pipeline"
	"blockfix/internal/project"
)

func TestRunKeepsInputOrderAndIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeSpec(t, dir, "a.spec.ts", brokenSpec),
		filepath.Join(dir, "missing.spec.ts"),
		writeSpec(t, dir, "b.spec.ts", ambiguousSpec),
		writeSpec(t, dir, "c.spec.ts", balancedSpec),
	}
	var sink pipeline.RecordingSink
	res, err := Run(context.Background(), paths, Options{Config: project.Default(), Jobs: 2, Sink: &sink})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := make([]Outcome, 0, len(res.Files))
	for i, fr := range res.Files {
		if fr.Path != paths[i] {
			t.Fatalf("result %d path = %s, want %s", i, fr.Path, paths[i])
		}
		got = append(got, fr.Outcome)
	}
	if diff := cmp.Diff([]Outcome{Fixed, Failed, Failed, NoChangeNeeded}, got); diff != "" {
		t.Fatalf("outcomes mismatch (-want +got):\n%s", diff)
	}
	want := Summary{Total: 4, Fixed: 1, Unchanged: 1, Failed: 2}
	if diff := cmp.Diff(want, res.Summary); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
	if !res.HasFailures() {
		t.Fatal("HasFailures = false")
	}
	if !res.Timings.Has(pipeline.StageScan) {
		t.Fatal("timings missing scan stage")
	}
	queued := 0
	for _, ev := range sink.Events() {
		if ev.Status == pipeline.StatusQueued {
			queued++
		}
	}
	if queued != len(paths) {
		t.Fatalf("queued events = %d", queued)
	}
}

func TestRunEmpty(t *testing.T) {
	if _, err := Run(context.Background(), nil, Options{}); !errors.Is(err, ErrNoTargets) {
		t.Fatalf("expected ErrNoTargets, got %v", err)
	}
}

func TestRunCanceled(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, "a.spec.ts", brokenSpec)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Run(ctx, []string{path}, Options{Config: project.Default()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.Files[0].Failure != FailCanceled {
		t.Fatalf("failure = %s", res.Files[0].Failure)
	}
	if got := readFile(t, path); got != brokenSpec {
		t.Fatal("canceled run wrote the file")
	}
}

func TestCollectTargets(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "b.spec.ts", balancedSpec)
	writeSpec(t, dir, "a.test.js", balancedSpec)
	writeSpec(t, dir, "helper.ts", balancedSpec)
	if err := os.MkdirAll(filepath.Join(dir, "node_modules", "x"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeSpec(t, filepath.Join(dir, "node_modules", "x"), "dep.spec.ts", balancedSpec)
	missing := filepath.Join(dir, "gone.spec.ts")

	got, err := CollectTargets(context.Background(), []string{missing, dir, filepath.Join(dir, "b.spec.ts")}, project.DefaultGlobs)
	if err != nil {
		t.Fatalf("CollectTargets: %v", err)
	}
	want := []string{missing, filepath.Join(dir, "a.test.js"), filepath.Join(dir, "b.spec.ts")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("targets mismatch (-want +got):\n%s", diff)
	}

	empty := t.TempDir()
	if _, err := CollectTargets(context.Background(), []string{empty}, project.DefaultGlobs); !errors.Is(err, ErrNoTargets) {
		t.Fatalf("expected ErrNoTargets, got %v", err)
	}
}

func TestCollectTargetsSkipsUnreadableDirs(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root reads every directory")
	}
	dir := t.TempDir()
	ok := writeSpec(t, dir, "a.spec.ts", balancedSpec)
	locked := filepath.Join(dir, "locked")
	if err := os.MkdirAll(locked, 0o755); err != nil {
		t.Fatal(err)
	}
	writeSpec(t, locked, "b.spec.ts", balancedSpec)
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	got, err := CollectTargets(context.Background(), []string{dir}, project.DefaultGlobs)
	if err != nil {
		t.Fatalf("CollectTargets: %v", err)
	}
	if diff := cmp.Diff([]string{ok}, got); diff != "" {
		t.Fatalf("targets mismatch (-want +got):\n%s", diff)
	}
}
