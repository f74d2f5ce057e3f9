package driver

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"blockfix/internal/project"
)

func TestWatchRepairsChangedFiles(t *testing.T) {
	dir := t.TempDir()
	first := writeSpec(t, dir, "a.spec.ts", brokenSpec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	batches := make(chan *BatchResult, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, []string{dir}, defaultOpts(), WatchOptions{
			Globs:    project.DefaultGlobs,
			Debounce: 20 * time.Millisecond,
			OnBatch: func(r *BatchResult) {
				select {
				case batches <- r:
				case <-ctx.Done():
				}
			},
		})
	}()

	waitFixed := func(path string) {
		t.Helper()
		timeout := time.After(5 * time.Second)
		for {
			select {
			case res := <-batches:
				for _, fr := range res.Files {
					if filepath.Clean(fr.Path) == filepath.Clean(path) && fr.Outcome == Fixed {
						return
					}
				}
			case err := <-done:
				t.Fatalf("Watch returned early: %v", err)
			case <-timeout:
				t.Fatalf("no batch fixed %s", path)
			}
		}
	}

	waitFixed(first)
	if got := readFile(t, first); got == brokenSpec {
		t.Fatal("initial batch did not write")
	}

	second := writeSpec(t, dir, "b.spec.ts", brokenSpec)
	waitFixed(second)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop")
	}
}

func TestWatchNoTargets(t *testing.T) {
	err := Watch(context.Background(), []string{t.TempDir()}, defaultOpts(), WatchOptions{Globs: project.DefaultGlobs})
	if !errors.Is(err, ErrNoTargets) {
		t.Fatalf("err = %v", err)
	}
}

func TestMemoSkipsKnownCleanFiles(t *testing.T) {
	memo, err := NewMemo(8)
	if err != nil {
		t.Fatal(err)
	}
	opts := defaultOpts()
	opts.Memo = memo
	path := writeSpec(t, t.TempDir(), "ok.spec.ts", balancedSpec)

	if fr := RepairFile(context.Background(), path, opts); fr.Cached || fr.Outcome != NoChangeNeeded {
		t.Fatalf("first run cached=%v outcome=%s", fr.Cached, fr.Outcome)
	}
	if memo.Len() != 1 {
		t.Fatalf("memo len = %d", memo.Len())
	}
	fr := RepairFile(context.Background(), path, opts)
	if !fr.Cached || fr.Outcome != NoChangeNeeded {
		t.Fatalf("second run cached=%v outcome=%s", fr.Cached, fr.Outcome)
	}

	// a different config is a different key
	opts.Config.Indent.TabWidth = 8
	if fr := RepairFile(context.Background(), path, opts); fr.Cached {
		t.Fatal("memo ignored config fingerprint")
	}
}
