package driver

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"blockfix/internal/logging"
)

const defaultDebounce = 200 * time.Millisecond

// WatchOptions configure Watch.
type WatchOptions struct {
	Globs    []string
	Debounce time.Duration
	// OnBatch receives every finished batch, the initial one included.
	OnBatch func(*BatchResult)
}

type watchSet struct {
	w *fsnotify.Watcher
	// explicit files given as targets
	files map[string]struct{}
	// directories whose matching files are targets
	dirs  map[string]struct{}
	globs []string
}

// Watch runs one batch over paths, then re-runs the files that change until
// ctx is done. Editor saves come in bursts, so changes are collected for
// Debounce before each batch. Returns nil when ctx ends.
func Watch(ctx context.Context, paths []string, opts Options, wopts WatchOptions) error {
	files, err := CollectTargets(ctx, paths, wopts.Globs)
	if err != nil {
		return err
	}
	debounce := wopts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if opts.Memo == nil {
		if opts.Memo, err = NewMemo(0); err != nil {
			return err
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			logging.L().Debug("watcher close", zap.Error(err))
		}
	}()

	ws := &watchSet{
		w:     w,
		files: make(map[string]struct{}),
		dirs:  make(map[string]struct{}),
		globs: wopts.Globs,
	}
	for _, p := range paths {
		if err := ws.add(p); err != nil {
			return err
		}
	}

	// watcher is armed first so edits made during the initial batch count
	if done, err := runWatchBatch(ctx, files, opts, wopts); done {
		return err
	}

	pending := make(map[string]struct{})
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if path, ok := ws.handle(ev); ok {
				pending[path] = struct{}{}
				fire = time.After(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logging.L().Warn("watch error", zap.Error(err))
		case <-fire:
			fire = nil
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			clear(pending)
			sort.Strings(batch)
			logging.L().Debug("watch batch", zap.Strings("files", batch))
			if done, err := runWatchBatch(ctx, batch, opts, wopts); done {
				return err
			}
		}
	}
}

// runWatchBatch reports done when the loop must stop.
func runWatchBatch(ctx context.Context, files []string, opts Options, wopts WatchOptions) (bool, error) {
	res, err := Run(ctx, files, opts)
	if res != nil && wopts.OnBatch != nil {
		wopts.OnBatch(res)
	}
	if err == nil {
		return false, nil
	}
	if ctx.Err() != nil {
		return true, nil
	}
	return true, err
}

func (ws *watchSet) add(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// may appear later; its directory is enough
			ws.files[filepath.Clean(p)] = struct{}{}
			return ws.watchDir(filepath.Dir(p))
		}
		return err
	}
	if !info.IsDir() {
		ws.files[filepath.Clean(p)] = struct{}{}
		return ws.watchDir(filepath.Dir(p))
	}
	return filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != p && skipDirs[d.Name()] {
			return filepath.SkipDir
		}
		ws.dirs[filepath.Clean(path)] = struct{}{}
		return ws.watchDir(path)
	})
}

func (ws *watchSet) watchDir(dir string) error {
	if dir == "" {
		dir = "."
	}
	return ws.w.Add(dir)
}

// handle maps an event to a target path worth re-running.
func (ws *watchSet) handle(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return "", false
	}
	name := filepath.Clean(ev.Name)
	if _, ok := ws.files[name]; ok {
		return ev.Name, true
	}
	if _, ok := ws.dirs[filepath.Dir(name)]; !ok {
		return "", false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			if !skipDirs[info.Name()] {
				if err := ws.add(name); err != nil {
					logging.L().Warn("watch add", zap.String("dir", name), zap.Error(err))
				}
			}
			return "", false
		}
	}
	if !matchAny(ws.globs, filepath.Base(name)) {
		return "", false
	}
	return ev.Name, true
}
