package driver

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"blockfix/internal/logging"
)

// ErrNoTargets is returned when a batch has nothing to process.
var ErrNoTargets = errors.New("no target files")

var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"coverage":     true,
}

// CollectTargets expands directories into files matching globs. Plain paths
// are kept as given, even when missing, so the batch reports them as
// FileNotFound. Order follows paths; files inside one directory are sorted.
func CollectTargets(ctx context.Context, paths, globs []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})
	addFile := func(path string) {
		key := filepath.Clean(path)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		files = append(files, path)
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			addFile(p)
			continue
		}

		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// one unreadable directory must not sink the batch
				logging.L().Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
				if d != nil && !d.IsDir() {
					return nil
				}
				return filepath.SkipDir
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if matchAny(globs, d.Name()) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		for _, f := range found {
			addFile(f)
		}
	}

	if len(files) == 0 {
		return nil, ErrNoTargets
	}
	return files, nil
}

func matchAny(globs []string, name string) bool {
	for _, g := range globs {
		if ok, _ := filepath.Match(g, name); ok {
			return true
		}
	}
	return false
}
