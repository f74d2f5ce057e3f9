package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"blockfix/internal/anomaly"
	"blockfix/internal/diag"
	"blockfix/internal/fix"
	"blockfix/internal/logging"
	"blockfix/internal/observ"
	"blockfix/internal/outline"
	"blockfix/internal/pipeline"
	"blockfix/internal/plan"
	"blockfix/internal/project"
	"blockfix/internal/rename"
	"blockfix/internal/source"
)

// Mode selects what the driver does with each file.
type Mode uint8

const (
	// ModeRepair fixes structure, applies configured renames and writes.
	ModeRepair Mode = iota
	// ModeCheck only reports; files needing repair count as Fixed but are
	// never written.
	ModeCheck
	// ModeRename applies rename pairs only.
	ModeRename
)

func (m Mode) String() string {
	switch m {
	case ModeRepair:
		return "repair"
	case ModeCheck:
		return "check"
	case ModeRename:
		return "rename"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Options configure RepairFile and Run.
type Options struct {
	Mode   Mode
	Config project.Config
	// Pairs overrides Config.Rename when non-nil.
	Pairs  []rename.Pair
	DryRun bool
	// Jobs limits parallel files; 0 means GOMAXPROCS.
	Jobs           int
	MaxDiagnostics int
	Sink           pipeline.ProgressSink
	Cache          *DiskCache
	Memo           *Memo
	// BaseDir renders relative paths in results.
	BaseDir string
}

func (o Options) pairs() []rename.Pair {
	if o.Pairs != nil {
		return o.Pairs
	}
	return o.Config.Rename
}

func (o Options) emit(path string, stage pipeline.Stage, status pipeline.Status, err error) {
	if o.Sink == nil {
		return
	}
	o.Sink.OnEvent(pipeline.Event{File: path, Stage: stage, Status: status, Err: err})
}

// Repair is the in-memory result of the structural pipeline.
type Repair struct {
	Outline   *outline.Outline
	Detection *anomaly.Result
	Plan      *plan.Plan
	Applied   *fix.ApplyResult
	Lines     []string
	Changed   bool
}

// RepairLines runs scan, detect, plan and apply over lines. It performs no
// I/O. On error the returned Repair still carries whatever stages finished.
func RepairLines(lines []string, cfg project.Config, file source.FileID, timer *observ.Timer) (*Repair, error) {
	r := &Repair{}

	idx := timer.Begin(string(pipeline.StageScan))
	r.Outline = outline.Scan(lines, cfg.ScanOptions())
	timer.End(idx, fmt.Sprintf("%d blocks", len(r.Outline.Blocks)))

	idx = timer.Begin(string(pipeline.StageDetect))
	r.Detection = anomaly.Detect(r.Outline, cfg.DetectOptions())
	timer.End(idx, fmt.Sprintf("%d anomalies", len(r.Detection.Anomalies)))

	if r.Detection.Clean() && r.Outline.Balanced() {
		r.Lines = lines
		return r, nil
	}

	idx = timer.Begin(string(pipeline.StagePlan))
	p, err := plan.Build(r.Detection, file)
	r.Plan = p
	timer.End(idx, "")
	if err != nil {
		return r, err
	}

	idx = timer.Begin(string(pipeline.StageApply))
	applied, err := fix.Apply(lines, p.Ops, fix.Options{Style: r.Outline.Style, Scan: cfg.ScanOptions()})
	r.Applied = applied
	timer.End(idx, fmt.Sprintf("%d ops", len(p.Ops)))
	if err != nil {
		return r, err
	}
	r.Lines = applied.Lines
	r.Changed = !slices.Equal(lines, applied.Lines)
	return r, nil
}

// RepairFile loads path, runs the pipeline selected by opts.Mode and writes
// the result back when it is balanced. Failures are reported in the result,
// never returned.
func RepairFile(ctx context.Context, path string, opts Options) FileResult {
	fr := FileResult{
		Path:  path,
		Bag:   diag.NewBag(opts.MaxDiagnostics),
		Timer: observ.NewTimer(),
	}
	log := logging.With(zap.String("file", path))

	if err := ctx.Err(); err != nil {
		fr.fail(FailCanceled, diag.IOFailure, err)
		return fr
	}
	opts.emit(path, pipeline.StageLoad, pipeline.StatusWorking, nil)

	fs := source.NewFileSetWithBase(opts.BaseDir)
	idx := fr.Timer.Begin(string(pipeline.StageLoad))
	id, err := fs.Load(path)
	fr.Timer.End(idx, "")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fr.fail(FailFileNotFound, diag.IOFileNotFound, fmt.Errorf("file not found: %s", path))
		} else {
			fr.fail(FailIO, diag.IOFailure, fmt.Errorf("read %s: %w", path, err))
		}
		log.Warn("load failed", zap.Error(err))
		opts.emit(path, pipeline.StageLoad, pipeline.StatusError, fr.Err)
		return fr
	}
	file := fs.Get(id)
	fr.File = file
	fr.Files = fs

	key := cacheKey(file, opts)
	if opts.Mode != ModeRename && opts.Memo.has(key) {
		fr.Cached = true
		opts.emit(path, pipeline.StageScan, pipeline.StatusDone, nil)
		return fr
	}
	if opts.Mode != ModeRename && opts.Cache != nil {
		var payload DiskPayload
		if ok, err := opts.Cache.Get(key, &payload); err != nil {
			log.Debug("cache read failed", zap.Error(err))
		} else if ok && payload.valid(file) {
			fr.Cached = true
			opts.Memo.add(key)
			log.Debug("cache hit")
			opts.emit(path, pipeline.StageScan, pipeline.StatusDone, nil)
			return fr
		}
	}

	lines := file.Lines
	if opts.Mode != ModeRename {
		opts.emit(path, pipeline.StageScan, pipeline.StatusWorking, nil)
		rep, err := RepairLines(lines, opts.Config, id, fr.Timer)
		fr.Detection = rep.Detection
		fr.Plan = rep.Plan
		if rep.Detection != nil {
			rep.Detection.Report(diag.BagReporter{Bag: fr.Bag}, id)
		}
		if err != nil {
			code := diag.BlkStructuralAmbiguity
			switch {
			case errors.Is(err, fix.ErrImbalanced):
				code = diag.BlkImbalanceAfterRepair
			case errors.Is(err, fix.ErrConflict), errors.Is(err, fix.ErrGuard):
				code = diag.BlkPatchConflict
			}
			fr.fail(FailAmbiguity, code, err)
			log.Warn("left untouched", zap.Error(err))
			opts.emit(path, pipeline.StageApply, pipeline.StatusError, fr.Err)
			return fr
		}
		if rep.Applied != nil {
			fr.Inserted = rep.Applied.Inserted
			fr.Moved = rep.Applied.Moved
			fr.Reindented = rep.Applied.Reindented
		}
		lines = rep.Lines
	}

	if opts.Mode != ModeCheck {
		if pairs := opts.pairs(); len(pairs) > 0 {
			rr := rename.Apply(lines, pairs)
			rr.Report(diag.BagReporter{Bag: fr.Bag}, id, pairs)
			fr.Renamed = len(rr.Hits)
			lines = rr.Lines
		}
	}

	if slices.Equal(lines, file.Lines) {
		fr.Outcome = NoChangeNeeded
		if opts.Mode != ModeRename {
			opts.Memo.add(key)
		}
		if opts.Mode != ModeRename && opts.Cache != nil {
			if err := opts.Cache.Put(key, newPayload(file)); err != nil {
				log.Debug("cache write failed", zap.Error(err))
			}
		}
		opts.emit(path, pipeline.StageApply, pipeline.StatusDone, nil)
		return fr
	}

	fr.Outcome = Fixed
	fr.Lines = lines
	if opts.Mode == ModeCheck || opts.DryRun {
		opts.emit(path, pipeline.StageApply, pipeline.StatusDone, nil)
		return fr
	}

	opts.emit(path, pipeline.StageWrite, pipeline.StatusWorking, nil)
	idx = fr.Timer.Begin(string(pipeline.StageWrite))
	err = writeAtomic(file.Path, file.Encode(lines), file.Mode)
	fr.Timer.End(idx, "")
	if err != nil {
		fr.fail(FailIO, diag.IOFailure, fmt.Errorf("write %s: %w", path, err))
		log.Warn("write failed", zap.Error(err))
		opts.emit(path, pipeline.StageWrite, pipeline.StatusError, fr.Err)
		return fr
	}
	fr.Written = true
	log.Debug("fixed", zap.Int("inserted", fr.Inserted), zap.Int("moved", fr.Moved), zap.Int("renamed", fr.Renamed))
	opts.emit(path, pipeline.StageWrite, pipeline.StatusDone, nil)
	return fr
}

// writeAtomic replaces path through a temp file in the same directory, so a
// failed write leaves the original intact.
func writeAtomic(path string, data []byte, mode os.FileMode) error {
	if mode == 0 {
		mode = 0o644
	}
	f, err := os.CreateTemp(filepath.Dir(path), ".blockfix-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmp)
	}()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
