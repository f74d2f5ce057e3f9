package driver

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"blockfix/internal/logging"
	"blockfix/internal/pipeline"
)

// Run processes paths in parallel and returns one result per path in input
// order. A failing file never stops the others; the returned error is only
// set when ctx is canceled or paths is empty.
func Run(ctx context.Context, paths []string, opts Options) (*BatchResult, error) {
	if len(paths) == 0 {
		return nil, ErrNoTargets
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	jobs = min(jobs, len(paths))

	for _, p := range paths {
		opts.emit(p, pipeline.StageLoad, pipeline.StatusQueued, nil)
	}

	res := &BatchResult{Files: make([]FileResult, len(paths))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, p := range paths {
		g.Go(func() error {
			res.Files[i] = RepairFile(gctx, p, opts)
			return nil
		})
	}
	// workers never return errors
	_ = g.Wait()

	res.tally()
	logging.L().Debug("batch finished",
		zap.Int("files", res.Summary.Total),
		zap.Int("fixed", res.Summary.Fixed),
		zap.Int("failed", res.Summary.Failed),
		zap.Int("jobs", jobs),
	)
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}
