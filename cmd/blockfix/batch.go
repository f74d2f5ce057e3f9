package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"blockfix/internal/driver"
	"blockfix/internal/logging"
	"blockfix/internal/rename"
)

var errNoTargets = errors.New("no targets: pass files or directories, or list them in [targets].files")

// addBatchFlags registers the flags shared by repair, check and rename.
func addBatchFlags(cmd *cobra.Command, withDryRun bool) {
	cmd.Flags().Int("jobs", 0, "max parallel files (0 = [repair].jobs or GOMAXPROCS)")
	cmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	cmd.Flags().Bool("cache", false, "skip files already known to need no change (also [cache].enabled)")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	cmd.Flags().Bool("watch", false, "keep running and re-process files as they change")
	cmd.Flags().Bool("misnested", true, "dedent sibling subtrees nested one level too deep (overrides [repair].misnested)")
	if withDryRun {
		cmd.Flags().Bool("dry-run", false, "print the plan and a diff without writing files")
	}
}

type batchSettings struct {
	format    string
	quiet     bool
	timings   bool
	withNotes bool
	dryRun    bool
	ui        string // auto|on|off
	cache     bool
	watch     bool
	maxDiag   int
}

func readBatchSettings(cmd *cobra.Command) (batchSettings, error) {
	var s batchSettings
	var err error
	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	if s.format, err = flags.GetString("format"); err != nil {
		return s, err
	}
	switch s.format {
	case "pretty", "json":
	default:
		return s, fmt.Errorf("unsupported format %q (must be pretty or json)", s.format)
	}
	if s.ui, err = flags.GetString("ui"); err != nil {
		return s, err
	}
	switch s.ui = strings.ToLower(strings.TrimSpace(s.ui)); s.ui {
	case "", "auto":
		s.ui = "auto"
	case "on", "off":
	default:
		return s, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", s.ui)
	}
	if s.withNotes, err = flags.GetBool("with-notes"); err != nil {
		return s, err
	}
	if s.cache, err = flags.GetBool("cache"); err != nil {
		return s, err
	}
	if s.watch, err = flags.GetBool("watch"); err != nil {
		return s, err
	}
	if flags.Lookup("dry-run") != nil {
		if s.dryRun, err = flags.GetBool("dry-run"); err != nil {
			return s, err
		}
	}
	if s.quiet, err = root.GetBool("quiet"); err != nil {
		return s, err
	}
	if s.timings, err = root.GetBool("timings"); err != nil {
		return s, err
	}
	if s.maxDiag, err = root.GetInt("max-diagnostics"); err != nil {
		return s, err
	}
	if s.ui == "on" && (s.format == "json" || s.watch) {
		return s, errors.New("--ui=on needs --format pretty and cannot be combined with --watch")
	}
	return s, nil
}

// useTUI decides whether the progress UI drives the batch. JSON and quiet
// output never get one; auto asks whether stdout is a terminal.
func (s batchSettings) useTUI(out io.Writer) bool {
	if s.format != "pretty" || s.quiet || s.watch {
		return false
	}
	switch s.ui {
	case "on":
		return true
	case "off":
		return false
	}
	f, ok := out.(*os.File)
	return ok && isTerminal(f)
}

// runBatch is the common body of repair, check and rename. pairs == nil
// means the [[rename]] section of the manifest applies.
func runBatch(cmd *cobra.Command, args []string, mode driver.Mode, pairs []rename.Pair) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	settings, err := readBatchSettings(cmd)
	if err != nil {
		return err
	}
	manifest, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cleanup, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	flags := cmd.Flags()
	if flags.Changed("misnested") {
		if cfg.Repair.Misnested, err = flags.GetBool("misnested"); err != nil {
			return err
		}
	}
	jobs := cfg.Repair.Jobs
	if flags.Changed("jobs") {
		if jobs, err = flags.GetInt("jobs"); err != nil {
			return err
		}
	}

	paths := args
	if len(paths) == 0 {
		if manifest == nil || len(cfg.Targets.Files) == 0 {
			return errNoTargets
		}
		for _, f := range cfg.Targets.Files {
			paths = append(paths, manifest.Resolve(f))
		}
	}
	files, err := driver.CollectTargets(ctx, paths, cfg.Targets.Globs)
	if err != nil {
		return err
	}

	opts := driver.Options{
		Mode:           mode,
		Config:         cfg,
		Pairs:          pairs,
		DryRun:         settings.dryRun,
		Jobs:           jobs,
		MaxDiagnostics: settings.maxDiag,
	}
	if wd, err := os.Getwd(); err == nil {
		opts.BaseDir = wd
	}
	if settings.cache || cfg.Cache.Enabled {
		cache, err := driver.OpenDiskCache("blockfix")
		if err != nil {
			logging.L().Warn("disk cache disabled", zap.Error(err))
		} else {
			opts.Cache = cache
		}
	}

	logging.L().Debug("batch start",
		zap.Stringer("mode", mode),
		zap.Int("files", len(files)),
		zap.Bool("dry_run", settings.dryRun),
	)

	if settings.watch {
		return watchBatch(cmd, paths, opts, cfg.Targets.Globs, settings)
	}

	var res *driver.BatchResult
	if settings.useTUI(out) {
		res, err = runBatchWithUI(ctx, out, batchTitle(mode), files, opts)
	} else {
		res, err = driver.Run(ctx, files, opts)
	}
	if res == nil {
		return err
	}

	if settings.format == "json" {
		if jsonErr := writeJSONReport(out, res, mode, settings); jsonErr != nil {
			return jsonErr
		}
	} else {
		printReport(out, res, mode, settings, opts.BaseDir)
	}
	if settings.timings && settings.format == "pretty" {
		if len(res.Files) == 1 {
			fmt.Fprint(cmd.ErrOrStderr(), res.Files[0].Timer.Summary())
		} else {
			printStageTimings(cmd.ErrOrStderr(), res.Timings)
		}
	}
	if err != nil {
		return err
	}
	return batchError(res, mode)
}

func batchTitle(mode driver.Mode) string {
	switch mode {
	case driver.ModeCheck:
		return "Checking"
	case driver.ModeRename:
		return "Renaming"
	default:
		return "Repairing"
	}
}

// batchError turns the summary into the exit status.
func batchError(res *driver.BatchResult, mode driver.Mode) error {
	if res.HasFailures() {
		return fmt.Errorf("%d of %d files failed", res.Summary.Failed, res.Summary.Total)
	}
	if mode == driver.ModeCheck && res.Summary.Fixed > 0 {
		return fmt.Errorf("%d of %d files need repair", res.Summary.Fixed, res.Summary.Total)
	}
	return nil
}

// watchBatch reports every batch and returns when the command context ends.
func watchBatch(cmd *cobra.Command, paths []string, opts driver.Options, globs []string, settings batchSettings) error {
	out := cmd.OutOrStdout()
	memo, err := driver.NewMemo(0)
	if err != nil {
		return err
	}
	opts.Memo = memo
	if settings.format == "pretty" && !settings.quiet {
		fmt.Fprintln(out, "Watching for changes, press Ctrl+C to stop")
	}
	return driver.Watch(cmd.Context(), paths, opts, driver.WatchOptions{
		Globs: globs,
		OnBatch: func(res *driver.BatchResult) {
			if settings.format == "json" {
				if err := writeJSONReport(out, res, opts.Mode, settings); err != nil {
					logging.L().Warn("report failed", zap.Error(err))
				}
				return
			}
			printReport(out, res, opts.Mode, settings, opts.BaseDir)
		},
	})
}
