package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"blockfix/internal/diag"
	"blockfix/internal/diagfmt"
	"blockfix/internal/driver"
	"blockfix/internal/observ"
	"blockfix/internal/source"
)

var (
	okMark   = color.New(color.FgGreen, color.Bold)
	failMark = color.New(color.FgRed, color.Bold)
	skipMark = color.New(color.Faint)
)

func printReport(out io.Writer, res *driver.BatchResult, mode driver.Mode, s batchSettings, baseDir string) {
	for i := range res.Files {
		printFileResult(out, &res.Files[i], mode, s, baseDir)
	}
	sum := res.Summary
	switch mode {
	case driver.ModeCheck:
		fmt.Fprintf(out, "%d/%d files need repair", sum.Fixed, sum.Total)
	case driver.ModeRename:
		fmt.Fprintf(out, "Renamed in %d/%d files", sum.Fixed, sum.Total)
	default:
		fmt.Fprintf(out, "Fixed %d/%d files", sum.Fixed, sum.Total)
	}
	if sum.Failed > 0 {
		fmt.Fprintf(out, ", %d failed", sum.Failed)
	}
	fmt.Fprintln(out)
}

func printFileResult(out io.Writer, fr *driver.FileResult, mode driver.Mode, s batchSettings, baseDir string) {
	name := displayPath(fr.Path, baseDir)
	switch fr.Outcome {
	case driver.Fixed:
		if mode == driver.ModeCheck {
			fmt.Fprintf(out, "%s Needs repair: %s (%s)\n", failMark.Sprint("✗"), name, changeDetails(fr))
		} else if !s.quiet {
			fmt.Fprintf(out, "%s Fixed: %s (%s)\n", okMark.Sprint("✓"), name, changeDetails(fr))
		}
	case driver.NoChangeNeeded:
		if !s.quiet {
			fmt.Fprintf(out, "%s No changes needed: %s\n", skipMark.Sprint("-"), name)
		}
	case driver.Failed:
		fmt.Fprintf(out, "%s Failed: %s: %s\n", failMark.Sprint("✗"), name, fr.Reason)
	}

	verbose := fr.Outcome == driver.Failed || mode == driver.ModeCheck || s.dryRun
	if fr.Bag != nil && fr.Files != nil && fr.Bag.Len() > 0 && verbose {
		opts := diagfmt.PrettyOpts{
			Color:     useColor(),
			Context:   1,
			PathMode:  diagfmt.PathModeRelative,
			ShowNotes: s.withNotes,
		}
		if s.quiet {
			opts.MinSeverity = uint8(diag.SevError)
			opts.Context = 0
		}
		fr.Bag.Sort()
		diagfmt.Pretty(out, fr.Bag, fr.Files, opts)
	}

	if s.dryRun && fr.Outcome == driver.Fixed && fr.File != nil {
		if fr.Plan != nil {
			for _, op := range fr.Plan.Ops {
				fmt.Fprintf(out, "  plan: %s\n", op.Describe())
			}
		}
		diagfmt.Preview(out, name, fr.File.Lines, fr.Lines, diagfmt.PreviewOpts{Color: useColor(), Context: 2})
	}
}

func changeDetails(fr *driver.FileResult) string {
	var parts []string
	add := func(n int, what string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, what))
		}
	}
	add(fr.Inserted, "closes inserted")
	add(fr.Moved, "lines moved")
	add(fr.Reindented, "lines reindented")
	add(fr.Renamed, "fields renamed")
	if len(parts) == 0 {
		return "changed"
	}
	return strings.Join(parts, ", ")
}

func displayPath(path, baseDir string) string {
	if baseDir == "" {
		return path
	}
	if rel, err := source.RelativePath(path, baseDir); err == nil {
		return rel
	}
	return path
}

type fileReportJSON struct {
	Path        string                   `json:"path"`
	Outcome     string                   `json:"outcome"`
	Failure     string                   `json:"failure,omitempty"`
	Reason      string                   `json:"reason,omitempty"`
	Inserted    int                      `json:"inserted,omitempty"`
	Moved       int                      `json:"moved,omitempty"`
	Reindented  int                      `json:"reindented,omitempty"`
	Renamed     int                      `json:"renamed,omitempty"`
	Written     bool                     `json:"written"`
	Cached      bool                     `json:"cached,omitempty"`
	Operations  []string                 `json:"operations,omitempty"`
	Diagnostics []diagfmt.DiagnosticJSON `json:"diagnostics,omitempty"`
	Timings     *observ.Report           `json:"timings,omitempty"`
}

type batchReportJSON struct {
	Mode    string           `json:"mode"`
	DryRun  bool             `json:"dry_run,omitempty"`
	Files   []fileReportJSON `json:"files"`
	Summary driver.Summary   `json:"summary"`
}

func writeJSONReport(out io.Writer, res *driver.BatchResult, mode driver.Mode, s batchSettings) error {
	report := batchReportJSON{
		Mode:    mode.String(),
		DryRun:  s.dryRun,
		Files:   make([]fileReportJSON, 0, len(res.Files)),
		Summary: res.Summary,
	}
	for i := range res.Files {
		fr := &res.Files[i]
		item := fileReportJSON{
			Path:       fr.Path,
			Outcome:    fr.Outcome.String(),
			Failure:    fr.Failure.String(),
			Reason:     fr.Reason,
			Inserted:   fr.Inserted,
			Moved:      fr.Moved,
			Reindented: fr.Reindented,
			Renamed:    fr.Renamed,
			Written:    fr.Written,
			Cached:     fr.Cached,
		}
		if fr.Plan != nil {
			for _, op := range fr.Plan.Ops {
				item.Operations = append(item.Operations, op.Describe())
			}
		}
		if fr.Bag != nil && fr.Files != nil && fr.Bag.Len() > 0 {
			fr.Bag.Sort()
			output := diagfmt.BuildDiagnosticsOutput(fr.Bag, fr.Files, diagfmt.JSONOpts{
				IncludePositions: true,
				PathMode:         diagfmt.PathModeRelative,
				IncludeNotes:     s.withNotes,
			})
			item.Diagnostics = output.Diagnostics
		}
		if s.timings && fr.Timer != nil {
			r := fr.Timer.Report()
			item.Timings = &r
		}
		report.Files = append(report.Files, item)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
