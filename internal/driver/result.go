package driver

import (
	"fmt"

	"blockfix/internal/anomaly"
	"blockfix/internal/diag"
	"blockfix/internal/observ"
	"blockfix/internal/pipeline"
	"blockfix/internal/plan"
	"blockfix/internal/source"
)

// Outcome of one file.
type Outcome uint8

const (
	NoChangeNeeded Outcome = iota
	Fixed
	Failed
)

func (o Outcome) String() string {
	switch o {
	case NoChangeNeeded:
		return "NoChangeNeeded"
	case Fixed:
		return "Fixed"
	case Failed:
		return "Failed"
	}
	return fmt.Sprintf("Outcome(%d)", uint8(o))
}

// Failure classifies why a file failed.
type Failure uint8

const (
	FailNone Failure = iota
	FailFileNotFound
	FailIO
	FailAmbiguity
	FailCanceled
)

func (f Failure) String() string {
	switch f {
	case FailNone:
		return ""
	case FailFileNotFound:
		return "FileNotFound"
	case FailIO:
		return "IOFailure"
	case FailAmbiguity:
		return "StructuralAmbiguity"
	case FailCanceled:
		return "Canceled"
	}
	return fmt.Sprintf("Failure(%d)", uint8(f))
}

// FileResult is the per-file report.
type FileResult struct {
	Path    string
	Outcome Outcome
	Failure Failure
	Reason  string
	Err     error

	File      *source.File
	Files     *source.FileSet
	Detection *anomaly.Result
	Plan      *plan.Plan
	// Lines is the repaired content; nil unless Outcome is Fixed.
	Lines []string

	Inserted   int
	Moved      int
	Reindented int
	Renamed    int
	Written    bool
	Cached     bool

	Bag   *diag.Bag
	Timer *observ.Timer
}

// Summary aggregates outcomes of a batch.
type Summary struct {
	Total     int `json:"total"`
	Fixed     int `json:"fixed"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// BatchResult holds results in input order.
type BatchResult struct {
	Files   []FileResult
	Summary Summary
	Timings pipeline.Timings
}

// HasFailures reports whether any file failed.
func (r *BatchResult) HasFailures() bool {
	return r != nil && r.Summary.Failed > 0
}

func (r *BatchResult) tally() {
	r.Summary = Summary{Total: len(r.Files)}
	for i := range r.Files {
		switch r.Files[i].Outcome {
		case Fixed:
			r.Summary.Fixed++
		case NoChangeNeeded:
			r.Summary.Unchanged++
		case Failed:
			r.Summary.Failed++
		}
		for _, ph := range r.Files[i].Timer.Phases() {
			r.Timings.Add(pipeline.Stage(ph.Name), ph.Dur)
		}
	}
}

func (fr *FileResult) fail(kind Failure, code diag.Code, err error) {
	fr.Outcome = Failed
	fr.Failure = kind
	fr.Err = err
	fr.Reason = err.Error()
	fr.Lines = nil
	if fr.Bag != nil {
		primary := source.Span{}
		if fr.File != nil {
			primary = source.At(fr.File.ID, 0)
		}
		fr.Bag.Add(diag.NewError(code, primary, fr.Reason))
	}
}
