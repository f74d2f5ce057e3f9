package main

import (
	"fmt"
	"io"

	"blockfix/internal/observ"
	"blockfix/internal/pipeline"
)

func printStageTimings(out io.Writer, timings pipeline.Timings) {
	if out == nil {
		return
	}
	for _, stage := range pipeline.Stages {
		if !timings.Has(stage) {
			continue
		}
		fmt.Fprintf(out, "%-7s %.1f ms\n", stage, observ.DurationToMillis(timings.Duration(stage)))
	}
	total := timings.Sum(pipeline.Stages...)
	fmt.Fprintf(out, "%-7s %.1f ms\n", "total", observ.DurationToMillis(total))
}
