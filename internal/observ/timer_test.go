package observ

import (
	"strings"
	"testing"
	"time"
)

func TestTimerPhases(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("scan")
	tm.End(idx, "12 blocks")
	tm.End(42, "ignored")
	if ps := tm.Phases(); len(ps) != 1 || ps[0].Note != "12 blocks" {
		t.Fatalf("phases = %+v", ps)
	}
	if !strings.Contains(tm.Summary(), "scan") {
		t.Fatalf("summary = %q", tm.Summary())
	}
	if r := tm.Report(); len(r.Phases) != 1 || r.Phases[0].Name != "scan" {
		t.Fatalf("report = %+v", r)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if tm.Phases() != nil || len(tm.Report().Phases) != 0 {
		t.Fatal("nil timer must be inert")
	}
}

func TestDurationToMillis(t *testing.T) {
	if got := DurationToMillis(1500 * time.Microsecond); got != 1.5 {
		t.Fatalf("got %v", got)
	}
}
