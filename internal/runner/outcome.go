package runner

import (
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/programme-lv/perftester/internal/counters"
	"github.com/programme-lv/perftester/internal/crash"
	"github.com/programme-lv/perftester/internal/process"
)

type OutcomeKind int

const (
	Completed OutcomeKind = iota
	TimedOut
	Regression
	CrashDetected
	StaleProcess
)

func (k OutcomeKind) String() string {
	switch k {
	case Completed:
		return "completed"
	case TimedOut:
		return "timed_out"
	case Regression:
		return "regression"
	case CrashDetected:
		return "crash_detected"
	case StaleProcess:
		return "stale_process"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// CycleOutcome is the result of one cycle. Every outcome reached after the
// monitor loop carries the counter series sampled so far; only Completed
// outcomes carry the log.
type CycleOutcome struct {
	Kind   OutcomeKind
	Cycle  int
	Ticks  int
	Log    string
	Series counters.Series

	timeout    time.Duration
	markerPath string
	report     *crash.Report
	procs      mapset.Set[process.Proc]
}

// Err converts a non-completed outcome into its terminal error.
func (o CycleOutcome) Err() error {
	switch o.Kind {
	case Completed:
		return nil
	case TimedOut:
		return &TimeoutError{Timeout: o.timeout, Ticks: o.Ticks}
	case Regression:
		return &RegressionError{MarkerPath: o.markerPath}
	case CrashDetected:
		return &CrashError{Report: o.report}
	case StaleProcess:
		return &StaleProcessError{Procs: o.procs, Stage: StageBetweenCycles, Cycle: o.Cycle}
	}
	return fmt.Errorf("unknown cycle outcome %v", o.Kind)
}

// CycleResult is a completed cycle as handed to the caller.
type CycleResult struct {
	Log    string
	Series counters.Series
	Ticks  int
}

// RunResult holds every completed cycle and the cross-cycle counters.
type RunResult struct {
	RunUuid string
	Cycles  []CycleResult
	Global  counters.Series
}
