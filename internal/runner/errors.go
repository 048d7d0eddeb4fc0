package runner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/programme-lv/perftester/internal/crash"
	"github.com/programme-lv/perftester/internal/process"
)

// ErrTerminal matches every error that classifies a failed run, as opposed
// to I/O or configuration failures.
var ErrTerminal = errors.New("terminal run failure")

type LaunchError struct {
	Argv []string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("error executing browser command line '%s': %v", strings.Join(e.Argv, " "), e.Err)
}

func (e *LaunchError) Unwrap() error       { return e.Err }
func (e *LaunchError) Is(target error) bool { return target == ErrTerminal }
func (e *LaunchError) Kind() string        { return "launch" }

// Stage tells when stray browser processes were found.
type Stage string

const (
	StagePreflight     Stage = "preflight"
	StageAfterInit     Stage = "after_init"
	StageBetweenCycles Stage = "between_cycles"
)

type StaleProcessError struct {
	Procs mapset.Set[process.Proc]
	Stage Stage
	// cycle about to start; only meaningful for StageBetweenCycles
	Cycle int
}

func (e *StaleProcessError) Error() string {
	procs := process.FormatProcs(e.Procs)
	switch e.Stage {
	case StageAfterInit:
		return fmt.Sprintf("browser failed to close after being initialized: %s", procs)
	case StageBetweenCycles:
		return fmt.Sprintf("previous cycle still running before cycle %d: %s", e.Cycle, procs)
	}
	return fmt.Sprintf("found processes still running: %s. Please close them before running tests", procs)
}

func (e *StaleProcessError) Is(target error) bool { return target == ErrTerminal }
func (e *StaleProcessError) Kind() string        { return "stale_process" }

type NoOutputError struct {
	Path string
}

func (e *NoOutputError) Error() string {
	return fmt.Sprintf("no output from browser [%s]", e.Path)
}

func (e *NoOutputError) Is(target error) bool { return target == ErrTerminal }
func (e *NoOutputError) Kind() string        { return "no_output" }

type TimeoutError struct {
	Timeout time.Duration
	Ticks   int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout exceeded: browser still running after %s (%d ticks)", e.Timeout, e.Ticks)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTerminal }
func (e *TimeoutError) Kind() string        { return "timeout" }

// RegressionError means the workload wrote the error marker file.
type RegressionError struct {
	MarkerPath string
	// the marker predates the run
	Stale bool
}

func (e *RegressionError) Error() string {
	if e.Stale {
		return fmt.Sprintf("error marker %s left over from a previous run; remove it before testing", e.MarkerPath)
	}
	return fmt.Sprintf("regression found: workload wrote %s", e.MarkerPath)
}

func (e *RegressionError) Is(target error) bool { return target == ErrTerminal }
func (e *RegressionError) Kind() string        { return "regression" }

type CrashError struct {
	Report *crash.Report
}

func (e *CrashError) Error() string {
	return "found crashes after test run, terminating test\n" + e.Report.String()
}

func (e *CrashError) Is(target error) bool { return target == ErrTerminal }
func (e *CrashError) Kind() string        { return "crash" }
