package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/programme-lv/perftester/internal/browserlog"
	"github.com/programme-lv/perftester/internal/counters"
	"github.com/programme-lv/perftester/internal/profile"
)

// runCycle launches the browser once and monitors it until it exits or the
// timeout passes. Failures that are not cycle outcomes are returned as
// errors.
func (r *Runner) runCycle(i int, profileDir string) (out CycleOutcome, err error) {
	cfg := r.cfg
	out.Cycle = i
	log := r.logger.With("cycle", i)

	if err := browserlog.Remove(cfg.BrowserLog); err != nil {
		return out, fmt.Errorf("failed to remove browser log: %w", err)
	}
	if err := browserlog.Remove(cfg.ErrorFilename); err != nil {
		return out, fmt.Errorf("failed to remove error marker: %w", err)
	}

	// wait out the previous browser closing
	if !cfg.Remote {
		r.sleep(cfg.BrowserWait)
	}

	if i > 0 {
		procs, err := r.sup.ListMatching(cfg.Process, cfg.ChildProcess)
		if err != nil {
			return out, err
		}
		if procs.Cardinality() > 0 {
			out.Kind = StaleProcess
			out.procs = procs
			return out, nil
		}
	}

	argv := profile.CommandLine(cfg.Controller, cfg.BrowserPath, cfg.ExtraArgs, profileDir, cfg.Test.URL)
	log.Debug("launching browser", "argv", argv)
	h, err := r.sup.Launch(argv, os.Environ())
	if err != nil {
		return out, &LaunchError{Argv: argv, Err: err}
	}
	terminated := false
	defer func() {
		if terminated {
			return
		}
		if termErr := r.sup.Terminate(h); termErr != nil && err == nil {
			err = termErr
		}
	}()

	// give the browser a chance to open before sampling starts
	if !cfg.Remote {
		r.sleep(cfg.BrowserWait)
	}

	names := cfg.Test.Counters
	series := counters.NewSeries(names)
	if len(names) > 0 {
		s, err := r.samplers(cfg.Process, names)
		if err != nil {
			return out, fmt.Errorf("failed to start counter sampler: %w", err)
		}
		r.active = s
	}

	exited := false
	previous := ""
	timeout, resolution := cfg.Test.Timeout, cfg.Test.Resolution
	var elapsed time.Duration
	for elapsed < timeout {
		r.sleep(resolution)
		elapsed += resolution
		out.Ticks++

		delta, full, err := r.readLog(cfg.BrowserLog, previous)
		if err != nil {
			log.Warn("failed to read browser log", "path", cfg.BrowserLog, "error", err)
		} else if delta != "" {
			log.Info("browser output", "text", delta)
			previous = full
		}

		for _, name := range names {
			if v, ok := r.active.Sample(name); ok {
				series.Append(name, v)
			}
		}

		if st := r.sup.Poll(h); st.Exited {
			log.Debug("browser exited", "exit_code", st.ExitCode, "ticks", out.Ticks)
			exited = true
			break
		}
	}
	out.Series = series

	terminated = true
	if err := r.sup.Terminate(h); err != nil {
		return out, err
	}

	if !exited {
		out.Kind = TimedOut
		out.timeout = timeout
		return out, nil
	}
	r.stopSampler()

	if !browserlog.Exists(cfg.BrowserLog) {
		return out, &NoOutputError{Path: cfg.BrowserLog}
	}
	if browserlog.Exists(cfg.ErrorFilename) {
		out.Kind = Regression
		out.markerPath = cfg.ErrorFilename
		return out, nil
	}

	_, logContent, err := r.readLog(cfg.BrowserLog, "")
	if err != nil {
		return out, fmt.Errorf("failed to read browser log: %w", err)
	}

	if !cfg.Remote {
		r.sleep(cfg.BrowserWait)
	}

	if err := r.checkCrashes(profileDir); err != nil {
		var ce *CrashError
		if errors.As(err, &ce) {
			out.Kind = CrashDetected
			out.report = ce.Report
			return out, nil
		}
		return out, err
	}

	out.Kind = Completed
	out.Log = logContent
	return out, nil
}

// checkCrashes kills leftover browser processes and looks for minidumps in
// the profile. A crash is reported as *CrashError.
func (r *Runner) checkCrashes(profileDir string) error {
	cfg := r.cfg
	if err := r.sup.KillMatching(cfg.Process, cfg.ChildProcess, cfg.BrowserWait); err != nil {
		r.logger.Warn("failed to clean up browser processes", "error", err)
	}

	report, err := r.crashes.Detect(filepath.Join(profileDir, "minidumps"), cfg.SymbolsPath, r.started)
	if err != nil {
		return fmt.Errorf("failed to check for crashes: %w", err)
	}
	if report != nil {
		return &CrashError{Report: report}
	}
	return nil
}
