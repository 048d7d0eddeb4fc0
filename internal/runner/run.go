package runner

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/programme-lv/perftester/internal/browserlog"
	"github.com/programme-lv/perftester/internal/counters"
	"github.com/programme-lv/perftester/internal/profile"
	"github.com/programme-lv/perftester/internal/results"
)

// Run executes every configured cycle. It either returns the results of
// all cycles or the first failure; there is no partial success. The
// process environment is restored and the profile removed on every path.
func (r *Runner) Run() (*RunResult, error) {
	cfg := r.cfg
	r.started = r.now()
	res := &RunResult{RunUuid: uuid.NewString()}

	restoreEnv, err := overrideEnv(cfg.EnvOverrides())
	if err != nil {
		return nil, err
	}
	defer restoreEnv()

	info := results.RunInfo{
		RunUuid:        res.RunUuid,
		Title:          cfg.Title,
		TestName:       cfg.Test.Name,
		Cycles:         cfg.Test.Cycles,
		Counters:       cfg.Test.Counters,
		GlobalCounters: cfg.GlobalCounters(),
	}
	if s, ok := r.agg.(results.Starter); ok {
		if err := s.Start(info); err != nil {
			return nil, fmt.Errorf("failed to start results: %w", err)
		}
	}

	err = r.preflight()
	if err == nil {
		err = r.run(res)
	}
	if f, ok := r.agg.(results.Finisher); ok {
		if finErr := f.Finish(err); finErr != nil {
			r.logger.Warn("failed to finish results", "error", finErr)
		}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Runner) preflight() error {
	cfg := r.cfg
	procs, err := r.sup.ListMatching(cfg.Process, cfg.ChildProcess)
	if err != nil {
		return err
	}
	if procs.Cardinality() > 0 {
		r.logger.Debug(cfg.Process+" already running before testing started (unclean system)")
		return &StaleProcessError{Procs: procs, Stage: StagePreflight}
	}
	if browserlog.Exists(cfg.ErrorFilename) {
		return &RegressionError{MarkerPath: cfg.ErrorFilename, Stale: true}
	}
	return nil
}

func (r *Runner) run(res *RunResult) (err error) {
	cfg := r.cfg
	var profileDir, tempDir string

	released := false
	release := func() {
		if released || tempDir == "" {
			return
		}
		released = true
		if rmErr := r.profiles.RemoveDirectory(tempDir); rmErr != nil {
			r.logger.Warn("failed to remove profile", "dir", tempDir, "error", rmErr)
		}
	}
	defer func() {
		if err != nil {
			r.cleanup(profileDir, err)
		}
		release()
	}()

	profileDir, tempDir, err = r.profiles.CreateProfile(cfg.Test.ProfilePath, cfg.Preferences, cfg.Extensions, cfg.Webserver)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	err = r.profiles.InitializeProfile(profileDir, profile.InitOptions{
		BrowserPath: cfg.BrowserPath,
		ExtraArgs:   cfg.ExtraArgs,
		Controller:  cfg.Controller,
		InitURL:     cfg.Test.InitURL,
		Env:         os.Environ(),
		Timeout:     cfg.Test.InitTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize browser: %w", err)
	}
	procs, err := r.sup.ListMatching(cfg.Process, cfg.ChildProcess)
	if err != nil {
		return err
	}
	if procs.Cardinality() > 0 {
		return &StaleProcessError{Procs: procs, Stage: StageAfterInit}
	}
	r.logger.Debug("initialized " + cfg.Process)

	globalNames := cfg.GlobalCounters()
	res.Global = counters.NewSeries(globalNames)

	for i := 0; i < cfg.Test.Cycles; i++ {
		out, err := r.runCycle(i, profileDir)
		if err != nil {
			return err
		}
		if err := out.Err(); err != nil {
			return err
		}

		if r.agg != nil {
			if err := r.agg.Record(out.Log, out.Series.Clone()); err != nil {
				return fmt.Errorf("failed to record cycle %d: %w", i, err)
			}
		}
		collectGlobal(res.Global, out.Log)
		res.Cycles = append(res.Cycles, CycleResult{Log: out.Log, Series: out.Series, Ticks: out.Ticks})
	}

	release()

	if r.agg != nil {
		if err := r.agg.RecordGlobal(res.Global.Clone()); err != nil {
			return fmt.Errorf("failed to record global counters: %w", err)
		}
	}
	return nil
}

// collectGlobal appends the cross-cycle values found in a cycle's log to
// the counters the run collects. Counters not in global are ignored.
func collectGlobal(global counters.Series, logContent string) {
	g := browserlog.ParseGlobal(logContent)
	if _, ok := global["shutdown"]; ok && g.Shutdown != nil {
		global.Append("shutdown", *g.Shutdown)
	}
	if _, ok := global["responsiveness"]; ok {
		for _, v := range g.Responsiveness {
			global.Append("responsiveness", v)
		}
	}
}

// cleanup is the single best-effort pass after a failed cycle. Nothing in
// it can fail the run further. A crash not already behind runErr is logged.
func (r *Runner) cleanup(profileDir string, runErr error) {
	r.stopSampler()

	if _, content, err := browserlog.ReadIncremental(r.cfg.BrowserLog, ""); err == nil && content != "" {
		r.logger.Info("browser output", "text", content)
	}

	if profileDir == "" {
		return
	}
	if err := r.checkCrashes(profileDir); err != nil {
		var ce *CrashError
		if !errors.As(err, &ce) {
			r.logger.Debug("cleanup error", "error", err)
			return
		}
		var reported *CrashError
		if !errors.As(runErr, &reported) {
			r.logger.Error("crash found during cleanup", "cause", runErr, "report", ce.Report.String())
		}
	}
}
