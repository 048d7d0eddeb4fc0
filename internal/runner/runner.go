// Package runner drives a browser performance test: it launches the
// browser once per cycle, samples counters while it runs and validates
// what it left behind.
package runner

import (
	"log/slog"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/programme-lv/perftester/internal/browserlog"
	"github.com/programme-lv/perftester/internal/config"
	"github.com/programme-lv/perftester/internal/counters"
	"github.com/programme-lv/perftester/internal/crash"
	"github.com/programme-lv/perftester/internal/process"
	"github.com/programme-lv/perftester/internal/profile"
	"github.com/programme-lv/perftester/internal/results"
)

type Supervisor interface {
	Launch(argv []string, env []string) (process.Handle, error)
	Poll(h process.Handle) process.Status
	Terminate(h process.Handle) error
	ListMatching(processName, childProcessName string) (mapset.Set[process.Proc], error)
	KillMatching(processName, childProcessName string, wait time.Duration) error
}

type ProfileManager interface {
	CreateProfile(basePath string, prefs map[string]any, extensions []string, webserver string) (profileDir string, tempDir string, err error)
	InitializeProfile(profileDir string, opts profile.InitOptions) error
	RemoveDirectory(dir string) error
}

type CrashDetector interface {
	Detect(artifactRoot string, symbolsPath string, since time.Time) (*crash.Report, error)
}

type Deps struct {
	Supervisor Supervisor
	Profiles   ProfileManager
	Crashes    CrashDetector
	// nil disables counter sampling
	Samplers   counters.Factory
	Aggregator results.Aggregator
	Logger     *slog.Logger
}

type Runner struct {
	cfg      config.RunConfig
	sup      Supervisor
	profiles ProfileManager
	crashes  CrashDetector
	samplers counters.Factory
	agg      results.Aggregator
	logger   *slog.Logger

	sleep   func(time.Duration)
	now     func() time.Time
	readLog func(path, previous string) (delta, full string, err error)

	// sampler of the cycle in progress, stopped by the cleanup pass
	active  counters.Sampler
	started time.Time
}

func New(cfg config.RunConfig, deps Deps) *Runner {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	samplers := deps.Samplers
	if samplers == nil {
		samplers = counters.NoopFactory
	}
	return &Runner{
		cfg:      cfg,
		sup:      deps.Supervisor,
		profiles: deps.Profiles,
		crashes:  deps.Crashes,
		samplers: samplers,
		agg:      deps.Aggregator,
		logger:   logger.With("test", cfg.Test.Name),
		sleep:    time.Sleep,
		now:      time.Now,
		readLog:  browserlog.ReadIncremental,
	}
}

func (r *Runner) stopSampler() {
	if r.active != nil {
		r.active.Stop()
		r.active = nil
	}
}
