package runner

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/programme-lv/perftester/internal/config"
	"github.com/programme-lv/perftester/internal/counters"
	"github.com/programme-lv/perftester/internal/crash"
	"github.com/programme-lv/perftester/internal/process"
	"github.com/programme-lv/perftester/internal/profile"
)

type fakeHandle int

func (h fakeHandle) Pid() int { return int(h) }

type fakeSupervisor struct {
	// stray process sets returned by successive ListMatching calls; calls
	// past the end find nothing
	stray     []mapset.Set[process.Proc]
	listCalls int

	launchErr error
	launches  int
	env       []string

	// poll on which the browser exits; 0 means never
	exitAtPoll int
	polls      int
	onPoll     func(poll int)

	terminations int
	termErr      error
	kills        int
}

func (f *fakeSupervisor) Launch(argv []string, env []string) (process.Handle, error) {
	if f.launchErr != nil {
		return nil, f.launchErr
	}
	f.launches++
	f.polls = 0
	f.env = env
	return fakeHandle(1000 + f.launches), nil
}

func (f *fakeSupervisor) Poll(process.Handle) process.Status {
	f.polls++
	if f.onPoll != nil {
		f.onPoll(f.polls)
	}
	if f.exitAtPoll > 0 && f.polls >= f.exitAtPoll {
		return process.Status{Exited: true}
	}
	return process.Status{}
}

func (f *fakeSupervisor) Terminate(process.Handle) error {
	f.terminations++
	return f.termErr
}

func (f *fakeSupervisor) ListMatching(string, string) (mapset.Set[process.Proc], error) {
	f.listCalls++
	if f.listCalls <= len(f.stray) && f.stray[f.listCalls-1] != nil {
		return f.stray[f.listCalls-1], nil
	}
	return mapset.NewThreadUnsafeSet[process.Proc](), nil
}

func (f *fakeSupervisor) KillMatching(string, string, time.Duration) error {
	f.kills++
	return nil
}

type fakeProfiles struct {
	root     string
	creates  int
	removes  int
	initErr  error
	removed  []string
	createFn func() error
}

func (f *fakeProfiles) CreateProfile(string, map[string]any, []string, string) (string, string, error) {
	f.creates++
	if f.createFn != nil {
		if err := f.createFn(); err != nil {
			return "", "", err
		}
	}
	return filepath.Join(f.root, "profile"), f.root, nil
}

func (f *fakeProfiles) InitializeProfile(string, profile.InitOptions) error {
	return f.initErr
}

func (f *fakeProfiles) RemoveDirectory(dir string) error {
	f.removes++
	f.removed = append(f.removed, dir)
	return nil
}

type fakeDetector struct {
	reports []*crash.Report
	calls   int
	roots   []string
	err     error
}

func (f *fakeDetector) Detect(root string, _ string, _ time.Time) (*crash.Report, error) {
	f.calls++
	f.roots = append(f.roots, root)
	if f.err != nil {
		return nil, f.err
	}
	if f.calls <= len(f.reports) {
		return f.reports[f.calls-1], nil
	}
	return nil, nil
}

// fakeSampler returns tick-indexed values; absent reports whether a
// counter has no value on a given tick (1-based).
type fakeSampler struct {
	ticks    map[string]int
	absent   func(name string, tick int) bool
	onSample func(name string)
	stopped  int
}

func (s *fakeSampler) Sample(name string) (float64, bool) {
	if s.onSample != nil {
		s.onSample(name)
	}
	s.ticks[name]++
	if s.absent != nil && s.absent(name, s.ticks[name]) {
		return 0, false
	}
	return float64(s.ticks[name] * 100), true
}

func (s *fakeSampler) Stop() { s.stopped++ }

type harness struct {
	cfg      config.RunConfig
	sup      *fakeSupervisor
	profiles *fakeProfiles
	detector *fakeDetector
	sampler  *fakeSampler
	factory  int
	slept    time.Duration
	logger   *slog.Logger
}

func newHarness(t *testing.T) *harness {
	dir := t.TempDir()
	return &harness{
		cfg: config.RunConfig{
			BrowserPath:   "/opt/firefox/firefox",
			Process:       "firefox",
			ChildProcess:  "plugin-container",
			BrowserLog:    filepath.Join(dir, "browser_output.txt"),
			ErrorFilename: filepath.Join(dir, "errorfile"),
			BrowserWait:   5 * time.Second,
			Test: config.TestConfig{
				Name:       "ts_paint",
				URL:        "http://localhost/startup_test/tspaint_test.html",
				Cycles:     1,
				Timeout:    5 * time.Second,
				Resolution: time.Second,
				Counters:   []string{"RSS"},
			},
		},
		sup:      &fakeSupervisor{},
		profiles: &fakeProfiles{root: filepath.Join(dir, "tmp")},
		detector: &fakeDetector{},
		sampler:  &fakeSampler{ticks: map[string]int{}},
	}
}

func (h *harness) runner(deps Deps) *Runner {
	deps.Supervisor = h.sup
	deps.Profiles = h.profiles
	deps.Crashes = h.detector
	deps.Samplers = func(string, []string) (counters.Sampler, error) {
		h.factory++
		return h.sampler, nil
	}
	deps.Logger = h.logger
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := New(h.cfg, deps)
	r.sleep = func(d time.Duration) { h.slept += d }
	return r
}

// writeLogOn makes the fake browser write content to its log on the
// given poll.
func (h *harness) writeLogOn(t *testing.T, poll int, content string) {
	h.sup.onPoll = func(n int) {
		if n == poll {
			if err := os.WriteFile(h.cfg.BrowserLog, []byte(content), 0644); err != nil {
				t.Error(err)
			}
		}
	}
}

func stray(procs ...process.Proc) mapset.Set[process.Proc] {
	return mapset.NewThreadUnsafeSet(procs...)
}

var errBoom = errors.New("boom")
