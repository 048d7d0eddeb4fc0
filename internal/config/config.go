// Package config loads and validates the description of one test run.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/programme-lv/perftester/internal/counters"
	"github.com/programme-lv/perftester/internal/profile"
)

// ErrInvalid wraps every load and validation failure.
var ErrInvalid = errors.New("invalid configuration")

const (
	DefaultTimeout       = 7200 * time.Second
	DefaultInitTimeout   = 300 * time.Second
	DefaultResolution    = time.Second
	DefaultBrowserWait   = 5 * time.Second
	DefaultBrowserLog    = "browser_output.txt"
	DefaultErrorFilename = "errorfile"
	DefaultChildProcess  = "plugin-container"
)

// RunConfig is the fully resolved description of one invocation. It is
// produced by Load and never modified afterwards.
type RunConfig struct {
	Title        string
	BrowserPath  string
	ExtraArgs    []string
	Controller   []string
	Process      string
	ChildProcess string
	BrowserLog   string
	// marker file a workload writes when it detects a regression
	ErrorFilename string
	BrowserWait   time.Duration
	SymbolsPath   string
	StackwalkPath string
	CrashArchive  string
	Remote        bool
	Webserver     string
	Env           map[string]string
	// run level preferences overridden by the test's own
	Preferences map[string]any
	Extensions  []string
	LogcatPath  string
	XperfPath   string
	Sampler     counters.Kind
	// whether the event loop instrumentation works on this host
	ResponsivenessSupported bool
	Test                    TestConfig
}

type TestConfig struct {
	Name        string
	URL         string
	InitURL     string
	Cycles      int
	Timeout     time.Duration
	InitTimeout time.Duration
	Resolution  time.Duration
	ProfilePath string
	Shutdown    bool
	// requested by the test; see RunConfig.MeasureResponsiveness
	Responsiveness bool
	// counters for the selected sampler's platform
	Counters      []string
	XperfCounters []string
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) run file.
func Load(path string) (RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return Parse(data, strings.ToLower(filepath.Ext(path)))
}

// Parse decodes a run file given its extension.
func Parse(data []byte, ext string) (RunConfig, error) {
	var fc fileConfig
	var err error
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	default:
		return RunConfig{}, fmt.Errorf("%w: unsupported config format %q", ErrInvalid, ext)
	}
	if err != nil {
		return RunConfig{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return resolve(fc)
}

func resolve(fc fileConfig) (RunConfig, error) {
	cfg := RunConfig{
		Title:         fc.Title,
		BrowserPath:   fc.BrowserPath,
		ExtraArgs:     fc.ExtraArgs,
		Controller:    fc.Controller,
		Process:       fc.Process,
		ChildProcess:  DefaultChildProcess,
		BrowserLog:    orDefault(fc.BrowserLog, DefaultBrowserLog),
		ErrorFilename: orDefault(fc.ErrorFilename, DefaultErrorFilename),
		BrowserWait:   seconds(fc.BrowserWait, DefaultBrowserWait),
		SymbolsPath:   fc.SymbolsPath,
		StackwalkPath: fc.StackwalkPath,
		CrashArchive:  fc.CrashArchive,
		Remote:        fc.Remote,
		Webserver:     fc.Webserver,
		Env:           fc.Env,
		LogcatPath:    fc.LogcatPath,
		XperfPath:     fc.XperfPath,
		// the event loop instrumentation is broken on linux
		ResponsivenessSupported: runtime.GOOS != "linux",
	}
	if fc.ChildProcess != nil {
		cfg.ChildProcess = *fc.ChildProcess
	}
	if fc.ResponsivenessSupported != nil {
		cfg.ResponsivenessSupported = *fc.ResponsivenessSupported
	}
	if cfg.Process == "" && cfg.BrowserPath != "" {
		cfg.Process = filepath.Base(cfg.BrowserPath)
	}

	cfg.Sampler = counters.DefaultKind(cfg.Remote)
	if fc.Sampler != "" {
		k, err := counters.ParseKind(fc.Sampler)
		if err != nil {
			return RunConfig{}, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		cfg.Sampler = k
	}

	t := fc.Test
	cfg.Test = TestConfig{
		Name:           t.Name,
		URL:            t.URL,
		InitURL:        t.InitURL,
		Cycles:         1,
		Timeout:        seconds(t.Timeout, DefaultTimeout),
		InitTimeout:    seconds(t.InitTimeout, DefaultInitTimeout),
		Resolution:     seconds(t.Resolution, DefaultResolution),
		ProfilePath:    t.ProfilePath,
		Shutdown:       t.Shutdown,
		Responsiveness: t.Responsiveness,
		Counters:       t.Counters[cfg.Sampler.Platform()],
		XperfCounters:  t.XperfCounters,
	}
	if t.Cycles != nil {
		cfg.Test.Cycles = *t.Cycles
	}
	if cfg.Test.ProfilePath != "" {
		cfg.Test.ProfilePath = filepath.Clean(cfg.Test.ProfilePath)
	}

	cfg.Preferences = mergePrefs(fc.Preferences, t.Preferences)
	cfg.Extensions = append(append([]string{}, fc.Extensions...), t.Extensions...)

	if err := cfg.Validate(); err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}

// Validate reports the first problem that would make the run meaningless.
func (c RunConfig) Validate() error {
	var problems []string
	if c.BrowserPath == "" {
		problems = append(problems, "browser_path is required")
	}
	if c.Test.Name == "" {
		problems = append(problems, "test.name is required")
	}
	if c.Test.URL == "" {
		problems = append(problems, "test.url is required")
	}
	if c.Test.Cycles < 1 {
		problems = append(problems, fmt.Sprintf("test.cycles must be positive, got %d", c.Test.Cycles))
	}
	if c.Test.Resolution <= 0 {
		problems = append(problems, "test.resolution must be positive")
	}
	if c.Test.Timeout < c.Test.Resolution {
		problems = append(problems, "test.timeout must not be shorter than test.resolution")
	}
	if c.BrowserWait < 0 {
		problems = append(problems, "browser_wait must not be negative")
	}
	if c.BrowserLog == "" || c.ErrorFilename == "" {
		problems = append(problems, "browser_log and error_filename must not be empty")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// MeasureResponsiveness is true when the test asks for responsiveness and
// the host supports collecting it.
func (c RunConfig) MeasureResponsiveness() bool {
	return c.Test.Responsiveness && c.ResponsivenessSupported
}

// GlobalCounters names the counters collected once per run.
func (c RunConfig) GlobalCounters() []string {
	var names []string
	if c.XperfPath != "" {
		names = append(names, c.Test.XperfCounters...)
	}
	if c.Test.Shutdown {
		names = append(names, "shutdown")
	}
	if c.MeasureResponsiveness() {
		names = append(names, "responsiveness")
	}
	return names
}

func mergePrefs(run, test map[string]any) map[string]any {
	res := make(map[string]any, len(run)+len(test))
	maps.Copy(res, run)
	for k, v := range test {
		res[k] = profile.ParsePref(v)
	}
	return res
}

func seconds(v *float64, fallback time.Duration) time.Duration {
	if v == nil {
		return fallback
	}
	return time.Duration(*v * float64(time.Second))
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
