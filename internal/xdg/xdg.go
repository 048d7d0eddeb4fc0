// Package xdg resolves perftester's default directories following the
// XDG Base Directory layout.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "perftester"

type Dirs struct {
	dataHome   string
	stateHome  string
	cacheHome  string
	runtimeDir string
}

// New reads the XDG_* variables, falling back to the defaults under $HOME.
func New() *Dirs {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
		if homeDir == "" {
			homeDir = os.TempDir()
		}
	}

	d := &Dirs{
		dataHome:   envOr("XDG_DATA_HOME", filepath.Join(homeDir, ".local", "share")),
		stateHome:  envOr("XDG_STATE_HOME", filepath.Join(homeDir, ".local", "state")),
		cacheHome:  envOr("XDG_CACHE_HOME", filepath.Join(homeDir, ".cache")),
		runtimeDir: os.Getenv("XDG_RUNTIME_DIR"),
	}
	if d.runtimeDir == "" {
		d.runtimeDir = filepath.Join(os.TempDir(), appName+"-runtime-"+os.Getenv("USER"))
	}
	return d
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ProfilesDir holds the temporary browser profiles of running tests.
func (d *Dirs) ProfilesDir() string {
	return filepath.Join(d.runtimeDir, appName, "profiles")
}

// CrashArchiveDir receives compressed minidumps.
func (d *Dirs) CrashArchiveDir() string {
	return filepath.Join(d.dataHome, appName, "crashes")
}

// HistoryDB is the default SQLite results store.
func (d *Dirs) HistoryDB() string {
	return filepath.Join(d.stateHome, appName, "history.db")
}

// BreakpadDir is where minidump_stackwalk builds are looked up when no
// explicit path is configured.
func (d *Dirs) BreakpadDir() string {
	return filepath.Join(d.cacheHome, appName, "breakpad")
}

// EnsureDir creates path and its parents.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// EnsureRuntimeDir creates path with owner-only permissions.
func EnsureRuntimeDir(path string) error {
	return os.MkdirAll(path, 0700)
}
