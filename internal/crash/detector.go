// Package crash looks for crash artifacts the browser left behind.
package crash

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Dump is one minidump found after a cycle.
type Dump struct {
	Path         string
	Stack        string
	Symbolicated bool
	// set when the dump was moved into the archive directory
	ArchivedTo string
}

// Report describes the crashes found. A nil *Report means no crash.
type Report struct {
	Dumps         []Dump
	JavaException string
}

func (r *Report) String() string {
	if r == nil {
		return "no crash"
	}
	var b strings.Builder
	if r.JavaException != "" {
		fmt.Fprintf(&b, "java exception: %s\n", r.JavaException)
	}
	for _, d := range r.Dumps {
		fmt.Fprintf(&b, "minidump %s", filepath.Base(d.Path))
		if d.ArchivedTo != "" {
			fmt.Fprintf(&b, " (archived to %s)", d.ArchivedTo)
		}
		if !d.Symbolicated {
			b.WriteString(" [no symbols]")
		}
		b.WriteString("\n")
		if d.Stack != "" {
			b.WriteString(d.Stack)
			if !strings.HasSuffix(d.Stack, "\n") {
				b.WriteString("\n")
			}
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

type Options struct {
	// minidump_stackwalk binary; symbolication is skipped when it is missing
	StackwalkPath string
	// found dumps are compressed into this directory and removed from the
	// profile; empty leaves them in place
	ArchiveDir string
	// logcat captured from a remote device, checked before minidumps
	LogcatPath string
}

type Detector struct {
	opts   Options
	logger *slog.Logger
}

func NewDetector(opts Options, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{opts: opts, logger: logger}
}

// Detect scans artifactRoot for minidumps written at or after since. It
// returns nil, nil when nothing was found; I/O failures are returned as
// errors.
func (d *Detector) Detect(artifactRoot string, symbolsPath string, since time.Time) (*Report, error) {
	if d.opts.LogcatPath != "" {
		exc, err := CheckJavaException(d.opts.LogcatPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read logcat: %w", err)
		}
		if exc != "" {
			return &Report{JavaException: exc}, nil
		}
	}

	dumps, err := findDumps(artifactRoot, since)
	if err != nil {
		return nil, err
	}
	if len(dumps) == 0 {
		return nil, nil
	}

	report := &Report{}
	for _, path := range dumps {
		dump := Dump{Path: path}
		if symbolsPath != "" {
			dump.Stack, dump.Symbolicated = d.symbolicate(path, symbolsPath)
		}
		if d.opts.ArchiveDir != "" {
			archived, err := archiveDump(path, d.opts.ArchiveDir)
			if err != nil {
				d.logger.Warn("failed to archive minidump", "path", path, "error", err)
			} else {
				dump.ArchivedTo = archived
			}
		}
		report.Dumps = append(report.Dumps, dump)
	}
	return report, nil
}

func findDumps(root string, since time.Time) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read minidump directory %s: %w", root, err)
	}

	// mtime has coarse resolution on some filesystems
	since = since.Truncate(time.Second)

	var res []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".dmp" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to stat minidump %s: %w", e.Name(), err)
		}
		if info.ModTime().Before(since) {
			continue
		}
		res = append(res, filepath.Join(root, e.Name()))
	}
	sort.Strings(res)
	return res, nil
}
