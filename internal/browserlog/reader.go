// Package browserlog reads the log file the browser writes during a cycle.
package browserlog

import (
	"errors"
	"io/fs"
	"os"
	"strings"
)

// ReadIncremental reads the log at path and returns the part not already
// present in previous, along with the full current content. A log that does
// not exist yet reads as empty.
func ReadIncremental(path string, previous string) (delta string, full string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", "", nil
		}
		return "", "", err
	}
	full = string(data)

	switch {
	case previous == "":
		delta = full
	case strings.HasPrefix(full, previous):
		delta = full[len(previous):]
	default:
		// rewritten rather than appended to
		delta = strings.ReplaceAll(full, previous, "")
	}

	if strings.TrimSpace(delta) == "" {
		delta = ""
	}
	return delta, full, nil
}

// Exists reports whether the log was created.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes a log or marker file left by a previous cycle. Read-only
// files are made writable first.
func Remove(path string) error {
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.Chmod(path, 0777); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
