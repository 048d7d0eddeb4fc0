// Package profile creates, initializes and removes the temporary browser
// profiles a test run measures against.
package profile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/programme-lv/perftester/internal/process"
)

// Launcher is the subset of the process supervisor used to start the
// browser once during initialization.
type Launcher interface {
	Launch(argv []string, env []string) (process.Handle, error)
	Poll(h process.Handle) process.Status
	Terminate(h process.Handle) error
}

type Manager struct {
	root     string
	launcher Launcher
	logger   *slog.Logger
	sleep    func(time.Duration)
}

// NewManager creates profiles in fresh temporary directories below root.
func NewManager(root string, launcher Launcher, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		root:     root,
		launcher: launcher,
		logger:   logger,
		sleep:    time.Sleep,
	}
}

// CreateProfile copies basePath into a new temporary directory, appends the
// preferences to user.js and installs the extensions. The returned tempDir
// is the directory to remove once the run is over; profileDir lies inside it.
func (m *Manager) CreateProfile(basePath string, prefs map[string]any, extensions []string, webserver string) (profileDir string, tempDir string, err error) {
	if err := os.MkdirAll(m.root, 0700); err != nil {
		return "", "", fmt.Errorf("failed to create profile root: %w", err)
	}
	tempDir, err = os.MkdirTemp(m.root, "profile-")
	if err != nil {
		return "", "", fmt.Errorf("failed to create temp profile dir: %w", err)
	}
	defer func() {
		if err != nil {
			_ = RemoveDirectory(tempDir)
		}
	}()

	profileDir = filepath.Join(tempDir, "profile")
	if basePath != "" {
		if err := copyTree(filepath.Clean(basePath), profileDir); err != nil {
			return "", "", fmt.Errorf("failed to copy base profile %s: %w", basePath, err)
		}
	} else if err := os.MkdirAll(profileDir, 0755); err != nil {
		return "", "", err
	}

	if err := writeUserPrefs(filepath.Join(profileDir, "user.js"), prefs, webserver); err != nil {
		return "", "", fmt.Errorf("failed to write preferences: %w", err)
	}

	for _, ext := range extensions {
		if err := installExtension(profileDir, ext); err != nil {
			return "", "", fmt.Errorf("failed to install extension %s: %w", ext, err)
		}
	}

	m.logger.Debug("created profile", "dir", profileDir, "prefs", len(prefs), "extensions", len(extensions))
	return profileDir, tempDir, nil
}

// RemoveDirectory makes the tree writable and deletes it. Browsers
// occasionally leave read-only files behind. A missing dir is not an error.
func RemoveDirectory(dir string) error {
	if dir == "" {
		return nil
	}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		mode := os.FileMode(0666)
		if d.IsDir() {
			mode = 0777
		}
		_ = os.Chmod(path, mode)
		return nil
	})
	if err := os.RemoveAll(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", dir, err)
	}
	return nil
}

func (m *Manager) RemoveDirectory(dir string) error {
	m.logger.Debug("removing profile", "dir", dir)
	return RemoveDirectory(dir)
}

func installExtension(profileDir, ext string) error {
	info, err := os.Stat(ext)
	if err != nil {
		return err
	}
	dst := filepath.Join(profileDir, "extensions", filepath.Base(ext))
	if info.IsDir() {
		return copyTree(ext, dst)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return copyFile(ext, dst, info.Mode())
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dst string, mode fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	// copies stay writable so RemoveDirectory never trips over them
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm()|0200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
