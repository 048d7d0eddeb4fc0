package crash

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// maxStackLines bounds the stackwalk output kept in a report.
const maxStackLines = 200

// DefaultStackwalkPath locates minidump_stackwalk under breakpadDir for the
// current platform, or returns "" when the platform has none.
func DefaultStackwalkPath(breakpadDir string) string {
	var parts []string
	switch runtime.GOOS {
	case "windows":
		parts = []string{"win32", "minidump_stackwalk.exe"}
	case "linux":
		if strings.HasSuffix(runtime.GOARCH, "64") {
			parts = []string{"linux64", "minidump_stackwalk"}
		} else {
			parts = []string{"linux", "minidump_stackwalk"}
		}
	case "darwin":
		parts = []string{"osx", "minidump_stackwalk"}
	default:
		return ""
	}
	return filepath.Join(append([]string{breakpadDir}, parts...)...)
}

func (d *Detector) symbolicate(dumpPath, symbolsPath string) (string, bool) {
	bin := d.opts.StackwalkPath
	if bin == "" {
		return "", false
	}
	if _, err := os.Stat(bin); err != nil {
		d.logger.Warn("minidump_stackwalk binary not found", "path", bin)
		return "", false
	}

	out, err := exec.Command(bin, dumpPath, symbolsPath).Output()
	if err != nil {
		d.logger.Warn("minidump_stackwalk failed", "dump", dumpPath, "error", err)
		return "", false
	}
	return truncateLines(string(out), maxStackLines), true
}

func truncateLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n") + "\n[...]"
}
