package crash

import (
	"errors"
	"io/fs"
	"os"
	"strings"
)

// CheckJavaException scans a logcat capture for an uncaught Java
// exception and returns "<exception> at <location>", or "" when there is
// none. A missing file is not an error.
func CheckJavaException(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}

	lines := strings.FieldsFunc(string(data), func(r rune) bool {
		return r == '\r' || r == '\n'
	})
	for i, line := range lines {
		if !strings.Contains(line, "FATAL EXCEPTION") &&
			!strings.Contains(line, "REPORTING UNCAUGHT EXCEPTION") {
			continue
		}
		exception, location := "unknown exception", "unknown location"
		if i+1 < len(lines) {
			exception = logcatMessage(lines[i+1])
		}
		if i+2 < len(lines) {
			location = strings.TrimPrefix(logcatMessage(lines[i+2]), "at ")
		}
		return exception + " at " + location, nil
	}
	return "", nil
}

// logcatMessage strips the "E/Tag( pid):" prefix.
func logcatMessage(line string) string {
	if i := strings.Index(line, "):"); i >= 0 {
		line = line[i+2:]
	}
	return strings.TrimSpace(line)
}
