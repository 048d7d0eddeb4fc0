package results

import (
	"strings"
)

func trimStrToRect(s string, maxHeight int, maxWidth int) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
		lines = append(lines, "[...]")
	}
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		if len(line) > maxWidth {
			b.WriteString(line[:maxWidth] + "[...]")
		} else {
			b.WriteString(line)
		}
	}
	return b.String()
}
