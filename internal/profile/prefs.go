package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
)

// ParsePref converts the textual preference values found in config files
// ("true", "42") into the typed values written to user.js.
func ParsePref(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}

// writeUserPrefs appends user_pref lines to path in key order. Occurrences
// of "localhost" in string values are replaced by webserver.
func writeUserPrefs(path string, prefs map[string]any, webserver string) error {
	if len(prefs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(prefs))
	for k := range prefs {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		line, err := formatPref(k, prefs[k], webserver)
		if err != nil {
			return err
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatPref(name string, value any, webserver string) (string, error) {
	if s, ok := value.(string); ok && webserver != "" {
		value = strings.ReplaceAll(s, "localhost", webserver)
	}
	switch value.(type) {
	case string, bool, int, int64, float64, uint64:
	default:
		return "", fmt.Errorf("unsupported value %v (%T) for preference %q", value, value, name)
	}
	nameJSON, err := json.Marshal(name)
	if err != nil {
		return "", err
	}
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("user_pref(%s, %s);", nameJSON, valueJSON), nil
}
