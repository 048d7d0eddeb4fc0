package config

import (
	"path/filepath"
	"slices"
)

// EnvVar is one process-wide variable the run sets for its duration.
type EnvVar struct {
	Key   string
	Value string
}

// EnvOverrides lists the variables set while the run is active. Config
// supplied variables come first so the crash reporter settings win.
func (c RunConfig) EnvOverrides() []EnvVar {
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var res []EnvVar
	for _, k := range keys {
		res = append(res, EnvVar{k, c.Env[k]})
	}
	res = append(res, EnvVar{"MOZ_CRASHREPORTER_NO_REPORT", "1"})
	if c.SymbolsPath != "" {
		res = append(res, EnvVar{"MOZ_CRASHREPORTER", "1"})
	} else {
		res = append(res, EnvVar{"MOZ_CRASHREPORTER_DISABLE", "1"})
	}
	res = append(res, EnvVar{"LD_LIBRARY_PATH", filepath.Dir(c.BrowserPath)})
	if c.MeasureResponsiveness() {
		res = append(res,
			EnvVar{"MOZ_INSTRUMENT_EVENT_LOOP", "1"},
			EnvVar{"MOZ_INSTRUMENT_EVENT_LOOP_THRESHOLD", "20"},
			EnvVar{"MOZ_INSTRUMENT_EVENT_LOOP_INTERVAL", "10"},
		)
	}
	return res
}
