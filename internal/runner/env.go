package runner

import (
	"fmt"
	"os"

	"github.com/programme-lv/perftester/internal/config"
)

type savedVar struct {
	key   string
	value string
	set   bool
}

// overrideEnv sets vars in the process environment and returns a function
// restoring the previous values. On error nothing stays overridden.
func overrideEnv(vars []config.EnvVar) (restore func(), err error) {
	var saved []savedVar
	restore = func() {
		for i := len(saved) - 1; i >= 0; i-- {
			s := saved[i]
			if s.set {
				_ = os.Setenv(s.key, s.value)
			} else {
				_ = os.Unsetenv(s.key)
			}
		}
		saved = nil
	}

	for _, v := range vars {
		old, ok := os.LookupEnv(v.Key)
		saved = append(saved, savedVar{key: v.Key, value: old, set: ok})
		if err := os.Setenv(v.Key, v.Value); err != nil {
			restore()
			return func() {}, fmt.Errorf("failed to set %s: %w", v.Key, err)
		}
	}
	return restore, nil
}
