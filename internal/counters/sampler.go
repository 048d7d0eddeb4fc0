// Package counters samples named performance counters of the browser
// process while a cycle runs.
package counters

import (
	"fmt"
	"runtime"
)

// Sampler returns the current value of a counter. A false second result
// means no value was available on this tick, which is not an error.
type Sampler interface {
	Sample(name string) (float64, bool)
	Stop()
}

// Factory builds the sampler used for one cycle.
type Factory func(processName string, names []string) (Sampler, error)

type Kind string

const (
	KindProcfs Kind = "procfs"
	KindRemote Kind = "remote"
	KindNone   Kind = "none"
)

// DefaultKind is the sampler used when the configuration names none.
func DefaultKind(remote bool) Kind {
	if remote {
		return KindRemote
	}
	if runtime.GOOS == "linux" {
		return KindProcfs
	}
	return KindNone
}

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindProcfs, KindRemote, KindNone:
		return k, nil
	}
	return "", fmt.Errorf("unknown sampler %q", s)
}

// Platform is the key selecting a test's counter list.
func (k Kind) Platform() string {
	if k == KindRemote {
		return "remote"
	}
	switch runtime.GOOS {
	case "darwin":
		return "mac"
	case "windows":
		return "win"
	}
	return runtime.GOOS
}

// Series maps a counter name to its samples in the order they were taken.
type Series map[string][]float64

func NewSeries(names []string) Series {
	s := make(Series, len(names))
	for _, n := range names {
		s[n] = []float64{}
	}
	return s
}

func (s Series) Append(name string, v float64) {
	s[name] = append(s[name], v)
}

// Clone returns a deep copy.
func (s Series) Clone() Series {
	c := make(Series, len(s))
	for k, v := range s {
		c[k] = append([]float64{}, v...)
	}
	return c
}

type noop struct{}

func (noop) Sample(string) (float64, bool) { return 0, false }
func (noop) Stop()                         {}

// NoopFactory never produces values.
func NoopFactory(string, []string) (Sampler, error) {
	return noop{}, nil
}
