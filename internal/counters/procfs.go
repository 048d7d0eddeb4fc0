package counters

import (
	"log/slog"
	"slices"
)

// PidFinder resolves the browser's main process id by name.
type PidFinder func(processName string) (pid int, ok bool, err error)

// procfsCounters are the names readable from /proc.
var procfsCounters = []string{"RSS", "Main_RSS", "Private Bytes"}

type procfsSampler struct {
	processName string
	find        PidFinder
	pid         int
	logger      *slog.Logger
}

// ProcfsFactory samples memory counters of the browser process from /proc.
// RSS includes its child processes; Main_RSS does not.
func ProcfsFactory(find PidFinder, logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return func(processName string, names []string) (Sampler, error) {
		for _, n := range names {
			if !slices.Contains(procfsCounters, n) {
				logger.Warn("counter not available from procfs", "counter", n)
			}
		}
		return &procfsSampler{
			processName: processName,
			find:        find,
			logger:      logger,
		}, nil
	}
}

func (s *procfsSampler) Sample(name string) (float64, bool) {
	if !slices.Contains(procfsCounters, name) {
		return 0, false
	}
	if s.pid == 0 {
		pid, ok, err := s.find(s.processName)
		if err != nil {
			s.logger.Debug("failed to look up browser process", "error", err)
			return 0, false
		}
		if !ok {
			return 0, false
		}
		s.pid = pid
	}

	v, err := readProcCounter(s.pid, name)
	if err != nil {
		// the process may have restarted under a new pid
		s.pid = 0
		return 0, false
	}
	return v, true
}

func (s *procfsSampler) Stop() {}
