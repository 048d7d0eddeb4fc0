package process

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// Proc identifies a running OS process found by name.
type Proc struct {
	Pid  int
	Name string
}

func (p Proc) String() string {
	return fmt.Sprintf("[%d] %s", p.Pid, p.Name)
}

// Status is the result of a non-blocking poll.
type Status struct {
	Exited   bool
	ExitCode int
}

// Handle is the ownership token for a launched process.
type Handle interface {
	Pid() int
}

type cmdHandle struct {
	cmd      *exec.Cmd
	done     chan struct{}
	exitCode int
}

func (h *cmdHandle) Pid() int {
	return h.cmd.Process.Pid
}

type Supervisor struct {
	logger *slog.Logger
	stdout *os.File
	stderr *os.File
	// interval between process table scans while waiting for KillMatching
	scanInterval time.Duration
}

func NewSupervisor(logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		logger:       logger,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		scanInterval: time.Second,
	}
}

// Launch starts argv with the given environment. The returned error is
// non-nil only when the OS refused to create the process.
func (s *Supervisor) Launch(argv []string, env []string) (Handle, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty command line")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = env
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	h := &cmdHandle{cmd: cmd, done: make(chan struct{})}
	// reaper; closes done once the process has been waited on
	go func() {
		_ = cmd.Wait()
		h.exitCode = cmd.ProcessState.ExitCode()
		close(h.done)
	}()

	s.logger.Debug("launched process", "pid", h.Pid(), "argv", argv)
	return h, nil
}

func (s *Supervisor) Poll(h Handle) Status {
	ch := h.(*cmdHandle)
	select {
	case <-ch.done:
		return Status{Exited: true, ExitCode: ch.exitCode}
	default:
		return Status{}
	}
}

// Terminate force-stops the process and everything in its process group.
// A process that is already gone is not an error.
func (s *Supervisor) Terminate(h Handle) error {
	ch := h.(*cmdHandle)
	if err := killGroup(ch.cmd.Process); err != nil {
		return fmt.Errorf("failed to kill process %d: %w", ch.Pid(), err)
	}
	return nil
}

// ListMatching returns every process whose executable name is processName
// or childProcessName. An empty name never matches.
func (s *Supervisor) ListMatching(processName, childProcessName string) (mapset.Set[Proc], error) {
	all, err := listProcesses()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	self := os.Getpid()
	res := mapset.NewThreadUnsafeSet[Proc]()
	for _, p := range all {
		if p.Pid == self {
			continue
		}
		if nameMatches(p.Name, processName) || nameMatches(p.Name, childProcessName) {
			res.Add(p)
		}
	}
	return res, nil
}

// KillMatching kills every matching process and waits up to wait for the
// process table to be clear of them.
func (s *Supervisor) KillMatching(processName, childProcessName string, wait time.Duration) error {
	procs, err := s.ListMatching(processName, childProcessName)
	if err != nil {
		return err
	}
	if procs.Cardinality() == 0 {
		return nil
	}

	for _, p := range procs.ToSlice() {
		s.logger.Debug("killing stray process", "pid", p.Pid, "name", p.Name)
		if err := killPid(p.Pid); err != nil {
			return fmt.Errorf("failed to kill %s: %w", p, err)
		}
	}

	deadline := time.Now().Add(wait)
	for {
		procs, err = s.ListMatching(processName, childProcessName)
		if err != nil {
			return err
		}
		if procs.Cardinality() == 0 {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("processes still running after kill: %s", FormatProcs(procs))
		}
		time.Sleep(s.scanInterval)
	}
}

// FormatProcs renders a process set in pid order.
func FormatProcs(procs mapset.Set[Proc]) string {
	list := procs.ToSlice()
	slices.SortFunc(list, func(a, b Proc) int { return a.Pid - b.Pid })
	parts := make([]string, 0, len(list))
	for _, p := range list {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, ", ")
}

func nameMatches(candidate, want string) bool {
	if want == "" || candidate == "" {
		return false
	}
	candidate = strings.ToLower(filepath.Base(candidate))
	want = strings.ToLower(filepath.Base(want))
	if candidate == want {
		return true
	}
	if strings.TrimSuffix(candidate, ".exe") == strings.TrimSuffix(want, ".exe") {
		return true
	}
	// /proc/<pid>/comm is truncated to 15 bytes
	return len(want) > 15 && candidate == want[:15]
}

// FindPid returns the lowest pid running processName, which is the main
// browser process when it has forked helpers of the same name.
func (s *Supervisor) FindPid(processName string) (int, bool, error) {
	procs, err := s.ListMatching(processName, "")
	if err != nil {
		return 0, false, err
	}
	if procs.Cardinality() == 0 {
		return 0, false, nil
	}
	list := procs.ToSlice()
	pid := list[0].Pid
	for _, p := range list[1:] {
		pid = min(pid, p.Pid)
	}
	return pid, true, nil
}
