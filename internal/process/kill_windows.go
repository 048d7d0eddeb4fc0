//go:build windows

package process

import (
	"errors"
	"os"
	"os/exec"
)

func setProcessGroup(cmd *exec.Cmd) {}

func killGroup(p *os.Process) error {
	err := p.Kill()
	if err == nil || errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func killPid(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		// no such process
		return nil
	}
	return killGroup(p)
}
