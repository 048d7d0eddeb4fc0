//go:build !linux && !windows

package process

import (
	"bufio"
	"bytes"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

func listProcesses() ([]Proc, error) {
	out, err := exec.Command("ps", "-axo", "pid=,comm=").Output()
	if err != nil {
		return nil, err
	}
	return parsePs(out), nil
}

func parsePs(out []byte) []Proc {
	var res []Proc
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		name := filepath.Base(strings.Join(fields[1:], " "))
		res = append(res, Proc{Pid: pid, Name: name})
	}
	return res
}
