//go:build linux

package process

import (
	"errors"
	"io/fs"
	"path/filepath"
	"syscall"

	"github.com/prometheus/procfs"
)

func listProcesses() ([]Proc, error) {
	pfs, err := procfs.NewDefaultFS()
	if err != nil {
		return nil, err
	}
	all, err := pfs.AllProcs()
	if err != nil {
		return nil, err
	}

	res := make([]Proc, 0, len(all))
	for _, p := range all {
		name, err := procName(p)
		if err != nil {
			if exitedDuringScan(err) {
				continue
			}
			return nil, err
		}
		res = append(res, Proc{Pid: p.PID, Name: name})
	}
	return res, nil
}

// exitedDuringScan reports whether err comes from a process that went
// away between the directory scan and the read.
func exitedDuringScan(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ESRCH)
}

// procName prefers argv[0] since comm is truncated to 15 bytes.
func procName(p procfs.Proc) (string, error) {
	cmdline, err := p.CmdLine()
	if err == nil && len(cmdline) > 0 && cmdline[0] != "" {
		return filepath.Base(cmdline[0]), nil
	}
	return p.Comm()
}
