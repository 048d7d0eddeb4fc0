//go:build linux

package counters

import (
	"fmt"

	"github.com/prometheus/procfs"
)

func readProcCounter(pid int, name string) (float64, error) {
	p, err := procfs.NewProc(pid)
	if err != nil {
		return 0, err
	}

	switch name {
	case "Main_RSS":
		return vmRSS(p)
	case "RSS":
		total, err := vmRSS(p)
		if err != nil {
			return 0, err
		}
		// content and plugin processes are direct children of the browser
		for _, c := range childProcs(pid) {
			if v, err := vmRSS(c); err == nil {
				total += v
			}
		}
		return total, nil
	case "Private Bytes":
		r, err := p.ProcSMapsRollup()
		if err != nil {
			return 0, err
		}
		return float64(r.PrivateClean + r.PrivateDirty), nil
	}
	return 0, fmt.Errorf("unsupported counter %q", name)
}

func vmRSS(p procfs.Proc) (float64, error) {
	st, err := p.NewStatus()
	if err != nil {
		return 0, err
	}
	return float64(st.VmRSS), nil
}

// childProcs lists the live children of pid. Processes that exit during
// the scan are skipped.
func childProcs(pid int) []procfs.Proc {
	all, err := procfs.AllProcs()
	if err != nil {
		return nil
	}
	var res []procfs.Proc
	for _, p := range all {
		st, err := p.Stat()
		if err != nil {
			continue
		}
		if st.PPID == pid {
			res = append(res, p)
		}
	}
	return res
}
