//go:build windows

package process

import (
	"bytes"
	"encoding/csv"
	"os/exec"
	"strconv"
)

func listProcesses() ([]Proc, error) {
	out, err := exec.Command("tasklist", "/FO", "CSV", "/NH").Output()
	if err != nil {
		return nil, err
	}
	return parseTasklist(out)
}

func parseTasklist(out []byte) ([]Proc, error) {
	r := csv.NewReader(bytes.NewReader(out))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	res := make([]Proc, 0, len(records))
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}
		pid, err := strconv.Atoi(rec[1])
		if err != nil {
			continue
		}
		res = append(res, Proc{Pid: pid, Name: rec[0]})
	}
	return res, nil
}
