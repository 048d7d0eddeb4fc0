//go:build !linux

package counters

import "errors"

func readProcCounter(int, string) (float64, error) {
	return 0, errors.New("procfs is only available on linux")
}
