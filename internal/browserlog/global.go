package browserlog

import (
	"regexp"
	"strconv"
)

var (
	endTimestampRe   = regexp.MustCompile(`__startTimestamp(\d+)__endTimestamp`)
	afterTermRe      = regexp.MustCompile(`__startAfterTerminationTimestamp(\d+)__endAfterTerminationTimestamp`)
	eventLoopTraceRe = regexp.MustCompile(`MOZ_EVENT_TRACE sample (\d+) (\d+)`)
)

// Global holds the run-wide values found in one cycle's log.
type Global struct {
	// milliseconds between the end of the workload and process termination
	Shutdown *float64
	// event loop lag samples in milliseconds
	Responsiveness []float64
}

func ParseGlobal(content string) Global {
	var g Global

	end := lastInt(endTimestampRe, content)
	term := lastInt(afterTermRe, content)
	if end != nil && term != nil {
		d := float64(*term - *end)
		g.Shutdown = &d
	}

	for _, m := range eventLoopTraceRe.FindAllStringSubmatch(content, -1) {
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		g.Responsiveness = append(g.Responsiveness, v)
	}
	return g
}

func lastInt(re *regexp.Regexp, content string) *int64 {
	matches := re.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	v, err := strconv.ParseInt(matches[len(matches)-1][1], 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
