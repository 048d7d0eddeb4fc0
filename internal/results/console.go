package results

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/fatih/color"

	"github.com/programme-lv/perftester/internal/counters"
)

// Console prints a short line per event to w.
type Console struct {
	w         io.Writer
	startedAt time.Time
	cycle     int
	cycles    int
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w, startedAt: time.Now()}
}

func (c *Console) Start(info RunInfo) error {
	c.startedAt = time.Now()
	c.cycles = info.Cycles
	fmt.Fprintf(c.w, "== %s: %d cycle(s) ==\n", info.TestName, info.Cycles)
	return nil
}

func (c *Console) Record(_ string, series counters.Series) error {
	c.cycle++
	fmt.Fprintf(c.w, "<- cycle %d/%d finished\n", c.cycle, c.cycles)
	c.printSeries(series)
	return nil
}

func (c *Console) RecordGlobal(series counters.Series) error {
	if len(series) == 0 {
		return nil
	}
	fmt.Fprintln(c.w, "-- global counters --")
	c.printSeries(series)
	return nil
}

func (c *Console) Finish(runErr error) error {
	dur := time.Since(c.startedAt).Round(time.Millisecond)
	if runErr != nil {
		color.New(color.FgRed).Fprintf(c.w, "== Run aborted after %s: %v ==\n", dur, runErr)
		return nil
	}
	color.New(color.FgGreen).Fprintf(c.w, "== Run finished in %s ==\n", dur)
	return nil
}

func (c *Console) printSeries(series counters.Series) {
	names := make([]string, 0, len(series))
	for n := range series {
		names = append(names, n)
	}
	slices.Sort(names)
	for _, n := range names {
		values := series[n]
		if len(values) == 0 {
			fmt.Fprintf(c.w, "  %s: no samples\n", n)
			continue
		}
		fmt.Fprintf(c.w, "  %s: n=%d mean=%.2f max=%.2f\n", n, len(values), mean(values), slices.Max(values))
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
