package results

import (
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/programme-lv/perftester/internal/counters"
)

// Fanout forwards every event to each aggregator in order. Start and
// Finish are only forwarded to aggregators implementing them.
type Fanout []Aggregator

func (f Fanout) Start(info RunInfo) error {
	var errs []error
	for _, a := range f {
		if s, ok := a.(Starter); ok {
			errs = append(errs, s.Start(info))
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Record(logContent string, series counters.Series) error {
	var errs []error
	for _, a := range f {
		errs = append(errs, a.Record(logContent, series.Clone()))
	}
	return errors.Join(errs...)
}

func (f Fanout) RecordGlobal(series counters.Series) error {
	var errs []error
	for _, a := range f {
		errs = append(errs, a.RecordGlobal(series.Clone()))
	}
	return errors.Join(errs...)
}

// Finish flushes all sinks concurrently and returns the first failure.
func (f Fanout) Finish(runErr error) error {
	var g errgroup.Group
	for _, a := range f {
		if fin, ok := a.(Finisher); ok {
			g.Go(func() error {
				return fin.Finish(runErr)
			})
		}
	}
	return g.Wait()
}
