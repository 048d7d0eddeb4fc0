// Package results receives the measurements of a run and hands them to
// the configured sinks.
package results

import (
	"errors"

	"github.com/programme-lv/perftester/internal/counters"
)

//go:generate mockgen -destination=mocks/mock_results.go -package=mocks github.com/programme-lv/perftester/internal/results Aggregator,Sink

// Aggregator consumes one Record call per completed cycle and one
// RecordGlobal call with the cross-cycle counters at the end of the run.
type Aggregator interface {
	Record(logContent string, series counters.Series) error
	RecordGlobal(series counters.Series) error
}

// Starter is implemented by aggregators that want to know about a run
// before its first cycle.
type Starter interface {
	Start(info RunInfo) error
}

// Finisher is implemented by aggregators that flush or report once the
// run is over. runErr is nil for a successful run.
type Finisher interface {
	Finish(runErr error) error
}

// Sink is an aggregator interested in the whole run lifecycle.
type Sink interface {
	Starter
	Aggregator
	Finisher
}

type RunInfo struct {
	RunUuid        string
	Title          string
	TestName       string
	Cycles         int
	Counters       []string
	GlobalCounters []string
}

// ErrorKind classifies a run error by the Kind method of the first error
// in its chain that has one.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var k interface{ Kind() string }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return "error"
}
