package results

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/programme-lv/perftester/internal/counters"
)

// Textfile writes a run summary in the Prometheus text format for the
// node_exporter textfile collector. The file is written on Finish.
type Textfile struct {
	path     string
	registry *prometheus.Registry
	testName string
	started  time.Time
	now      func() time.Time

	sums   map[string]float64
	counts map[string]int

	counterMean    *prometheus.GaugeVec
	counterSamples *prometheus.GaugeVec
	cycles         *prometheus.GaugeVec
	success        *prometheus.GaugeVec
	duration       *prometheus.GaugeVec
}

func NewTextfile(path string) *Textfile {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Textfile{
		path:     path,
		registry: reg,
		now:      time.Now,
		sums:     map[string]float64{},
		counts:   map[string]int{},
		counterMean: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "perftester_counter_mean",
			Help: "Mean of all samples of a counter in the last run",
		}, []string{"test", "counter", "scope"}),
		counterSamples: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "perftester_counter_samples",
			Help: "Number of samples of a counter in the last run",
		}, []string{"test", "counter", "scope"}),
		cycles: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "perftester_cycles_completed",
			Help: "Cycles completed by the last run",
		}, []string{"test"}),
		success: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "perftester_run_success",
			Help: "1 if the last run completed every cycle",
		}, []string{"test", "error_kind"}),
		duration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "perftester_run_duration_seconds",
			Help: "Wall clock duration of the last run",
		}, []string{"test"}),
	}
}

func (t *Textfile) Start(info RunInfo) error {
	t.testName = info.TestName
	t.started = t.now()
	t.cycles.WithLabelValues(t.testName).Set(0)
	return nil
}

func (t *Textfile) Record(_ string, series counters.Series) error {
	t.cycles.WithLabelValues(t.testName).Inc()
	t.observe("cycle", series)
	return nil
}

func (t *Textfile) RecordGlobal(series counters.Series) error {
	t.observe("global", series)
	return nil
}

func (t *Textfile) observe(scope string, series counters.Series) {
	for name, values := range series {
		key := scope + "\x00" + name
		for _, v := range values {
			t.sums[key] += v
		}
		t.counts[key] += len(values)
		t.counterSamples.WithLabelValues(t.testName, name, scope).Set(float64(t.counts[key]))
		if t.counts[key] > 0 {
			t.counterMean.WithLabelValues(t.testName, name, scope).Set(t.sums[key] / float64(t.counts[key]))
		}
	}
}

func (t *Textfile) Finish(runErr error) error {
	ok := 1.0
	if runErr != nil {
		ok = 0
	}
	t.success.WithLabelValues(t.testName, ErrorKind(runErr)).Set(ok)
	if !t.started.IsZero() {
		t.duration.WithLabelValues(t.testName).Set(t.now().Sub(t.started).Seconds())
	}
	if err := prometheus.WriteToTextfile(t.path, t.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
