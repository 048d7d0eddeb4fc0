package runner

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/programme-lv/perftester/internal/browserlog"
	"github.com/programme-lv/perftester/internal/config"
	"github.com/programme-lv/perftester/internal/counters"
	"github.com/programme-lv/perftester/internal/crash"
	"github.com/programme-lv/perftester/internal/process"
	"github.com/programme-lv/perftester/internal/results"
	"github.com/programme-lv/perftester/internal/results/mocks"
)

func TestCycleTimeoutBoundsTicks(t *testing.T) {
	tests := []struct {
		timeout    time.Duration
		resolution time.Duration
		ticks      int
	}{
		{5 * time.Second, time.Second, 5},
		{3 * time.Second, 500 * time.Millisecond, 6},
		{time.Second, time.Second, 1},
	}
	for _, tt := range tests {
		t.Run(tt.timeout.String()+"/"+tt.resolution.String(), func(t *testing.T) {
			h := newHarness(t)
			h.cfg.Test.Timeout = tt.timeout
			h.cfg.Test.Resolution = tt.resolution
			h.writeLogOn(t, 1, "started\n")

			_, err := h.runner(Deps{}).Run()

			var te *TimeoutError
			require.ErrorAs(t, err, &te)
			assert.ErrorIs(t, err, ErrTerminal)
			assert.Equal(t, tt.ticks, te.Ticks)
			assert.Equal(t, tt.ticks, h.sup.polls)
			assert.Equal(t, tt.ticks, h.sampler.ticks["RSS"])
			assert.GreaterOrEqual(t, h.sup.terminations, 1)
			assert.Equal(t, 1, h.sampler.stopped)
			assert.Equal(t, 1, h.profiles.removes)
		})
	}
}

func TestCycleCompletesWhenBrowserExits(t *testing.T) {
	h := newHarness(t)
	h.sup.exitAtPoll = 3
	h.writeLogOn(t, 1, "__start_report120__end_report\n")

	r := h.runner(Deps{})
	out, err := r.runCycle(0, filepath.Join(h.profiles.root, "profile"))
	require.NoError(t, err)

	assert.Equal(t, Completed, out.Kind)
	assert.NoError(t, out.Err())
	assert.Equal(t, 3, out.Ticks)
	assert.Equal(t, []float64{100, 200, 300}, out.Series["RSS"])
	assert.Equal(t, "__start_report120__end_report\n", out.Log)
	assert.Equal(t, 3, h.sup.polls)
	assert.Equal(t, 1, h.sup.terminations)
	assert.Equal(t, 1, h.sampler.stopped)
	assert.Nil(t, r.active)
	// settle before and after launch, after validation, plus three ticks
	assert.Equal(t, 18*time.Second, h.slept)
}

func TestRemoteCycleSkipsSettleWaits(t *testing.T) {
	h := newHarness(t)
	h.cfg.Remote = true
	h.sup.exitAtPoll = 2
	h.writeLogOn(t, 1, "ok\n")

	out, err := h.runner(Deps{}).runCycle(0, "/p")
	require.NoError(t, err)
	assert.Equal(t, Completed, out.Kind)
	assert.Equal(t, 2*time.Second, h.slept)
}

func TestAbsentSamplesDoNotGrowSeries(t *testing.T) {
	h := newHarness(t)
	h.cfg.Test.Counters = []string{"RSS", "Private Bytes"}
	h.sup.exitAtPoll = 4
	h.writeLogOn(t, 1, "x\n")
	h.sampler.absent = func(name string, tick int) bool {
		return name == "Private Bytes" && tick%2 == 1
	}

	out, err := h.runner(Deps{}).runCycle(0, "/p")
	require.NoError(t, err)
	assert.Len(t, out.Series["RSS"], 4)
	assert.Equal(t, []float64{200, 400}, out.Series["Private Bytes"])
}

func TestTimedOutCycleKeepsSeries(t *testing.T) {
	h := newHarness(t)

	out, err := h.runner(Deps{}).runCycle(0, "/p")
	require.NoError(t, err)
	assert.Equal(t, TimedOut, out.Kind)
	assert.Equal(t, 5, out.Ticks)
	assert.Equal(t, []float64{100, 200, 300, 400, 500}, out.Series["RSS"])
	assert.Empty(t, out.Log)
}

func TestRegressionCycleKeepsSeries(t *testing.T) {
	h := newHarness(t)
	h.sup.exitAtPoll = 2
	h.sup.onPoll = func(n int) {
		if n == 1 {
			require.NoError(t, os.WriteFile(h.cfg.BrowserLog, []byte("x\n"), 0644))
			require.NoError(t, os.WriteFile(h.cfg.ErrorFilename, []byte("bad\n"), 0644))
		}
	}

	out, err := h.runner(Deps{}).runCycle(0, "/p")
	require.NoError(t, err)
	assert.Equal(t, Regression, out.Kind)
	assert.Equal(t, []float64{100, 200}, out.Series["RSS"])
}

func TestTickReadsLogThenSamplesThenPolls(t *testing.T) {
	h := newHarness(t)
	h.cfg.Test.Counters = []string{"RSS", "Main_RSS"}
	h.sup.exitAtPoll = 3

	var order []string
	h.sampler.onSample = func(name string) { order = append(order, "sample "+name) }
	h.sup.onPoll = func(n int) {
		order = append(order, "poll")
		if n == 3 {
			require.NoError(t, os.WriteFile(h.cfg.BrowserLog, []byte("done\n"), 0644))
		}
	}
	r := h.runner(Deps{})
	r.readLog = func(path, previous string) (string, string, error) {
		order = append(order, "log")
		return browserlog.ReadIncremental(path, previous)
	}

	out, err := r.runCycle(0, "/p")
	require.NoError(t, err)
	require.Equal(t, Completed, out.Kind)

	tick := []string{"log", "sample RSS", "sample Main_RSS", "poll"}
	var want []string
	for range 3 {
		want = append(want, tick...)
	}
	// only the final full read follows the exit poll
	want = append(want, "log")
	assert.Equal(t, want, order)
}

func TestNoCountersNoSampler(t *testing.T) {
	h := newHarness(t)
	h.cfg.Test.Counters = nil
	h.sup.exitAtPoll = 1
	h.writeLogOn(t, 1, "x\n")

	out, err := h.runner(Deps{}).runCycle(0, "/p")
	require.NoError(t, err)
	assert.Equal(t, Completed, out.Kind)
	assert.Zero(t, h.factory)
	assert.Empty(t, out.Series)
}

func TestPreflightStaleProcessLaunchesNothing(t *testing.T) {
	h := newHarness(t)
	h.sup.stray = []mapset.Set[process.Proc]{stray(process.Proc{Pid: 4242, Name: "firefox"})}

	_, err := h.runner(Deps{}).Run()

	var se *StaleProcessError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StagePreflight, se.Stage)
	assert.ErrorIs(t, err, ErrTerminal)
	assert.Contains(t, err.Error(), "[4242] firefox")
	assert.Zero(t, h.sup.launches)
	assert.Zero(t, h.profiles.creates)
}

func TestPreflightFailureReachesSinks(t *testing.T) {
	h := newHarness(t)
	h.sup.stray = []mapset.Set[process.Proc]{stray(process.Proc{Pid: 4242, Name: "firefox"})}

	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	gomock.InOrder(
		sink.EXPECT().Start(gomock.Any()).Return(nil),
		sink.EXPECT().Finish(gomock.Any()).DoAndReturn(func(runErr error) error {
			assert.Equal(t, "stale_process", results.ErrorKind(runErr))
			return nil
		}),
	)

	_, err := h.runner(Deps{Aggregator: sink}).Run()
	var se *StaleProcessError
	require.ErrorAs(t, err, &se)
	assert.Zero(t, h.sup.launches)
}

func TestStaleProcessAfterInit(t *testing.T) {
	h := newHarness(t)
	h.sup.stray = []mapset.Set[process.Proc]{nil, stray(process.Proc{Pid: 7, Name: "plugin-container"})}

	_, err := h.runner(Deps{}).Run()

	var se *StaleProcessError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageAfterInit, se.Stage)
	assert.Zero(t, h.sup.launches)
	assert.Equal(t, 1, h.profiles.removes)
}

func TestStaleProcessBetweenCycles(t *testing.T) {
	h := newHarness(t)
	h.cfg.Test.Cycles = 3
	h.sup.exitAtPoll = 1
	h.writeLogOn(t, 1, "x\n")
	h.sup.stray = []mapset.Set[process.Proc]{nil, nil, stray(process.Proc{Pid: 9, Name: "firefox"})}

	_, err := h.runner(Deps{}).Run()

	var se *StaleProcessError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageBetweenCycles, se.Stage)
	assert.Equal(t, 1, se.Cycle)
	assert.Equal(t, 1, h.sup.launches)
}

func TestStaleMarkerRejectedBeforeLaunch(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.cfg.ErrorFilename, []byte("regressed"), 0644))

	_, err := h.runner(Deps{}).Run()

	var re *RegressionError
	require.ErrorAs(t, err, &re)
	assert.True(t, re.Stale)
	assert.Zero(t, h.sup.launches)
	assert.FileExists(t, h.cfg.ErrorFilename)
}

func TestRegressionMarkerFromWorkload(t *testing.T) {
	h := newHarness(t)
	h.sup.exitAtPoll = 2
	h.sup.onPoll = func(n int) {
		if n == 1 {
			require.NoError(t, os.WriteFile(h.cfg.BrowserLog, []byte("x\n"), 0644))
			require.NoError(t, os.WriteFile(h.cfg.ErrorFilename, []byte("regressed"), 0644))
		}
	}

	_, err := h.runner(Deps{}).Run()

	var re *RegressionError
	require.ErrorAs(t, err, &re)
	assert.False(t, re.Stale)
	assert.Equal(t, 1, h.profiles.removes)
	// the cleanup pass still checks for crashes
	assert.Equal(t, 1, h.detector.calls)
}

func TestNoOutputFromBrowser(t *testing.T) {
	h := newHarness(t)
	h.sup.exitAtPoll = 1

	_, err := h.runner(Deps{}).Run()

	var ne *NoOutputError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, h.cfg.BrowserLog, ne.Path)
}

func TestLaunchError(t *testing.T) {
	h := newHarness(t)
	h.sup.launchErr = os.ErrPermission

	_, err := h.runner(Deps{}).Run()

	var le *LaunchError
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.ErrorIs(t, err, ErrTerminal)
	assert.Equal(t, []string{"/opt/firefox/firefox", "-profile", filepath.Join(h.profiles.root, "profile"),
		"http://localhost/startup_test/tspaint_test.html"}, le.Argv)
	assert.Zero(t, h.sup.terminations)
}

func TestTerminateFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	h.sup.exitAtPoll = 1
	h.sup.termErr = os.ErrPermission
	h.writeLogOn(t, 1, "x\n")

	_, err := h.runner(Deps{}).Run()
	require.ErrorIs(t, err, os.ErrPermission)
	assert.NotErrorIs(t, err, ErrTerminal)
	assert.Equal(t, 1, h.sup.terminations)
}

func TestCrashRemovesProfileOnce(t *testing.T) {
	h := newHarness(t)
	h.sup.exitAtPoll = 2
	h.writeLogOn(t, 1, "x\n")
	report := &crash.Report{Dumps: []crash.Dump{{Path: "/p/minidumps/a.dmp"}}}
	h.detector.reports = []*crash.Report{report, report}

	_, err := h.runner(Deps{}).Run()

	var ce *CrashError
	require.ErrorAs(t, err, &ce)
	assert.Same(t, report, ce.Report)
	assert.Equal(t, 1, h.profiles.removes)
	assert.Equal(t, []string{h.profiles.root}, h.profiles.removed)
	// once in the cycle and once more in the cleanup pass
	assert.Equal(t, 2, h.detector.calls)
	assert.Equal(t, filepath.Join(h.profiles.root, "profile", "minidumps"), h.detector.roots[0])
	assert.GreaterOrEqual(t, h.sup.kills, 2)
}

func TestCleanupLogsCrashBehindTimeout(t *testing.T) {
	h := newHarness(t)
	var buf bytes.Buffer
	h.logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h.detector.reports = []*crash.Report{{Dumps: []crash.Dump{{Path: "/p/minidumps/late.dmp"}}}}

	_, err := h.runner(Deps{}).Run()

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	var ce *CrashError
	assert.False(t, errors.As(err, &ce))
	assert.Equal(t, 1, h.detector.calls)
	assert.Contains(t, buf.String(), "crash found during cleanup")
	assert.Contains(t, buf.String(), "late.dmp")
}

func TestCleanupDoesNotRepeatReportedCrash(t *testing.T) {
	h := newHarness(t)
	var buf bytes.Buffer
	h.logger = slog.New(slog.NewTextHandler(&buf, nil))
	h.sup.exitAtPoll = 1
	h.writeLogOn(t, 1, "x\n")
	report := &crash.Report{Dumps: []crash.Dump{{Path: "/p/minidumps/a.dmp"}}}
	h.detector.reports = []*crash.Report{report, report}

	_, err := h.runner(Deps{}).Run()
	var ce *CrashError
	require.ErrorAs(t, err, &ce)
	assert.NotContains(t, buf.String(), "crash found during cleanup")
}

func TestCrashCheckFailureIsReturned(t *testing.T) {
	h := newHarness(t)
	h.sup.exitAtPoll = 1
	h.writeLogOn(t, 1, "x\n")
	h.detector.err = errBoom

	_, err := h.runner(Deps{}).Run()
	require.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, ErrTerminal)
}

func TestProfileCreationFailure(t *testing.T) {
	h := newHarness(t)
	h.profiles.createFn = func() error { return errBoom }

	_, err := h.runner(Deps{}).Run()
	require.ErrorIs(t, err, errBoom)
	assert.Zero(t, h.profiles.removes)
	assert.Zero(t, h.detector.calls)
}

func TestProfileInitFailure(t *testing.T) {
	h := newHarness(t)
	h.profiles.initErr = errBoom

	_, err := h.runner(Deps{}).Run()
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, h.profiles.removes)
	assert.Zero(t, h.sup.launches)
}

func TestRunRecordsCyclesAndGlobals(t *testing.T) {
	h := newHarness(t)
	h.cfg.Title = "nightly"
	h.cfg.Test.Cycles = 2
	h.cfg.Test.Shutdown = true
	h.cfg.Env = map[string]string{"PERFTESTER_RUNNER_TEST": "on"}
	h.sup.exitAtPoll = 2
	h.writeLogOn(t, 1, "__startTimestamp1000__endTimestamp\n__startAfterTerminationTimestamp1250__endAfterTerminationTimestamp\n")

	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	gomock.InOrder(
		sink.EXPECT().Start(gomock.Any()).DoAndReturn(func(info results.RunInfo) error {
			assert.Equal(t, "ts_paint", info.TestName)
			assert.Equal(t, 2, info.Cycles)
			assert.Equal(t, []string{"shutdown"}, info.GlobalCounters)
			assert.NotEmpty(t, info.RunUuid)
			return nil
		}),
		sink.EXPECT().Record(gomock.Any(), counters.Series{"RSS": {100, 200}}).Return(nil).Times(2),
		sink.EXPECT().RecordGlobal(counters.Series{"shutdown": {250, 250}}).Return(nil),
		sink.EXPECT().Finish(nil).Return(nil),
	)

	os.Unsetenv("PERFTESTER_RUNNER_TEST")
	h.sampler = &fakeSampler{ticks: map[string]int{}}
	samplers := 0
	r := h.runner(Deps{Aggregator: sink})
	r.samplers = func(string, []string) (counters.Sampler, error) {
		samplers++
		h.sampler.ticks = map[string]int{}
		return h.sampler, nil
	}

	res, err := r.Run()
	require.NoError(t, err)
	require.Len(t, res.Cycles, 2)
	assert.Equal(t, 2, samplers)
	assert.Equal(t, []float64{250, 250}, res.Global["shutdown"])
	assert.Equal(t, 2, res.Cycles[1].Ticks)
	assert.Equal(t, 1, h.profiles.removes)
	assert.Contains(t, h.sup.env, "PERFTESTER_RUNNER_TEST=on")
	assert.Contains(t, h.sup.env, "MOZ_CRASHREPORTER_DISABLE=1")

	_, set := os.LookupEnv("PERFTESTER_RUNNER_TEST")
	assert.False(t, set)
}

func TestRunFinishesSinkWithError(t *testing.T) {
	h := newHarness(t)
	h.sup.exitAtPoll = 1

	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	sink.EXPECT().Start(gomock.Any()).Return(nil)
	sink.EXPECT().Finish(gomock.Any()).DoAndReturn(func(runErr error) error {
		assert.Equal(t, "no_output", results.ErrorKind(runErr))
		return errors.New("flush failed")
	})

	_, err := h.runner(Deps{Aggregator: sink}).Run()
	var ne *NoOutputError
	require.ErrorAs(t, err, &ne)
}

func TestRecordFailureAbortsRun(t *testing.T) {
	h := newHarness(t)
	h.cfg.Test.Cycles = 2
	h.sup.exitAtPoll = 1
	h.writeLogOn(t, 1, "x\n")

	ctrl := gomock.NewController(t)
	agg := mocks.NewMockAggregator(ctrl)
	agg.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errBoom)

	_, err := h.runner(Deps{Aggregator: agg}).Run()
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, h.sup.launches)
	assert.Equal(t, 1, h.profiles.removes)
}

func TestOverrideEnvRestores(t *testing.T) {
	t.Setenv("PERFTESTER_A", "old")
	os.Unsetenv("PERFTESTER_B")

	restore, err := overrideEnv([]config.EnvVar{{Key: "PERFTESTER_A", Value: "new"}, {Key: "PERFTESTER_B", Value: "1"}})
	require.NoError(t, err)
	assert.Equal(t, "new", os.Getenv("PERFTESTER_A"))
	assert.Equal(t, "1", os.Getenv("PERFTESTER_B"))

	restore()
	assert.Equal(t, "old", os.Getenv("PERFTESTER_A"))
	_, set := os.LookupEnv("PERFTESTER_B")
	assert.False(t, set)
}

func TestOutcomeErr(t *testing.T) {
	tests := []struct {
		out  CycleOutcome
		kind string
	}{
		{CycleOutcome{Kind: TimedOut, Ticks: 3}, "timeout"},
		{CycleOutcome{Kind: Regression}, "regression"},
		{CycleOutcome{Kind: CrashDetected, report: &crash.Report{}}, "crash"},
		{CycleOutcome{Kind: StaleProcess, procs: stray()}, "stale_process"},
	}
	for _, tt := range tests {
		t.Run(tt.out.Kind.String(), func(t *testing.T) {
			err := tt.out.Err()
			require.ErrorIs(t, err, ErrTerminal)
			assert.Equal(t, tt.kind, results.ErrorKind(err))
		})
	}
	assert.NoError(t, CycleOutcome{Kind: Completed}.Err())
}
