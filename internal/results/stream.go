package results

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/programme-lv/perftester/api"
	"github.com/programme-lv/perftester/internal/counters"
)

var hostname = os.Hostname

type publishFunc func(ctx context.Context, body []byte) error

// streamSink turns run events into api messages and hands each one to
// publish as JSON.
type streamSink struct {
	publish publishFunc
	timeout time.Duration
	runUuid string
	cycle   int
}

func (s *streamSink) send(msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.publish(ctx, b)
}

func (s *streamSink) Start(info RunInfo) error {
	s.runUuid = info.RunUuid
	s.cycle = 0
	return s.send(api.NewStartRun(info.RunUuid, info.Title, info.TestName, info.Cycles,
		info.Counters, info.GlobalCounters, systemInfo()))
}

func (s *streamSink) Record(logContent string, series counters.Series) error {
	msg := api.NewFinishCycle(s.runUuid, s.cycle,
		trimStrToRect(logContent, api.MaxLogHeight, api.MaxLogWidth), series)
	s.cycle++
	return s.send(msg)
}

func (s *streamSink) RecordGlobal(series counters.Series) error {
	return s.send(api.NewGlobalCounters(s.runUuid, series))
}

func (s *streamSink) Finish(runErr error) error {
	var kind, msg *string
	if runErr != nil {
		k, m := ErrorKind(runErr), runErr.Error()
		kind, msg = &k, &m
	}
	return s.send(api.NewFinishRun(s.runUuid, kind, msg))
}

func systemInfo() string {
	host := "unknown"
	if h, err := hostname(); err == nil {
		host = h
	}
	return fmt.Sprintf("%s %s/%s cpus=%d", host, runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
}
