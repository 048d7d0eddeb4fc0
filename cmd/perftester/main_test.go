package main

import (
	"errors"
	"fmt"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"

	"github.com/programme-lv/perftester/internal/config"
	"github.com/programme-lv/perftester/internal/crash"
	"github.com/programme-lv/perftester/internal/process"
	"github.com/programme-lv/perftester/internal/runner"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"success", nil, exitOK},
		{"config", fmt.Errorf("%w: test.url is required", config.ErrInvalid), exitConfig},
		{"stale", &runner.StaleProcessError{Procs: mapset.NewSet[process.Proc](), Stage: runner.StagePreflight}, exitStale},
		{"crash", fmt.Errorf("cycle 2: %w", &runner.CrashError{Report: &crash.Report{}}), exitCrash},
		{"timeout", &runner.TimeoutError{}, exitFailure},
		{"other", errors.New("disk full"), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, exitCode(tt.err))
		})
	}
}
