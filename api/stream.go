package api

import "time"

// MsgType is a message type for streaming run results
type MsgType string

// Streaming message type constants
const (
	StartRunMsg       MsgType = "run_start"
	FinishCycleMsg    MsgType = "cycle_finish"
	GlobalCountersMsg MsgType = "global_counters"
	FinishRunMsg      MsgType = "run_finish"
)

// Browser log size constraints for streaming
const (
	MaxLogHeight = 40
	MaxLogWidth  = 120
)

// Header is the common header for all streaming messages
type Header struct {
	RunUuid string  `json:"run_uuid"`
	MsgType MsgType `json:"msg_type"`
}

// StartRun message sent before the first cycle
type StartRun struct {
	Header
	Title          string   `json:"title"`
	TestName       string   `json:"test_name"`
	Cycles         int      `json:"cycles"`
	Counters       []string `json:"counters"`
	GlobalCounters []string `json:"global_counters"`
	SystemInfo     string   `json:"system_info"`
	StartedTime    string   `json:"started_time"`
}

// FinishCycle message sent for every completed cycle
type FinishCycle struct {
	Header
	Cycle    int                  `json:"cycle"`
	Log      string               `json:"log"`
	Counters map[string][]float64 `json:"counters"`
}

// GlobalCounters message carries the counters collected across cycles
type GlobalCounters struct {
	Header
	Counters map[string][]float64 `json:"counters"`
}

// FinishRun message sent when the run completes or aborts
type FinishRun struct {
	Header
	// kind of the terminal failure, e.g. "timeout" or "crash"
	ErrorKind    *string `json:"error_kind"`
	ErrorMessage *string `json:"error_message"`
	FinishedTime string  `json:"finished_time"`
}

// Helper function to create a header
func NewHeader(runUuid string, msgType MsgType) Header {
	return Header{
		RunUuid: runUuid,
		MsgType: msgType,
	}
}

// Helper functions to create specific streaming message types
func NewStartRun(runUuid, title, testName string, cycles int, counters, globalCounters []string, systemInfo string) StartRun {
	return StartRun{
		Header:         NewHeader(runUuid, StartRunMsg),
		Title:          title,
		TestName:       testName,
		Cycles:         cycles,
		Counters:       counters,
		GlobalCounters: globalCounters,
		SystemInfo:     systemInfo,
		StartedTime:    time.Now().Format(time.RFC3339),
	}
}

func NewFinishCycle(runUuid string, cycle int, log string, counters map[string][]float64) FinishCycle {
	return FinishCycle{
		Header:   NewHeader(runUuid, FinishCycleMsg),
		Cycle:    cycle,
		Log:      log,
		Counters: counters,
	}
}

func NewGlobalCounters(runUuid string, counters map[string][]float64) GlobalCounters {
	return GlobalCounters{
		Header:   NewHeader(runUuid, GlobalCountersMsg),
		Counters: counters,
	}
}

func NewFinishRun(runUuid string, errorKind, errorMessage *string) FinishRun {
	return FinishRun{
		Header:       NewHeader(runUuid, FinishRunMsg),
		ErrorKind:    errorKind,
		ErrorMessage: errorMessage,
		FinishedTime: time.Now().Format(time.RFC3339),
	}
}
