package monitor

import (
	"time"

	"github.com/arloliu/go-sdi12/sdi12"
)

// Frame is the JSON structure sent to websocket clients.
type Frame struct {
	Type   string       `json:"type"` // "trace" or "status"
	Trace  *TraceFrame  `json:"trace,omitempty"`
	Status *StatusFrame `json:"status,omitempty"`
	Stamp  int64        `json:"stamp"` // unix ms
}

// TraceFrame is one engine event and the state it produced.
type TraceFrame struct {
	Event     string `json:"event"`
	State     string `json:"state"`
	Rising    bool   `json:"rising,omitempty"`
	ElapsedUs int64  `json:"elapsed_us,omitempty"`
	Byte      string `json:"byte,omitempty"`
	RecvErr   string `json:"recv_err,omitempty"`
}

// StatusFrame is a periodic snapshot of engine state and counters.
type StatusFrame struct {
	State           string `json:"state"`
	CommandsRecv    uint64 `json:"commands_recv"`
	CommandErrors   uint64 `json:"command_errors"`
	ResponsesSent   uint64 `json:"responses_sent"`
	SyncFaults      uint64 `json:"sync_faults"`
	Aborts          uint64 `json:"aborts"`
	ServiceRequests uint64 `json:"service_requests"`
	NoDataReplies   uint64 `json:"no_data_replies"`
}

func newTraceFrame(ev sdi12.Event, state sdi12.State) Frame {
	tf := &TraceFrame{
		Event: ev.Kind.String(),
		State: state.String(),
	}

	switch ev.Kind {
	case sdi12.EventEdge:
		tf.Rising = ev.Rising
		tf.ElapsedUs = ev.Elapsed.Microseconds()
	case sdi12.EventByteReceived:
		tf.Byte = string(rune(ev.Byte))
		if ev.RecvErr.Any() {
			tf.RecvErr = ev.RecvErr.String()
		}
	}

	return Frame{Type: "trace", Trace: tf, Stamp: time.Now().UnixMilli()}
}

func newStatusFrame(m *sdi12.EngineMetrics, state sdi12.State) Frame {
	if m == nil {
		m = &sdi12.EngineMetrics{}
	}
	return Frame{
		Type: "status",
		Status: &StatusFrame{
			State:           state.String(),
			CommandsRecv:    m.CommandRecvCount.Load(),
			CommandErrors:   m.CommandErrCount.Load(),
			ResponsesSent:   m.ResponseSentCount.Load(),
			SyncFaults:      m.SyncFaultCount.Load(),
			Aborts:          m.AbortCount.Load(),
			ServiceRequests: m.ServiceRequestCount.Load(),
			NoDataReplies:   m.NoDataReplyCount.Load(),
		},
		Stamp: time.Now().UnixMilli(),
	}
}
