package sdi12

import (
	"sync/atomic"
)

// EngineMetrics contains atomic metrics for a protocol engine.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type EngineMetrics struct {
	// CommandRecvCount indicates the number of complete command lines received.
	CommandRecvCount atomic.Uint64
	// CommandErrCount indicates the number of malformed or unsupported commands.
	CommandErrCount atomic.Uint64
	// ResponseSentCount indicates the number of responses fully transmitted.
	ResponseSentCount atomic.Uint64
	// SyncFaultCount indicates the number of break/mark/receive synchronization faults.
	SyncFaultCount atomic.Uint64
	// AbortCount indicates the number of acknowledged abort breaks.
	AbortCount atomic.Uint64
	// ServiceRequestCount indicates the number of spontaneous service requests sent.
	ServiceRequestCount atomic.Uint64
	// NoDataReplyCount indicates the number of "no data" sentinel replies.
	NoDataReplyCount atomic.Uint64
}

func (m *EngineMetrics) incCommandRecvCount() {
	m.CommandRecvCount.Add(1)
}

func (m *EngineMetrics) incCommandErrCount() {
	m.CommandErrCount.Add(1)
}

func (m *EngineMetrics) incResponseSentCount() {
	m.ResponseSentCount.Add(1)
}

func (m *EngineMetrics) incSyncFaultCount() {
	m.SyncFaultCount.Add(1)
}

func (m *EngineMetrics) incAbortCount() {
	m.AbortCount.Add(1)
}

func (m *EngineMetrics) incServiceRequestCount() {
	m.ServiceRequestCount.Add(1)
}

func (m *EngineMetrics) incNoDataReplyCount() {
	m.NoDataReplyCount.Add(1)
}
