package sdi12

import (
	"fmt"

	"github.com/arloliu/go-sdi12/logger"
)

const (
	// rxBufSize bounds a command line; the longest supported command is 6
	// characters and anything longer parses to command-error anyway.
	rxBufSize = 16
	// txBufSize holds the engine's largest private response, the
	// identification string.
	txBufSize = 32
)

// Engine is the SDI-12 slave protocol state machine.
//
// An Engine is driven by its event methods (OnEdge, OnTimerExpired,
// OnByteReceived, OnByteSent) plus the cooperative Poll entry point. The
// caller must serialize all of these; they are not safe for concurrent use.
// Only PendingRequest and SupplyData may be called from another goroutine.
type Engine struct {
	cfg     *EngineConfig
	logger  logger.Logger
	metrics EngineMetrics
	trace   TraceSink

	timer Timer
	edges EdgeSource
	ch    ByteChannel

	table       *AddrTable
	queryCursor int

	state State

	// receive buffer for the current command line. It is zero-filled at
	// the start of each reception so any prefix read is a valid string.
	rxBuf [rxBufSize]byte
	rxIdx int

	// private response buffer and the transmit cursor. sendBuf references
	// either txBuf or a producer-supplied data buffer.
	txBuf   [txBufSize]byte
	sendBuf []byte
	sendIdx int

	// address of the current transaction.
	rxAddr  byte
	numAddr NodeID

	flags     commandFlags
	ctx       requestContext
	handshake dataHandshake

	// srqCount counts elapsed passes of the service request window.
	srqCount int

	// abortAck is set when the parser has queued the abort acknowledgment,
	// so the mark test transmits it instead of waiting for a command.
	abortAck bool
}

// NewEngine creates a protocol engine bound to the given address table and
// hardware capabilities. The engine starts disabled; call Enable to begin
// edge sensing.
func NewEngine(table *AddrTable, timer Timer, edges EdgeSource, ch ByteChannel, opts ...EngineOption) (*Engine, error) {
	if table == nil {
		return nil, ErrAddrTableEmpty
	}
	if timer == nil || edges == nil || ch == nil {
		return nil, fmt.Errorf("sdi12: timer, edge source and byte channel are required")
	}

	cfg, err := NewEngineConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:    cfg,
		logger: cfg.logger,
		trace:  cfg.trace,
		timer:  timer,
		edges:  edges,
		ch:     ch,
		table:  table,
		state:  StateIdle,
	}, nil
}

// Enable resets the engine to idle and turns on edge sensing.
func (e *Engine) Enable() {
	e.timer.Disable()
	e.ch.DisableReceive()
	e.ch.DisableTransmit()

	e.flags.clear()
	e.ctx.clear()
	e.handshake.reset()
	e.clearRxBuf()
	e.sendBuf = nil
	e.sendIdx = 0
	e.srqCount = 0
	e.abortAck = false
	e.queryCursor = 0
	e.state = StateIdle

	e.edges.Enable()
}

// Disable turns off all line activity and returns the engine to idle.
func (e *Engine) Disable() {
	e.edges.Disable()
	e.timer.Disable()
	e.ch.DisableReceive()
	e.ch.DisableTransmit()

	e.flags.clear()
	e.ctx.clear()
	e.handshake.reset()
	e.state = StateIdle
}

// State returns the current protocol state.
func (e *Engine) State() State {
	return e.state
}

// Metrics returns the engine's metric counters.
func (e *Engine) Metrics() *EngineMetrics {
	return &e.metrics
}

// ActiveKind returns the outstanding timed-command family, if any.
func (e *Engine) ActiveKind() CommandKind {
	return e.ctx.kind
}

// PendingRequest reports the node id of an outstanding Measure/Concurrent
// request that still lacks producer data. Safe to call from the producer
// goroutine.
func (e *Engine) PendingRequest() (NodeID, bool) {
	return e.handshake.pending()
}

// SupplyData hands the producer's measurement buffer to the engine and
// clears the request signal. Safe to call from the producer goroutine.
//
// The buffer must follow the data contract: a null-terminated string whose
// first byte is a placeholder for the address, with at least 6 trailing null
// bytes of headroom for the CRC characters, CRLF and terminator, and a
// payload of at most MaxDataPayload characters. The engine holds the buffer
// reference only until the data reply completes.
func (e *Engine) SupplyData(buf []byte) error {
	end := -1
	for i, b := range buf {
		if b == 0 {
			end = i
			break
		}
	}
	if end < 0 {
		return ErrDataNotTerminated
	}
	if end-1 > MaxDataPayload {
		return fmt.Errorf("%w: %d bytes, max %d", ErrDataTooLong, end-1, MaxDataPayload)
	}
	if len(buf)-end < 6 {
		return fmt.Errorf("%w: %d trailing null bytes, need 6", ErrDataNotTerminated, len(buf)-end)
	}

	return e.handshake.supply(buf)
}

// Poll is the cooperative entry point, called once per host-loop pass. It
// drains at most one pending command-received condition by running the
// parser, then clears the one-shot processed/error indicators.
func (e *Engine) Poll() {
	if e.flags.received {
		e.parseCommand()
	}

	e.flags.processed = false
	e.flags.cmdErr = false
}

// clearRxBuf zero-fills the receive buffer and resets its index.
func (e *Engine) clearRxBuf() {
	for i := range e.rxBuf {
		e.rxBuf[i] = 0
	}
	e.rxIdx = 0
}

// seedRxBuf starts a fresh command line with its first character.
func (e *Engine) seedRxBuf(b byte) {
	e.clearRxBuf()
	e.rxBuf[0] = b
	e.rxIdx = 1
}

// nextSendByte returns the next response byte, or 0 when the current
// response is exhausted.
func (e *Engine) nextSendByte() byte {
	if e.sendIdx >= len(e.sendBuf) {
		return 0
	}
	return e.sendBuf[e.sendIdx]
}

// toIdleFault is the shared synchronization fault recovery: everything off,
// edge sensing back on, all transaction state dropped, no response. A
// misbehaving line must never produce a transmission.
func (e *Engine) toIdleFault(reason string) {
	e.timer.Disable()
	e.ch.DisableReceive()
	e.ch.DisableTransmit()
	e.edges.Enable()

	e.flags.clear()
	e.ctx.clear()
	e.handshake.reset()
	e.sendBuf = nil
	e.sendIdx = 0
	e.abortAck = false

	e.metrics.incSyncFaultCount()
	e.logger.Debug("sync fault", "reason", reason, "state", e.state.String())

	e.state = StateIdle
}

// record forwards one processed event to the trace sink, if attached.
func (e *Engine) record(ev Event) {
	if e.trace != nil {
		e.trace.Record(ev, e.state)
	}
}
