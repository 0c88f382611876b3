package serialport

import (
	"fmt"
	"sync/atomic"
	"time"

	"go.bug.st/serial"

	"github.com/arloliu/go-sdi12/logger"
	"github.com/arloliu/go-sdi12/sdi12"
)

const (
	// breakPulse is the synthesized low-pulse duration reported for a
	// received null byte, long enough to pass the engine's break test.
	breakPulse = sdi12.BreakMinDuration
	// charStartPulse is the synthesized pulse reported for the start bit of
	// a character arriving while edge sensing is enabled, short enough to
	// be classified as a character rather than a break.
	charStartPulse = 1 * time.Millisecond
)

// eventSink receives synthesized engine events from the port and timer.
type eventSink interface {
	post(ev sdi12.Event)
}

// Open opens device as an SDI-12 line: 1200 baud, 7 data bits, even parity,
// 1 stop bit.
func Open(device string) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: 1200,
		DataBits: 7,
		Parity:   serial.EvenParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", device, err)
	}

	return port, nil
}

// Port adapts a serial port to the engine's ByteChannel and EdgeSource
// capabilities. The direction gates are plain flags because the engine only
// flips them from the runner goroutine; the reader goroutine observes them
// atomically.
type Port struct {
	port   serial.Port
	sink   eventSink
	logger logger.Logger

	rxOn    atomic.Bool
	txOn    atomic.Bool
	edgesOn atomic.Bool
}

var (
	_ sdi12.ByteChannel = (*Port)(nil)
	_ sdi12.EdgeSource  = (*Port)(nil)
)

func newPort(port serial.Port, sink eventSink, l logger.Logger) *Port {
	return &Port{
		port:   port,
		sink:   sink,
		logger: l,
	}
}

// EnableReceive opens the receive gate.
func (p *Port) EnableReceive() { p.rxOn.Store(true) }

// DisableReceive closes the receive gate; incoming bytes are discarded.
func (p *Port) DisableReceive() { p.rxOn.Store(false) }

// EnableTransmit opens the transmit gate.
func (p *Port) EnableTransmit() { p.txOn.Store(true) }

// DisableTransmit closes the transmit gate.
func (p *Port) DisableTransmit() { p.txOn.Store(false) }

// Enable turns on edge synthesis.
func (p *Port) Enable() { p.edgesOn.Store(true) }

// Disable turns off edge synthesis.
func (p *Port) Disable() { p.edgesOn.Store(false) }

// Send writes one byte to the line and reports its completion as a
// byte-sent event.
func (p *Port) Send(b byte) {
	if !p.txOn.Load() {
		return
	}

	if _, err := p.port.Write([]byte{b}); err != nil {
		p.logger.Error("serial write failed", "err", err)
		return
	}

	p.sink.post(sdi12.Event{Kind: sdi12.EventByteSent})
}

// Close closes the underlying serial port, which also unblocks the reader.
func (p *Port) Close() error {
	return p.port.Close()
}

// readLoop reads one chunk from the port and converts it to engine events.
// It returns false when the port read fails, stopping the reader task.
func (p *Port) readLoop(buf []byte) bool {
	n, err := p.port.Read(buf)
	if err != nil {
		p.logger.Error("serial read failed", "err", err)
		return false
	}

	for _, b := range buf[:n] {
		p.handleByte(b)
	}

	return true
}

// handleByte maps one received byte to events.
//
// A null byte is the UART rendering of a line break (all-zero data with the
// stop bit forced low). With edge sensing on it becomes a break pulse; with
// only reception on it is delivered as a framing-errored byte so the engine
// treats it as a synchronization fault, as a real break mid-command is.
func (p *Port) handleByte(b byte) {
	edges := p.edgesOn.Load()
	rx := p.rxOn.Load()

	if b == 0 {
		switch {
		case edges:
			p.sink.post(sdi12.Event{Kind: sdi12.EventEdge, Rising: false})
			p.sink.post(sdi12.Event{Kind: sdi12.EventEdge, Rising: true, Elapsed: breakPulse})
		case rx:
			p.sink.post(sdi12.Event{Kind: sdi12.EventByteReceived, Byte: 0, RecvErr: sdi12.RecvErrFraming})
		}
		return
	}

	if !rx {
		return
	}

	// with edge sensing still on the engine is waiting for the start bit
	// of a post-service-request data command
	if edges {
		p.sink.post(sdi12.Event{Kind: sdi12.EventEdge, Rising: false})
		p.sink.post(sdi12.Event{Kind: sdi12.EventEdge, Rising: true, Elapsed: charStartPulse})
	}

	p.sink.post(sdi12.Event{Kind: sdi12.EventByteReceived, Byte: b, RecvErr: sdi12.RecvOK})
}
