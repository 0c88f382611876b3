package serialport

import (
	"errors"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/arloliu/go-sdi12/sdi12"
)

// recordSink captures posted events for assertions.
type recordSink struct {
	mu     sync.Mutex
	events []sdi12.Event
}

func (s *recordSink) post(ev sdi12.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordSink) snapshot() []sdi12.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sdi12.Event, len(s.events))
	copy(out, s.events)
	return out
}

// fakeSerialPort is an in-memory serial.Port. Reads block on an injection
// channel; writes accumulate for inspection.
type fakeSerialPort struct {
	incoming chan []byte
	closed   chan struct{}

	mu      sync.Mutex
	written []byte
}

var _ serial.Port = (*fakeSerialPort)(nil)

func newFakeSerialPort() *fakeSerialPort {
	return &fakeSerialPort{
		incoming: make(chan []byte, 16),
		closed:   make(chan struct{}),
	}
}

func (p *fakeSerialPort) inject(data string) {
	p.incoming <- []byte(data)
}

func (p *fakeSerialPort) writtenBytes() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(p.written)
}

func (p *fakeSerialPort) Read(buf []byte) (int, error) {
	select {
	case data := <-p.incoming:
		return copy(buf, data), nil
	case <-p.closed:
		return 0, io.EOF
	}
}

func (p *fakeSerialPort) Write(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.written = append(p.written, buf...)
	return len(buf), nil
}

func (p *fakeSerialPort) Close() error {
	select {
	case <-p.closed:
		return errors.New("already closed")
	default:
		close(p.closed)
	}
	return nil
}

func (p *fakeSerialPort) SetMode(mode *serial.Mode) error           { return nil }
func (p *fakeSerialPort) Drain() error                              { return nil }
func (p *fakeSerialPort) ResetInputBuffer() error                   { return nil }
func (p *fakeSerialPort) ResetOutputBuffer() error                  { return nil }
func (p *fakeSerialPort) SetDTR(dtr bool) error                     { return nil }
func (p *fakeSerialPort) SetRTS(rts bool) error                     { return nil }
func (p *fakeSerialPort) SetReadTimeout(t time.Duration) error      { return nil }
func (p *fakeSerialPort) Break(d time.Duration) error               { return nil }
func (p *fakeSerialPort) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	return &serial.ModemStatusBits{}, nil
}
