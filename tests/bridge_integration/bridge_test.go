package bridgeintegration

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/arloliu/go-sdi12/monitor"
	"github.com/arloliu/go-sdi12/sdi12"
	"github.com/arloliu/go-sdi12/serialport"
)

// recorderPort is an in-memory serial.Port played by the data recorder.
type recorderPort struct {
	incoming chan []byte
	closed   chan struct{}

	mu      sync.Mutex
	written []byte
}

var _ serial.Port = (*recorderPort)(nil)

func newRecorderPort() *recorderPort {
	return &recorderPort{
		incoming: make(chan []byte, 16),
		closed:   make(chan struct{}),
	}
}

// sendBreak transmits the line break rendering, a null byte.
func (p *recorderPort) sendBreak() {
	p.incoming <- []byte{0}
}

func (p *recorderPort) send(data string) {
	p.incoming <- []byte(data)
}

func (p *recorderPort) received() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(p.written)
}

func (p *recorderPort) Read(buf []byte) (int, error) {
	select {
	case data := <-p.incoming:
		return copy(buf, data), nil
	case <-p.closed:
		return 0, io.EOF
	}
}

func (p *recorderPort) Write(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.written = append(p.written, buf...)
	return len(buf), nil
}

func (p *recorderPort) Close() error {
	select {
	case <-p.closed:
		return errors.New("already closed")
	default:
		close(p.closed)
	}
	return nil
}

func (p *recorderPort) SetMode(mode *serial.Mode) error      { return nil }
func (p *recorderPort) Drain() error                         { return nil }
func (p *recorderPort) ResetInputBuffer() error              { return nil }
func (p *recorderPort) ResetOutputBuffer() error             { return nil }
func (p *recorderPort) SetDTR(dtr bool) error                { return nil }
func (p *recorderPort) SetRTS(rts bool) error                { return nil }
func (p *recorderPort) SetReadTimeout(t time.Duration) error { return nil }
func (p *recorderPort) Break(d time.Duration) error          { return nil }
func (p *recorderPort) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	return &serial.ModemStatusBits{}, nil
}

type bridge struct {
	runner *serialport.Runner
	mon    *monitor.Server
	port   *recorderPort
}

func startBridge(t *testing.T, addrs ...byte) *bridge {
	t.Helper()

	table, err := sdi12.NewAddrTable(addrs...)
	require.NoError(t, err)

	mon := monitor.NewServer("127.0.0.1:0", nil, nil)

	port := newRecorderPort()
	runner, err := serialport.NewRunner(context.Background(), port, table,
		sdi12.WithTraceSink(mon),
	)
	require.NoError(t, err)

	mon.BindMetrics(runner.Engine().Metrics())
	require.NoError(t, mon.Start(context.Background()))
	require.NoError(t, runner.Start())

	t.Cleanup(func() {
		runner.Stop()
		mon.Stop()
	})

	return &bridge{runner: runner, mon: mon, port: port}
}

// command runs one break-prefixed command and waits for newSuffix to appear
// on the line (empty means expect continued silence).
func (b *bridge) command(t *testing.T, cmd string, newSuffix string) {
	t.Helper()

	before := b.port.received()
	b.port.sendBreak()
	time.Sleep(50 * time.Millisecond)
	b.port.send(cmd)

	if newSuffix == "" {
		time.Sleep(200 * time.Millisecond)
		require.Equal(t, before, b.port.received(), "expected silence for %q", cmd)
		return
	}

	require.Eventually(t, func() bool {
		return b.port.received() == before+newSuffix
	}, 2*time.Second, 5*time.Millisecond, "command %q", cmd)
}

func TestBridge_RecorderSession(t *testing.T) {
	b := startBridge(t, '0', '1')
	eng := b.runner.Engine()

	// discovery and identification
	b.command(t, "?!", "0\r\n")
	b.command(t, "?!", "1\r\n")
	b.command(t, "0I!", "013AZ_USGSXB10HS0010000\r\n")

	// commands for addresses outside the table stay unanswered
	b.command(t, "5!", "")

	// measurement with service request and breakless collection
	b.command(t, "0M!", "00012\r\n")

	node, ok := eng.PendingRequest()
	require.True(t, ok)
	require.Equal(t, sdi12.NodeID(0), node)

	buf := make([]byte, 32)
	buf[0] = 'x'
	copy(buf[1:], "+21.5+0.33")
	require.NoError(t, eng.SupplyData(buf))

	require.Eventually(t, func() bool {
		return strings.HasSuffix(b.port.received(), "00012\r\n"+"0\r\n")
	}, 2*time.Second, 5*time.Millisecond)

	before := b.port.received()
	b.port.send("0D0!")
	require.Eventually(t, func() bool {
		return b.port.received() == before+"0+21.5+0.33\r\n"
	}, 2*time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		return eng.State() == sdi12.StateIdle
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(1), eng.Metrics().ServiceRequestCount.Load())
}

func TestBridge_CRCMeasurement(t *testing.T) {
	b := startBridge(t, '3')
	eng := b.runner.Engine()

	b.command(t, "3MC!", "30012\r\n")

	buf := make([]byte, 32)
	buf[0] = 'x'
	copy(buf[1:], "+1.5")
	require.NoError(t, eng.SupplyData(buf))

	require.Eventually(t, func() bool {
		return strings.HasSuffix(b.port.received(), "3\r\n")
	}, 2*time.Second, 5*time.Millisecond)

	code := sdi12.EncodeCRC(sdi12.ComputeCRC([]byte("3+1.5")))
	before := b.port.received()
	b.port.send("3D0!")
	require.Eventually(t, func() bool {
		return b.port.received() == before+"3+1.5"+string(code[:])+"\r\n"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestBridge_MonitorObservesSession(t *testing.T) {
	b := startBridge(t, '0')

	resp, err := http.Get("http://" + b.mon.Addr() + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var frame monitor.Frame
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&frame))
	require.NotNil(t, frame.Status)

	b.command(t, "0!", "0\r\n")

	resp2, err := http.Get("http://" + b.mon.Addr() + "/api/status")
	require.NoError(t, err)
	defer resp2.Body.Close()

	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&frame))
	assert.Equal(t, uint64(1), frame.Status.CommandsRecv)
	assert.Equal(t, uint64(1), frame.Status.ResponsesSent)
}
