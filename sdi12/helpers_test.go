package sdi12

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeTimer records the armed state and duration.
type fakeTimer struct {
	armed    bool
	duration time.Duration
}

func (t *fakeTimer) Arm(d time.Duration) {
	t.armed = true
	t.duration = d
}

func (t *fakeTimer) Disable() {
	t.armed = false
	t.duration = 0
}

// fakeEdgeSource records whether edge sensing is enabled.
type fakeEdgeSource struct {
	enabled bool
}

func (s *fakeEdgeSource) Enable()  { s.enabled = true }
func (s *fakeEdgeSource) Disable() { s.enabled = false }

// fakeByteChannel records direction enables and every transmitted byte.
type fakeByteChannel struct {
	rxEnabled bool
	txEnabled bool
	sent      []byte
}

func (c *fakeByteChannel) EnableReceive()   { c.rxEnabled = true }
func (c *fakeByteChannel) DisableReceive()  { c.rxEnabled = false }
func (c *fakeByteChannel) EnableTransmit()  { c.txEnabled = true }
func (c *fakeByteChannel) DisableTransmit() { c.txEnabled = false }
func (c *fakeByteChannel) Send(b byte)      { c.sent = append(c.sent, b) }

// testRig wires an engine to fake capabilities and drives it the way the
// serial runner would, with every event injected synchronously.
type testRig struct {
	t     *testing.T
	eng   *Engine
	timer *fakeTimer
	edges *fakeEdgeSource
	ch    *fakeByteChannel
}

func newTestRig(t *testing.T, addrs []byte, opts ...EngineOption) *testRig {
	t.Helper()

	table, err := NewAddrTable(addrs...)
	require.NoError(t, err)

	rig := &testRig{
		t:     t,
		timer: &fakeTimer{},
		edges: &fakeEdgeSource{},
		ch:    &fakeByteChannel{},
	}

	rig.eng, err = NewEngine(table, rig.timer, rig.edges, rig.ch, opts...)
	require.NoError(t, err)
	rig.eng.Enable()

	return rig
}

// sendBreak drives a valid break/mark pair ending in address reception.
// It works from idle and from the post-service-request window.
func (r *testRig) sendBreak() {
	r.t.Helper()

	r.eng.OnEdge(false, 0)
	r.eng.OnEdge(true, 15*time.Millisecond)
	require.Equal(r.t, StateTestingMark, r.eng.State())
	r.eng.OnTimerExpired()
	require.Equal(r.t, StateWaitingForAddress, r.eng.State())
}

// sendChars feeds command characters without error conditions.
func (r *testRig) sendChars(cmd string) {
	r.t.Helper()

	for i := 0; i < len(cmd); i++ {
		r.eng.OnByteReceived(cmd[i], RecvOK)
	}
}

// finish runs the poll pass, lets the pre-response mark elapse and drains
// the transmitter. It returns everything sent on the line.
func (r *testRig) finish() string {
	r.t.Helper()

	r.eng.Poll()
	r.eng.OnTimerExpired()
	r.drainTx()

	return r.takeSent()
}

// drainTx delivers transmit-complete notifications until the transmitter
// falls silent.
func (r *testRig) drainTx() {
	r.t.Helper()

	for i := 0; i < 64; i++ {
		st := r.eng.State()
		if st != StateSendingResponse && st != StateSendingServiceRequest {
			return
		}
		r.eng.OnByteSent()
	}
	r.t.Fatal("transmitter never went quiescent")
}

// takeSent returns and clears the transmitted bytes.
func (r *testRig) takeSent() string {
	out := string(r.ch.sent)
	r.ch.sent = nil
	return out
}

// transact runs one complete break-prefixed command transaction and returns
// the full response, empty for silence.
func (r *testRig) transact(cmd string) string {
	r.t.Helper()

	r.takeSent()
	r.sendBreak()
	r.sendChars(cmd)

	return r.finish()
}

// sendDataCommandAfterSRQ drives the breakless data command permitted
// inside the post-service-request window and returns the reply.
func (r *testRig) sendDataCommandAfterSRQ(cmd string) string {
	r.t.Helper()
	require.Equal(r.t, StateWaitingForDataBreakWindow1, r.eng.State())

	r.takeSent()
	// the start bit of the first character registers as a short pulse
	r.eng.OnEdge(false, 0)
	r.eng.OnEdge(true, 1*time.Millisecond)
	require.Equal(r.t, StateDataFirstChar, r.eng.State())
	r.sendChars(cmd)

	return r.finish()
}

// producerBuf wraps a payload in the producer buffer format: a placeholder
// address byte, the payload, and null headroom for CRC and CRLF.
func producerBuf(payload string) []byte {
	buf := make([]byte, 1+len(payload)+8)
	buf[0] = 'x'
	copy(buf[1:], payload)
	return buf
}
