package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-sdi12/sdi12"
)

func newTestServer(t *testing.T) (*Server, *sdi12.EngineMetrics) {
	t.Helper()

	metrics := &sdi12.EngineMetrics{}
	srv := NewServer("127.0.0.1:0", metrics, nil)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(srv.Stop)

	return srv, metrics
}

func dialWS(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+"/ws", nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame Frame
	require.NoError(t, json.Unmarshal(data, &frame))

	return frame
}

func TestServer_GreetsWithStatus(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialWS(t, srv)

	frame := readFrame(t, conn)
	assert.Equal(t, "status", frame.Type)
	require.NotNil(t, frame.Status)
	assert.Equal(t, sdi12.StateIdle.String(), frame.Status.State)
}

func TestServer_BroadcastsTraceRecords(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dialWS(t, srv)

	// skip the greeting
	readFrame(t, conn)

	srv.Record(sdi12.Event{Kind: sdi12.EventEdge, Rising: true, Elapsed: 15 * time.Millisecond}, sdi12.StateTestingMark)

	var frame Frame
	for {
		frame = readFrame(t, conn)
		if frame.Type == "trace" {
			break
		}
	}

	require.NotNil(t, frame.Trace)
	assert.Equal(t, sdi12.EventEdge.String(), frame.Trace.Event)
	assert.Equal(t, sdi12.StateTestingMark.String(), frame.Trace.State)
	assert.True(t, frame.Trace.Rising)
	assert.Equal(t, int64(15000), frame.Trace.ElapsedUs)
}

func TestServer_StatusEndpoint(t *testing.T) {
	srv, metrics := newTestServer(t)
	metrics.CommandRecvCount.Add(3)

	resp, err := http.Get("http://" + srv.Addr() + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var frame Frame
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&frame))
	require.NotNil(t, frame.Status)
	assert.Equal(t, uint64(3), frame.Status.CommandsRecv)
}

func TestServer_RecordNeverBlocks(t *testing.T) {
	metrics := &sdi12.EngineMetrics{}
	srv := NewServer("127.0.0.1:0", metrics, nil)
	// not started, nothing drains the queue

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < traceQueueSize*2; i++ {
			srv.Record(sdi12.Event{Kind: sdi12.EventTimerExpired}, sdi12.StateIdle)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full queue")
	}
	assert.Equal(t, uint64(traceQueueSize), srv.DroppedRecords())
}

func TestServer_MultipleClients(t *testing.T) {
	srv, _ := newTestServer(t)
	conn1 := dialWS(t, srv)
	conn2 := dialWS(t, srv)
	readFrame(t, conn1)
	readFrame(t, conn2)

	srv.Record(sdi12.Event{Kind: sdi12.EventByteReceived, Byte: '0'}, sdi12.StateWaitingForChar)

	for _, conn := range []*websocket.Conn{conn1, conn2} {
		var frame Frame
		for {
			frame = readFrame(t, conn)
			if frame.Type == "trace" {
				break
			}
		}
		assert.Equal(t, "0", frame.Trace.Byte)
	}
}
