package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-sdi12/internal/task"
	"github.com/arloliu/go-sdi12/logger"
	"github.com/arloliu/go-sdi12/sdi12"
)

const (
	// traceQueueSize bounds the trace records buffered between the engine's
	// event path and the broadcaster; excess records are dropped.
	traceQueueSize = 256
	// clientQueueSize bounds the per-client send queue.
	clientQueueSize = 64
	// statusInterval is the period of status frame broadcasts.
	statusInterval = time.Second
)

type traceEntry struct {
	ev    sdi12.Event
	state sdi12.State
}

// Server broadcasts engine trace and status frames to websocket clients.
// It implements sdi12.TraceSink so it can be attached to an engine with
// sdi12.WithTraceSink.
type Server struct {
	addr    string
	metrics *sdi12.EngineMetrics
	logger  logger.Logger

	clients  *xsync.MapOf[*wsClient, struct{}]
	upgrader websocket.Upgrader

	traceQueue chan traceEntry
	lastState  atomic.Int32
	dropped    atomic.Uint64

	listener net.Listener
	httpSrv  *http.Server
	mgr      *task.Manager
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

var _ sdi12.TraceSink = (*Server)(nil)

// NewServer creates a monitor server listening on addr once started.
// metrics usually comes from Engine.Metrics of the monitored engine.
func NewServer(addr string, metrics *sdi12.EngineMetrics, l logger.Logger) *Server {
	if l == nil {
		l = logger.GetLogger()
	}

	return &Server{
		addr:    addr,
		metrics: metrics,
		logger:  l,
		clients: xsync.NewMapOf[*wsClient, struct{}](),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		traceQueue: make(chan traceEntry, traceQueueSize),
	}
}

// BindMetrics attaches the engine metrics read by status frames. Used when
// the server must exist before the engine, because the engine takes its
// trace sink at construction.
func (s *Server) BindMetrics(m *sdi12.EngineMetrics) {
	s.metrics = m
}

// Record implements sdi12.TraceSink. It never blocks; when the broadcaster
// cannot keep up the record is dropped and counted.
func (s *Server) Record(ev sdi12.Event, state sdi12.State) {
	s.lastState.Store(int32(state))

	select {
	case s.traceQueue <- traceEntry{ev: ev, state: state}:
	default:
		s.dropped.Add(1)
	}
}

// DroppedRecords returns the number of trace records dropped due to
// broadcaster backpressure.
func (s *Server) DroppedRecords() uint64 {
	return s.dropped.Load()
}

// Addr returns the bound listen address, valid after Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Start binds the listener and launches the HTTP server, the trace
// broadcaster and the periodic status task.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/status", s.handleStatus)

	s.httpSrv = &http.Server{Handler: mux}
	s.mgr = task.NewManager(ctx, s.logger)

	if err := s.mgr.Start("monitor-http", func() bool {
		if err := s.httpSrv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("monitor http server failed", "err", err)
		}
		return false
	}); err != nil {
		return err
	}

	if err := s.mgr.Start("monitor-broadcast", s.broadcastLoop); err != nil {
		return err
	}

	if _, err := s.mgr.StartInterval("monitor-status", s.broadcastStatus, statusInterval, false); err != nil {
		return err
	}

	s.logger.Info("monitor listening", "addr", s.Addr())

	return nil
}

// Stop shuts down the HTTP server and all tasks.
func (s *Server) Stop() {
	if s.httpSrv != nil {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutCtx); err != nil {
			s.logger.Warn("monitor shutdown failed", "err", err)
		}
	}

	s.clients.Range(func(c *wsClient, _ struct{}) bool {
		_ = c.conn.Close()
		return true
	})

	if s.mgr != nil {
		s.mgr.Stop()
		s.mgr.Wait()
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, clientQueueSize),
		done: make(chan struct{}),
	}
	s.clients.Store(client, struct{}{})
	s.logger.Debug("monitor client connected", "clients", s.clients.Size())

	// greet with the current status so the client has immediate state
	if data, err := json.Marshal(s.statusFrame()); err == nil {
		client.send <- data
	}

	go s.clientWriter(client)
	go s.clientReader(client)
}

func (s *Server) clientWriter(client *wsClient) {
	defer func() { _ = client.conn.Close() }()

	for {
		select {
		case msg := <-client.send:
			if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-client.done:
			return
		}
	}
}

func (s *Server) clientReader(client *wsClient) {
	defer func() {
		s.clients.Delete(client)
		close(client.done)
		s.logger.Debug("monitor client disconnected", "clients", s.clients.Size())
	}()

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := json.Marshal(s.statusFrame())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// broadcastLoop forwards one queued trace record per pass.
func (s *Server) broadcastLoop() bool {
	select {
	case entry := <-s.traceQueue:
		s.broadcast(newTraceFrame(entry.ev, entry.state))
		return true
	case <-s.mgr.Context().Done():
		return false
	}
}

func (s *Server) broadcastStatus() bool {
	s.broadcast(s.statusFrame())
	return true
}

func (s *Server) statusFrame() Frame {
	return newStatusFrame(s.metrics, sdi12.State(s.lastState.Load()))
}

// broadcast fans a frame out to every client, skipping those whose send
// queue is full.
func (s *Server) broadcast(frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	s.clients.Range(func(client *wsClient, _ struct{}) bool {
		select {
		case client.send <- data:
		default:
			// client too slow, skip
		}
		return true
	})
}
