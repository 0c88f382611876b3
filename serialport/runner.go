package serialport

import (
	"context"
	"time"

	"go.bug.st/serial"

	"github.com/arloliu/go-sdi12/internal/pool"
	"github.com/arloliu/go-sdi12/internal/queue"
	"github.com/arloliu/go-sdi12/internal/task"
	"github.com/arloliu/go-sdi12/logger"
	"github.com/arloliu/go-sdi12/sdi12"
)

const (
	// readBufSize is the per-read chunk size of the reader task.
	readBufSize = 64
	// idlePollInterval bounds how long the event loop sleeps between
	// passes when no events arrive, so Poll keeps running.
	idlePollInterval = 5 * time.Millisecond
)

// Runner drives a protocol engine from a serial port. It owns the event
// queue, the wall-clock timer and the reader task; the engine is only ever
// touched from the single event-loop goroutine.
type Runner struct {
	ctx    context.Context
	eng    *sdi12.Engine
	port   *Port
	timer  *wallTimer
	queue  queue.Queue[sdi12.Event]
	notify chan struct{}
	mgr    *task.Manager
	logger logger.Logger
}

// NewRunner builds the full capability wiring around an opened serial port
// and creates the engine bound to it. The port should come from Open; any
// serial.Port works, which is what the tests rely on.
func NewRunner(ctx context.Context, port serial.Port, table *sdi12.AddrTable, opts ...sdi12.EngineOption) (*Runner, error) {
	cfg, err := sdi12.NewEngineConfig(opts...)
	if err != nil {
		return nil, err
	}
	l := cfg.GetLogger()

	r := &Runner{
		ctx:    ctx,
		queue:  queue.NewLockFreeQueue[sdi12.Event](),
		notify: make(chan struct{}, 1),
		mgr:    task.NewManager(ctx, l),
		logger: l,
	}

	r.port = newPort(port, r, l)
	r.timer = newWallTimer(r)

	r.eng, err = sdi12.NewEngine(table, r.timer, r.port, r.port, opts...)
	if err != nil {
		return nil, err
	}

	return r, nil
}

// Engine returns the driven engine, for producer-side access such as
// PendingRequest and SupplyData.
func (r *Runner) Engine() *sdi12.Engine {
	return r.eng
}

// Start enables the engine and launches the reader and event-loop tasks.
func (r *Runner) Start() error {
	r.eng.Enable()

	readBuf := make([]byte, readBufSize)
	if err := r.mgr.Start("serial-reader", func() bool {
		return r.port.readLoop(readBuf)
	}); err != nil {
		return err
	}

	return r.mgr.Start("event-loop", r.eventLoop)
}

// Stop disables the engine, closes the port and waits for both tasks.
func (r *Runner) Stop() {
	r.mgr.Stop()
	if err := r.port.Close(); err != nil {
		r.logger.Warn("serial close failed", "err", err)
	}
	r.mgr.Wait()
	r.eng.Disable()
}

// post enqueues one event and wakes the event loop. Safe for concurrent use
// by the reader task and timer goroutines.
func (r *Runner) post(ev sdi12.Event) {
	r.queue.Enqueue(ev)
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// eventLoop is one pass of the single-consumer loop: wait for work, apply
// every queued event to the engine, then run the cooperative Poll.
func (r *Runner) eventLoop() bool {
	tm := pool.GetTimer(idlePollInterval)
	select {
	case <-r.ctx.Done():
		pool.PutTimer(tm)
		return false
	case <-r.notify:
	case <-tm.C:
	}
	pool.PutTimer(tm)

	for {
		ev, ok := r.queue.Dequeue()
		if !ok {
			break
		}
		r.dispatch(ev)
	}

	r.eng.Poll()

	return true
}

func (r *Runner) dispatch(ev sdi12.Event) {
	switch ev.Kind {
	case sdi12.EventEdge:
		r.eng.OnEdge(ev.Rising, ev.Elapsed)
	case sdi12.EventTimerExpired:
		r.eng.OnTimerExpired()
	case sdi12.EventByteReceived:
		r.eng.OnByteReceived(ev.Byte, ev.RecvErr)
	case sdi12.EventByteSent:
		r.eng.OnByteSent()
	}
}
