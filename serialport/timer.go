package serialport

import (
	"sync"
	"time"

	"github.com/arloliu/go-sdi12/internal/pool"
	"github.com/arloliu/go-sdi12/sdi12"
)

// wallTimer implements the engine's one-shot Timer capability on wall-clock
// time. Each Arm supersedes the previous one: a generation counter lets a
// stale expiry goroutine detect that it lost the race and drop its event.
type wallTimer struct {
	sink eventSink

	mu  sync.Mutex
	gen uint64
}

var _ sdi12.Timer = (*wallTimer)(nil)

func newWallTimer(sink eventSink) *wallTimer {
	return &wallTimer{sink: sink}
}

// Arm starts the timer for d, superseding any previous arming.
func (t *wallTimer) Arm(d time.Duration) {
	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.mu.Unlock()

	go func() {
		tm := pool.GetTimer(d)
		<-tm.C
		pool.PutTimer(tm)

		t.mu.Lock()
		live := gen == t.gen
		t.mu.Unlock()

		if live {
			t.sink.post(sdi12.Event{Kind: sdi12.EventTimerExpired})
		}
	}()
}

// Disable invalidates any armed expiry.
func (t *wallTimer) Disable() {
	t.mu.Lock()
	t.gen++
	t.mu.Unlock()
}
