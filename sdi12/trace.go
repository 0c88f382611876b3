package sdi12

import "sync"

// TraceSink receives every (event, resulting state) pair processed by the
// engine. Implementations must be fast and non-blocking; they run on the
// event path.
type TraceSink interface {
	Record(ev Event, state State)
}

// TraceRecord is one entry captured by RingTrace.
type TraceRecord struct {
	Event Event
	State State
}

// RingTrace is a TraceSink keeping the most recent records in a fixed-size
// ring. It is safe for concurrent use.
type RingTrace struct {
	mu      sync.Mutex
	records []TraceRecord
	next    int
	wrapped bool
}

var _ TraceSink = (*RingTrace)(nil)

// NewRingTrace creates a ring trace holding up to size records.
func NewRingTrace(size int) *RingTrace {
	if size <= 0 {
		size = 64
	}
	return &RingTrace{records: make([]TraceRecord, size)}
}

// Record appends one record, evicting the oldest when the ring is full.
func (r *RingTrace) Record(ev Event, state State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[r.next] = TraceRecord{Event: ev, State: state}
	r.next++
	if r.next == len(r.records) {
		r.next = 0
		r.wrapped = true
	}
}

// Snapshot returns the captured records, oldest first.
func (r *RingTrace) Snapshot() []TraceRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.wrapped {
		out := make([]TraceRecord, r.next)
		copy(out, r.records[:r.next])
		return out
	}

	out := make([]TraceRecord, 0, len(r.records))
	out = append(out, r.records[r.next:]...)
	out = append(out, r.records[:r.next]...)
	return out
}

// Reset discards all captured records.
func (r *RingTrace) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next = 0
	r.wrapped = false
}
