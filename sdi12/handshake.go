package sdi12

import "sync"

// dataHandshake is the signal/buffer pair shared between the engine (on the
// event thread) and the external data producer.
//
// The producer must follow the "set buffer, then clear signal" order, which
// SupplyData enforces; the engine observes the signal and buffer under the
// same lock, making each poll atomic with respect to producer updates.
type dataHandshake struct {
	mu sync.Mutex

	// armed is true while a Measure/Concurrent request is outstanding and
	// node identifies the requesting device.
	armed bool
	node  NodeID

	// buf is the producer-owned data buffer, nil until supplied. The
	// engine holds it only transiently, for one transmission.
	buf []byte
}

// arm records a new outstanding request for node, discarding any previous
// buffer reference.
func (h *dataHandshake) arm(node NodeID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.armed = true
	h.node = node
	h.buf = nil
}

// pending reports the outstanding request, if any, that still lacks data.
func (h *dataHandshake) pending() (NodeID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.armed || h.buf != nil {
		return 0, false
	}
	return h.node, true
}

// supply stores the producer buffer and clears the request signal.
func (h *dataHandshake) supply(buf []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.armed {
		return ErrNoPendingRequest
	}

	// buffer first, then signal
	h.buf = buf
	h.armed = false

	return nil
}

// ready reports whether a producer buffer is available.
func (h *dataHandshake) ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.buf != nil
}

// take removes and returns the producer buffer, resetting the signal.
func (h *dataHandshake) take() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	buf := h.buf
	h.buf = nil
	h.armed = false

	return buf
}

// reset returns the handshake to idle, dropping any buffer reference.
func (h *dataHandshake) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.armed = false
	h.buf = nil
}
