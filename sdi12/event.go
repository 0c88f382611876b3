package sdi12

import "time"

// EventKind identifies one of the engine's event sources.
type EventKind uint8

const (
	// EventEdge is a line-level transition from the EdgeSource.
	EventEdge EventKind = iota
	// EventTimerExpired is a one-shot Timer expiry.
	EventTimerExpired
	// EventByteReceived is a received byte from the ByteChannel.
	EventByteReceived
	// EventByteSent is a transmit-complete notification from the ByteChannel.
	EventByteSent
)

func (k EventKind) String() string {
	switch k {
	case EventEdge:
		return "edge"
	case EventTimerExpired:
		return "timer-expired"
	case EventByteReceived:
		return "byte-received"
	case EventByteSent:
		return "byte-sent"
	default:
		return "unknown"
	}
}

// Event is one occurrence from any of the engine's three event sources.
// It is the unit carried by the serialport event loop and recorded by
// trace sinks.
type Event struct {
	Kind EventKind

	// Rising and Elapsed are meaningful for EventEdge.
	Rising  bool
	Elapsed time.Duration

	// Byte and RecvErr are meaningful for EventByteReceived.
	Byte    byte
	RecvErr RecvError
}
