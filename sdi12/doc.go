// Package sdi12 implements the slave side of the SDI-12 serial protocol for a
// wireless sensor bridge: a protocol engine that recovers break/mark
// synchronization from line-edge timing, receives and validates addressed
// commands, and drives timed response transmission including the
// service-request side channel and the optional CRC suffix on data replies.
//
// The engine is hardware-agnostic. It consumes three capability interfaces
// (Timer, EdgeSource, ByteChannel) and is driven entirely by the host calling
// its event methods: OnEdge, OnTimerExpired, OnByteReceived and OnByteSent.
// Each event method runs one bounded, non-blocking transition to completion.
// The host must guarantee that at most one event method runs at a time; the
// serialport package provides a ready-made single-consumer event loop.
//
// Command parsing is deliberately decoupled from the event path: when a
// complete command line has been received the engine only flags it, and the
// host's cooperative call to Poll performs the actual parse and response
// construction. This keeps the event handlers short enough to honor the
// narrowest protocol window (8.19 ms).
//
// Measurement data is obtained from an external producer through a polled
// handshake: after acknowledging a Measure or Concurrent command the engine
// exposes the requesting node via PendingRequest, and the producer hands the
// result back with SupplyData. If the producer is too slow, the protocol's
// "no data" sentinel reply is used instead.
package sdi12
