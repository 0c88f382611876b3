// Package monitor exposes a live view of a running protocol engine over
// websocket.
//
// The Server implements sdi12.TraceSink: every (event, state) pair the
// engine processes is queued without blocking the event path and broadcast
// as JSON to all connected clients, together with periodic status frames
// carrying the engine state and metric counters. Slow clients are skipped
// rather than allowed to stall the broadcaster.
package monitor
