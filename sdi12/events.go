package sdi12

import "time"

// OnEdge delivers a line-level transition. rising indicates the direction;
// elapsed is the time since the engine last armed its timer, which is how
// break and mark durations are recovered without wall-clock synchronization.
func (e *Engine) OnEdge(rising bool, elapsed time.Duration) {
	switch e.state {
	case StateIdle:
		// a falling edge is a break candidate; rising edges are ignored
		if !rising {
			e.timer.Arm(BreakWindow)
			e.state = StateTestingBreak
		}

	case StateTestingBreak:
		// end of the low pulse; validate its duration
		if elapsed < BreakMinDuration {
			e.timer.Disable()
			e.flags.clear()
			e.state = StateIdle
		} else {
			e.timer.Arm(MarkTestDuration)
			e.flags.clear()
			e.state = StateTestingMark
		}

	case StateTestingMark:
		// edge before the mark completed; treat as a new break candidate
		e.timer.Arm(BreakWindow)
		e.state = StateTestingBreak

	case StateWaitingForServiceRequestWindow:
		// possible abort break while waiting to send the service request
		if !rising {
			e.timer.Arm(BreakWindow)
			e.state = StateAbortBreakTest
		}

	case StateAbortBreakTest:
		if elapsed < BreakMinDuration {
			e.timer.Disable()
			e.flags.clear()
			e.state = StateIdle
		} else {
			// valid abort break; the mark that follows is shared with
			// the regular reception path, the abort is carried in flags
			e.flags.abort = true
			e.flags.received = true
			e.timer.Arm(MarkTestDuration)
			e.state = StateTestingMark
		}

	case StateWaitingForDataBreakWindow1:
		if !rising {
			// leading edge of a break OR the start bit of the first
			// data command character; the next edge decides which
			e.timer.Arm(DataBreakFailsafe)
			e.state = StateDataBreakOrCharTest
		} else {
			e.toIdleFault("rising edge in post-srq window")
		}

	case StateDataBreakOrCharTest:
		switch {
		case elapsed < MarkTestDuration:
			// too short for a break; probably a character
			e.ch.EnableReceive()
			e.edges.Disable()
			e.timer.Arm(FirstDataCharTimeout)
			e.state = StateDataFirstChar
		case elapsed < BreakMinDuration:
			// too long for a character, too short for a break
			e.toIdleFault("invalid pulse in post-srq window")
		default:
			// confirmed break; mark is next
			e.timer.Arm(MarkTestDuration)
			e.flags.clear()
			e.state = StateTestingMark
		}

	case StateWaitingForDataBreakWindow2:
		if !rising {
			e.timer.Arm(BreakWindow)
			e.state = StateDataBreakConfirm
		} else {
			e.toIdleFault("rising edge while waiting for data break")
		}

	case StateDataBreakConfirm:
		if elapsed < BreakMinDuration {
			e.timer.Disable()
			e.flags.clear()
			e.state = StateIdle
		} else {
			e.timer.Arm(MarkTestDuration)
			e.flags.clear()
			e.state = StateTestingMark
		}
	}

	e.record(Event{Kind: EventEdge, Rising: rising, Elapsed: elapsed})
}

// OnTimerExpired delivers a one-shot timer expiry.
func (e *Engine) OnTimerExpired() {
	switch e.state {
	case StateTestingBreak:
		e.toIdleFault("break exceeded 100ms window")

	case StateTestingMark:
		if e.abortAck {
			// the abort acknowledgment is already queued; hold the
			// pre-response mark and transmit it
			e.abortAck = false
			e.edges.Disable()
			e.ch.EnableTransmit()
			e.timer.Arm(PreResponseMark)
			e.state = StateSendingMark
		} else {
			// mark complete; the address character is next
			e.timer.Arm(BreakWindow)
			e.ch.EnableReceive()
			e.edges.Disable()
			e.state = StateWaitingForAddress
		}

	case StateWaitingForAddress:
		e.toIdleFault("no address within mark window")

	case StateWaitingForChar:
		e.toIdleFault("inter-character timeout")

	case StateSendingMark:
		e.timer.Disable()
		b := e.nextSendByte()
		if b == 0 {
			// nothing was queued (malformed command); stay silent
			e.ch.DisableTransmit()
			e.edges.Enable()
			e.flags.clear()
			e.state = StateIdle
			break
		}
		e.ch.Send(b)
		e.sendIdx++
		e.state = StateSendingResponse

	case StateWaitingForServiceRequestWindow:
		e.srqCount++
		if e.handshake.ready() {
			e.timer.Disable()
			e.edges.Disable()
			e.ch.EnableTransmit()
			e.buildServiceRequest()
			e.ch.Send(e.nextSendByte())
			e.sendIdx++
			e.metrics.incServiceRequestCount()
			e.state = StateSendingServiceRequest
		} else if e.srqCount >= e.cfg.srqWindowCount {
			// window exhausted; the request stays outstanding so a
			// later data command is answered with the no-data sentinel
			e.timer.Disable()
			e.state = StateIdle
		} else {
			e.timer.Arm(SRQPollInterval)
		}

	case StateAbortBreakTest:
		// abort break never terminated
		e.timer.Disable()
		e.flags.clear()
		e.state = StateIdle

	case StateWaitingForDataBreakWindow1:
		// end of the no-break window; a full break/mark pair is now
		// required before the data command
		e.ch.DisableReceive()
		e.timer.Arm(DataBreakFailsafe)
		e.state = StateWaitingForDataBreakWindow2

	case StateWaitingForDataBreakWindow2:
		e.toIdleFault("no data break before failsafe")

	case StateDataBreakOrCharTest:
		e.toIdleFault("break not terminated")

	case StateDataBreakConfirm:
		e.toIdleFault("data break not terminated")

	case StateDataFirstChar:
		e.toIdleFault("first data character timeout")
	}

	e.record(Event{Kind: EventTimerExpired})
}

// OnByteReceived delivers a received byte together with any detected
// reception error.
func (e *Engine) OnByteReceived(b byte, recvErr RecvError) {
	b &= 0x7F

	switch e.state {
	case StateWaitingForAddress:
		if recvErr.Any() {
			e.toIdleFault("receive error: " + recvErr.String())
			break
		}
		if b == '?' {
			e.rxAddr = b
			e.seedRxBuf(b)
			e.timer.Arm(InterCharTimeout)
			e.state = StateWaitingForChar
			break
		}
		if id, ok := e.table.Lookup(b); ok {
			e.rxAddr = b
			e.numAddr = id
			e.seedRxBuf(b)
			e.timer.Arm(InterCharTimeout)
			e.state = StateWaitingForChar
			break
		}
		// not addressed to this bridge; stay silent, keep any
		// outstanding request for its own data command
		e.timer.Disable()
		e.ch.DisableReceive()
		e.edges.Enable()
		e.flags.clear()
		e.logger.Debug("ignoring foreign address", "addr", string(rune(b)))
		e.state = StateIdle

	case StateWaitingForChar:
		if recvErr.Any() {
			e.toIdleFault("receive error: " + recvErr.String())
			break
		}
		if b == '!' {
			if e.rxIdx >= rxBufSize {
				e.toIdleFault("receive buffer full")
				break
			}
			e.rxBuf[e.rxIdx] = b
			e.rxIdx++
			e.ch.DisableReceive()
			e.ch.EnableTransmit()
			e.timer.Arm(PreResponseMark)
			e.sendBuf = nil
			e.sendIdx = 0
			e.flags.received = true
			e.metrics.incCommandRecvCount()
			e.state = StateSendingMark
			break
		}
		if e.rxIdx >= rxBufSize-1 {
			e.toIdleFault("receive buffer full")
			break
		}
		e.rxBuf[e.rxIdx] = b
		e.rxIdx++
		e.timer.Arm(InterCharTimeout)

	case StateDataFirstChar:
		if recvErr.Any() {
			e.toIdleFault("receive error: " + recvErr.String())
			break
		}
		// the first character of a breakless data command must repeat
		// the address of the preceding timed command
		if b == e.rxAddr {
			e.seedRxBuf(b)
			e.timer.Arm(InterCharTimeout)
			e.state = StateWaitingForChar
			break
		}
		e.timer.Disable()
		e.ch.DisableReceive()
		e.edges.Enable()
		e.flags.clear()
		e.ctx.clear()
		e.handshake.reset()
		e.state = StateIdle
	}

	e.record(Event{Kind: EventByteReceived, Byte: b, RecvErr: recvErr})
}

// OnByteSent delivers a transmit-complete notification and writes the next
// response byte, if any.
func (e *Engine) OnByteSent() {
	switch e.state {
	case StateSendingResponse:
		if b := e.nextSendByte(); b != 0 {
			e.ch.Send(b)
			e.sendIdx++
			break
		}
		e.metrics.incResponseSentCount()
		e.sendBuf = nil
		e.sendIdx = 0

		if e.ctx.timed() && e.ctx.dSeen {
			// the data reply is done; the transaction pair completes
			// and the producer buffer reference is released
			e.timer.Disable()
			e.ch.DisableTransmit()
			e.flags.clear()
			e.ctx.clear()
			e.handshake.reset()
			e.edges.Enable()
			e.state = StateIdle
			break
		}
		if e.ctx.timed() {
			// the acknowledgment is done; open the service request window
			e.srqCount = 0
			e.ch.DisableTransmit()
			e.edges.Enable()
			e.timer.Arm(SRQPollInterval)
			e.state = StateWaitingForServiceRequestWindow
			break
		}
		// plain acknowledgments return straight to idle; a Verify
		// request survives so its data command can still be answered
		e.ch.DisableTransmit()
		e.edges.Enable()
		e.flags.clear()
		if e.ctx.kind != KindVerify || e.ctx.dSeen {
			e.ctx.clear()
		}
		e.state = StateIdle

	case StateSendingServiceRequest:
		if b := e.nextSendByte(); b != 0 {
			e.ch.Send(b)
			e.sendIdx++
			break
		}
		// service request sent; open the no-break data command window
		e.sendBuf = nil
		e.sendIdx = 0
		e.ch.DisableTransmit()
		e.ch.EnableReceive()
		e.edges.Enable()
		e.timer.Arm(PostSRQWindow)
		e.state = StateWaitingForDataBreakWindow1
	}

	e.record(Event{Kind: EventByteSent})
}
