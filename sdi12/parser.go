package sdi12

// parseCommand decodes the command line sitting in the receive buffer,
// queues the mandated response and updates the request context. It runs on
// the Poll path only, never on the event path.
func (e *Engine) parseCommand() {
	e.flags.received = false

	if e.flags.abort {
		e.handleAbort()
		return
	}

	defer e.clearRxBuf()

	if e.rxBuf[0] == '?' {
		e.handleQuery()
		return
	}

	// rxIdx includes the '!' terminator
	switch e.rxIdx - 1 {
	case 1:
		// a! acknowledge active
		e.buildAckResponse(e.rxAddr)
		e.flags.processed = true
	case 2:
		e.parseBasicCommand()
	case 3:
		e.parseModifiedCommand()
	case 4:
		e.parseCRCSequenceCommand()
	default:
		e.commandError("unsupported extended command")
	}
}

// handleAbort answers a mid-measurement abort break. Any outstanding
// request is discarded and the plain acknowledgment is queued; the event
// path transmits it after the next mark.
func (e *Engine) handleAbort() {
	e.flags.clear()
	e.ctx.clear()
	e.handshake.reset()

	e.buildAckResponse(e.rxAddr)
	e.abortAck = true
	e.flags.processed = true
	e.metrics.incAbortCount()
	e.logger.Debug("measurement aborted", "addr", string(rune(e.rxAddr)))
}

// handleQuery answers ?! with one table address per query, round-robin, so
// a host probing a multi-drop bridge discovers every node.
func (e *Engine) handleQuery() {
	addr := e.table.AddrAt(e.queryCursor)
	e.queryCursor++
	if e.queryCursor >= e.table.Len() {
		e.queryCursor = 0
	}

	e.buildAckResponse(addr)
	e.flags.processed = true
}

// parseBasicCommand handles the two-character commands aI!, aM!, aV!, aC!.
func (e *Engine) parseBasicCommand() {
	switch e.rxBuf[1] {
	case 'I':
		e.ctx.clear()
		e.handshake.reset()
		e.buildIdentResponse()
		e.flags.processed = true
	case 'M':
		e.startTimedRequest(KindMeasure, 0, false)
	case 'V':
		// Verify is acknowledged like Measure but runs no producer
		// handshake; its data command gets the no-data sentinel
		e.ctx = requestContext{kind: KindVerify}
		e.handshake.reset()
		e.buildVerifyAck()
		e.flags.processed = true
	case 'C':
		e.startTimedRequest(KindConcurrent, 0, false)
	default:
		e.commandError("unknown command letter")
	}
}

// parseModifiedCommand handles the three-character commands aAb!, aMC!,
// aMn!, aCC!, aCn!, aDn! and aRn!.
func (e *Engine) parseModifiedCommand() {
	switch e.rxBuf[1] {
	case 'A':
		// address reassignment is accepted syntactically but the table
		// is never modified; the device answers with its current address
		e.ctx.clear()
		e.handshake.reset()
		e.buildAckResponse(e.rxAddr)
		e.flags.processed = true
	case 'M':
		switch {
		case e.rxBuf[2] == 'C':
			e.startTimedRequest(KindMeasure, 0, true)
		case e.rxBuf[2] >= '1' && e.rxBuf[2] <= '9':
			e.startTimedRequest(KindMeasure, e.rxBuf[2]-'0', false)
		default:
			e.commandError("bad measure modifier")
		}
	case 'C':
		switch {
		case e.rxBuf[2] == 'C':
			e.startTimedRequest(KindConcurrent, 0, true)
		case e.rxBuf[2] >= '1' && e.rxBuf[2] <= '9':
			e.startTimedRequest(KindConcurrent, e.rxBuf[2]-'0', false)
		default:
			e.commandError("bad concurrent modifier")
		}
	case 'D':
		e.parseDataRequest()
	case 'R':
		e.commandError("continuous data unsupported")
	default:
		e.commandError("unknown command letter")
	}
}

// parseCRCSequenceCommand handles the four-character commands aMCn!, aCCn!
// and aRCn!.
func (e *Engine) parseCRCSequenceCommand() {
	if e.rxBuf[2] != 'C' {
		e.commandError("unknown command modifier")
		return
	}
	n := e.rxBuf[3]
	if n < '1' || n > '9' {
		e.commandError("bad sequence digit")
		return
	}

	switch e.rxBuf[1] {
	case 'M':
		e.startTimedRequest(KindMeasure, n-'0', true)
	case 'C':
		e.startTimedRequest(KindConcurrent, n-'0', true)
	case 'R':
		e.commandError("continuous data unsupported")
	default:
		e.commandError("unknown command letter")
	}
}

// startTimedRequest opens a new Measure or Concurrent transaction: the
// acknowledgment is queued, the context records the CRC and sequence
// expectations for the upcoming data command, and the producer handshake is
// armed for the addressed node.
func (e *Engine) startTimedRequest(kind CommandKind, seq uint8, crc bool) {
	e.ctx = requestContext{kind: kind, seq: seq, crc: crc}
	if kind == KindMeasure {
		e.buildMeasureAck()
	} else {
		e.buildConcurrentAck()
	}
	e.handshake.arm(e.numAddr)
	e.flags.processed = true
}

// parseDataRequest handles aDn!. The sequence digit must match the one the
// request was opened with; on mismatch the command is rejected but the
// request stays outstanding so the host may retry with the right digit.
func (e *Engine) parseDataRequest() {
	n := e.rxBuf[2]
	if n < '0' || n > '9' {
		e.commandError("bad sequence digit")
		return
	}
	if e.ctx.kind == KindNone {
		e.commandError("data request without measurement")
		return
	}
	if n-'0' != e.ctx.seq {
		e.flags.cmdErr = true
		e.sendBuf = nil
		e.metrics.incCommandErrCount()
		e.logger.Debug("data sequence mismatch",
			"got", int(n-'0'), "want", int(e.ctx.seq))
		return
	}

	e.ctx.dSeen = true
	e.buildDataReply()
	e.flags.processed = true
}

// commandError records a malformed or unsupported command. No response is
// queued, so the transmit path falls silent, and any outstanding request is
// dropped.
func (e *Engine) commandError(reason string) {
	e.flags.cmdErr = true
	e.flags.processed = false
	e.sendBuf = nil
	e.ctx.clear()
	e.metrics.incCommandErrCount()
	e.logger.Debug("command error", "reason", reason, "cmd", string(e.rxBuf[:e.rxIdx]))
}
