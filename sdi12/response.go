package sdi12

// Response builders. Each queues a complete CRLF-terminated response by
// pointing sendBuf at the private transmit buffer (or, for data replies, at
// the producer's buffer) and resetting the cursor. The event path drains
// sendBuf one byte per transmit-complete notification.

// buildAckResponse queues the plain acknowledgment "a\r\n".
func (e *Engine) buildAckResponse(addr byte) {
	e.txBuf[0] = addr
	e.txBuf[1] = '\r'
	e.txBuf[2] = '\n'
	e.sendBuf = e.txBuf[:3]
	e.sendIdx = 0
}

// buildMeasureAck queues "atttn\r\n" with the configured wait time and
// Measure value count.
func (e *Engine) buildMeasureAck() {
	e.txBuf[0] = e.rxAddr
	e.txBuf[1] = '0'
	e.txBuf[2] = '0'
	e.txBuf[3] = '0' + byte(e.cfg.measureWait)
	e.txBuf[4] = '0' + byte(e.cfg.measureValueCount)
	e.txBuf[5] = '\r'
	e.txBuf[6] = '\n'
	e.sendBuf = e.txBuf[:7]
	e.sendIdx = 0
}

// buildVerifyAck queues "atttn\r\n" with the Verify value count.
func (e *Engine) buildVerifyAck() {
	e.txBuf[0] = e.rxAddr
	e.txBuf[1] = '0'
	e.txBuf[2] = '0'
	e.txBuf[3] = '0' + byte(e.cfg.measureWait)
	e.txBuf[4] = '0' + byte(e.cfg.verifyValueCount)
	e.txBuf[5] = '\r'
	e.txBuf[6] = '\n'
	e.sendBuf = e.txBuf[:7]
	e.sendIdx = 0
}

// buildConcurrentAck queues "atttnn\r\n". Concurrent requests advertise a
// zero wait time and a two-digit value count.
func (e *Engine) buildConcurrentAck() {
	n := e.cfg.concurrentValueCount
	e.txBuf[0] = e.rxAddr
	e.txBuf[1] = '0'
	e.txBuf[2] = '0'
	e.txBuf[3] = '0'
	e.txBuf[4] = '0' + byte(n/10)
	e.txBuf[5] = '0' + byte(n%10)
	e.txBuf[6] = '\r'
	e.txBuf[7] = '\n'
	e.sendBuf = e.txBuf[:8]
	e.sendIdx = 0
}

// buildIdentResponse queues the identification string: protocol version,
// vendor, model, firmware and the serial number filler.
func (e *Engine) buildIdentResponse() {
	n := 0
	e.txBuf[n] = e.rxAddr
	n++
	n += copy(e.txBuf[n:], sdi12Version)
	n += copy(e.txBuf[n:], e.cfg.vendor)
	n += copy(e.txBuf[n:], e.cfg.model)
	n += copy(e.txBuf[n:], e.cfg.firmware)
	n += copy(e.txBuf[n:], identSerialFiller)
	e.txBuf[n] = '\r'
	n++
	e.txBuf[n] = '\n'
	n++
	e.sendBuf = e.txBuf[:n]
	e.sendIdx = 0
}

// buildServiceRequest queues "a\r\n" announcing that data is ready.
func (e *Engine) buildServiceRequest() {
	e.buildAckResponse(e.rxAddr)
}

// buildDataReply queues the aDn! reply. With producer data available the
// reply is assembled in place in the producer's buffer: the address is
// stamped over the placeholder byte, the optional CRC characters and CRLF
// are appended in the reserved headroom. Without data the fixed "a0000"
// sentinel tells the host the reading never arrived.
func (e *Engine) buildDataReply() {
	buf := e.handshake.take()
	if buf == nil {
		e.txBuf[0] = e.rxAddr
		copy(e.txBuf[1:], "0000")
		e.txBuf[5] = '\r'
		e.txBuf[6] = '\n'
		e.sendBuf = e.txBuf[:7]
		e.sendIdx = 0
		e.metrics.incNoDataReplyCount()
		return
	}

	buf[0] = e.rxAddr
	end := 0
	for end < len(buf) && buf[end] != 0 {
		end++
	}

	if e.ctx.crc {
		code := EncodeCRC(ComputeCRC(buf[:end]))
		buf[end] = code[0]
		buf[end+1] = code[1]
		buf[end+2] = code[2]
		end += 3
	}
	buf[end] = '\r'
	buf[end+1] = '\n'
	end += 2

	e.sendBuf = buf[:end]
	e.sendIdx = 0
}
