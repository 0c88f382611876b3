package sdi12

// CommandKind identifies the active timed-command family of the current
// transaction pair.
type CommandKind uint8

const (
	// KindNone means no timed command is outstanding.
	KindNone CommandKind = iota
	// KindMeasure is the M command family.
	KindMeasure
	// KindVerify is the V command family.
	KindVerify
	// KindConcurrent is the C command family.
	KindConcurrent
)

func (k CommandKind) String() string {
	switch k {
	case KindMeasure:
		return "measure"
	case KindVerify:
		return "verify"
	case KindConcurrent:
		return "concurrent"
	default:
		return "none"
	}
}

// commandFlags are the per-transaction boolean facets. They are fully
// cleared at the start of every new transaction.
//
// processed and cmdErr are never simultaneously set.
type commandFlags struct {
	// received is set by the event path when a complete command line is in
	// the receive buffer, and cleared by the parser.
	received bool
	// processed is set by the parser when a response has been queued.
	processed bool
	// cmdErr is set by the parser for malformed or unsupported commands;
	// no response is produced.
	cmdErr bool
	// abort is set by the event path when a valid abort break was detected
	// during the service request window.
	abort bool
}

func (f *commandFlags) clear() {
	*f = commandFlags{}
}

// requestContext records the outstanding Measure/Verify/Concurrent command
// across the command/data-request pair. It persists through break/mark
// resynchronization so a data command preceded by a fresh break can still
// find its request, and is cleared when the pair completes or on protocol
// fault.
type requestContext struct {
	kind CommandKind
	// crc is true when the data reply must carry the 3-character CRC.
	crc bool
	// seq is the sequence number n of aMn!/aCn!, matched against aDn!.
	seq uint8
	// dSeen marks that the one-shot data request has been answered.
	dSeen bool
	// rSeen would mark a continuous data request; the R family is
	// unsupported and this is never set.
	rSeen bool
}

func (c *requestContext) clear() {
	*c = requestContext{}
}

// timed reports whether a Measure or Concurrent request is outstanding,
// which is what gates the service request window.
func (c *requestContext) timed() bool {
	return c.kind == KindMeasure || c.kind == KindConcurrent
}
