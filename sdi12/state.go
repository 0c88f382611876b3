package sdi12

// State represents the current protocol state of the engine.
//
// Exactly one state is current at any time; transitions are total functions
// of (state, event) and unlisted events in a state are ignored.
type State uint8

const (
	// StateIdle means the line is quiet and only edge sensing is active.
	StateIdle State = iota
	// StateTestingBreak means a falling edge was seen and the engine is
	// measuring the low pulse to validate it as a break.
	StateTestingBreak
	// StateTestingMark means a valid break ended and the engine is timing
	// the mandatory mark before command characters may arrive.
	StateTestingMark
	// StateWaitingForAddress means the engine is receiving the first
	// command character, which must be '?' or a local address.
	StateWaitingForAddress
	// StateWaitingForChar means subsequent command characters are being
	// collected until the '!' terminator.
	StateWaitingForChar
	// StateSendingMark means the command is complete and the engine is
	// holding the line at mark before the first response byte.
	StateSendingMark
	// StateSendingResponse means response bytes are being transmitted.
	StateSendingResponse
	// StateWaitingForServiceRequestWindow means a Measure/Concurrent
	// acknowledgment was sent and the engine polls for producer data to
	// decide whether to send a spontaneous service request.
	StateWaitingForServiceRequestWindow
	// StateSendingServiceRequest means the service request line is being
	// transmitted.
	StateSendingServiceRequest
	// StateAbortBreakTest means a falling edge arrived during the service
	// request window and is being validated as an abort break.
	StateAbortBreakTest
	// StateWaitingForDataBreakWindow1 covers the 85 ms window after a
	// service request in which the host may send its data command without
	// a new break.
	StateWaitingForDataBreakWindow1
	// StateWaitingForDataBreakWindow2 means the no-break window has closed
	// and any data command must now be preceded by a full break/mark pair.
	StateWaitingForDataBreakWindow2
	// StateDataBreakOrCharTest means an edge inside the no-break window is
	// being classified as either a character start bit or a break.
	StateDataBreakOrCharTest
	// StateDataBreakConfirm means the leading edge of a post-window break
	// was seen and its duration is being validated.
	StateDataBreakConfirm
	// StateDataFirstChar means the first character of a breakless data
	// command is expected imminently.
	StateDataFirstChar
)

var stateNames = map[State]string{
	StateIdle:                           "idle",
	StateTestingBreak:                   "testing-break",
	StateTestingMark:                    "testing-mark",
	StateWaitingForAddress:              "waiting-for-address",
	StateWaitingForChar:                 "waiting-for-char",
	StateSendingMark:                    "sending-mark",
	StateSendingResponse:                "sending-response",
	StateWaitingForServiceRequestWindow: "waiting-for-srq-window",
	StateSendingServiceRequest:          "sending-srq",
	StateAbortBreakTest:                 "abort-break-test",
	StateWaitingForDataBreakWindow1:     "waiting-for-data-break-1",
	StateWaitingForDataBreakWindow2:     "waiting-for-data-break-2",
	StateDataBreakOrCharTest:            "data-break-or-char-test",
	StateDataBreakConfirm:               "data-break-confirm",
	StateDataFirstChar:                  "data-first-char",
}

// String returns a human-readable state name.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
