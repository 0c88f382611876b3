package sdi12

import "errors"

var (
	// ErrAddrTableFull indicates an attempt to register more addresses than
	// the table capacity allows.
	ErrAddrTableFull = errors.New("sdi12: address table full")
	// ErrAddrTableEmpty indicates an address table with no entries.
	ErrAddrTableEmpty = errors.New("sdi12: address table empty")
	// ErrInvalidAddress indicates a character outside the SDI-12 address
	// alphabet ('0'-'9', 'A'-'Z', 'a'-'z').
	ErrInvalidAddress = errors.New("sdi12: invalid address character")
	// ErrDuplicateAddress indicates the same address registered twice.
	ErrDuplicateAddress = errors.New("sdi12: duplicate address")
	// ErrInvalidNodeID indicates a numeric node id with no address mapping.
	ErrInvalidNodeID = errors.New("sdi12: invalid node id")

	// ErrNoPendingRequest indicates SupplyData was called without an
	// outstanding Measure/Concurrent request.
	ErrNoPendingRequest = errors.New("sdi12: no pending data request")
	// ErrDataTooLong indicates a producer buffer whose payload exceeds the
	// protocol maximum.
	ErrDataTooLong = errors.New("sdi12: data payload too long")
	// ErrDataNotTerminated indicates a producer buffer without the required
	// trailing null headroom.
	ErrDataNotTerminated = errors.New("sdi12: data buffer not null terminated")
)
