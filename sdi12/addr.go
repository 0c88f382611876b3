package sdi12

import "fmt"

// NodeID is the numeric wireless-network id of a bridged sensor node.
type NodeID uint8

// MaxAddrTableEntries is the capacity of the bridge's address table.
const MaxAddrTableEntries = 5

// AddrToNodeID maps an ASCII address character to its numeric node id:
// '0'-'9' map to 0-9, 'A'-'Z' to 10-35 and 'a'-'z' to 52-101.
func AddrToNodeID(addr byte) (NodeID, error) {
	switch {
	case addr >= '0' && addr <= '9':
		return NodeID(addr - '0'), nil
	case addr >= 'A' && addr <= 'Z':
		return NodeID(addr-'A') + 0x0A, nil
	case addr >= 'a' && addr <= 'z':
		return NodeID(addr-'a') + 0x34, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
}

// NodeIDToAddr is the inverse of AddrToNodeID.
func NodeIDToAddr(id NodeID) (byte, error) {
	switch {
	case id <= 9:
		return '0' + byte(id), nil
	case id <= 35:
		return 'A' + byte(id-0x0A), nil
	case id >= 0x34 && id <= 0x34+25:
		return 'a' + byte(id-0x34), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidNodeID, id)
	}
}

// AddrTable is the bounded set of locally valid device addresses.
//
// It is populated once by the enclosing application and read-only thereafter;
// address reassignment at the protocol level is acknowledged but never
// applied, because wireless node ids are fixed at the hardware layer.
type AddrTable struct {
	addrs []byte
	ids   []NodeID
}

// NewAddrTable builds an address table from the given ASCII addresses,
// preserving their order for round-robin query responses.
func NewAddrTable(addrs ...byte) (*AddrTable, error) {
	if len(addrs) == 0 {
		return nil, ErrAddrTableEmpty
	}
	if len(addrs) > MaxAddrTableEntries {
		return nil, fmt.Errorf("%w: %d entries, capacity %d", ErrAddrTableFull, len(addrs), MaxAddrTableEntries)
	}

	t := &AddrTable{
		addrs: make([]byte, 0, len(addrs)),
		ids:   make([]NodeID, 0, len(addrs)),
	}
	for _, addr := range addrs {
		id, err := AddrToNodeID(addr)
		if err != nil {
			return nil, err
		}
		for _, existing := range t.addrs {
			if existing == addr {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateAddress, addr)
			}
		}
		t.addrs = append(t.addrs, addr)
		t.ids = append(t.ids, id)
	}

	return t, nil
}

// Lookup returns the node id for an ASCII address, and whether it is local.
func (t *AddrTable) Lookup(addr byte) (NodeID, bool) {
	for i, a := range t.addrs {
		if a == addr {
			return t.ids[i], true
		}
	}
	return 0, false
}

// AddrAt returns the ASCII address at table position i.
func (t *AddrTable) AddrAt(i int) byte {
	return t.addrs[i]
}

// Len returns the number of table entries.
func (t *AddrTable) Len() int {
	return len(t.addrs)
}
