package sdi12

// crcPoly is the SDI-12 CRC-16 polynomial.
const crcPoly = 0xA001

// ComputeCRC computes the SDI-12 CRC-16 over data, seeded at zero, applying
// the 0xA001 polynomial bit by bit. The checksum covers the address character
// through the last payload character, never the CRLF terminator.
func ComputeCRC(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ crcPoly
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// EncodeCRC encodes a 16-bit checksum as three printable ASCII characters,
// most-significant 6-bit slice first, each slice OR'd with 0x40.
func EncodeCRC(crc uint16) [3]byte {
	return [3]byte{
		0x40 | byte(crc>>12&0x3F),
		0x40 | byte(crc>>6&0x3F),
		0x40 | byte(crc&0x3F),
	}
}
