// Package mcwire implements the varint primitive and length-prefixed
// packet framing of the Minecraft server list ping wire format.
package mcwire

import (
	"errors"
	"io"
)

// ErrVarintTooBig is returned when a varint's continuation chain would
// overflow 32 bits (more than 5 bytes).
var ErrVarintTooBig = errors.New("mcwire: varint is too big")

// AppendVarint appends the varint encoding of v to buf. Each byte carries
// seven data bits, low bits first; the high bit flags continuation. At
// least one byte is always emitted, so zero encodes as 0x00.
func AppendVarint(buf []byte, v int32) []byte {
	u := uint32(v)
	for {
		b := byte(u & 0x7f)
		u >>= 7
		if u != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if u == 0 {
			return buf
		}
	}
}

// ReadVarint decodes one varint from r, reading a byte at a time. It
// returns ErrVarintTooBig once the accumulated shift reaches 32 bits
// without a terminating byte; read errors from r pass through unchanged.
func ReadVarint(r io.Reader) (int32, error) {
	var (
		result uint32
		shift  uint
		buf    [1]byte
	)
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		result |= uint32(buf[0]&0x7f) << shift
		if buf[0]&0x80 == 0 {
			return int32(result), nil
		}
		shift += 7
		if shift >= 32 {
			return 0, ErrVarintTooBig
		}
	}
}
