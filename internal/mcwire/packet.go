package mcwire

import (
	"encoding/binary"
	"io"
)

// protocolVersion is the version number announced in the handshake. Any
// recent value works for a status ping; servers answer the status request
// regardless of version match.
const protocolVersion = 764

// WritePacket frames payload with its varint length prefix and writes the
// whole packet to w.
func WritePacket(w io.Writer, payload []byte) error {
	packet := AppendVarint(make([]byte, 0, len(payload)+5), int32(len(payload)))
	packet = append(packet, payload...)
	_, err := w.Write(packet)
	return err
}

// HandshakePayload builds the handshake packet body for a status ping:
// packet id 0x00, protocol version, server address, port, and the
// next-state marker 1 (status).
func HandshakePayload(host string, port uint16) []byte {
	data := AppendVarint(nil, 0x00)
	data = AppendVarint(data, protocolVersion)
	data = AppendVarint(data, int32(len(host)))
	data = append(data, host...)
	data = binary.BigEndian.AppendUint16(data, port)
	data = AppendVarint(data, 1)
	return data
}

// StatusRequestPayload is the body of the status request packet that
// follows the handshake.
func StatusRequestPayload() []byte {
	return []byte{0x00}
}
