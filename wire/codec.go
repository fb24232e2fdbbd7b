// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package wire

import (
	"github.com/duskfall-games/duskrift/api"
	"github.com/duskfall-games/duskrift/pool"
)

// LengthPrefixSize is the byte width of the reliable-channel length
// prefix (spec §6: "length-prefixed frames").
const LengthPrefixSize = 4

// PutLengthPrefix encodes n (the frame length in bytes) into dst[:4].
func PutLengthPrefix(dst []byte, n int) {
	v := uint32(n)
	dst[0] = byte(v >> 24)
	dst[1] = byte(v >> 16)
	dst[2] = byte(v >> 8)
	dst[3] = byte(v)
}

// LengthPrefix decodes a frame length from src[:4].
func LengthPrefix(src []byte) int {
	return int(uint32(src[0])<<24 | uint32(src[1])<<16 | uint32(src[2])<<8 | uint32(src[3]))
}

// Decode parses a message header (and optional ping code) out of buf
// and takes shared ownership of it (spec §4.3 "Creating a message from
// a received buffer takes shared ownership of that buffer"): buf's
// reference count is incremented, so the caller's own reference (e.g.
// a receive loop's AutoRecycler) remains independently valid until it
// too releases.
func Decode(buf *pool.Buffer) (*Message, error) {
	data := buf.Bytes()
	if len(data) < headerSize {
		return nil, api.ErrMalformedFrame
	}

	header := getUint16(data[:headerSize])
	command := header&flagCommand != 0
	tag := header & tagFieldMask

	off := headerSize
	var pingCode uint16
	hasPingCode := false
	if tag&(flagPing|flagAck) != 0 {
		if len(data)-off < pingCodeSize {
			return nil, api.ErrMalformedFrame
		}
		pingCode = getUint16(data[off : off+pingCodeSize])
		hasPingCode = true
		off += pingCodeSize
	}

	buf.Retain()
	m := acquireMessage()
	m.tag = tag
	m.command = command
	m.pingCode = pingCode
	m.hasPingCode = hasPingCode
	m.buf = buf
	m.payload = data[off:]
	return m, nil
}
