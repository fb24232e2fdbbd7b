// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package wire

import (
	"github.com/duskfall-games/duskrift/pool"
)

// Wire header bit layout (SPEC_FULL.md §5):
//
//	bit 15: Command flag
//	bits 0-14: Tag (15-bit value); within Tag, the high nibble
//	           (bits 11-14) is reserved: bit 14 = ping, bit 13 = ack.
const (
	flagCommand uint16 = 1 << 15
	flagPing    uint16 = 1 << 14
	flagAck     uint16 = 1 << 13

	tagValueMask uint16 = 0x07FF // application-visible bits, 0-10
	tagFieldMask uint16 = 0x7FFF // the full 15-bit Tag field

	headerSize   = 2
	pingCodeSize = 2
)

// HelloTag is the conventional tag used for the caller-supplied hello
// message sent on connect (spec §4.5); it carries no special framing
// meaning of its own.
const HelloTag uint16 = 0

// ConfigureTag is the single command used during handshake to deliver
// the server-assigned client id (spec §4.3, §6).
const ConfigureTag uint16 = 1

// Message is a logical unit of payload: a 16-bit tag, a ping-or-ack
// flag pair, an optional 16-bit ping code, a command flag, and a body
// region that is a view into a pooled buffer (spec §3). A Message
// constructed from a received buffer owns exactly one strong reference
// to it; Release drops that reference. Message values themselves are
// drawn from the package's object pool (spec §4.2 max_messages) rather
// than allocated fresh per call; the reader cursor handed out by
// Reader is pooled alongside it and travels back to its own pool when
// the message is released.
type Message struct {
	tag         uint16
	command     bool
	pingCode    uint16
	hasPingCode bool

	buf     *pool.Buffer // non-nil only for messages decoded from a received buffer
	payload []byte
	reader  *Reader // lazily bound on first Reader() call
}

// NewMessage constructs an outgoing, non-command, non-ping message
// with the given application tag (low 11 bits significant) and payload.
func NewMessage(tag uint16, payload []byte) *Message {
	m := acquireMessage()
	m.tag = tag & tagValueMask
	m.payload = payload
	return m
}

// NewCommand constructs an outgoing internal control message.
func NewCommand(tag uint16, payload []byte) *Message {
	m := acquireMessage()
	m.tag = tag & tagValueMask
	m.command = true
	m.payload = payload
	return m
}

// NewPing constructs an outbound ping carrying the given correlator code.
func NewPing(code uint16) *Message {
	m := acquireMessage()
	m.tag = flagPing
	m.pingCode = code
	m.hasPingCode = true
	return m
}

// NewAck constructs an outbound ping-acknowledgement echoing code.
func NewAck(code uint16) *Message {
	m := acquireMessage()
	m.tag = flagAck
	m.pingCode = code
	m.hasPingCode = true
	return m
}

// NewHello constructs the caller-supplied hello message sent on connect.
func NewHello(payload []byte) *Message {
	return NewMessage(HelloTag, payload)
}

// NewConfigure constructs the Configure command carrying the
// server-assigned client id (spec §6 wire protocol).
func NewConfigure(clientID uint16) *Message {
	payload := make([]byte, 2)
	putUint16(payload, clientID)
	return NewCommand(ConfigureTag, payload)
}

// Tag returns the application-visible tag (meaningless for ping/ack
// messages, whose tag space is reserved for flag signaling).
func (m *Message) Tag() uint16 { return m.tag & tagValueMask }

// IsCommand reports whether this is a transport-internal control message.
func (m *Message) IsCommand() bool { return m.command }

// IsPing reports whether this message is an outbound ping.
func (m *Message) IsPing() bool { return m.tag&flagPing != 0 }

// IsAck reports whether this message is a ping-acknowledgement.
func (m *Message) IsAck() bool { return m.tag&flagAck != 0 }

// PingCode returns the ping correlator and whether one is present.
func (m *Message) PingCode() (uint16, bool) { return m.pingCode, m.hasPingCode }

// Payload returns the message body as a zero-copy view.
func (m *Message) Payload() []byte { return m.payload }

// Reader returns a cursor over the payload region, reusing the one
// pooled Reader bound to this message across repeated calls (spec
// §4.2 max_readers).
func (m *Message) Reader() *Reader {
	if m.reader == nil {
		m.reader = acquireReader()
	}
	m.reader.Reset(m.payload)
	return m.reader
}

// Release disposes the message: its backing buffer reference (if any)
// is dropped, its bound reader (if any) returns to the reader pool,
// and the message struct itself returns to the message pool. Safe to
// call on outgoing messages that were never decoded from a buffer.
func (m *Message) Release() {
	if m.buf != nil {
		m.buf.Release()
		m.buf = nil
	}
	if m.reader != nil {
		releaseReader(m.reader)
		m.reader = nil
	}
	releaseMessage(m)
}

// ToBuffer materializes the message into a pooled buffer suitable for
// handing to the transport (spec §4.3 "to_buffer()"), writing through
// a pooled Writer cursor (spec §4.2 max_writers) rather than hand
// indexing the destination slice.
func (m *Message) ToBuffer(bp *pool.BufferPool) *pool.Buffer {
	size := headerSize
	if m.hasPingCode {
		size += pingCodeSize
	}
	size += len(m.payload)

	out := bp.Acquire(size)

	w := acquireWriter()
	defer releaseWriter(w)
	w.Reset(out.Bytes())

	header := m.tag
	if m.command {
		header |= flagCommand
	}
	_ = w.WriteUint16(header) // out is sized to fit exactly; never short
	if m.hasPingCode {
		_ = w.WriteUint16(m.pingCode)
	}
	_ = w.WriteBytes(m.payload)
	return out
}
