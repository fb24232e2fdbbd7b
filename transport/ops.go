// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-operation scratch records reused across receive/send iterations
// instead of being allocated fresh every call (spec §4.2, §6
// max_socket_async_event_args / max_message_buffers), mirroring the
// separate send/receive SocketAsyncEventArgs pools of async socket
// frameworks.
package transport

import (
	"github.com/duskfall-games/duskrift/pool"
	"github.com/duskfall-games/duskrift/wire"
)

// readOp is the per-read operation record of the reliable receive
// loop: the scratch array its length prefix is read into.
type readOp struct {
	prefix [wire.LengthPrefixSize]byte
}

func newReadOpPool(capacity int) *pool.TypedPool[*readOp] {
	return pool.NewTypedPool(capacity,
		func() *readOp { return &readOp{} },
		func(op *readOp) { op.prefix = [wire.LengthPrefixSize]byte{} },
	)
}

// writeOp is the per-send message-buffer record of the reliable send
// path: the scratch array its length prefix is written into before
// both are flushed to the socket.
type writeOp struct {
	prefix [wire.LengthPrefixSize]byte
}

func newWriteOpPool(capacity int) *pool.TypedPool[*writeOp] {
	return pool.NewTypedPool(capacity,
		func() *writeOp { return &writeOp{} },
		func(op *writeOp) { op.prefix = [wire.LengthPrefixSize]byte{} },
	)
}
