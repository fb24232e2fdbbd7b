// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package client

import (
	"github.com/duskfall-games/duskrift/api"
	"github.com/duskfall-games/duskrift/wire"
)

// MessageReceivedEvent is handed to message-received subscribers
// (spec §4.6, §6). It is drawn from a pooled event-args cache
// (max_message_received_event_args) and returned to it once every
// subscriber has returned; its Message is released on the same exit,
// so handlers must not retain either pointer.
type MessageReceivedEvent struct {
	Message  *wire.Message
	SendMode api.SendMode
}

// MessageReceivedHandler observes a user-visible message.
type MessageReceivedHandler func(*MessageReceivedEvent)

// DisconnectedHandler observes session end (spec §4.6).
type DisconnectedHandler func(api.DisconnectedEvent)
