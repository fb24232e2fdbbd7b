// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package client

import (
	"time"

	"github.com/duskfall-games/duskrift/pool"
)

// Config holds the facade's tunables: the pool sizing table of spec §6
// plus handshake/RTT-specific options the teacher's client.Config
// covers with its own ReadTimeout/Heartbeat fields.
type Config struct {
	Pool pool.Config

	// HandshakeTimeout bounds the wait for the Configure reply
	// (spec §4.6, default 10s).
	HandshakeTimeout time.Duration

	// NoDelay disables Nagle coalescing on the reliable channel.
	NoDelay bool

	// DialTimeout bounds the underlying socket dials.
	DialTimeout time.Duration

	// RTTOutboundCapacity and RTTWindowSize size the rtt.Tracker
	// (spec §4.4).
	RTTOutboundCapacity int
	RTTWindowSize       int
}

// DefaultConfig returns the recommended defaults (spec §6, plus
// handshake/RTT ambient values this core adds).
func DefaultConfig() Config {
	return Config{
		Pool:                pool.DefaultConfig(),
		HandshakeTimeout:    10 * time.Second,
		NoDelay:             true,
		DialTimeout:         10 * time.Second,
		RTTOutboundCapacity: 32,
		RTTWindowSize:       16,
	}
}
