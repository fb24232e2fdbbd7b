// Package api defines the small set of contracts and sentinel errors
// shared across the pool, wire, transport, and client packages.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package api

import "errors"

// Sentinel errors surfaced to callers (spec §7).
var (
	ErrHandshakeTimeout    = errors.New("duskrift: handshake timed out waiting for Configure")
	ErrAlreadyDisconnected = errors.New("duskrift: already disconnected")
	ErrNotConnected        = errors.New("duskrift: not connected")
	ErrBufferTooLarge      = errors.New("duskrift: requested size exceeds largest pooled class")
	ErrDoubleRelease       = errors.New("duskrift: buffer released more times than acquired")
	ErrMalformedFrame      = errors.New("duskrift: malformed frame")
)
