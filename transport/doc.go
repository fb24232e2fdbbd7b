// File: transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
//
// Connection is the bi-channel client transport of spec §4.5: one
// reliable (TCP) and one unreliable (UDP) socket to the same peer,
// multiplexed behind a single state machine. Grounded on the teacher's
// protocol/connection.go (goroutine-per-direction recv/send loops,
// atomic state, mu-guarded callback) generalized from one WebSocket
// net.Conn to two sockets and from RFC 6455 frames to the
// length-prefixed / one-per-datagram framing of SPEC_FULL.md §5.
package transport
