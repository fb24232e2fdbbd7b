// File: client/doc.go
// Package client
// Author: momentics <momentics@gmail.com>
//
// Client is the facade of spec §4.6: lifecycle, handshake wait, RTT
// bookkeeping, and user-visible event fan-out over a transport.Connection.
// Grounded on the teacher's client/facade.go (Connect/ConnectInBackground/
// Send/Close, subscriber list guarded by a lock) generalized from a
// single WebSocket socket to the bi-channel transport.Connection and the
// tagged-message wire format of SPEC_FULL.md. The one-shot setup-signal
// wait for the Configure handshake is new here (see DESIGN.md).
package client
