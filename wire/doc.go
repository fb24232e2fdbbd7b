// File: wire/doc.go
// Package wire
// Author: momentics <momentics@gmail.com>
//
// Message framing and the typed reader/writer cursor over a pooled
// buffer (spec §4.3). Grounded on the teacher's protocol/frame.go
// (header-then-payload, zero-copy Payload []byte) but for the
// tagged-message layout of SPEC_FULL.md §5, not RFC 6455 frames.
package wire
