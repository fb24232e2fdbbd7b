// File: pool/doc.go
// Package pool
// Author: momentics <momentics@gmail.com>
//
// Size-classed buffer pooling and capped generic object pooling for
// duskrift. Every hot-path allocation on the client (message buffers,
// message objects, event-args objects, per-read operation records)
// flows through this package. BufferPool, Buffer's reference count,
// TypedPool and AutoRecyclerPool are safe for concurrent use; a single
// AutoRecycler is not synchronized and belongs to one goroutine at a
// time. Per-class stores are capped channels so pool depth never exceeds
// its configured capacity (spec §8 property 1).
package pool
