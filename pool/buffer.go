// File: pool/buffer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Buffer is the ref-counted, pool-backed slice wrapper of spec §3/§4.1.
// Generalized from the teacher's single-owner api.Buffer: the receive
// loop and the message built from a received buffer both hold a live
// reference simultaneously (spec §4.5 "releases the buffer reference
// the loop still holds"), so release must be reference-counted rather
// than unconditional.

package pool

import (
	"sync/atomic"

	"github.com/duskfall-games/duskrift/api"
)

// classIndex identifies one of the five fixed size classes, or
// unpooledClass for buffers allocated above the largest class.
type classIndex int

const (
	classXS classIndex = iota
	classSmall
	classMedium
	classLarge
	classXL
	numClasses

	unpooledClass classIndex = -1
)

// Buffer is a contiguous byte region plus an (offset, length) window, a
// reference count, and a back-pointer to the owning pool (spec §3).
// Buffers are always heap-held via pointer so the refcount and pool
// back-pointer are shared by every holder of the same logical buffer.
type Buffer struct {
	data   []byte
	offset int
	length int

	refCount int32 // atomic
	pool     *BufferPool
	class    classIndex // origin class; fixed at acquisition, never recomputed from length
}

// Bytes returns the buffer's current (offset, length) window.
func (b *Buffer) Bytes() []byte {
	return b.data[b.offset : b.offset+b.length]
}

// Len reports the window length.
func (b *Buffer) Len() int { return b.length }

// Resize shrinks or grows the buffer's window length in place, within
// the bounds of its backing allocation. Used by the unreliable-channel
// receive loop, which acquires a buffer sized to the largest pooled
// class and then narrows it to the number of bytes actually read.
func (b *Buffer) Resize(n int) {
	if n < 0 {
		n = 0
	}
	if max := len(b.data) - b.offset; n > max {
		n = max
	}
	b.length = n
}

// Retain increments the reference count. Callers that hand a buffer to
// a second owner (e.g. constructing a wire.Message from a received
// buffer) must Retain before the original owner's Release.
func (b *Buffer) Retain() {
	atomic.AddInt32(&b.refCount, 1)
}

// Release decrements the reference count; on the transition to zero
// the buffer is returned to its origin pool (or dropped, if unpooled
// or the pool is at capacity). Releasing a buffer whose count is
// already zero is reported via StrictReleaseChecks (spec §8 property 2)
// rather than silently ignored.
func (b *Buffer) Release() {
	for {
		old := atomic.LoadInt32(&b.refCount)
		if old <= 0 {
			reportDoubleRelease()
			return
		}
		if atomic.CompareAndSwapInt32(&b.refCount, old, old-1) {
			if old == 1 && b.pool != nil {
				b.pool.recycle(b)
			}
			return
		}
	}
}

// StrictReleaseChecks toggles whether a double-release panics (true,
// the default) or is merely reported to doubleReleaseCount
// (false). Maps to spec §8 property 2's "must be detected in debug
// builds" — Go has no separate debug/release compilation mode, so this
// is the idiomatic runtime toggle instead of a build tag.
var StrictReleaseChecks = true

var doubleReleaseCount int64

func reportDoubleRelease() {
	atomic.AddInt64(&doubleReleaseCount, 1)
	if StrictReleaseChecks {
		panic(api.ErrDoubleRelease)
	}
}

// DoubleReleaseCount returns the number of detected double-releases
// since process start; exposed for tests asserting property 2.
func DoubleReleaseCount() int64 {
	return atomic.LoadInt64(&doubleReleaseCount)
}
