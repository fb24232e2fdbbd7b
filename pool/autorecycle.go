// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// AutoRecycler pairs a *Buffer with a deferred-release guard so every
// exit path out of a receive loop — clean delivery, malformed frame,
// socket error, or a panicking user handler — recycles the buffer
// exactly once (spec §1's central invariant, §6's
// max_auto_recycling_arrays config option).
package pool

// AutoRecycler wraps a *Buffer with idempotent, deferrable release.
// Use: acquire, `defer ar.Close()` unconditionally, and call
// ar.Disarm() only on a path that hands the wrapped reference itself to
// another owner, which then releases it. wire.Decode takes a reference
// of its own (Retain), so the receive loops never Disarm.
type AutoRecycler struct {
	buf    *Buffer
	armed  bool
}

// NewAutoRecycler arms a recycler around buf.
func NewAutoRecycler(buf *Buffer) *AutoRecycler {
	return &AutoRecycler{buf: buf, armed: true}
}

// Disarm prevents Close from releasing the buffer — use when the
// wrapped reference has been handed to another owner that releases it.
func (a *AutoRecycler) Disarm() {
	a.armed = false
}

// Close releases the wrapped buffer if still armed. Safe to call
// multiple times; only the first armed call releases.
func (a *AutoRecycler) Close() {
	if a.armed {
		a.armed = false
		a.buf.Release()
	}
}

// AutoRecyclerPool is a capped pool of AutoRecycler wrapper objects
// (the wrapper struct is recycled, not the buffer it wraps — a fresh
// buffer is always rebound via Acquire).
type AutoRecyclerPool struct {
	inner *TypedPool[*AutoRecycler]
}

// NewAutoRecyclerPool constructs a pool bounded by capacity.
func NewAutoRecyclerPool(capacity int) *AutoRecyclerPool {
	return &AutoRecyclerPool{
		inner: NewTypedPool(capacity,
			func() *AutoRecycler { return &AutoRecycler{} },
			func(a *AutoRecycler) { a.buf = nil; a.armed = false },
		),
	}
}

// Acquire returns a wrapper armed around buf.
func (p *AutoRecyclerPool) Acquire(buf *Buffer) *AutoRecycler {
	a := p.inner.Acquire()
	a.buf = buf
	a.armed = true
	return a
}

// Release returns the wrapper (not the buffer) to the pool. Callers
// must have already called Close/Disarm on a beforehand.
func (p *AutoRecyclerPool) Release(a *AutoRecycler) {
	p.inner.Release(a)
}
