// File: pool/bufferpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// BufferPool implements the five-fixed-size-class memory pool of
// spec §4.1, grounded on the teacher's pool/base_bufferpool.go
// (channel-backed per-class store, non-blocking select/default) and
// pool/slab_pool.go (remember the origin class at acquisition).

package pool

import (
	"sync/atomic"

	"github.com/duskfall-games/duskrift/api"
)

// BufferPoolStats summarizes one size class's usage (spec §7 "Supplemented features").
type BufferPoolStats struct {
	Class      string
	InUse      int64
	TotalAlloc int64
	TotalFree  int64
	PoolDepth  int
	PoolCap    int
}

type classStore struct {
	size  int
	slots chan *Buffer
	cap   int

	alloc atomic.Int64
	free  atomic.Int64
	inUse atomic.Int64
}

// BufferPool is the size-classed, capped memory pool described by spec §4.1.
// Safe for concurrent use through its channel-backed stores and atomic
// counters. spec §5 prescribes per-goroutine pool instances; here one
// BufferPool per Client is shared by all of that client's goroutines.
type BufferPool struct {
	cfg     Config
	classes [numClasses]*classStore
}

var classNames = [numClasses]string{"xs", "small", "medium", "large", "xl"}

// NewBufferPool constructs a BufferPool with five fixed classes sized
// and capped per cfg.
func NewBufferPool(cfg Config) *BufferPool {
	sizes := cfg.classSizes()
	caps := cfg.classCaps()
	p := &BufferPool{cfg: cfg}
	for i := 0; i < int(numClasses); i++ {
		p.classes[i] = &classStore{
			size:  sizes[i],
			cap:   caps[i],
			slots: make(chan *Buffer, caps[i]),
		}
	}
	return p
}

// classFor returns the smallest class whose size >= minSize, or
// unpooledClass if minSize exceeds the largest class.
func (p *BufferPool) classFor(minSize int) classIndex {
	for i := 0; i < int(numClasses); i++ {
		if p.classes[i].size >= minSize {
			return classIndex(i)
		}
	}
	return unpooledClass
}

// Acquire returns a buffer of the smallest class whose size is >=
// minSize, creating a fresh one if that class's pool is empty. If
// minSize exceeds the largest class, an unpooled buffer is allocated
// (spec §4.1). The returned buffer carries a single reference owned by
// the caller.
func (p *BufferPool) Acquire(minSize int) *Buffer {
	idx := p.classFor(minSize)
	if idx == unpooledClass {
		return &Buffer{
			data:     make([]byte, minSize),
			length:   minSize,
			refCount: 1,
			class:    unpooledClass,
		}
	}
	cs := p.classes[idx]
	select {
	case b := <-cs.slots:
		b.offset = 0
		b.length = minSize
		atomic.StoreInt32(&b.refCount, 1)
		cs.inUse.Add(1)
		return b
	default:
		cs.alloc.Add(1)
		cs.inUse.Add(1)
		return &Buffer{
			data:     make([]byte, cs.size),
			length:   minSize,
			refCount: 1,
			pool:     p,
			class:    idx,
		}
	}
}

// recycle returns b to the class it was originally drawn from. Buffers
// classify strictly by origin (spec §9 open question 3): a buffer
// acquired from the large class but later shortened to a small window
// still returns to the large pool, never reclassified by current
// length. If that class's store is full, the buffer is dropped.
func (p *BufferPool) recycle(b *Buffer) {
	if b.class == unpooledClass {
		return
	}
	cs := p.classes[b.class]
	cs.inUse.Add(-1)
	select {
	case cs.slots <- b:
		cs.free.Add(1)
	default:
		// Pool at capacity: drop.
	}
}

// DatagramHint returns the largest pooled class size, used by callers
// that must size a receive buffer before knowing how many bytes a
// datagram actually holds (spec §4.5 unreliable-channel receive loop).
func (p *BufferPool) DatagramHint() int {
	return p.cfg.ExtraLargeBlockSize
}

// Stats returns a per-class usage snapshot.
func (p *BufferPool) Stats() []BufferPoolStats {
	out := make([]BufferPoolStats, 0, numClasses)
	for i := 0; i < int(numClasses); i++ {
		cs := p.classes[i]
		out = append(out, BufferPoolStats{
			Class:      classNames[i],
			InUse:      cs.inUse.Load(),
			TotalAlloc: cs.alloc.Load(),
			TotalFree:  cs.free.Load(),
			PoolDepth:  len(cs.slots),
			PoolCap:    cs.cap,
		})
	}
	return out
}

// ErrTooLarge reports minSize exceeding the largest class — exposed so
// callers that must disallow unpooled allocation can check ahead of
// calling Acquire.
func (p *BufferPool) ErrTooLarge(minSize int) error {
	if p.classFor(minSize) == unpooledClass {
		return api.ErrBufferTooLarge
	}
	return nil
}
