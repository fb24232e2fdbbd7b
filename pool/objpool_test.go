package pool_test

import (
	"testing"

	"github.com/duskfall-games/duskrift/pool"
)

type widget struct {
	n int
}

func TestTypedPoolAcquireRelease(t *testing.T) {
	created := 0
	p := pool.NewTypedPool(2,
		func() *widget { created++; return &widget{} },
		func(w *widget) { w.n = 0 },
	)

	a := p.Acquire()
	a.n = 7
	p.Release(a)

	b := p.Acquire()
	if b != a {
		t.Fatalf("expected reuse of the same instance")
	}
	if b.n != 0 {
		t.Fatalf("expected reset on reacquire, got n=%d", b.n)
	}
	if created != 1 {
		t.Fatalf("expected exactly one allocation, got %d", created)
	}
}

func TestTypedPoolCapDropsExcess(t *testing.T) {
	p := pool.NewTypedPool(1, func() *widget { return &widget{} }, nil)
	a := p.Acquire()
	b := p.Acquire()
	p.Release(a)
	p.Release(b) // dropped: pool already holds a

	if p.Depth() > p.Cap() {
		t.Fatalf("pool depth %d exceeds cap %d", p.Depth(), p.Cap())
	}
}

func TestAutoRecyclerReleasesExactlyOnce(t *testing.T) {
	bp := pool.NewBufferPool(pool.DefaultConfig())
	buf := bp.Acquire(16)

	ar := pool.NewAutoRecycler(buf)
	ar.Close()
	ar.Close() // idempotent: must not double-release

	prev := pool.StrictReleaseChecks
	pool.StrictReleaseChecks = false
	defer func() { pool.StrictReleaseChecks = prev }()
	before := pool.DoubleReleaseCount()
	ar.Close()
	if pool.DoubleReleaseCount() != before {
		t.Fatalf("Close after Close must not re-release")
	}
}

func TestAutoRecyclerDisarm(t *testing.T) {
	bp := pool.NewBufferPool(pool.DefaultConfig())
	buf := bp.Acquire(16)

	ar := pool.NewAutoRecycler(buf)
	ar.Disarm() // the wrapped reference is handed to a second owner
	ar.Close()  // no-op: ownership was transferred

	buf.Release() // the second owner releases the reference it was handed
}

// TestAutoRecyclerPoolReusesWrapper covers the max_auto_recycling_arrays
// wiring: the wrapper struct handed back by Release must be the same
// instance a later Acquire rebinds around a new buffer.
func TestAutoRecyclerPoolReusesWrapper(t *testing.T) {
	bp := pool.NewBufferPool(pool.DefaultConfig())
	arp := pool.NewAutoRecyclerPool(1)

	buf1 := bp.Acquire(16)
	a1 := arp.Acquire(buf1)
	a1.Close()
	arp.Release(a1)

	buf2 := bp.Acquire(16)
	a2 := arp.Acquire(buf2)
	if a2 != a1 {
		t.Fatalf("expected the wrapper struct to be reused")
	}
	a2.Close()
	arp.Release(a2)
}
