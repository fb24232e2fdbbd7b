package pool_test

import (
	"testing"

	"github.com/duskfall-games/duskrift/pool"
)

func TestBufferPoolReuse(t *testing.T) {
	bp := pool.NewBufferPool(pool.DefaultConfig())
	b1 := bp.Acquire(40) // -> small class (64)
	b1.Release()
	b2 := bp.Acquire(10) // -> xs class (16), distinct store from small
	if b2.Len() != 10 {
		t.Fatalf("expected length 10, got %d", b2.Len())
	}
	b2.Release()

	b3 := bp.Acquire(40)
	if cap(b3.Bytes()) < 40 {
		t.Fatalf("expected reused buffer with cap >= 40, got %d", cap(b3.Bytes()))
	}
	b3.Release()
}

func TestBufferPoolCapRespected(t *testing.T) {
	cfg := pool.DefaultConfig()
	cfg.MaxSmallBlocks = 1
	bp := pool.NewBufferPool(cfg)

	a := bp.Acquire(40)
	b := bp.Acquire(40)
	a.Release()
	b.Release() // pool already has 1 from a.Release(); this one is dropped

	for _, s := range bp.Stats() {
		if s.Class == "small" && s.PoolDepth > s.PoolCap {
			t.Fatalf("pool depth %d exceeds cap %d", s.PoolDepth, s.PoolCap)
		}
	}
}

func TestBufferPoolUnpooledAboveLargestClass(t *testing.T) {
	bp := pool.NewBufferPool(pool.DefaultConfig())
	huge := bp.Acquire(1 << 20)
	if huge.Len() != 1<<20 {
		t.Fatalf("expected unpooled buffer of requested size")
	}
	huge.Release() // must not panic even though it is unpooled
}

func TestDoubleReleaseDetected(t *testing.T) {
	bp := pool.NewBufferPool(pool.DefaultConfig())
	b := bp.Acquire(10)
	b.Release()

	prev := pool.StrictReleaseChecks
	pool.StrictReleaseChecks = false
	defer func() { pool.StrictReleaseChecks = prev }()

	before := pool.DoubleReleaseCount()
	b.Release()
	if pool.DoubleReleaseCount() != before+1 {
		t.Fatalf("expected double release to be recorded")
	}
}

func TestOriginClassRememberedNotRecomputed(t *testing.T) {
	// A buffer acquired from the large class, even after its window is
	// shrunk, must recycle into the large class store, not whatever
	// class its current length maps to (spec §9 open question 3).
	cfg := pool.DefaultConfig()
	cfg.MaxLargeBlocks = 1
	cfg.MaxSmallBlocks = 1
	bp := pool.NewBufferPool(cfg)

	big := bp.Acquire(cfg.LargeBlockSize) // exactly the large class size
	big.Resize(40)                        // by length this window maps to the small class
	big.Release()

	for _, s := range bp.Stats() {
		if s.Class == "large" && s.PoolDepth != 1 {
			t.Fatalf("expected released buffer to land back in the large class, got depth %d in %q", s.PoolDepth, s.Class)
		}
		if s.Class == "small" && s.PoolDepth != 0 {
			t.Fatalf("origin-class buffer leaked into small class")
		}
	}
}
