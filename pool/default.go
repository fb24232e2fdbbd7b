// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Grounded on pool/default.go's sync.Once-guarded process-wide
// singleton. NUMA-node keying is dropped (spec's pools are not
// NUMA-segmented). client.New does not use this pool: each Client
// builds its own BufferPool from its Config.
package pool

import "sync"

var (
	defaultOnce sync.Once
	defaultPool *BufferPool
)

// DefaultBufferPool returns a process-wide BufferPool built from
// DefaultConfig, lazily initialized on first use.
func DefaultBufferPool() *BufferPool {
	defaultOnce.Do(func() {
		defaultPool = NewBufferPool(DefaultConfig())
	})
	return defaultPool
}
