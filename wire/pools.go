// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process-wide object pools backing *Message, *Reader and *Writer
// (spec §4.2, §6 max_messages/max_readers/max_writers). Mirrors
// pool.DefaultBufferPool's sync.Once singleton shape: one process-wide
// set of pools, sized by whatever Config is installed before first use.
package wire

import (
	"sync"

	"github.com/duskfall-games/duskrift/pool"
)

var (
	poolsOnce sync.Once
	pools     *objectPools
	poolsCfg  = pool.DefaultConfig()
	poolsMu   sync.Mutex
)

type objectPools struct {
	messages *pool.TypedPool[*Message]
	readers  *pool.TypedPool[*Reader]
	writers  *pool.TypedPool[*Writer]
}

// Configure installs the capacities used to build the package's
// message/reader/writer pools (spec §6). Must be called before the
// first Message is constructed or decoded. Each call replaces the
// previously installed Config, so the last call before first use
// wins; calls after the pools have been built are ignored.
func Configure(cfg pool.Config) {
	poolsMu.Lock()
	poolsCfg = cfg
	poolsMu.Unlock()
}

func resolvePools() *objectPools {
	poolsOnce.Do(func() {
		poolsMu.Lock()
		cfg := poolsCfg
		poolsMu.Unlock()
		pools = &objectPools{
			messages: pool.NewTypedPool(cfg.MaxMessages,
				func() *Message { return &Message{} },
				func(m *Message) { *m = Message{} },
			),
			readers: pool.NewTypedPool(cfg.MaxReaders,
				func() *Reader { return &Reader{} },
				func(r *Reader) { r.Reset(nil) },
			),
			writers: pool.NewTypedPool(cfg.MaxWriters,
				func() *Writer { return &Writer{} },
				func(w *Writer) { w.Reset(nil) },
			),
		}
	})
	return pools
}

func acquireMessage() *Message  { return resolvePools().messages.Acquire() }
func releaseMessage(m *Message) { resolvePools().messages.Release(m) }

func acquireReader() *Reader  { return resolvePools().readers.Acquire() }
func releaseReader(r *Reader) { resolvePools().readers.Release(r) }

func acquireWriter() *Writer  { return resolvePools().writers.Acquire() }
func releaseWriter(w *Writer) { resolvePools().writers.Release(w) }
