// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package rtt

import (
	"math"
	"sync"
	"time"
)

type outboundSlot struct {
	id     uint16
	sentAt time.Time
	valid  bool
}

// Tracker is a bounded-capacity map from outbound ping id to send
// timestamp (a ring of the most recent ids; the oldest entry is
// silently overwritten) plus a
// bounded ring of completed samples and their running mean/stddev
// (spec §3, §4.4). Lookup never blocks; missing ids on ack arrival are
// a non-fatal no-op (spec §3, §7, §8 property 6).
//
// Called from both the send path (RecordOutbound) and the receive
// path (RecordInbound); internally synchronized with a single short
// mutex critical section per spec §5.
type Tracker struct {
	mu sync.Mutex

	slots []outboundSlot
	next  int
	index map[uint16]int

	window     []time.Duration
	windowCap  int
	windowNext int

	lastSample time.Duration
}

// New constructs a Tracker with the given in-flight outbound-ping
// capacity and rolling-average window size (spec §4.4).
func New(outboundCapacity, windowSize int) *Tracker {
	if outboundCapacity < 1 {
		outboundCapacity = 1
	}
	if windowSize < 1 {
		windowSize = 1
	}
	return &Tracker{
		slots:     make([]outboundSlot, outboundCapacity),
		index:     make(map[uint16]int, outboundCapacity),
		window:    make([]time.Duration, 0, windowSize),
		windowCap: windowSize,
	}
}

// RecordOutbound stores (id, now) into the circular slot map. An id
// that is already tracked has its send time updated in place. A new id
// takes the next slot of the ring, overwriting the entry written there
// len(slots) new ids earlier if it has not been acked yet, whether or
// not other slots have been freed by acks.
func (t *Tracker) RecordOutbound(id uint16) {
	t.recordOutboundAt(id, time.Now())
}

func (t *Tracker) recordOutboundAt(id uint16, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Open question 1 (spec §9): an id that is already tracked is
	// updated in place and keeps its slot.
	if i, ok := t.index[id]; ok {
		t.slots[i].sentAt = now
		return
	}

	idx := t.next
	evicted := t.slots[idx]
	if evicted.valid {
		// The overwritten entry's id is no longer tracked.
		if evicted.id != id {
			delete(t.index, evicted.id)
		}
	}
	t.slots[idx] = outboundSlot{id: id, sentAt: now, valid: true}
	t.index[id] = idx
	t.next = (t.next + 1) % len(t.slots)
}

// RecordInbound looks up id; if present, computes now-sent, folds the
// sample into the rolling window, and removes the entry. If absent
// (stale or spoofed ack), it is a recoverable no-op: (0, false).
func (t *Tracker) RecordInbound(id uint16) (time.Duration, bool) {
	return t.recordInboundAt(id, time.Now())
}

func (t *Tracker) recordInboundAt(id uint16, now time.Time) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, ok := t.index[id]
	if !ok {
		return 0, false
	}
	s := t.slots[idx]
	if !s.valid || s.id != id {
		return 0, false
	}

	sample := now.Sub(s.sentAt)
	t.slots[idx].valid = false
	delete(t.index, id)

	t.foldSample(sample)
	return sample, true
}

func (t *Tracker) foldSample(d time.Duration) {
	t.lastSample = d
	if len(t.window) < t.windowCap {
		t.window = append(t.window, d)
	} else {
		t.window[t.windowNext] = d
		t.windowNext = (t.windowNext + 1) % t.windowCap
	}
}

// SmoothedRTT returns the arithmetic mean over the current sample window.
func (t *Tracker) SmoothedRTT() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return meanOf(t.window)
}

// Variance returns the standard deviation over the current sample
// window, expressed as a Duration for ease of comparison against
// SmoothedRTT (variance itself is in squared-nanosecond units).
func (t *Tracker) Variance() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return stddevOf(t.window)
}

// LastSample returns the most recently completed RTT sample.
func (t *Tracker) LastSample() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSample
}

// SampleCount returns the number of samples currently in the window.
func (t *Tracker) SampleCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.window)
}

func meanOf(window []time.Duration) time.Duration {
	if len(window) == 0 {
		return 0
	}
	var sum float64
	for _, d := range window {
		sum += float64(d)
	}
	return time.Duration(sum / float64(len(window)))
}

func stddevOf(window []time.Duration) time.Duration {
	n := len(window)
	if n == 0 {
		return 0
	}
	mean := float64(meanOf(window))
	var sq float64
	for _, d := range window {
		diff := float64(d) - mean
		sq += diff * diff
	}
	return time.Duration(math.Sqrt(sq / float64(n)))
}
