// File: dispatch/doc.go
// Package dispatch
// Author: momentics <momentics@gmail.com>
//
// Dispatcher is a single-worker FIFO task queue used to fan out
// disconnected events (message-received subscribers run synchronously
// on the receive loop) without letting a panicking
// subscriber break buffer recycling (spec §9 "Event broadcast").
// Grounded on the teacher's internal/concurrency/executor.go
// (eapache/queue-backed task dispatch with a stop channel); repurposed
// from a generic NUMA-aware worker pool to a single ordered dispatcher
// bounded by spec §6's max_action_dispatcher_tasks.
package dispatch
