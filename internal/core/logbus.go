package core

import (
	"sync"

	"github.com/eapache/queue"
)

// DefaultBusCapacity bounds the pending queue of a LogBus.
const DefaultBusCapacity = 1024

// LogBus is the ordered, append-only event queue bridging background
// producers and a single polling consumer. Producers Publish into a
// bounded pending queue; the consumer's Drain moves pending entries
// into an owned history and returns a snapshot of it. Entry order is
// arrival order at the pending queue; no cross-producer total order
// beyond that.
type LogBus struct {
	mu      sync.Mutex
	pending *queue.Queue
	cap     int
	history []LogEntry
	dropped uint64
}

// NewLogBus builds a bus whose pending queue holds at most capacity
// entries; capacity <= 0 selects DefaultBusCapacity.
func NewLogBus(capacity int) *LogBus {
	if capacity <= 0 {
		capacity = DefaultBusCapacity
	}
	return &LogBus{pending: queue.New(), cap: capacity}
}

// Publish enqueues an entry from any producer goroutine. It never
// blocks; when the pending queue is full the oldest pending entry is
// discarded and counted in Dropped.
func (b *LogBus) Publish(e LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending.Length() >= b.cap {
		b.pending.Remove()
		b.dropped++
	}
	b.pending.Add(e)
}

// Append bypasses the pending queue and writes straight into the
// history. Used for entries that must stay visible even when the
// pending queue is saturated (locally sent packets).
func (b *LogBus) Append(e LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = append(b.history, e)
}

// Drain moves all pending entries into the history and returns a copy
// of the full history plus the history length prior to this drain.
// Incremental consumers render entries[prior:]. Exactly one consumer
// should drain a given bus.
func (b *LogBus) Drain() (entries []LogEntry, prior int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	prior = len(b.history)
	for b.pending.Length() > 0 {
		b.history = append(b.history, b.pending.Remove().(LogEntry))
	}
	return append([]LogEntry(nil), b.history...), prior
}

// Dropped reports how many pending entries were discarded to overflow.
func (b *LogBus) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
