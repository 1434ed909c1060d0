package detector

import (
	"sync"

	"github.com/EdwardH92/CliffDive/internal/event"
	"github.com/EdwardH92/CliffDive/internal/metrics"
)

// Buffer holds interactions awaiting redelivery. When full, the
// oldest entry is dropped so the buffer never grows past capacity.
type Buffer struct {
	mu       sync.Mutex
	capacity int
	items    []event.Interaction
}

// NewBuffer creates a buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{capacity: capacity}
}

// Push appends an interaction, evicting the oldest when at capacity.
func (b *Buffer) Push(it event.Interaction) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.items) >= b.capacity {
		b.items = b.items[1:]
		metrics.SignalsDropped.Inc()
	}
	b.items = append(b.items, it)
}

// Drain removes and returns all buffered interactions in order.
func (b *Buffer) Drain() []event.Interaction {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.items
	b.items = nil
	return items
}

// Len returns the number of buffered interactions.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
