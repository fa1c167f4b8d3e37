// Package pool implements the bounded slab allocator of
// model.BookUpdateEvent described in spec.md §3/§9: a fixed number of
// pre-allocated events, acquired by reserving a slot with a CAS over an
// occupancy word and released when the downstream consumer is done
// with the event.
package pool

import "github.com/flox-foundation/flox-connectors/internal/model"

// DefaultSize is the slab size used when a connector does not override it.
const DefaultSize = 2047

// BookUpdatePool is a bounded, lock-free-acquire slab of BookUpdateEvent.
// Acquire never blocks: a full pool returns ok=false, and the caller
// (a decoder) drops the frame per spec.md §4.5.
type BookUpdatePool struct {
	slots    []model.BookUpdateEvent
	occupied []int32 // 0 = free, 1 = occupied; CAS target per slot
}

// New allocates a slab of the given size (DefaultSize when size <= 0).
func New(size int) *BookUpdatePool {
	if size <= 0 {
		size = DefaultSize
	}
	return &BookUpdatePool{
		slots:    make([]model.BookUpdateEvent, size),
		occupied: make([]int32, size),
	}
}

// Acquire reserves a free slot and returns a pointer into the slab,
// along with the slot index needed by Release. ok is false when every
// slot is occupied.
func (p *BookUpdatePool) Acquire() (ev *model.BookUpdateEvent, idx int, ok bool) {
	for i := range p.occupied {
		if casInt32(&p.occupied[i], 0, 1) {
			p.slots[i].Reset()
			return &p.slots[i], i, true
		}
	}
	return nil, -1, false
}

// Release returns a previously acquired slot to the free pool. Calling
// Release on an already-free slot is a no-op.
func (p *BookUpdatePool) Release(idx int) {
	if idx < 0 || idx >= len(p.occupied) {
		return
	}
	casInt32(&p.occupied[idx], 1, 0)
}

// Len reports the total slab capacity.
func (p *BookUpdatePool) Len() int { return len(p.slots) }
