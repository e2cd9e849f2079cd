package ringlog

import "github.com/yuuhhe/microlog/internal/recordstore"

// ring tracks the live record IDs of a bounded window. A zero ID marks an
// empty slot; stores never assign zero. slots[oldest], when set, is the
// next record to evict.
type ring struct {
	slots  []recordstore.ID
	oldest int
}

func newRing(capacity int) *ring {
	return &ring{slots: make([]recordstore.ID, capacity)}
}

func (r *ring) capacity() int { return len(r.slots) }

// victim returns the ID occupying the slot the next append will reuse.
func (r *ring) victim() (recordstore.ID, bool) {
	id := r.slots[r.oldest]
	return id, id != 0
}

// evicted empties the victim slot once its record is gone.
func (r *ring) evicted() { r.slots[r.oldest] = 0 }

// push stores id in the victim slot and advances past it.
func (r *ring) push(id recordstore.ID) {
	r.slots[r.oldest] = id
	r.oldest = (r.oldest + 1) % len(r.slots)
}

func (r *ring) reset() {
	for i := range r.slots {
		r.slots[i] = 0
	}
	r.oldest = 0
}

// live returns the occupied slots, oldest first.
func (r *ring) live() []recordstore.ID {
	out := make([]recordstore.ID, 0, len(r.slots))
	for i := 0; i < len(r.slots); i++ {
		if id := r.slots[(r.oldest+i)%len(r.slots)]; id != 0 {
			out = append(out, id)
		}
	}
	return out
}
