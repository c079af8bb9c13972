package queue

import "github.com/google/uuid"

// store holds every admitted item keyed by id. It carries no locking of
// its own: the owning Queue's mutex serializes all access.
type store struct {
	items map[uuid.UUID]*Item
}

func newStore() *store {
	return &store{
		items: make(map[uuid.UUID]*Item),
	}
}

func (s *store) insert(it *Item) {
	s.items[it.ID] = it
}

// next returns the most eligible queued item: highest priority first,
// earliest enqueue time within a priority band, insertion sequence as
// the final tie-break so equal items are never reordered between calls.
func (s *store) next() *Item {
	var best *Item
	for _, it := range s.items {
		if it.Status != StatusQueued {
			continue
		}
		if best == nil || it.before(best) {
			best = it
		}
	}
	return best
}

// before reports whether it should be dispatched ahead of other
func (it *Item) before(other *Item) bool {
	if it.Priority != other.Priority {
		return it.Priority > other.Priority
	}
	if !it.EnqueuedAt.Equal(other.EnqueuedAt) {
		return it.EnqueuedAt.Before(other.EnqueuedAt)
	}
	return it.seq < other.seq
}

func (s *store) find(id uuid.UUID) *Item {
	return s.items[id]
}

func (s *store) remove(id uuid.UUID) {
	delete(s.items, id)
}

func (s *store) byStatus(status Status) []*Item {
	var out []*Item
	for _, it := range s.items {
		if it.Status == status {
			out = append(out, it)
		}
	}
	return out
}

func (s *store) all() []*Item {
	out := make([]*Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	return out
}

func (s *store) countByStatus(status Status) int {
	n := 0
	for _, it := range s.items {
		if it.Status == status {
			n++
		}
	}
	return n
}

func (s *store) len() int {
	return len(s.items)
}
