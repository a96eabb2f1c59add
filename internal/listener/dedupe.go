package listener

import "sync"

// dedupe remembers recently seen event IDs so redelivered messages do not
// trigger repeated invalidations. Capacity is bounded; once full, the oldest
// half is dropped. Losing history only costs a spurious invalidation, which
// is safe.
type dedupe struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
	cap   int
}

func newDedupe(capacity int) *dedupe {
	if capacity <= 0 {
		capacity = 1024
	}
	return &dedupe{
		seen: make(map[string]struct{}, capacity),
		cap:  capacity,
	}
}

// Record returns true the first time an event ID is seen.
func (d *dedupe) Record(id string) bool {
	if id == "" {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return false
	}
	if len(d.order) >= d.cap {
		half := len(d.order) / 2
		for _, old := range d.order[:half] {
			delete(d.seen, old)
		}
		d.order = append(d.order[:0], d.order[half:]...)
	}
	d.seen[id] = struct{}{}
	d.order = append(d.order, id)
	return true
}
