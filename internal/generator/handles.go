package generator

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handles holds video results until the caller is done with them.
type Handles struct {
	mu    sync.Mutex
	items map[string]*entry
	ttl   time.Duration
	now   func() time.Time
}

type entry struct {
	result  *Result
	created time.Time
}

// NewHandles returns a registry. Results older than ttl are dropped by
// Expire; a zero ttl keeps them until released.
func NewHandles(ttl time.Duration) *Handles {
	return &Handles{items: make(map[string]*entry), ttl: ttl, now: time.Now}
}

// Put registers r, sets r.Handle and returns it.
func (h *Handles) Put(r *Result) string {
	id := uuid.NewString()
	r.Handle = id

	h.mu.Lock()
	defer h.mu.Unlock()
	h.items[id] = &entry{result: r, created: h.now()}
	return id
}

// Get returns the result behind id.
func (h *Handles) Get(id string) (*Result, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.items[id]
	if !ok {
		return nil, false
	}
	return e.result, true
}

// Release frees id and reports whether it was held.
func (h *Handles) Release(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.items[id]; !ok {
		return false
	}
	delete(h.items, id)
	return true
}

// Replace registers r and releases old, which may be empty or unknown.
func (h *Handles) Replace(old string, r *Result) string {
	id := h.Put(r)
	if old != "" && old != id {
		h.Release(old)
	}
	return id
}

// Len returns the number of held results.
func (h *Handles) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.items)
}

// Expire drops results older than the registry's ttl and returns how many
// were dropped.
func (h *Handles) Expire() int {
	if h.ttl <= 0 {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	cutoff := h.now().Add(-h.ttl)
	n := 0
	for id, e := range h.items {
		if e.created.Before(cutoff) {
			delete(h.items, id)
			n++
		}
	}
	return n
}
