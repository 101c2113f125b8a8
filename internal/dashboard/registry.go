package dashboard

import (
	"context"
	"log"
	"sync"
	"time"
)

type entry[V any] struct {
	view V
	seen time.Time
}

// Registry keeps one view per session id.
type Registry[V interface{ Close() }] struct {
	mu    sync.Mutex
	views map[string]*entry[V]
	now   func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry[V interface{ Close() }]() *Registry[V] {
	return &Registry[V]{views: map[string]*entry[V]{}, now: time.Now}
}

// Get returns the view of a session.
func (r *Registry[V]) Get(id string) (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.views[id]
	if !ok {
		var zero V
		return zero, false
	}
	e.seen = r.now()
	return e.view, true
}

// GetOrCreate returns the view of a session, creating it with mk when absent.
func (r *Registry[V]) GetOrCreate(id string, mk func() V) V {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.views[id]; ok {
		e.seen = r.now()
		return e.view
	}
	e := &entry[V]{view: mk(), seen: r.now()}
	r.views[id] = e
	return e.view
}

// Remove closes and forgets the view of a session.
func (r *Registry[V]) Remove(id string) bool {
	r.mu.Lock()
	e, ok := r.views[id]
	delete(r.views, id)
	r.mu.Unlock()
	if ok {
		e.view.Close()
	}
	return ok
}

// Len counts the live views.
func (r *Registry[V]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Sweep closes the views not used for longer than idle and returns how many
// were removed.
func (r *Registry[V]) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	var stale []V
	r.mu.Lock()
	for id, e := range r.views {
		if e.seen.Before(cutoff) {
			stale = append(stale, e.view)
			delete(r.views, id)
		}
	}
	r.mu.Unlock()
	for _, v := range stale {
		v.Close()
	}
	return len(stale)
}

// SweepEvery runs Sweep on a ticker until ctx is done.
func (r *Registry[V]) SweepEvery(ctx context.Context, every, idle time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(idle); n > 0 {
				log.Printf("evicted %d idle dashboards", n)
			}
		}
	}
}

// Close closes every view.
func (r *Registry[V]) Close() {
	r.mu.Lock()
	views := r.views
	r.views = map[string]*entry[V]{}
	r.mu.Unlock()
	for _, e := range views {
		e.view.Close()
	}
}
