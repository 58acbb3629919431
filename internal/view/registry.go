package view

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry keeps one in-memory View per client id. Nothing is persisted;
// a restart starts every client from an empty view.
type Registry struct {
	mu    sync.Mutex
	views map[string]*View
}

func NewRegistry() *Registry {
	return &Registry{views: make(map[string]*View)}
}

// Get returns the view for id, creating it if needed. An empty id gets a
// freshly generated one, which is returned alongside the view.
func (r *Registry) Get(id string) (string, *View) {
	if id == "" {
		id = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[id]
	if !ok {
		v = New()
		r.views[id] = v
	}
	return id, v
}

// Lookup returns the view for id without creating one.
func (r *Registry) Lookup(id string) (*View, bool) {
	if id == "" {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[id]
	return v, ok
}

// Len reports how many views are held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Sweep drops views not accessed since maxIdle ago and cancels their
// in-flight submissions. It returns the number of evicted views.
func (r *Registry) Sweep(now time.Time, maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, v := range r.views {
		if now.Sub(v.idleSince()) > maxIdle {
			v.Close()
			delete(r.views, id)
			evicted++
		}
	}
	return evicted
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, maxIdle time.Duration, onEvict func(n int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Sweep(now, maxIdle); n > 0 && onEvict != nil {
				onEvict(n)
			}
		}
	}
}
