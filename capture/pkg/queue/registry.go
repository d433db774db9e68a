package queue

import "sync"

// Registry holds the named queues visible to the capture side, analogous to
// the globals a host application hangs its event queues on. Names keep
// insertion order so per-source displays stay stable.
type Registry struct {
	mu     sync.Mutex
	order  []string
	queues map[string]*Queue
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{queues: make(map[string]*Queue)}
}

// Get returns the named queue if it exists.
func (r *Registry) Get(name string) (*Queue, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queues[name]
	return q, ok
}

// Ensure returns the named queue, creating an empty one if absent.
func (r *Registry) Ensure(name string) *Queue {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q, ok := r.queues[name]; ok {
		return q
	}
	q := New(name)
	r.queues[name] = q
	r.order = append(r.order, name)
	return q
}

// Names returns the registered queue names in insertion order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
