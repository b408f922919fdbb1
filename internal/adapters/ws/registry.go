package ws

import "sync"

// Registry tracks which identities currently hold a live connection. A
// reconnect replaces the previous connection for the identity; the stale
// unregister that follows is ignored by comparing connection ids.
type Registry struct {
	mu      sync.RWMutex
	clients map[int64]*client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[int64]*client)}
}

// Register binds identity to c, displacing any previous connection. The
// displaced client, if any, is returned so the caller can shut it down.
func (r *Registry) Register(c *client) *client {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.clients[c.identity]
	r.clients[c.identity] = c
	if prev == c {
		return nil
	}
	return prev
}

// Unregister removes c's binding and reports whether it did. A binding
// already replaced by a newer connection is left alone; callers use the
// false return to tell a real departure from a superseded connection
// closing late.
func (r *Registry) Unregister(c *client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.clients[c.identity]; ok && current.id == c.id {
		delete(r.clients, c.identity)
		return true
	}
	return false
}

// IsReachable reports whether identity has a live connection.
func (r *Registry) IsReachable(identity int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[identity]
	return ok
}

// ReachableSubset filters ids down to those with a live connection.
func (r *Registry) ReachableSubset(ids []int64) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := r.clients[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Size returns the number of connected identities.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
