package health

import (
	"fmt"
	"net/netip"
	"sync"
)

// Monitor identifies one health subscription: a service type probing
// one address.
type Monitor struct {
	Service string
	Addr    netip.Addr
}

// Registry assigns monitor indices and holds the current state table.
//
// Registration deduplicates on (service, address) identity, so
// re-registering the same pair during a configuration reload returns
// the same index. The registry outlives any one resource-table
// generation for exactly that reason.
//
// The probing side feeds states in through SetState; resolution reads a
// consistent copy through Snapshot. All methods are safe for concurrent
// use.
type Registry struct {
	mu       sync.RWMutex
	monitors []Monitor
	states   []StateTTL
	index    map[Monitor]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: map[Monitor]int{}}
}

// Register returns the monitor index for the given (service, address)
// pair, allocating one if the pair is new. New monitors start out up
// with TTLMax.
func (r *Registry) Register(service string, addr netip.Addr) int {
	key := Monitor{Service: service, Addr: addr}

	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, ok := r.index[key]; ok {
		return idx
	}
	idx := len(r.monitors)
	r.monitors = append(r.monitors, key)
	r.states = append(r.states, StateTTL{TTL: TTLMax})
	r.index[key] = idx
	return idx
}

// SetState records a new state for one monitor.
func (r *Registry) SetState(idx int, st StateTTL) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idx < 0 || idx >= len(r.states) {
		return fmt.Errorf("health: monitor index %d out of range (have %d)", idx, len(r.states))
	}
	r.states[idx] = st
	return nil
}

// Snapshot returns a copy of the current state table.
func (r *Registry) Snapshot() Table {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t := make(Table, len(r.states))
	copy(t, r.states)
	return t
}

// Monitors returns a copy of the registered monitor identities, in
// index order.
func (r *Registry) Monitors() []Monitor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Monitor, len(r.monitors))
	copy(out, r.monitors)
	return out
}

// Len returns the number of registered monitors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.monitors)
}
