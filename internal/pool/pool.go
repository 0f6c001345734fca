// Package pool provides a typed free list used to recycle per-query
// answer buffers on the DNS hot path.
package pool

import "sync"

// Pool is a generic wrapper around sync.Pool.
type Pool[T any] struct {
	internal sync.Pool
}

// New creates a Pool with the given constructor.
func New[T any](newFn func() T) *Pool[T] {
	return &Pool[T]{
		internal: sync.Pool{
			New: func() any {
				return newFn()
			},
		},
	}
}

// Get retrieves an item from the pool.
func (p *Pool[T]) Get() T {
	return p.internal.Get().(T)
}

// Put returns an item to the pool. The caller resets it first; the
// pool does not know how.
func (p *Pool[T]) Put(item T) {
	p.internal.Put(item)
}
