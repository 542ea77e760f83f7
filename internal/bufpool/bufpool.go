// Package bufpool is the process-wide pooled byte buffer allocator that
// backs every Packet. It mirrors the teacher's BytePool shape but is
// exported as a shared, package-level pool since every connection in the
// process rents from the same arena.
package bufpool

import "sync"

// Pool is a reusable []byte arena. Construct it with New: the zero value
// has no allocator, and Rent panics on it.
type Pool struct {
	pool       sync.Pool
	defaultCap int
}

// New creates a pool whose freshly allocated slices start at defaultCap
// capacity.
func New(defaultCap int) *Pool {
	p := &Pool{defaultCap: defaultCap}
	p.pool.New = func() any {
		return make([]byte, 0, defaultCap)
	}
	return p
}

// Rent returns a slice of exactly length size, reusing a pooled backing
// array when possible.
func (p *Pool) Rent(size int) []byte {
	b := p.pool.Get().([]byte)
	if cap(b) < size {
		p.pool.Put(b)
		return make([]byte, size)
	}
	b = b[:size]
	clear(b)
	return b
}

// Return gives a rented slice back to the pool.
func (p *Pool) Return(b []byte) {
	if b == nil {
		return
	}
	p.pool.Put(b[:0])
}

// Shared is the process-wide pool every Packet rents from.
var Shared = New(4096)
