package capture

import "sync"

// BufferPool is a concurrency-safe free list of byte buffers with no size
// classing. Steady-state buffer count is bounded by queue capacity plus
// in-flight workers, so the pool never trims. Rent transfers ownership to
// the caller; Return transfers it back. No buffer may be touched by two
// goroutines between a Rent and the matching Return.
type BufferPool struct {
	mu   sync.Mutex
	free [][]byte
}

// NewBufferPool returns an empty pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{}
}

// Rent returns a buffer of length size, reusing any free buffer whose
// capacity suffices, else allocating fresh. Reused buffers keep their old
// contents; callers that rely on zeroed memory must clear them.
func (p *BufferPool) Rent(size int) []byte {
	p.mu.Lock()
	for i, buf := range p.free {
		if cap(buf) >= size {
			last := len(p.free) - 1
			p.free[i] = p.free[last]
			p.free[last] = nil
			p.free = p.free[:last]
			p.mu.Unlock()
			return buf[:size]
		}
	}
	p.mu.Unlock()
	return make([]byte, size)
}

// Return adds buf back to the free list unconditionally. buf must not be
// used by the caller afterwards.
func (p *BufferPool) Return(buf []byte) {
	if buf == nil {
		return
	}
	p.mu.Lock()
	p.free = append(p.free, buf[:cap(buf)])
	p.mu.Unlock()
}

// Idle returns the number of buffers currently on the free list.
func (p *BufferPool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
