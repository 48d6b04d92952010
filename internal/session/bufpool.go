package session

import "sync"

// bytePool is a pool of reusable read buffers, one shared instance across
// every session, to reduce GC pressure under many concurrent connections.
// Grounded on internal/gameserver.BytePool: a sync.Pool seeded with a
// default capacity, Get grows past the pool on a capacity miss instead of
// ever returning an undersized slice.
type bytePool struct {
	pool sync.Pool
}

func newBytePool(defaultCap int) *bytePool {
	p := &bytePool{}
	p.pool.New = func() any {
		return make([]byte, defaultCap)
	}
	return p
}

// Get returns a slice of length size, preferably recycled from the pool.
func (p *bytePool) Get(size int) []byte {
	b := p.pool.Get().([]byte)
	if cap(b) < size {
		p.pool.Put(b)
		return make([]byte, size)
	}
	return b[:size]
}

// Put returns b to the pool for reuse.
func (p *bytePool) Put(b []byte) {
	if b == nil {
		return
	}
	p.pool.Put(b[:cap(b)])
}

// readBufPool is shared by every Session's ReadLoop.
var readBufPool = newBytePool(defaultReadBufSize)
