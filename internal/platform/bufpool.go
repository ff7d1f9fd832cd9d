package platform

import "sync"

// DefaultBufferSize is the copy buffer size used when none is configured.
const DefaultBufferSize = 4 << 20 // 4 MiB

// BufferPool hands out fixed-size copy buffers. Memory use stays bounded by
// the buffer size regardless of the size of the file being copied.
type BufferPool struct {
	size int
	pool sync.Pool
}

// NewBufferPool returns a pool of size-byte buffers. A non-positive size
// selects DefaultBufferSize.
func NewBufferPool(size int) *BufferPool {
	if size <= 0 {
		size = DefaultBufferSize
	}
	p := &BufferPool{size: size}
	p.pool.New = func() any {
		b := make([]byte, size)
		return &b
	}
	return p
}

// Size returns the length of every buffer handed out by the pool.
func (p *BufferPool) Size() int { return p.size }

// Get returns a buffer of exactly Size bytes.
func (p *BufferPool) Get() *[]byte {
	return p.pool.Get().(*[]byte) //nolint:forcetypeassert // pool only holds *[]byte
}

// Put returns a buffer to the pool. Buffers of the wrong size are dropped.
func (p *BufferPool) Put(b *[]byte) {
	if b == nil || len(*b) != p.size {
		return
	}
	p.pool.Put(b)
}
