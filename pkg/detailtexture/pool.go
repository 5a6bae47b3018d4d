// Package detailtexture bakes per-surface detail textures (material
// blend + normal) for mesh output, either on the CPU into a shared tile
// atlas or staged into GPU storage buffers for a compute pass. The
// pooling scheme here generalizes the teacher's persistently-mapped,
// triple-buffered vertex buffer (_examples/Leterax-go-voxels/pkg/render/chunkBufferManager.go)
// from one fixed chunk size into 48 power-of-growth size buckets, so
// buffers of any requested size reuse a freed allocation instead of
// round-tripping through the GPU driver on every bake.
package detailtexture

import "sync"

const bucketCount = 48

// Buffer is one pooled allocation. Len is the caller's requested size;
// Bytes may be longer (the bucket's rounded-up capacity).
type Buffer struct {
	Bytes []byte
	Len   int
	pool  *BufferPool
	bucket int
}

// Release returns the buffer to its pool for reuse. Calling it twice,
// or using Bytes after, is a caller bug.
func (b *Buffer) Release() {
	if b.pool == nil {
		return
	}
	b.pool.release(b)
}

// BufferPool is a bucketed free-list of byte slices, indexed by the
// growth bucket (see bucketFor) a request rounds up to.
type BufferPool struct {
	mu      sync.Mutex
	buckets [bucketCount][][]byte
}

func NewBufferPool() *BufferPool {
	return &BufferPool{}
}

// bucketFor finds the smallest bucket whose capacity (grown from 1 by
// the s' = max(s+1, s+s/2) rule) is >= size.
func bucketFor(size int) (bucket, capacity int) {
	cap := 1
	for i := 0; i < bucketCount; i++ {
		if cap >= size {
			return i, cap
		}
		cap = growCapacity(cap)
	}
	return bucketCount - 1, cap
}

func growCapacity(s int) int {
	grown := s + s/2
	if s+1 > grown {
		return s + 1
	}
	return grown
}

// Acquire returns a buffer of at least size bytes, reusing a released
// allocation from the matching bucket when one is available.
func (p *BufferPool) Acquire(size int) *Buffer {
	bucket, capacity := bucketFor(size)

	p.mu.Lock()
	var raw []byte
	if free := p.buckets[bucket]; len(free) > 0 {
		raw = free[len(free)-1]
		p.buckets[bucket] = free[:len(free)-1]
	}
	p.mu.Unlock()

	if raw == nil {
		raw = make([]byte, capacity)
	}
	return &Buffer{Bytes: raw[:size], Len: size, pool: p, bucket: bucket}
}

func (p *BufferPool) release(b *Buffer) {
	p.mu.Lock()
	p.buckets[b.bucket] = append(p.buckets[b.bucket], b.Bytes[:cap(b.Bytes)])
	p.mu.Unlock()
	b.pool = nil
}
