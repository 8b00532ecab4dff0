// Package bufpool provides pooled byte slices for streaming I/O.
//
// Object bodies are copied through fixed-size buffers rather than allocated
// per request. The pool keeps three size classes so small metadata reads do
// not pin megabyte buffers while bulk transfers still get large ones:
//   - 4KB for headers and small payloads
//   - 64KB for typical io.CopyBuffer streaming
//   - 1MB for bulk object transfer
//
// Requests above the largest class are allocated directly and never pooled.
// All operations are safe for concurrent use.
package bufpool

import "sync"

// Buffer size classes.
const (
	SmallSize  = 4 << 10
	MediumSize = 64 << 10
	LargeSize  = 1 << 20
)

// Pool manages byte slices organized by size class.
type Pool struct {
	classes [3]sizeClass
}

type sizeClass struct {
	size int
	pool sync.Pool
}

// NewPool creates a buffer pool with the standard size classes.
func NewPool() *Pool {
	p := &Pool{}
	for i, size := range [3]int{SmallSize, MediumSize, LargeSize} {
		size := size
		p.classes[i].size = size
		p.classes[i].pool.New = func() any {
			buf := make([]byte, size)
			return &buf
		}
	}
	return p
}

// Get returns a slice of exactly the requested length, backed by a pooled
// buffer when the request fits a size class. Callers must hand the slice
// back with Put when done.
func (p *Pool) Get(size int) []byte {
	for i := range p.classes {
		if size <= p.classes[i].size {
			buf := *p.classes[i].pool.Get().(*[]byte)
			return buf[:size]
		}
	}
	// Oversized requests bypass the pool so occasional huge transfers
	// do not keep their buffers resident.
	return make([]byte, size)
}

// Put returns a buffer obtained from Get. Buffers whose capacity does not
// match a size class are left for the garbage collector.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}
	for i := range p.classes {
		if cap(buf) == p.classes[i].size {
			full := buf[:cap(buf)]
			p.classes[i].pool.Put(&full)
			return
		}
	}
}

var globalPool = NewPool()

// Get returns a slice of at least the requested size from the shared pool.
func Get(size int) []byte {
	return globalPool.Get(size)
}

// Put returns a buffer to the shared pool. Pair with Get, usually via defer.
func Put(buf []byte) {
	globalPool.Put(buf)
}
