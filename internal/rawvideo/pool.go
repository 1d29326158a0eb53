//go:build !ios && !android && (amd64 || arm64)

package rawvideo

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrPoolClosed is returned by Get after Close.
	ErrPoolClosed = errors.New("rawvideo: buffer pool is closed")

	// ErrPoolExhausted is returned by Get when every buffer is in use.
	ErrPoolExhausted = errors.New("rawvideo: buffer pool exhausted")
)

// BufferPool reuses frame buffers of one size.
//
// Buffers returned from Get are owned by the caller until given back with
// Put.
type BufferPool struct {
	mu       sync.Mutex
	size     int
	idle     [][]byte
	closed   bool
	inUse    int
	maxInUse int
}

// NewBufferPool creates a pool of size-byte buffers. If maxInUse <= 0 the
// pool is unbounded.
func NewBufferPool(size, maxInUse int) *BufferPool {
	return &BufferPool{size: size, maxInUse: maxInUse}
}

// Get returns an owned buffer from the pool.
func (p *BufferPool) Get() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}
	if p.maxInUse > 0 && p.inUse >= p.maxInUse {
		return nil, ErrPoolExhausted
	}

	var buf []byte
	if n := len(p.idle); n > 0 {
		buf = p.idle[n-1]
		p.idle = p.idle[:n-1]
	} else {
		buf = make([]byte, p.size)
	}
	p.inUse++
	return buf, nil
}

// Put returns a buffer obtained from Get.
func (p *BufferPool) Put(buf []byte) error {
	if p == nil || buf == nil {
		return nil
	}
	if len(buf) != p.size {
		return fmt.Errorf("rawvideo: buffer of %d bytes does not belong to a pool of %d", len(buf), p.size)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.inUse--
	if p.closed {
		return nil
	}
	p.idle = append(p.idle, buf)
	return nil
}

// InUse returns the number of buffers handed out and not yet returned.
func (p *BufferPool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inUse
}

// Close drops all idle buffers. Buffers still in use may be Put back and
// are discarded.
func (p *BufferPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.idle = nil
	return nil
}
