package client

import (
	"github.com/indigo-web/utils/pool"
	"github.com/relaywire/pipeclient/http/headers"
)

// headersPool recycles *headers.Headers between exchanges on the same
// ClientConnection. A pipelined connection may run through thousands of
// exchanges over its lifetime; reusing the backing Storage avoids an
// allocation per response the way the teacher's own object pool avoids one
// per accepted connection.
//
// ObjectPool isn't goroutine-safe (see its doc comment), which is fine here:
// a headersPool is only ever touched by whichever goroutine currently holds
// the ClientConnection's read turn, and read turns are handed from one
// ClientRequest to the next one at a time.
type headersPool struct {
	pool pool.ObjectPool[*headers.Headers]
}

func newHeadersPool(size int) *headersPool {
	return &headersPool{pool: pool.NewObjectPool[*headers.Headers](size)}
}

// acquire returns a cleared, ready to use *headers.Headers, allocating one
// only if the pool is empty.
func (p *headersPool) acquire() *headers.Headers {
	h := p.pool.Acquire()
	if h == nil {
		return headers.NewHeaders()
	}

	return h.Clear()
}

// release returns h to the pool for a future acquire to reuse.
func (p *headersPool) release(h *headers.Headers) {
	p.pool.Release(h)
}
