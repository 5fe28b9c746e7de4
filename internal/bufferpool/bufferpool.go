// Package bufferpool recycles the buffers used to render sets.
package bufferpool

import (
	"bytes"
	"sync"
)

// buffers larger than this are left for the garbage collector
const maxRetained = 64 << 10

var buffers = sync.Pool{
	New: func() any {
		return &bytes.Buffer{}
	},
}

// Get fetches an empty buffer from the buffer pool.
func Get() *bytes.Buffer {
	buf := buffers.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Put returns a buffer to the buffer pool.
func Put(buf *bytes.Buffer) {
	if buf != nil && buf.Cap() <= maxRetained {
		buffers.Put(buf)
	}
}
