package buffers

import (
	"sync"
	"sync/atomic"

	"github.com/rescale/pdrive/internal/constants"
)

// Pool provides reusable copy buffers for streaming downloads and uploads so that
// every io.CopyBuffer call does not allocate its own.

var copyAllocations int64

var copyPool = &sync.Pool{
	New: func() interface{} {
		atomic.AddInt64(&copyAllocations, 1)
		buf := make([]byte, constants.CopyBufferSize)
		return &buf
	},
}

// GetCopyBuffer retrieves a buffer from the pool.
// The buffer must be returned with PutCopyBuffer when done.
//
// Usage:
//
//	buf := buffers.GetCopyBuffer()
//	defer buffers.PutCopyBuffer(buf)
//	_, err := io.CopyBuffer(dst, src, *buf)
func GetCopyBuffer() *[]byte {
	return copyPool.Get().(*[]byte)
}

// PutCopyBuffer returns a buffer to the pool for reuse.
// Only buffers of the pool's size are kept.
func PutCopyBuffer(buf *[]byte) {
	if buf != nil && len(*buf) == constants.CopyBufferSize {
		clear(*buf)
		copyPool.Put(buf)
	}
}

// Allocations returns how many buffers the pool has created so far.
func Allocations() int64 {
	return atomic.LoadInt64(&copyAllocations)
}
