package buffers

import (
	"testing"

	"github.com/rescale/pdrive/internal/constants"
)

// TestCopyBufferPool verifies that copy buffers can be retrieved and returned
func TestCopyBufferPool(t *testing.T) {
	buf := GetCopyBuffer()
	if buf == nil {
		t.Fatal("GetCopyBuffer returned nil")
	}
	if len(*buf) != constants.CopyBufferSize {
		t.Errorf("Buffer size = %d, want %d", len(*buf), constants.CopyBufferSize)
	}
	PutCopyBuffer(buf)

	buf2 := GetCopyBuffer()
	if buf2 == nil {
		t.Fatal("GetCopyBuffer returned nil on second call")
	}
	PutCopyBuffer(buf2)

	if Allocations() < 1 {
		t.Error("expected at least one allocation")
	}
}

// TestPutWrongSize verifies foreign buffers are not pooled
func TestPutWrongSize(t *testing.T) {
	small := make([]byte, 10)
	PutCopyBuffer(&small)
	PutCopyBuffer(nil)

	buf := GetCopyBuffer()
	defer PutCopyBuffer(buf)
	if len(*buf) != constants.CopyBufferSize {
		t.Errorf("pool handed out a foreign buffer of size %d", len(*buf))
	}
}
