// Package transfer queues local files for upload into one remote folder and
// processes them one at a time.
package transfer

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle position of an upload task. It only moves forward:
// pending -> uploading -> success | error.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
)

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusUploading:
		return 1
	default:
		return 2
	}
}

// IsTerminal reports whether s is success or error.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusError
}

// LocalFile is a file picked for upload.
type LocalFile struct {
	Path string
	Name string
	Size int64
}

// StatLocalFile builds a LocalFile from a path on disk. Directories are rejected.
func StatLocalFile(path string) (LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return LocalFile{}, err
	}
	if info.IsDir() {
		return LocalFile{}, fmt.Errorf("%s is a directory", path)
	}
	return LocalFile{Path: path, Name: filepath.Base(path), Size: info.Size()}, nil
}

// UploadTask is one queued upload. It is local only and never persisted.
// Thread-safe: use the provided methods to read or update state.
type UploadTask struct {
	ID   string
	File LocalFile

	Status   Status
	Progress float64 // 0..100
	Speed    float64 // bytes/sec, smoothed
	Error    string

	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time

	// Speed calculation internals
	lastBytes      int64
	lastUpdateTime time.Time

	mu sync.RWMutex
}

// NewUploadTask creates a pending task for f.
func NewUploadTask(f LocalFile) *UploadTask {
	return &UploadTask{
		ID:        uuid.NewString(),
		File:      f,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
}

// GetStatus returns the current status (thread-safe).
func (t *UploadTask) GetStatus() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status
}

// advance moves the task to status s. Backward moves and moves out of a
// terminal status are ignored; the return value reports whether s was applied.
func (t *UploadTask) advance(s Status, errMsg string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Status.IsTerminal() || s.rank() <= t.Status.rank() {
		return false
	}
	t.Status = s
	switch s {
	case StatusUploading:
		t.StartedAt = time.Now()
	case StatusSuccess:
		t.Progress = 100
		t.CompletedAt = time.Now()
	case StatusError:
		t.Error = errMsg
		t.CompletedAt = time.Now()
	}
	return true
}

// updateBytes records sent bytes and recomputes progress and speed. Progress
// stays below 100 until the server confirms the upload.
func (t *UploadTask) updateBytes(sent int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Status != StatusUploading || t.File.Size <= 0 {
		return
	}

	now := time.Now()
	p := float64(sent) / float64(t.File.Size) * 100
	if p > 99 {
		p = 99
	}
	t.Progress = p

	if t.lastBytes == 0 {
		t.lastBytes = sent
		t.lastUpdateTime = now
		return
	}
	elapsed := now.Sub(t.lastUpdateTime).Seconds()
	if sent > t.lastBytes && elapsed > 0.1 {
		instantRate := float64(sent-t.lastBytes) / elapsed
		// EMA smoothing (alpha=0.25)
		const speedSmoothingAlpha = 0.25
		if t.Speed > 0 {
			t.Speed = speedSmoothingAlpha*instantRate + (1-speedSmoothingAlpha)*t.Speed
		} else {
			t.Speed = instantRate
		}
		t.lastBytes = sent
		t.lastUpdateTime = now
	}
}

// Clone returns a copy of the task's fields for display.
func (t *UploadTask) Clone() UploadTask {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return UploadTask{
		ID:          t.ID,
		File:        t.File,
		Status:      t.Status,
		Progress:    t.Progress,
		Speed:       t.Speed,
		Error:       t.Error,
		CreatedAt:   t.CreatedAt,
		StartedAt:   t.StartedAt,
		CompletedAt: t.CompletedAt,
	}
}
