package transfer

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rescale/pdrive/internal/api"
	"github.com/rescale/pdrive/internal/constants"
	"github.com/rescale/pdrive/internal/events"
	"github.com/rescale/pdrive/internal/logging"
	"github.com/rescale/pdrive/internal/models"
)

var (
	// ErrUploadInProgress is returned by Clear and Start while a task is uploading.
	ErrUploadInProgress = errors.New("an upload is in progress")

	// ErrTaskNotRemovable is returned by Remove for tasks that are no longer pending.
	ErrTaskNotRemovable = errors.New("only pending uploads can be removed")

	// ErrTaskNotFound is returned by Remove for unknown ids.
	ErrTaskNotFound = errors.New("upload task not found")
)

// Uploader sends one file body to a folder. *api.Client implements it; open
// is called once per attempt.
type Uploader interface {
	UploadReader(ctx context.Context, folderID int64, name string, open func() (io.ReadCloser, error)) (*models.FileUploadResponse, error)
}

// Result is the outcome of one processing step.
type Result struct {
	TaskID string
	Name   string
	File   *models.FileUploadResponse // set on success
	Err    error                      // set on failure
}

// OK reports whether the upload succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Summary describes a finished batch.
type Summary struct {
	FolderID  int64
	Results   []Result
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Total is the number of tasks processed by the batch.
func (s Summary) Total() int { return s.Succeeded + s.Failed }

// Coordinator owns the upload queue of one destination folder.
//
// Tasks are enqueued as pending, and Start marks every pending task uploading
// before processing them one at a time in enqueue order. Each step yields a
// Result and the processor always continues to the next task. Once every task
// of the batch is terminal, OnComplete runs exactly once.
type Coordinator struct {
	folderID int64
	uploader Uploader
	eventBus *events.EventBus
	logger   *logging.Logger

	mu         sync.RWMutex
	tasks      []*UploadTask
	tasksByID  map[string]*UploadTask
	running    bool
	onComplete func(Summary)
}

// NewCoordinator creates an empty queue for uploads into folderID. bus and
// logger may be nil.
func NewCoordinator(folderID int64, uploader Uploader, bus *events.EventBus, logger *logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Coordinator{
		folderID:  folderID,
		uploader:  uploader,
		eventBus:  bus,
		logger:    logger,
		tasksByID: make(map[string]*UploadTask),
	}
}

// FolderID returns the destination folder.
func (c *Coordinator) FolderID() int64 { return c.folderID }

// OnComplete sets the batch completion callback. It replaces any previous one.
func (c *Coordinator) OnComplete(fn func(Summary)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onComplete = fn
}

// Enqueue appends a pending task per file. The same file may be queued twice.
func (c *Coordinator) Enqueue(files ...LocalFile) []*UploadTask {
	added := make([]*UploadTask, 0, len(files))
	c.mu.Lock()
	for _, f := range files {
		task := NewUploadTask(f)
		c.tasks = append(c.tasks, task)
		c.tasksByID[task.ID] = task
		added = append(added, task)
	}
	c.mu.Unlock()

	for _, task := range added {
		c.publish(events.EventTransferQueued, task)
	}
	return added
}

// EnqueuePaths stats each path and enqueues it. It stops at the first path
// that cannot be queued, leaving earlier ones enqueued.
func (c *Coordinator) EnqueuePaths(paths ...string) ([]*UploadTask, error) {
	files := make([]LocalFile, 0, len(paths))
	for _, p := range paths {
		f, err := StatLocalFile(p)
		if err != nil {
			c.Enqueue(files...)
			return nil, err
		}
		files = append(files, f)
	}
	return c.Enqueue(files...), nil
}

// Start uploads every pending task and blocks until all of them are terminal.
// A cancelled ctx fails the tasks that have not been sent yet. Start with no
// pending tasks returns an empty summary without invoking OnComplete.
func (c *Coordinator) Start(ctx context.Context) (Summary, error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return Summary{}, ErrUploadInProgress
	}
	var batch []*UploadTask
	for _, task := range c.tasks {
		if task.GetStatus() == StatusPending {
			batch = append(batch, task)
		}
	}
	if len(batch) == 0 {
		c.mu.Unlock()
		return Summary{FolderID: c.folderID}, nil
	}
	c.running = true
	// Moving the batch to uploading under c.mu keeps Remove from taking a
	// task out of a batch that is about to send it.
	started := make([]*UploadTask, 0, len(batch))
	for _, task := range batch {
		if task.advance(StatusUploading, "") {
			started = append(started, task)
		}
	}
	c.mu.Unlock()

	for _, task := range started {
		c.publish(events.EventTransferStarted, task)
	}

	start := time.Now()
	summary := Summary{FolderID: c.folderID}
	for _, task := range batch {
		res := c.process(ctx, task)
		summary.Results = append(summary.Results, res)
		if res.OK() {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	summary.Duration = time.Since(start)

	c.mu.Lock()
	c.running = false
	onComplete := c.onComplete
	c.mu.Unlock()

	c.logger.Info().
		Int64("folder_id", c.folderID).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Dur("took", summary.Duration).
		Msg("Upload batch finished")

	if c.eventBus != nil {
		c.eventBus.Publish(&events.UploadBatchEvent{
			BaseEvent: events.NewBase(events.EventUploadBatchDone),
			FolderID:  c.folderID,
			Total:     summary.Total(),
			Succeeded: summary.Succeeded,
			Failed:    summary.Failed,
			Duration:  summary.Duration,
		})
	}
	if onComplete != nil {
		onComplete(summary)
	}
	return summary, nil
}

// process uploads one task and records its outcome. It never panics on
// upload failure; the failure is carried in the Result.
func (c *Coordinator) process(ctx context.Context, task *UploadTask) Result {
	res := Result{TaskID: task.ID, Name: task.File.Name}

	if err := ctx.Err(); err != nil {
		res.Err = err
	} else {
		open := func() (io.ReadCloser, error) {
			f, err := os.Open(task.File.Path)
			if err != nil {
				return nil, err
			}
			return &progressReader{rc: f, task: task, notify: c.progressNotifier(task)}, nil
		}
		res.File, res.Err = c.uploader.UploadReader(ctx, c.folderID, task.File.Name, open)
	}

	if res.Err != nil {
		msg := errorMessage(res.Err)
		task.advance(StatusError, msg)
		c.logger.Warn().Str("file", task.File.Name).Str("error", msg).Msg("Upload failed")
		c.publish(events.EventTransferFailed, task)
		return res
	}
	task.advance(StatusSuccess, "")
	c.publish(events.EventTransferCompleted, task)
	return res
}

// progressNotifier publishes a progress event each time a task's progress
// crosses a whole percent.
func (c *Coordinator) progressNotifier(task *UploadTask) func() {
	last := -1
	return func() {
		p := int(task.Clone().Progress)
		if p != last {
			last = p
			c.publish(events.EventTransferProgress, task)
		}
	}
}

// Remove drops a pending task from the queue.
func (c *Coordinator) Remove(taskID string) error {
	c.mu.Lock()
	task, ok := c.tasksByID[taskID]
	if !ok {
		c.mu.Unlock()
		return ErrTaskNotFound
	}
	if task.GetStatus() != StatusPending {
		c.mu.Unlock()
		return ErrTaskNotRemovable
	}
	for i, t := range c.tasks {
		if t.ID == taskID {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			break
		}
	}
	delete(c.tasksByID, taskID)
	c.mu.Unlock()

	c.publish(events.EventTransferRemoved, task)
	return nil
}

// Clear empties the queue and resets the aggregate progress.
func (c *Coordinator) Clear() error {
	c.mu.Lock()
	if c.running || c.hasStatusLocked(StatusUploading) {
		c.mu.Unlock()
		return ErrUploadInProgress
	}
	c.tasks = nil
	c.tasksByID = make(map[string]*UploadTask)
	c.mu.Unlock()

	if c.eventBus != nil {
		c.eventBus.Publish(&events.TransferEvent{BaseEvent: events.NewBase(events.EventTransferCleared)})
	}
	return nil
}

// Tasks returns a snapshot of every task in enqueue order.
func (c *Coordinator) Tasks() []UploadTask {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]UploadTask, len(c.tasks))
	for i, t := range c.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Len returns the number of queued tasks.
func (c *Coordinator) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tasks)
}

// HasPending reports whether any task is waiting to be started.
func (c *Coordinator) HasPending() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasStatusLocked(StatusPending)
}

// HasUploading reports whether any task is being uploaded.
func (c *Coordinator) HasUploading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasStatusLocked(StatusUploading)
}

// AllProcessed reports whether the queue is non-empty and every task is terminal.
func (c *Coordinator) AllProcessed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.tasks) == 0 {
		return false
	}
	for _, t := range c.tasks {
		if !t.GetStatus().IsTerminal() {
			return false
		}
	}
	return true
}

// SuccessCount returns the number of tasks that uploaded successfully.
func (c *Coordinator) SuccessCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.countLocked(StatusSuccess)
}

// Overall is the aggregate progress: successful tasks over all enqueued
// tasks, as a percentage. An empty queue is at 0.
func (c *Coordinator) Overall() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.overallLocked()
}

func (c *Coordinator) overallLocked() float64 {
	if len(c.tasks) == 0 {
		return 0
	}
	return float64(c.countLocked(StatusSuccess)) / float64(len(c.tasks)) * 100
}

func (c *Coordinator) hasStatusLocked(s Status) bool {
	for _, t := range c.tasks {
		if t.GetStatus() == s {
			return true
		}
	}
	return false
}

func (c *Coordinator) countLocked(s Status) int {
	n := 0
	for _, t := range c.tasks {
		if t.GetStatus() == s {
			n++
		}
	}
	return n
}

// publish sends a TransferEvent carrying the task and the recomputed aggregate.
func (c *Coordinator) publish(eventType events.EventType, task *UploadTask) {
	if c.eventBus == nil {
		return
	}
	snap := task.Clone()
	c.eventBus.Publish(&events.TransferEvent{
		BaseEvent: events.NewBase(eventType),
		TaskID:    snap.ID,
		Name:      snap.File.Name,
		Size:      snap.File.Size,
		Status:    string(snap.Status),
		Progress:  snap.Progress,
		Overall:   c.Overall(),
		Error:     snap.Error,
	})
}

// errorMessage returns the text recorded on a failed task.
func errorMessage(err error) string {
	if msg := api.Message(err); msg != "" {
		return msg
	}
	return constants.MsgUploadFailed
}

// progressReader reports bytes read from a file body to its task.
type progressReader struct {
	rc     io.ReadCloser
	task   *UploadTask
	notify func()
	sent   int64
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	if n > 0 {
		r.sent += int64(n)
		r.task.updateBytes(r.sent)
		r.notify()
	}
	return n, err
}

func (r *progressReader) Close() error {
	return r.rc.Close()
}
