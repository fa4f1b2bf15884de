package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rescale/pdrive/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventLog EventType = "log"

	// Upload queue events
	EventTransferQueued    EventType = "transfer_queued"    // Task added to queue
	EventTransferStarted   EventType = "transfer_started"   // Task marked uploading
	EventTransferProgress  EventType = "transfer_progress"  // Bytes sent, progress crossed a whole percent
	EventTransferCompleted EventType = "transfer_completed" // Successfully completed
	EventTransferFailed    EventType = "transfer_failed"    // Failed with error
	EventTransferRemoved   EventType = "transfer_removed"   // Pending task removed by the user
	EventTransferCleared   EventType = "transfer_cleared"   // Whole queue cleared
	EventUploadBatchDone   EventType = "upload_batch_done"  // Every task of a batch is terminal

	// Browsing events
	EventBrowserChanged   EventType = "browser_changed"   // Folder view state changed, re-render
	EventTreeChanged      EventType = "tree_changed"      // Root folder list changed
	EventCacheInvalidated EventType = "cache_invalidated" // Folder contents entry dropped
	EventMutationFailed   EventType = "mutation_failed"   // Create/rename/delete rejected

	// Published when the API base URL or proxy settings change at runtime.
	EventConfigChanged EventType = "config_changed"
)

// LogLevel defines log severity levels
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// NewBase stamps an event of the given type with the current time.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, Time: time.Now()}
}

// LogEvent represents log messages
type LogEvent struct {
	BaseEvent
	Level   LogLevel
	Message string
	Source  string
	Error   error
}

// TransferEvent represents a status change of one upload task.
// Overall is the batch's aggregate progress (0..100) after the change.
type TransferEvent struct {
	BaseEvent
	TaskID   string
	Name     string
	Size     int64
	Status   string
	Progress float64 // 0..100
	Overall  float64 // 0..100
	Error    string
}

// UploadBatchEvent is published once per batch when every task is terminal.
type UploadBatchEvent struct {
	BaseEvent
	FolderID  int64
	Total     int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// BrowserChangedEvent tells renderers to redraw the folder view.
type BrowserChangedEvent struct {
	BaseEvent
	FolderID *int64
	State    string
}

// TreeChangedEvent tells renderers to redraw the folder tree.
type TreeChangedEvent struct {
	BaseEvent
	Folders int
}

// CacheInvalidatedEvent is published when a folder's cached contents are dropped.
type CacheInvalidatedEvent struct {
	BaseEvent
	FolderID int64
}

// MutationFailedEvent reports a rejected create, rename or delete.
type MutationFailedEvent struct {
	BaseEvent
	Op     string // "create", "rename", "delete"
	Target string // "folder" or "file"
	Name   string
	Error  error
}

// ConfigChangedEvent represents configuration changes.
// Subscribers should drop caches built against the old server.
type ConfigChangedEvent struct {
	BaseEvent
	Source     string // "flag", "env", "file", "gui"
	APIBaseURL string
}

// EventBus fans events out to buffered subscriber channels. Publish never
// blocks: an event that does not fit a subscriber's buffer is dropped and
// counted.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]chan Event
	all         []chan Event
	bufferSize  int
	closed      bool

	dropped atomic.Int64
}

// NewEventBus creates a bus whose subscriber channels hold bufferSize events,
// clamped to (0, constants.EventBusMaxBuffer].
func NewEventBus(bufferSize int) *EventBus {
	switch {
	case bufferSize <= 0:
		bufferSize = constants.EventBusDefaultBuffer
	case bufferSize > constants.EventBusMaxBuffer:
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe returns a channel receiving events of eventType. On a closed bus
// the channel is already closed.
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := eb.newChan()
	if ch != nil {
		eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
		return ch
	}
	return closedChan()
}

// SubscribeAll returns a channel receiving every event.
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := eb.newChan()
	if ch != nil {
		eb.all = append(eb.all, ch)
		return ch
	}
	return closedChan()
}

// newChan returns nil once the bus is closed. eb.mu must be held.
func (eb *EventBus) newChan() chan Event {
	if eb.closed {
		return nil
	}
	return make(chan Event, eb.bufferSize)
}

func closedChan() <-chan Event {
	ch := make(chan Event)
	close(ch)
	return ch
}

// Publish delivers event to the subscribers of its type and to every
// SubscribeAll channel. Publishing on a closed bus is a no-op.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}
	eb.deliver(eb.subscribers[event.Type()], event)
	eb.deliver(eb.all, event)
}

func (eb *EventBus) deliver(chans []chan Event, event Event) {
	for _, ch := range chans {
		select {
		case ch <- event:
		default:
			eb.dropped.Add(1)
		}
	}
}

// Close closes every subscriber channel. Subscribers see their channel close
// and should return.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}
	eb.closed = true

	for _, chans := range eb.subscribers {
		for _, ch := range chans {
			close(ch)
		}
	}
	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishLog is a convenience method for publishing log events
func (eb *EventBus) PublishLog(level LogLevel, message, source string, err error) {
	eb.Publish(&LogEvent{
		BaseEvent: NewBase(EventLog),
		Level:     level,
		Message:   message,
		Source:    source,
		Error:     err,
	})
}

// PublishBrowserChanged is a convenience method for view redraw notifications
func (eb *EventBus) PublishBrowserChanged(folderID *int64, state string) {
	eb.Publish(&BrowserChangedEvent{
		BaseEvent: NewBase(EventBrowserChanged),
		FolderID:  folderID,
		State:     state,
	})
}

// PublishMutationFailed is a convenience method for rejected mutations
func (eb *EventBus) PublishMutationFailed(op, target, name string, err error) {
	eb.Publish(&MutationFailedEvent{
		BaseEvent: NewBase(EventMutationFailed),
		Op:        op,
		Target:    target,
		Name:      name,
		Error:     err,
	})
}

// Unsubscribe stops delivering eventType to ch. The channel is not closed.
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}
	eb.subscribers[eventType] = without(eb.subscribers[eventType], ch)
}

// UnsubscribeAll removes ch wherever it is subscribed, including SubscribeAll.
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}
	for eventType, chans := range eb.subscribers {
		eb.subscribers[eventType] = without(chans, ch)
	}
	eb.all = without(eb.all, ch)
}

// without swap-removes ch from chans. Order is not preserved.
func without(chans []chan Event, ch <-chan Event) []chan Event {
	for i, c := range chans {
		if c == ch {
			last := len(chans) - 1
			chans[i] = chans[last]
			return chans[:last]
		}
	}
	return chans
}

// GetDroppedEventCount returns how many events were dropped on full buffers.
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.dropped.Load()
}

// ResetDroppedEventCount zeroes the drop counter and returns its old value.
func (eb *EventBus) ResetDroppedEventCount() int64 {
	return eb.dropped.Swap(0)
}
