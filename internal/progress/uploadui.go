package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/rescale/pdrive/internal/events"
	"github.com/rescale/pdrive/internal/util/format"
)

// UploadUI renders one progress bar per upload task from the transfer events
// of a batch. On a non-terminal writer it prints one line per state change.
type UploadUI struct {
	progress    *mpb.Progress
	out         io.Writer
	isTerminal  bool
	totalFiles  int
	destination string

	mu         sync.Mutex
	bars       map[string]*FileBar // task id -> bar
	followDone chan struct{}       // closed when the Follow goroutine exits
	started    int32               // 1-based index of the last started file
	completed  int32
	failed     int32
}

// FileBar represents a single file upload progress bar
type FileBar struct {
	bar        *mpb.Bar
	ui         *UploadUI
	index      int
	name       string
	size       int64
	startTime  time.Time
	lastUpdate time.Time
	lastBytes  int64
}

// NewUploadUI creates an upload UI for totalFiles files going to destination.
// Bars are drawn when out is a terminal.
func NewUploadUI(totalFiles int, destination string, out io.Writer) *UploadUI {
	isTerminal := false
	if f, ok := out.(*os.File); ok {
		isTerminal = term.IsTerminal(int(f.Fd()))
		if isTerminal {
			// Enable ANSI escape sequences on Windows for proper progress bar rendering
			enableANSIOnWindows(f)
		}
	}

	var p *mpb.Progress
	if isTerminal {
		p = mpb.New(
			mpb.WithOutput(out),
			mpb.WithRefreshRate(300*time.Millisecond),
			mpb.WithWidth(100),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &UploadUI{
		progress:    p,
		out:         out,
		isTerminal:  isTerminal,
		totalFiles:  totalFiles,
		destination: destination,
		bars:        make(map[string]*FileBar),
	}
}

// Follow renders transfer events from bus until the batch finishes or stop is
// called. Wait blocks until then.
func (u *UploadUI) Follow(bus *events.EventBus) (stop func()) {
	ch := bus.SubscribeAll()
	done := make(chan struct{})
	var once sync.Once
	stop = func() { once.Do(func() { close(done) }) }

	followDone := make(chan struct{})
	u.mu.Lock()
	u.followDone = followDone
	u.mu.Unlock()

	go func() {
		defer close(followDone)
		defer bus.UnsubscribeAll(ch)
		for {
			select {
			case <-done:
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if te, isTransfer := ev.(*events.TransferEvent); isTransfer {
					u.HandleEvent(te)
				}
				if ev.Type() == events.EventUploadBatchDone {
					stop()
					return
				}
			}
		}
	}()
	return stop
}

// HandleEvent applies one transfer event to the bars.
func (u *UploadUI) HandleEvent(ev *events.TransferEvent) {
	switch ev.Type() {
	case events.EventTransferStarted:
		u.addFileBar(ev.TaskID, ev.Name, ev.Size)
	case events.EventTransferProgress:
		if fb := u.bar(ev.TaskID); fb != nil {
			fb.UpdateProgress(ev.Progress / 100)
		}
	case events.EventTransferCompleted:
		if fb := u.bar(ev.TaskID); fb != nil {
			fb.Complete(nil)
		}
	case events.EventTransferFailed:
		if fb := u.bar(ev.TaskID); fb != nil {
			fb.Complete(fmt.Errorf("%s", ev.Error))
		}
	}
}

func (u *UploadUI) bar(taskID string) *FileBar {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.bars[taskID]
}

// addFileBar creates a new progress bar for a file upload
func (u *UploadUI) addFileBar(taskID, name string, size int64) *FileBar {
	index := int(atomic.AddInt32(&u.started, 1))

	fb := &FileBar{
		ui:         u,
		index:      index,
		name:       name,
		size:       size,
		startTime:  time.Now(),
		lastUpdate: time.Now(),
	}

	if u.isTerminal {
		total := size
		if total <= 0 {
			total = 1
		}
		fb.bar = u.progress.New(total,
			mpb.BarStyle().
				Lbound("[").
				Filler("█").
				Tip("█").
				Padding("░").
				Rbound("]"),
			mpb.PrependDecorators(
				decor.Name(fmt.Sprintf("[%d/%d] %s (%s) → %s",
					index, u.totalFiles, truncatePath(name, 2), format.FileSize(size), u.destination),
					decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
				decor.Name("  "),
				decor.Percentage(decor.WCSyncSpace),
				decor.Name("  "),
				decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 30, decor.WCSyncSpace),
			),
			mpb.BarRemoveOnComplete(),
		)
	} else {
		fmt.Fprintf(u.out, "Uploading [%d/%d]: %s (%s) → %s\n",
			index, u.totalFiles, name, format.FileSize(size), u.destination)
	}

	u.mu.Lock()
	u.bars[taskID] = fb
	u.mu.Unlock()
	return fb
}

// UpdateProgress updates the progress bar based on a fraction (0.0 to 1.0).
// Updates are throttled to one per 300ms.
func (f *FileBar) UpdateProgress(fraction float64) {
	if f.bar == nil {
		return
	}

	now := time.Now()
	elapsed := now.Sub(f.lastUpdate)
	currentBytes := int64(fraction * float64(f.size))

	const updateInterval = 300 * time.Millisecond
	if elapsed >= updateInterval {
		f.bar.EwmaIncrBy(int(currentBytes-f.lastBytes), elapsed)
		f.lastBytes = currentBytes
		f.lastUpdate = now
	}
}

// Complete marks the upload as finished and prints a summary line
func (f *FileBar) Complete(err error) {
	elapsed := time.Since(f.startTime)

	var msg string
	if err == nil {
		if f.bar != nil {
			f.bar.SetTotal(-1, true)
		}
		msg = fmt.Sprintf("✓ %s → %s (%s, %s)\n",
			f.name, f.ui.destination, format.FileSize(f.size), elapsed.Round(time.Millisecond))
		atomic.AddInt32(&f.ui.completed, 1)
	} else {
		if f.bar != nil {
			f.bar.Abort(false)
		}
		msg = fmt.Sprintf("✗ %s → %s: %v\n", f.name, f.ui.destination, err)
		atomic.AddInt32(&f.ui.failed, 1)
	}

	// Write through mpb's writer so bars are not garbled
	fmt.Fprint(f.ui.Writer(), msg)
}

// followGrace bounds how long Wait waits for a followed batch to report done.
const followGrace = 5 * time.Second

// Wait blocks until the followed batch has been rendered and all progress
// bars complete.
func (u *UploadUI) Wait() {
	u.mu.Lock()
	followDone := u.followDone
	u.mu.Unlock()
	if followDone != nil {
		select {
		case <-followDone:
		case <-time.After(followGrace):
		}
	}
	if u.progress != nil {
		u.progress.Wait()
	}
}

// Writer returns an io.Writer that prints above the progress bars.
func (u *UploadUI) Writer() io.Writer {
	if u.isTerminal {
		return u.progress
	}
	return u.out
}

// IsTerminal returns true if output is to a terminal (progress bars are active).
func (u *UploadUI) IsTerminal() bool {
	return u.isTerminal
}

// Counts returns how many uploads finished and how many of them failed.
func (u *UploadUI) Counts() (completed, failed int) {
	return int(atomic.LoadInt32(&u.completed)), int(atomic.LoadInt32(&u.failed))
}

// truncatePath truncates a file path to show only the last N components
// Example: truncatePath("/a/b/c/d/file.txt", 3) → "…/c/d/file.txt"
func truncatePath(path string, maxComponents int) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= maxComponents {
		return path
	}
	relevant := parts[len(parts)-maxComponents:]
	return "…/" + strings.Join(relevant, "/")
}

// enableANSIOnWindows enables Virtual Terminal processing on Windows for ANSI escape sequences
func enableANSIOnWindows(f *os.File) {
	if runtime.GOOS == "windows" {
		enableWindowsANSI(f)
	}
}
