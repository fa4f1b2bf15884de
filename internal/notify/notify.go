// Package notify sends desktop notifications when upload batches and
// downloads finish. It uses github.com/gen2brain/beeep for cross-platform support.
package notify

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/rescale/pdrive/internal/constants"
	"github.com/rescale/pdrive/internal/events"
	"github.com/rescale/pdrive/internal/logging"
	stringsutil "github.com/rescale/pdrive/internal/util/strings"
)

// Notifier handles desktop notifications.
type Notifier struct {
	logger *logging.Logger
	cfg    Config
	mu     sync.RWMutex

	// send delivers one notification; replaced in tests.
	send func(title, message string) error
}

// Config holds notification configuration.
type Config struct {
	// Enabled determines if notifications are sent.
	Enabled bool

	// ShowUploadComplete notifies when every upload of a batch succeeded.
	ShowUploadComplete bool

	// ShowUploadFailed notifies when at least one upload of a batch failed.
	ShowUploadFailed bool

	// ShowDownloadComplete notifies when a download to disk finished.
	ShowDownloadComplete bool
}

// DefaultConfig returns the default notification configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:              true,
		ShowUploadComplete:   true,
		ShowUploadFailed:     true,
		ShowDownloadComplete: false, // the CLI prints the path already
	}
}

// NewNotifier creates a new notifier with the given configuration.
func NewNotifier(cfg *Config, logger *logging.Logger) *Notifier {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Notifier{
		logger: logger,
		cfg:    *cfg,
		send: func(title, message string) error {
			// beeep.Notify is cross-platform:
			// - Windows: Uses toast notifications
			// - macOS: Uses NSUserNotificationCenter
			// - Linux: Uses D-Bus notifications
			return beeep.Notify(title, message, "")
		},
	}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cfg.Enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.cfg.Enabled
}

func (n *Notifier) config() Config {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.cfg
}

// UploadBatchDone notifies about a finished upload batch into folder.
func (n *Notifier) UploadBatchDone(folder string, succeeded, failed int) {
	cfg := n.config()
	if !cfg.Enabled || succeeded+failed == 0 {
		return
	}

	var title, message string
	if failed == 0 {
		if !cfg.ShowUploadComplete {
			return
		}
		title = "Upload Complete"
		message = fmt.Sprintf("%s uploaded successfully to \"%s\".",
			stringsutil.CountNoun(int64(succeeded), "file"), stringsutil.Truncate(folder, 40))
	} else {
		if !cfg.ShowUploadFailed {
			return
		}
		title = constants.MsgUploadFailed
		message = fmt.Sprintf("%d of %d uploads to \"%s\" failed.",
			failed, succeeded+failed, stringsutil.Truncate(folder, 40))
	}

	if err := n.send(title, message); err != nil {
		n.logger.Warn().Err(err).Str("folder", folder).Msg("Failed to send upload notification")
	}
}

// DownloadComplete sends a notification for a download saved to outputPath.
func (n *Notifier) DownloadComplete(fileName, outputPath string) {
	cfg := n.config()
	if !cfg.Enabled || !cfg.ShowDownloadComplete {
		return
	}

	title := "Download Complete"
	message := fmt.Sprintf("\"%s\" saved to:\n%s", stringsutil.Truncate(fileName, 40), shortenPath(outputPath))

	if err := n.send(title, message); err != nil {
		n.logger.Warn().Err(err).Str("file", fileName).Msg("Failed to send download notification")
	}
}

// Follow sends UploadBatchDone for every batch event on bus until stop is
// called. folderName maps a folder id to the name shown in the notification.
func (n *Notifier) Follow(bus *events.EventBus, folderName func(id int64) string) (stop func()) {
	ch := bus.Subscribe(events.EventUploadBatchDone)
	done := make(chan struct{})
	var once sync.Once
	stop = func() { once.Do(func() { close(done) }) }

	go func() {
		defer bus.Unsubscribe(events.EventUploadBatchDone, ch)
		for {
			select {
			case <-done:
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				batch, isBatch := ev.(*events.UploadBatchEvent)
				if !isBatch {
					continue
				}
				name := fmt.Sprintf("folder %d", batch.FolderID)
				if folderName != nil {
					if s := folderName(batch.FolderID); s != "" {
						name = s
					}
				}
				n.UploadBatchDone(name, batch.Succeeded, batch.Failed)
			}
		}
	}()
	return stop
}

// shortenPath abbreviates a long path for display in notifications.
func shortenPath(path string) string {
	const maxLen = 60

	if len(path) <= maxLen {
		return path
	}

	// Try to show drive/root + ... + last 2 path components
	_, file := filepath.Split(path)
	parentDir := filepath.Base(filepath.Dir(path))
	short := filepath.Join("...", parentDir, file)

	vol := filepath.VolumeName(path)
	if vol != "" && len(vol)+len(short)+1 <= maxLen {
		short = vol + string(filepath.Separator) + short
	}

	// If still too long, just truncate
	if len(short) > maxLen {
		return "..." + path[len(path)-(maxLen-3):]
	}
	return short
}

// Beep plays the system beep. Used by the CLI when a long batch ends.
func (n *Notifier) Beep() {
	if !n.IsEnabled() {
		return
	}
	_ = beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
}
