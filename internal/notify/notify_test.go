package notify

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rescale/pdrive/internal/events"
)

type sent struct {
	title, message string
}

func recordingNotifier(cfg *Config) (*Notifier, *[]sent, *sync.Mutex) {
	n := NewNotifier(cfg, nil)
	var mu sync.Mutex
	var out []sent
	n.send = func(title, message string) error {
		mu.Lock()
		defer mu.Unlock()
		out = append(out, sent{title, message})
		return nil
	}
	return n, &out, &mu
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Enabled {
		t.Error("Expected Enabled to be true by default")
	}
	if !cfg.ShowUploadComplete || !cfg.ShowUploadFailed {
		t.Error("Expected upload notifications to be on by default")
	}
	if cfg.ShowDownloadComplete {
		t.Error("Expected ShowDownloadComplete to be false by default")
	}
}

func TestShortenPath(t *testing.T) {
	tests := []struct {
		input string
		short bool // expect it to be shortened
	}{
		{"/short/path", false},
		{"/a/very/long/path/that/exceeds/the/maximum/length/for/notification/display/file.txt", true},
	}

	for _, tt := range tests {
		result := shortenPath(tt.input)
		if tt.short && len(result) >= len(tt.input) {
			t.Errorf("shortenPath(%q) was not shortened: %q", tt.input, result)
		}
		if !tt.short && result != tt.input {
			t.Errorf("shortenPath(%q) = %q, want unchanged", tt.input, result)
		}
	}
}

func TestSetEnabled(t *testing.T) {
	n := NewNotifier(nil, nil)

	if !n.IsEnabled() {
		t.Error("Expected initially enabled")
	}
	n.SetEnabled(false)
	if n.IsEnabled() {
		t.Error("Expected disabled after SetEnabled(false)")
	}
	n.SetEnabled(true)
	if !n.IsEnabled() {
		t.Error("Expected enabled after SetEnabled(true)")
	}
}

func TestUploadBatchDone(t *testing.T) {
	tests := []struct {
		name      string
		succeeded int
		failed    int
		wantTitle string
		wantText  string
	}{
		{"all succeeded", 3, 0, "Upload Complete", "3 files uploaded successfully"},
		{"single file", 1, 0, "Upload Complete", "1 file uploaded successfully"},
		{"some failed", 2, 1, "Upload failed", "1 of 3 uploads"},
		{"all failed", 0, 2, "Upload failed", "2 of 2 uploads"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, out, _ := recordingNotifier(nil)
			n.UploadBatchDone("Photos", tt.succeeded, tt.failed)

			if len(*out) != 1 {
				t.Fatalf("expected 1 notification, got %d", len(*out))
			}
			got := (*out)[0]
			if got.title != tt.wantTitle {
				t.Errorf("title = %q, want %q", got.title, tt.wantTitle)
			}
			if !strings.Contains(got.message, tt.wantText) || !strings.Contains(got.message, "Photos") {
				t.Errorf("message = %q, want it to contain %q", got.message, tt.wantText)
			}
		})
	}
}

func TestNotifierDisabled_NoSend(t *testing.T) {
	n, out, _ := recordingNotifier(&Config{Enabled: false, ShowUploadComplete: true, ShowDownloadComplete: true})

	n.UploadBatchDone("Photos", 1, 0)
	n.DownloadComplete("a.txt", "/tmp/a.txt")
	n.Beep()

	if len(*out) != 0 {
		t.Errorf("expected no notifications, got %v", *out)
	}
}

func TestEmptyBatchIsSilent(t *testing.T) {
	n, out, _ := recordingNotifier(nil)
	n.UploadBatchDone("Photos", 0, 0)
	if len(*out) != 0 {
		t.Errorf("expected no notifications, got %v", *out)
	}
}

func TestFollowNotifiesOnBatchEvents(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()
	n, out, mu := recordingNotifier(nil)

	stop := n.Follow(bus, func(id int64) string { return "Docs" })
	defer stop()

	bus.Publish(&events.UploadBatchEvent{
		BaseEvent: events.NewBase(events.EventUploadBatchDone),
		FolderID:  4,
		Total:     2,
		Succeeded: 2,
	})

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		count := len(*out)
		mu.Unlock()
		if count == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for notification")
		}
		time.Sleep(5 * time.Millisecond)
	}
	mu.Lock()
	defer mu.Unlock()
	if !strings.Contains((*out)[0].message, "Docs") {
		t.Errorf("unexpected message %q", (*out)[0].message)
	}
}
