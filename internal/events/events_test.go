package events

import (
	"errors"
	"testing"
	"time"
)

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventTransferCompleted)

	bus.Publish(&TransferEvent{
		BaseEvent: NewBase(EventTransferCompleted),
		TaskID:    "task-1",
		Name:      "report.pdf",
		Status:    "success",
		Progress:  100,
		Overall:   50,
	})

	select {
	case received := <-ch:
		te, ok := received.(*TransferEvent)
		if !ok {
			t.Fatal("Expected TransferEvent")
		}
		if te.Name != "report.pdf" {
			t.Errorf("Expected name 'report.pdf', got '%s'", te.Name)
		}
		if te.Overall != 50 {
			t.Errorf("Expected overall 50, got %f", te.Overall)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}
}

func TestEventBus_MultipleSubscribers(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch1 := bus.Subscribe(EventLog)
	ch2 := bus.Subscribe(EventLog)

	bus.PublishLog(InfoLevel, "Test log", "test", nil)

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(100 * time.Millisecond):
			t.Errorf("subscriber %d did not receive the event", i+1)
		}
	}
}

func TestEventBus_DifferentEventTypes(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	browserCh := bus.Subscribe(EventBrowserChanged)
	cacheCh := bus.Subscribe(EventCacheInvalidated)

	bus.PublishBrowserChanged(nil, "placeholder")

	select {
	case <-browserCh:
	case <-time.After(100 * time.Millisecond):
		t.Error("browser subscriber should receive the event")
	}

	select {
	case <-cacheCh:
		t.Error("cache subscriber should not receive a browser event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	allCh := bus.SubscribeAll()

	bus.PublishLog(InfoLevel, "log", "", nil)
	bus.PublishMutationFailed("delete", "folder", "docs", errors.New("not empty"))

	got := 0
	timeout := time.After(200 * time.Millisecond)
	for got < 2 {
		select {
		case <-allCh:
			got++
		case <-timeout:
			t.Fatalf("Expected 2 events, got %d", got)
		}
	}
}

func TestEventBus_NonBlocking(t *testing.T) {
	bus := NewEventBus(1)
	defer bus.Close()

	_ = bus.Subscribe(EventTreeChanged)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.Publish(&TreeChangedEvent{BaseEvent: NewBase(EventTreeChanged), Folders: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	if bus.GetDroppedEventCount() != 9 {
		t.Errorf("Expected 9 dropped events, got %d", bus.GetDroppedEventCount())
	}
	if bus.ResetDroppedEventCount() != 9 || bus.GetDroppedEventCount() != 0 {
		t.Error("ResetDroppedEventCount should return the old count and zero it")
	}
}

func TestEventBus_Close(t *testing.T) {
	bus := NewEventBus(10)
	ch := bus.Subscribe(EventLog)

	bus.Close()

	if _, ok := <-ch; ok {
		t.Error("Channel should be closed")
	}

	// Publishing and subscribing after close must not panic.
	bus.PublishLog(InfoLevel, "after close", "", nil)
	if _, ok := <-bus.SubscribeAll(); ok {
		t.Error("SubscribeAll after close should return a closed channel")
	}
	bus.Close()
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventMutationFailed)
	bus.Unsubscribe(EventMutationFailed, ch)

	bus.PublishMutationFailed("rename", "file", "a.txt", errors.New("conflict"))

	select {
	case <-ch:
		t.Error("unsubscribed channel should not receive events")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBus_UnsubscribeAll(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.SubscribeAll()
	bus.UnsubscribeAll(ch)

	bus.PublishLog(WarnLevel, "ignored", "", nil)

	select {
	case <-ch:
		t.Error("unsubscribed channel should not receive events")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNewEventBus_BufferBounds(t *testing.T) {
	if bus := NewEventBus(0); bus.bufferSize <= 0 {
		t.Error("zero buffer should fall back to the default")
	}
	if bus := NewEventBus(1 << 20); bus.bufferSize > 5000 {
		t.Errorf("buffer should be capped, got %d", bus.bufferSize)
	}
}

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("LogLevel(%d).String() = %s, want %s", tt.level, got, tt.expected)
		}
	}
}

func TestConvenienceMethods(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	mutCh := bus.Subscribe(EventMutationFailed)
	browserCh := bus.Subscribe(EventBrowserChanged)

	cause := errors.New("Folder is not empty")
	bus.PublishMutationFailed("delete", "folder", "docs", cause)
	id := int64(7)
	bus.PublishBrowserChanged(&id, "loaded")

	select {
	case ev := <-mutCh:
		mf := ev.(*MutationFailedEvent)
		if mf.Op != "delete" || mf.Target != "folder" || !errors.Is(mf.Error, cause) {
			t.Errorf("unexpected mutation event: %+v", mf)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for mutation event")
	}

	select {
	case ev := <-browserCh:
		bc := ev.(*BrowserChangedEvent)
		if bc.FolderID == nil || *bc.FolderID != 7 || bc.State != "loaded" {
			t.Errorf("unexpected browser event: %+v", bc)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for browser event")
	}
}
