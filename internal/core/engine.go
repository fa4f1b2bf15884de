// Package core wires the configuration, API client, event bus, contents cache
// and the browsing workflows into one Engine shared by the CLI and the GUI.
package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rescale/pdrive/internal/api"
	"github.com/rescale/pdrive/internal/browser"
	"github.com/rescale/pdrive/internal/cache"
	"github.com/rescale/pdrive/internal/config"
	"github.com/rescale/pdrive/internal/constants"
	"github.com/rescale/pdrive/internal/events"
	"github.com/rescale/pdrive/internal/logging"
	"github.com/rescale/pdrive/internal/navigation"
	"github.com/rescale/pdrive/internal/transfer"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithOpener sets how download URLs are opened.
func WithOpener(o browser.Opener) Option {
	return func(e *Engine) { e.opener = o }
}

// WithEventBus makes the engine publish on bus instead of a bus of its own.
func WithEventBus(bus *events.EventBus) Option {
	return func(e *Engine) { e.eventBus = bus }
}

// Engine owns every long-lived component of a session.
type Engine struct {
	eventBus *events.EventBus
	logger   *logging.Logger
	opener   browser.Opener

	mu        sync.RWMutex
	config    *config.Config
	apiClient *api.Client
	contents  *cache.ContentsCache
	browser   *browser.Browser
	tree      *navigation.Tree
	uploads   *transfer.Manager
}

// NewEngine creates an engine for cfg. A nil cfg means the built-in defaults.
func NewEngine(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.eventBus == nil {
		e.eventBus = events.NewEventBus(constants.EventBusDefaultBuffer)
	}
	if e.logger == nil {
		e.logger = logging.NewNopLogger()
	}
	if err := e.build(cfg); err != nil {
		return nil, err
	}
	return e, nil
}

// build creates the client and everything that depends on it.
func (e *Engine) build(cfg *config.Config) error {
	apiClient, err := api.NewClient(cfg, e.logger)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}
	contents := cache.NewContentsCache(apiClient, e.eventBus)
	b := browser.New(apiClient, contents, e.opener, e.eventBus, e.logger)
	tree := navigation.NewTree(apiClient, b, e.eventBus, e.logger)
	uploads := transfer.NewManager(apiClient, e.eventBus, e.logger)

	e.mu.Lock()
	e.config = cfg
	e.apiClient = apiClient
	e.contents = contents
	e.browser = b
	e.tree = tree
	e.uploads = uploads
	e.mu.Unlock()

	uploads.OnComplete(e.uploadsDone)
	return nil
}

// uploadsDone invalidates the destination folder of a finished batch and
// reloads it when it is on screen.
func (e *Engine) uploadsDone(s transfer.Summary) {
	e.Cache().Invalidate(s.FolderID)
	b := e.Browser()
	if current := b.FolderID(); current != nil && *current == s.FolderID {
		ctx, cancel := context.WithTimeout(context.Background(), constants.GUIOperationTimeout)
		defer cancel()
		_ = b.Reload(ctx)
	}
}

// GetConfig returns the current configuration
func (e *Engine) GetConfig() *config.Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config
}

// UpdateConfig switches to a new configuration. Everything built on the old
// API client is replaced; the previous browser state and upload queues are dropped.
func (e *Engine) UpdateConfig(cfg *config.Config, source string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := e.build(cfg); err != nil {
		return err
	}
	e.eventBus.PublishLog(events.InfoLevel, "Configuration updated", "engine", nil)
	e.eventBus.Publish(&events.ConfigChangedEvent{
		BaseEvent:  events.NewBase(events.EventConfigChanged),
		Source:     source,
		APIBaseURL: e.API().BaseURL(),
	})
	return nil
}

// Events returns the event bus for subscriptions
func (e *Engine) Events() *events.EventBus {
	return e.eventBus
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *logging.Logger {
	return e.logger
}

// API returns the API client for direct API calls
func (e *Engine) API() *api.Client {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.apiClient
}

// Cache returns the folder contents cache.
func (e *Engine) Cache() *cache.ContentsCache {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.contents
}

// Browser returns the folder view workflow.
func (e *Engine) Browser() *browser.Browser {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.browser
}

// Tree returns the root folder navigation.
func (e *Engine) Tree() *navigation.Tree {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree
}

// Uploader returns the upload queue for folderID.
func (e *Engine) Uploader(folderID int64) *transfer.Coordinator {
	e.mu.RLock()
	uploads := e.uploads
	e.mu.RUnlock()
	return uploads.ForFolder(folderID)
}

// UploadStats returns counts across every upload queue.
func (e *Engine) UploadStats() transfer.ManagerStats {
	e.mu.RLock()
	uploads := e.uploads
	e.mu.RUnlock()
	return uploads.GetStats()
}

// TestConnection verifies the server answers the folder listing.
func (e *Engine) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	e.eventBus.PublishLog(events.InfoLevel, "Testing API connection...", "engine", nil)
	folders, err := e.API().ListFolders(ctx)
	if err != nil {
		e.eventBus.PublishLog(events.ErrorLevel, "Connection failed", "engine", err)
		return fmt.Errorf("failed to connect to %s: %w", e.API().BaseURL(), err)
	}
	e.eventBus.PublishLog(events.InfoLevel,
		fmt.Sprintf("Connected to %s (%d root folders)", e.API().BaseURL(), len(folders)), "engine", nil)
	return nil
}

// Close releases the event bus. The engine must not be used afterwards.
func (e *Engine) Close() {
	e.eventBus.Close()
}
