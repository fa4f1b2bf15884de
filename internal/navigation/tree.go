// Package navigation holds the folder tree in the sidebar: the list of root
// folders, the selection, and root folder creation.
package navigation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rescale/pdrive/internal/api"
	"github.com/rescale/pdrive/internal/events"
	"github.com/rescale/pdrive/internal/logging"
	"github.com/rescale/pdrive/internal/models"
)

// Client is the subset of the API the tree needs.
type Client interface {
	ListFolders(ctx context.Context) ([]models.Folder, error)
	CreateFolder(ctx context.Context, name string, parentID *int64) (*models.Folder, error)
}

// Loader shows a folder. *browser.Browser implements it.
type Loader interface {
	Load(ctx context.Context, id *int64) error
}

// Tree is the root folder list plus the current selection.
type Tree struct {
	client   Client
	loader   Loader
	eventBus *events.EventBus
	logger   *logging.Logger

	mu       sync.RWMutex
	folders  []models.Folder
	loaded   bool
	loading  bool
	err      error
	selected *int64
}

// Snapshot is a copy of the tree state for rendering.
type Snapshot struct {
	Folders  []models.Folder
	Loaded   bool
	Loading  bool
	Error    string
	Selected *int64
}

// NewTree creates an unloaded tree. bus and logger may be nil.
func NewTree(client Client, loader Loader, bus *events.EventBus, logger *logging.Logger) *Tree {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Tree{client: client, loader: loader, eventBus: bus, logger: logger}
}

// Load fetches the root folders the first time it is called.
func (t *Tree) Load(ctx context.Context) error {
	t.mu.RLock()
	loaded := t.loaded
	t.mu.RUnlock()
	if loaded {
		return nil
	}
	return t.Refetch(ctx)
}

// Refetch fetches the root folders unconditionally.
func (t *Tree) Refetch(ctx context.Context) error {
	t.mu.Lock()
	t.loading = true
	t.mu.Unlock()

	folders, err := t.client.ListFolders(ctx)

	t.mu.Lock()
	t.loading = false
	t.err = err
	if err == nil {
		t.folders = folders
		t.loaded = true
	}
	n := len(t.folders)
	t.mu.Unlock()

	if err != nil {
		t.logger.Warn().Err(err).Msg("Failed to load folders")
	}
	if t.eventBus != nil {
		t.eventBus.Publish(&events.TreeChangedEvent{
			BaseEvent: events.NewBase(events.EventTreeChanged),
			Folders:   n,
		})
	}
	return err
}

// Select marks folder id as selected and shows it in the folder view.
func (t *Tree) Select(ctx context.Context, id int64) error {
	t.mu.Lock()
	t.selected = &id
	t.mu.Unlock()
	if t.loader == nil {
		return errors.New("no folder view attached")
	}
	return t.loader.Load(ctx, &id)
}

// CreateRootFolder creates a folder with no parent and refetches the list.
// A name that is empty after trimming is a no-op.
func (t *Tree) CreateRootFolder(ctx context.Context, name string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	folder, err := t.client.CreateFolder(ctx, name, nil)
	if err != nil {
		t.logger.Warn().Err(err).Str("name", name).Msg("Failed to create folder")
		if t.eventBus != nil {
			t.eventBus.PublishMutationFailed("create", "folder", name, err)
		}
		return nil, err
	}
	t.logger.Info().Str("name", name).Msg("Root folder created")
	if err := t.Refetch(ctx); err != nil {
		return folder, err
	}
	return folder, nil
}

// Folders returns the root folders.
func (t *Tree) Folders() []models.Folder {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]models.Folder(nil), t.folders...)
}

// Snapshot returns the tree state for rendering.
func (t *Tree) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := Snapshot{
		Folders: append([]models.Folder(nil), t.folders...),
		Loaded:  t.loaded,
		Loading: t.loading,
	}
	if t.err != nil {
		s.Error = api.Message(t.err)
	}
	if t.selected != nil {
		id := *t.selected
		s.Selected = &id
	}
	return s
}
