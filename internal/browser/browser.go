// Package browser holds the folder view workflow: loading a folder's contents,
// the context menu, and the create, rename, delete and download operations.
// It has no UI dependencies; the CLI and the GUI render its View.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rescale/pdrive/internal/api"
	"github.com/rescale/pdrive/internal/events"
	"github.com/rescale/pdrive/internal/logging"
	"github.com/rescale/pdrive/internal/models"
)

var (
	// ErrNoFolder is returned by operations that need a current folder.
	ErrNoFolder = errors.New("no folder selected")

	// ErrNoSelection is returned by rename and delete when no menu target is set.
	ErrNoSelection = errors.New("no item selected")
)

// Client is the subset of the API the browser mutates through.
type Client interface {
	CreateFolder(ctx context.Context, name string, parentID *int64) (*models.Folder, error)
	RenameFolder(ctx context.Context, id int64, name string) (*models.Folder, error)
	RenameFile(ctx context.Context, id int64, name string) (*models.File, error)
	DeleteFolder(ctx context.Context, id int64) error
	DeleteFile(ctx context.Context, id int64) error
	ResolveDownloadURL(file *models.File) (string, error)
}

// ContentsSource is the read-through folder contents cache.
type ContentsSource interface {
	Contents(ctx context.Context, id int64) (*models.FolderContents, error)
	Invalidate(id int64)
}

// Opener hands a URL to something that can show it, such as the system browser.
type Opener interface {
	Open(url string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(url string) error

func (f OpenerFunc) Open(url string) error { return f(url) }

// Browser is the state machine behind the folder view. Mutations never patch
// the listing locally: they invalidate the cached contents and reload.
type Browser struct {
	client   Client
	contents ContentsSource
	opener   Opener
	eventBus *events.EventBus
	logger   *logging.Logger

	mu           sync.Mutex
	folderID     *int64
	state        State
	current      *models.FolderContents
	errMsg       string
	banner       string
	menu         *ContextMenuSelection
	createDialog Dialog
	renameDialog Dialog
	generation   uint64 // bumped per Load; stale results are dropped
}

// New creates a browser with no folder selected. bus, opener and logger may be nil.
func New(client Client, contents ContentsSource, opener Opener, bus *events.EventBus, logger *logging.Logger) *Browser {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Browser{
		client:   client,
		contents: contents,
		opener:   opener,
		eventBus: bus,
		logger:   logger,
		state:    StatePlaceholder,
	}
}

// Load shows folder id. A nil id shows the placeholder without fetching.
// Fetch errors put the view into the error (or not-found) state and are also
// returned; nothing is retried.
func (b *Browser) Load(ctx context.Context, id *int64) error {
	b.mu.Lock()
	b.generation++
	gen := b.generation
	if id == nil {
		b.folderID = nil
		b.current = nil
		b.errMsg = ""
		b.menu = nil
		b.state = StatePlaceholder
		b.mu.Unlock()
		b.changed()
		return nil
	}
	folderID := *id
	if b.folderID == nil || *b.folderID != folderID {
		b.menu = nil
		b.banner = ""
	}
	b.folderID = &folderID
	b.state = StateLoading
	b.errMsg = ""
	b.mu.Unlock()
	b.changed()

	contents, err := b.contents.Contents(ctx, folderID)

	b.mu.Lock()
	if gen != b.generation {
		b.mu.Unlock()
		b.logger.Debug().Int64("folder_id", folderID).Msg("Discarding stale folder load")
		return nil
	}
	switch {
	case err == nil:
		b.current = contents
		b.state = StateLoaded
	case api.IsNotFound(err):
		b.current = nil
		b.state = StateNotFound
		b.errMsg = api.Message(err)
	default:
		b.current = nil
		b.state = StateError
		b.errMsg = api.Message(err)
	}
	b.mu.Unlock()
	b.changed()

	if err != nil {
		b.logger.Warn().Err(err).Int64("folder_id", folderID).Msg("Failed to load folder")
		return err
	}
	return nil
}

// Open navigates into folder id.
func (b *Browser) Open(ctx context.Context, id int64) error {
	return b.Load(ctx, &id)
}

// Reload refetches the current folder.
func (b *Browser) Reload(ctx context.Context) error {
	return b.Load(ctx, b.FolderID())
}

// FolderID returns the current folder, or nil.
func (b *Browser) FolderID() *int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.folderID == nil {
		return nil
	}
	id := *b.folderID
	return &id
}

// OpenCreateDialog opens the new-folder dialog with an empty input.
func (b *Browser) OpenCreateDialog() {
	b.mu.Lock()
	b.createDialog = Dialog{Open: true}
	b.mu.Unlock()
	b.changed()
}

// SetCreateInput records what the user typed into the new-folder dialog.
func (b *Browser) SetCreateInput(s string) {
	b.mu.Lock()
	b.createDialog.Input = s
	b.mu.Unlock()
}

// CancelCreateDialog closes the new-folder dialog and clears its input.
func (b *Browser) CancelCreateDialog() {
	b.mu.Lock()
	b.createDialog = Dialog{}
	b.mu.Unlock()
	b.changed()
}

// CreateFolder creates a subfolder of the current folder. A name that is empty
// after trimming is a no-op: no request, and the dialog stays as it is. On
// failure the dialog stays open with its input and the error is surfaced.
func (b *Browser) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	parent := b.FolderID()
	if parent == nil {
		return nil, ErrNoFolder
	}

	folder, err := b.client.CreateFolder(ctx, name, parent)
	if err != nil {
		b.mu.Lock()
		b.createDialog.Input = name
		b.mu.Unlock()
		b.mutationFailed("create", "folder", name, err)
		return nil, err
	}

	b.contents.Invalidate(*parent)
	b.mu.Lock()
	b.createDialog = Dialog{}
	b.banner = ""
	b.mu.Unlock()
	b.logger.Info().Str("name", name).Int64("parent_id", *parent).Msg("Folder created")

	// The mutation succeeded; a failed reload shows up as the error state.
	_ = b.Reload(ctx)
	return folder, nil
}

// OpenContextMenu binds the context menu to target at (x, y), replacing any
// previous binding.
func (b *Browser) OpenContextMenu(x, y float32, target Target) {
	b.mu.Lock()
	b.menu = &ContextMenuSelection{X: x, Y: y, Target: target}
	b.mu.Unlock()
	b.changed()
}

// CloseContextMenu clears the menu binding.
func (b *Browser) CloseContextMenu() {
	b.mu.Lock()
	b.menu = nil
	b.mu.Unlock()
	b.changed()
}

// BeginRename opens the rename dialog for the menu's target, pre-filled with
// its current name, and closes the menu.
func (b *Browser) BeginRename() error {
	b.mu.Lock()
	if b.menu == nil {
		b.mu.Unlock()
		return ErrNoSelection
	}
	target := b.menu.Target
	b.renameDialog = Dialog{Open: true, Input: target.TargetName(), Target: target}
	b.menu = nil
	b.mu.Unlock()
	b.changed()
	return nil
}

// SetRenameInput records what the user typed into the rename dialog.
func (b *Browser) SetRenameInput(s string) {
	b.mu.Lock()
	b.renameDialog.Input = s
	b.mu.Unlock()
}

// CancelRename closes the rename dialog.
func (b *Browser) CancelRename() {
	b.mu.Lock()
	b.renameDialog = Dialog{}
	b.mu.Unlock()
	b.changed()
}

// Rename renames the rename dialog's target, or the menu's target when no
// dialog is open. A name that is empty after trimming is a no-op.
func (b *Browser) Rename(ctx context.Context, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil
	}
	b.mu.Lock()
	target := b.renameDialog.Target
	if target == nil && b.menu != nil {
		target = b.menu.Target
	}
	b.mu.Unlock()
	if target == nil {
		return ErrNoSelection
	}

	var err error
	switch t := target.(type) {
	case FolderTarget:
		_, err = b.client.RenameFolder(ctx, t.ID, newName)
	case FileTarget:
		_, err = b.client.RenameFile(ctx, t.ID, newName)
	default:
		err = fmt.Errorf("unsupported rename target %T", target)
	}
	if err != nil {
		b.mu.Lock()
		b.renameDialog.Input = newName
		b.mu.Unlock()
		b.mutationFailed("rename", target.Kind(), target.TargetName(), err)
		return err
	}

	b.invalidateAfter(target)
	b.mu.Lock()
	b.renameDialog = Dialog{}
	b.menu = nil
	b.banner = ""
	b.mu.Unlock()
	b.logger.Info().Str(target.Kind(), target.TargetName()).Str("new_name", newName).Msg("Renamed")

	_ = b.Reload(ctx)
	return nil
}

// Delete deletes the menu's target. Server rejections (such as a non-empty
// folder) are surfaced and nothing else is touched.
func (b *Browser) Delete(ctx context.Context) error {
	b.mu.Lock()
	var target Target
	if b.menu != nil {
		target = b.menu.Target
	}
	b.mu.Unlock()
	if target == nil {
		return ErrNoSelection
	}

	var err error
	switch t := target.(type) {
	case FolderTarget:
		err = b.client.DeleteFolder(ctx, t.ID)
	case FileTarget:
		err = b.client.DeleteFile(ctx, t.ID)
	default:
		err = fmt.Errorf("unsupported delete target %T", target)
	}
	if err != nil {
		b.mutationFailed("delete", target.Kind(), target.TargetName(), err)
		return err
	}

	b.invalidateAfter(target)
	b.mu.Lock()
	b.menu = nil
	b.banner = ""
	b.mu.Unlock()
	b.logger.Info().Str(target.Kind(), target.TargetName()).Msg("Deleted")

	_ = b.Reload(ctx)
	return nil
}

// Download resolves the file's download URL against the configured origin and
// hands it to the opener.
func (b *Browser) Download(file *models.File) (string, error) {
	url, err := b.client.ResolveDownloadURL(file)
	if err != nil {
		return "", err
	}
	if b.opener != nil {
		if err := b.opener.Open(url); err != nil {
			return url, fmt.Errorf("failed to open %s: %w", url, err)
		}
	}
	return url, nil
}

// DismissBanner clears the mutation error banner.
func (b *Browser) DismissBanner() {
	b.mu.Lock()
	b.banner = ""
	b.mu.Unlock()
	b.changed()
}

// View returns a snapshot of the current state.
func (b *Browser) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := View{
		State:        b.state,
		Error:        b.errMsg,
		Banner:       b.banner,
		CreateDialog: b.createDialog,
		RenameDialog: b.renameDialog,
	}
	if b.folderID != nil {
		id := *b.folderID
		v.FolderID = &id
	}
	if b.menu != nil {
		m := *b.menu
		v.Menu = &m
	}
	if b.current != nil {
		folder := b.current.Folder
		v.Folder = &folder
		v.Subfolders = append([]models.Folder(nil), b.current.Subfolders...)
		v.Files = append([]models.File(nil), b.current.Files...)
		v.Empty = b.state == StateLoaded && b.current.IsEmpty()
	}
	v.Breadcrumb = breadcrumb(v.Folder)
	return v
}

// FindFile returns the file with id in the current listing.
func (b *Browser) FindFile(id int64) (*models.File, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return nil, false
	}
	for i := range b.current.Files {
		if b.current.Files[i].ID == id {
			f := b.current.Files[i]
			return &f, true
		}
	}
	return nil, false
}

// invalidateAfter drops the cached contents touched by a mutation of target:
// the current folder, and for folders the target's own entry.
func (b *Browser) invalidateAfter(target Target) {
	if id := b.FolderID(); id != nil {
		b.contents.Invalidate(*id)
	}
	if t, ok := target.(FolderTarget); ok {
		b.contents.Invalidate(t.ID)
	}
}

func (b *Browser) mutationFailed(op, kind, name string, err error) {
	msg := fmt.Sprintf("Failed to %s %s %q: %s", op, kind, name, api.Message(err))
	b.mu.Lock()
	b.banner = msg
	b.mu.Unlock()
	b.logger.Warn().Err(err).Str("op", op).Str(kind, name).Msg("Mutation failed")
	if b.eventBus != nil {
		b.eventBus.PublishMutationFailed(op, kind, name, err)
	}
	b.changed()
}

func (b *Browser) changed() {
	if b.eventBus == nil {
		return
	}
	b.mu.Lock()
	var id *int64
	if b.folderID != nil {
		v := *b.folderID
		id = &v
	}
	state := string(b.state)
	b.mu.Unlock()
	b.eventBus.PublishBrowserChanged(id, state)
}
