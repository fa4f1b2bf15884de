package browser

import (
	"github.com/rescale/pdrive/internal/constants"
	"github.com/rescale/pdrive/internal/models"
)

// State is the load state of the folder view.
type State string

const (
	StatePlaceholder State = "placeholder" // no folder selected
	StateLoading     State = "loading"
	StateLoaded      State = "loaded"
	StateError       State = "error"
	StateNotFound    State = "not_found"
)

// Dialog is the state of a name-input dialog.
type Dialog struct {
	Open   bool
	Input  string
	Target Target // rename only
}

// BreadcrumbEntry is one step of the navigation path. ID is nil for Home.
type BreadcrumbEntry struct {
	ID   *int64
	Name string
}

// View is an immutable snapshot of everything a renderer needs.
type View struct {
	State      State
	FolderID   *int64
	Folder     *models.Folder
	Subfolders []models.Folder
	Files      []models.File

	// Empty is set when a loaded folder has neither subfolders nor files.
	// Renderers show one empty-state indicator instead of two empty sections.
	Empty bool

	Error        string
	Banner       string
	Menu         *ContextMenuSelection
	CreateDialog Dialog
	RenameDialog Dialog
	Breadcrumb   []BreadcrumbEntry
}

// Message is the text to show in place of the listing, or "" when the
// listing itself should be shown.
func (v View) Message() string {
	switch v.State {
	case StatePlaceholder:
		return constants.MsgSelectFolder
	case StateLoading:
		return "Loading..."
	case StateNotFound:
		return constants.MsgFolderNotFound
	case StateError:
		return "Error: " + v.Error
	}
	if v.Empty {
		return constants.MsgFolderEmpty
	}
	return ""
}

func breadcrumb(folder *models.Folder) []BreadcrumbEntry {
	crumbs := []BreadcrumbEntry{{Name: "Home"}}
	if folder != nil {
		id := folder.ID
		crumbs = append(crumbs, BreadcrumbEntry{ID: &id, Name: folder.Name})
	}
	return crumbs
}
