package gui

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/rescale/pdrive/internal/constants"
	"github.com/rescale/pdrive/internal/logging"
	"github.com/rescale/pdrive/internal/models"
	"github.com/rescale/pdrive/internal/navigation"
)

// Sidebar lists the root folders. Selecting one shows it in the folder view.
type Sidebar struct {
	tree   *navigation.Tree
	ctx    context.Context
	window fyne.Window
	logger *logging.Logger

	// Touched on the UI goroutine only.
	folders []models.Folder
	syncing bool

	list   *widget.List
	status *widget.Label
}

// NewSidebar creates the sidebar for tree.
func NewSidebar(ctx context.Context, tree *navigation.Tree, window fyne.Window, logger *logging.Logger) *Sidebar {
	return &Sidebar{
		tree:   tree,
		ctx:    ctx,
		window: window,
		logger: logger,
	}
}

// Build creates the sidebar UI
func (s *Sidebar) Build() fyne.CanvasObject {
	title := widget.NewLabel("Folders")
	title.TextStyle = fyne.TextStyle{Bold: true}

	s.list = widget.NewList(
		func() int { return len(s.folders) },
		func() fyne.CanvasObject {
			return container.NewHBox(widget.NewIcon(theme.FolderIcon()), widget.NewLabel(""))
		},
		func(id widget.ListItemID, o fyne.CanvasObject) {
			if id >= len(s.folders) {
				return
			}
			o.(*fyne.Container).Objects[1].(*widget.Label).SetText(s.folders[id].Name)
		},
	)
	s.list.OnSelected = func(id widget.ListItemID) {
		if s.syncing || id >= len(s.folders) {
			return
		}
		folderID := s.folders[id].ID
		go func() {
			if err := s.tree.Select(s.ctx, folderID); err != nil {
				s.logger.Debug().Err(err).Int64("folder_id", folderID).Msg("Select failed")
			}
		}()
	}

	s.status = widget.NewLabel("")
	s.status.Wrapping = fyne.TextWrapWord
	s.status.Hide()

	refreshBtn := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), func() {
		go func() {
			_ = s.tree.Refetch(s.ctx)
		}()
	})
	newBtn := NewPrimaryButtonWithIcon("New Folder", theme.FolderNewIcon(), s.showCreateRoot)

	header := container.NewBorder(nil, nil, title, refreshBtn)
	return container.NewBorder(
		container.NewVBox(header, newBtn, VerticalSpacer(4)),
		nil, nil, nil,
		container.NewStack(s.list, container.NewCenter(s.status)),
	)
}

// Render shows snap. It must run on the UI goroutine.
func (s *Sidebar) Render(snap navigation.Snapshot) {
	s.folders = snap.Folders

	switch {
	case snap.Loading && !snap.Loaded:
		s.setStatus("Loading...")
	case snap.Error != "":
		s.setStatus("Error: " + snap.Error)
	case snap.Loaded && len(snap.Folders) == 0:
		s.setStatus(constants.MsgNoFolders)
	default:
		s.status.Hide()
	}

	s.list.Refresh()

	s.syncing = true
	defer func() { s.syncing = false }()
	if i := selectedIndex(snap.Folders, snap.Selected); i >= 0 {
		s.list.Select(i)
	} else {
		s.list.UnselectAll()
	}
}

func (s *Sidebar) setStatus(text string) {
	s.status.SetText(text)
	s.status.Show()
}

// showCreateRoot asks for the name of a new root folder.
func (s *Sidebar) showCreateRoot() {
	showNameDialog(s.window, nameDialogSpec{
		Title:   "New Folder",
		Confirm: "Create",
		Submit: func(name string) (bool, error) {
			folder, err := s.tree.CreateRootFolder(s.ctx, name)
			return folder != nil, err
		},
	})
}

// selectedIndex returns the list index of the selected folder, or -1.
func selectedIndex(folders []models.Folder, selected *int64) int {
	if selected == nil {
		return -1
	}
	for i, f := range folders {
		if f.ID == *selected {
			return i
		}
	}
	return -1
}
