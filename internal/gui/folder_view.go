package gui

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/rescale/pdrive/internal/browser"
	"github.com/rescale/pdrive/internal/logging"
	"github.com/rescale/pdrive/internal/models"
	"github.com/rescale/pdrive/internal/util/format"
)

// row is one line of the folder listing: a subfolder or a file.
type row struct {
	folder *models.Folder
	file   *models.File
}

// rowsFor lists subfolders before files, in server order.
func rowsFor(v browser.View) []row {
	rows := make([]row, 0, len(v.Subfolders)+len(v.Files))
	for i := range v.Subfolders {
		rows = append(rows, row{folder: &v.Subfolders[i]})
	}
	for i := range v.Files {
		rows = append(rows, row{file: &v.Files[i]})
	}
	return rows
}

func (r row) target() browser.Target {
	if r.folder != nil {
		return browser.TargetForFolder(*r.folder)
	}
	return browser.TargetForFile(*r.file)
}

func (r row) name() string {
	if r.folder != nil {
		return r.folder.Name
	}
	return r.file.Name
}

// detail is the right-hand column: "Folder" or size and category.
func (r row) detail() string {
	if r.folder != nil {
		return "Folder"
	}
	return fmt.Sprintf("%s · %s", format.FileSize(r.file.Size), format.FileCategory(r.file.MimeType))
}

func (r row) icon() fyne.Resource {
	if r.folder != nil {
		return theme.FolderIcon()
	}
	switch {
	case format.IsImage(r.file.MimeType):
		return theme.FileImageIcon()
	case format.IsVideo(r.file.MimeType):
		return theme.FileVideoIcon()
	case format.IsAudio(r.file.MimeType):
		return theme.FileAudioIcon()
	case format.IsPDF(r.file.MimeType):
		return theme.DocumentIcon()
	default:
		return theme.FileIcon()
	}
}

// FolderView renders the browser's View: breadcrumb, toolbar, banner, and the
// listing or the message that replaces it.
type FolderView struct {
	browser *browser.Browser
	ctx     context.Context
	window  fyne.Window
	logger  *logging.Logger

	// OnUpload opens the uploader for a folder.
	OnUpload func(folderID int64, folderName string)

	// Touched on the UI goroutine only.
	view browser.View
	rows []row

	breadcrumbBar *fyne.Container
	upBtn         *widget.Button
	newFolderBtn  *widget.Button
	uploadBtn     *widget.Button
	refreshBtn    *widget.Button
	banner        *fyne.Container
	bannerLabel   *widget.Label
	message       *widget.Label
	list          *widget.List
}

// NewFolderView creates the folder view for b.
func NewFolderView(ctx context.Context, b *browser.Browser, window fyne.Window, logger *logging.Logger) *FolderView {
	return &FolderView{
		browser: b,
		ctx:     ctx,
		window:  window,
		logger:  logger,
	}
}

// Build creates the folder view UI
func (fv *FolderView) Build() fyne.CanvasObject {
	fv.breadcrumbBar = container.NewHBox()

	fv.upBtn = widget.NewButtonWithIcon("", theme.NavigateBackIcon(), fv.goUp)
	fv.refreshBtn = widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), func() {
		fv.run(fv.browser.Reload)
	})
	fv.newFolderBtn = widget.NewButtonWithIcon("New Folder", theme.FolderNewIcon(), fv.showCreate)
	fv.uploadBtn = NewPrimaryButtonWithIcon("Upload", theme.UploadIcon(), fv.showUploader)

	navBar := container.NewBorder(
		nil, nil,
		container.NewHBox(HorizontalSpacer(4), fv.upBtn, HorizontalSpacer(4)),
		container.NewHBox(fv.newFolderBtn, fv.uploadBtn, fv.refreshBtn, HorizontalSpacer(4)),
		container.NewHScroll(fv.breadcrumbBar),
	)

	fv.bannerLabel = widget.NewLabel("")
	fv.bannerLabel.Importance = widget.DangerImportance
	fv.bannerLabel.Wrapping = fyne.TextWrapWord
	dismissBtn := widget.NewButtonWithIcon("", theme.CancelIcon(), fv.browser.DismissBanner)
	dismissBtn.Importance = widget.LowImportance
	fv.banner = container.NewBorder(nil, nil, widget.NewIcon(theme.ErrorIcon()), dismissBtn, fv.bannerLabel)
	fv.banner.Hide()

	fv.list = widget.NewList(
		func() int { return len(fv.rows) },
		func() fyne.CanvasObject { return newEntryRow(fv.showMenu) },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			if id >= len(fv.rows) {
				return
			}
			o.(*entryRow).update(id, fv.rows[id])
		},
	)
	fv.list.OnSelected = func(id widget.ListItemID) {
		fv.list.Unselect(id)
		if id < len(fv.rows) {
			fv.activate(fv.rows[id])
		}
	}

	fv.message = widget.NewLabel("")
	fv.message.Alignment = fyne.TextAlignCenter
	fv.message.Wrapping = fyne.TextWrapWord

	fv.Render(fv.browser.View())

	return container.NewBorder(
		container.NewVBox(navBar, widget.NewSeparator(), fv.banner),
		nil, nil, nil,
		container.NewStack(fv.list, container.NewCenter(fv.message)),
	)
}

// Render shows v. It must run on the UI goroutine after Build.
func (fv *FolderView) Render(v browser.View) {
	fv.view = v
	fv.rows = rowsFor(v)

	fv.breadcrumbBar.RemoveAll()
	for i, crumb := range v.Breadcrumb {
		if i > 0 {
			fv.breadcrumbBar.Add(widget.NewLabel(">"))
		}
		fv.breadcrumbBar.Add(fv.crumbButton(crumb))
	}
	fv.breadcrumbBar.Refresh()

	hasFolder := v.FolderID != nil
	setEnabled(fv.newFolderBtn, hasFolder && v.State == browser.StateLoaded)
	setEnabled(fv.uploadBtn, hasFolder && v.State == browser.StateLoaded)
	setEnabled(fv.refreshBtn, hasFolder)
	setEnabled(fv.upBtn, v.Folder != nil)

	if v.Banner != "" {
		fv.bannerLabel.SetText(v.Banner)
		fv.banner.Show()
	} else {
		fv.banner.Hide()
	}

	if msg := v.Message(); msg != "" {
		fv.message.SetText(msg)
		fv.message.Show()
		fv.list.Hide()
	} else {
		fv.message.Hide()
		fv.list.Show()
	}
	fv.list.Refresh()
}

func (fv *FolderView) crumbButton(crumb browser.BreadcrumbEntry) *widget.Button {
	if crumb.ID == nil {
		btn := widget.NewButtonWithIcon(crumb.Name, theme.HomeIcon(), func() {
			fv.run(func(ctx context.Context) error { return fv.browser.Load(ctx, nil) })
		})
		btn.Importance = widget.LowImportance
		return btn
	}
	id := *crumb.ID
	btn := widget.NewButton(crumb.Name, func() {
		fv.run(func(ctx context.Context) error { return fv.browser.Open(ctx, id) })
	})
	btn.Importance = widget.LowImportance
	return btn
}

// run calls op off the UI goroutine. Failures are already part of the view.
func (fv *FolderView) run(op func(ctx context.Context) error) {
	go func() {
		if err := op(fv.ctx); err != nil {
			fv.logger.Debug().Err(err).Msg("Folder view operation failed")
		}
	}()
}

// goUp opens the parent folder, or Home for a root folder.
func (fv *FolderView) goUp() {
	folder := fv.view.Folder
	if folder == nil {
		return
	}
	parent := folder.ParentID
	fv.run(func(ctx context.Context) error { return fv.browser.Load(ctx, parent) })
}

// activate opens a folder or downloads a file.
func (fv *FolderView) activate(r row) {
	if r.folder != nil {
		id := r.folder.ID
		fv.run(func(ctx context.Context) error { return fv.browser.Open(ctx, id) })
		return
	}
	fv.download(r.file)
}

func (fv *FolderView) download(file *models.File) {
	if _, err := fv.browser.Download(file); err != nil {
		dialog.ShowError(err, fv.window)
	}
}

// showMenu opens the context menu of row i at pos.
func (fv *FolderView) showMenu(i int, pos fyne.Position) {
	if i >= len(fv.rows) {
		return
	}
	r := fv.rows[i]
	t := r.target()
	fv.browser.OpenContextMenu(pos.X, pos.Y, t)

	// fyne dismisses the popup (closing our menu) before running the action,
	// so each action binds the menu to its target again.
	items := []*fyne.MenuItem{
		fyne.NewMenuItem("Rename", func() {
			fv.browser.OpenContextMenu(pos.X, pos.Y, t)
			fv.showRename()
		}),
		fyne.NewMenuItem("Delete", func() {
			fv.confirmDelete(t, pos)
		}),
	}
	if r.file != nil {
		file := r.file
		items = append([]*fyne.MenuItem{
			fyne.NewMenuItem("Open", func() { fv.download(file) }),
		}, items...)
	}

	popUp := widget.NewPopUpMenu(fyne.NewMenu("", items...), fv.window.Canvas())
	if hide := popUp.OnDismiss; hide != nil {
		popUp.OnDismiss = func() {
			hide()
			fv.browser.CloseContextMenu()
		}
	}
	popUp.ShowAtPosition(pos)
}

func (fv *FolderView) showCreate() {
	if fv.browser.FolderID() == nil {
		return
	}
	fv.browser.OpenCreateDialog()
	showNameDialog(fv.window, nameDialogSpec{
		Title:     "New Folder",
		Confirm:   "Create",
		OnChanged: fv.browser.SetCreateInput,
		OnCancel:  fv.browser.CancelCreateDialog,
		Submit: func(name string) (bool, error) {
			_, err := fv.browser.CreateFolder(fv.ctx, name)
			return !fv.browser.View().CreateDialog.Open, err
		},
	})
}

func (fv *FolderView) showRename() {
	if err := fv.browser.BeginRename(); err != nil {
		return
	}
	d := fv.browser.View().RenameDialog
	showNameDialog(fv.window, nameDialogSpec{
		Title:     fmt.Sprintf("Rename %s", d.Target.Kind()),
		Confirm:   "Rename",
		Initial:   d.Input,
		OnChanged: fv.browser.SetRenameInput,
		OnCancel:  fv.browser.CancelRename,
		Submit: func(name string) (bool, error) {
			err := fv.browser.Rename(fv.ctx, name)
			return !fv.browser.View().RenameDialog.Open, err
		},
	})
}

func (fv *FolderView) confirmDelete(t browser.Target, pos fyne.Position) {
	question := fmt.Sprintf("Delete %s %q?", t.Kind(), t.TargetName())
	if t.Kind() == "folder" {
		question += "\nThe server decides whether a non-empty folder can be deleted."
	}
	dialog.ShowConfirm("Delete", question, func(ok bool) {
		if !ok {
			return
		}
		fv.browser.OpenContextMenu(pos.X, pos.Y, t)
		go func() {
			if err := fv.browser.Delete(fv.ctx); err != nil {
				fv.browser.CloseContextMenu()
			}
		}()
	}, fv.window)
}

func (fv *FolderView) showUploader() {
	if fv.OnUpload == nil || fv.view.Folder == nil {
		return
	}
	fv.OnUpload(fv.view.Folder.ID, fv.view.Folder.Name)
}

func setEnabled(btn *widget.Button, enabled bool) {
	if enabled {
		btn.Enable()
	} else {
		btn.Disable()
	}
}

// entryRow is a list row that reports secondary taps with the index it shows.
// Primary taps fall through to the list's selection.
type entryRow struct {
	widget.BaseWidget

	index  int
	onMenu func(int, fyne.Position)

	icon   *widget.Icon
	name   *widget.Label
	detail *widget.Label
}

func newEntryRow(onMenu func(int, fyne.Position)) *entryRow {
	r := &entryRow{
		onMenu: onMenu,
		icon:   widget.NewIcon(theme.FileIcon()),
		name:   widget.NewLabel(""),
		detail: widget.NewLabel(""),
	}
	r.name.Truncation = fyne.TextTruncateEllipsis
	r.detail.Importance = widget.LowImportance
	r.ExtendBaseWidget(r)
	return r
}

func (r *entryRow) update(index int, data row) {
	r.index = index
	r.icon.SetResource(data.icon())
	r.name.SetText(data.name())
	r.detail.SetText(data.detail())
}

// TappedSecondary implements fyne.SecondaryTappable
func (r *entryRow) TappedSecondary(e *fyne.PointEvent) {
	if r.onMenu != nil {
		r.onMenu(r.index, e.AbsolutePosition)
	}
}

// CreateRenderer implements fyne.Widget
func (r *entryRow) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewBorder(nil, nil, r.icon, r.detail, r.name))
}
