package gui

import (
	"context"
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/rescale/pdrive/internal/constants"
	"github.com/rescale/pdrive/internal/core"
	"github.com/rescale/pdrive/internal/events"
	"github.com/rescale/pdrive/internal/logging"
	"github.com/rescale/pdrive/internal/transfer"
	"github.com/rescale/pdrive/internal/util/format"
)

// UploaderDialog is the upload dialog of one folder: the queued files with
// their status, the overall progress, and the add, upload and clear actions.
type UploaderDialog struct {
	engine *core.Engine
	window fyne.Window
	ctx    context.Context
	logger *logging.Logger

	// Touched on the UI goroutine only.
	coordinator *transfer.Coordinator
	tasks       []transfer.UploadTask
	visible     bool

	dialog   dialog.Dialog
	list     *widget.List
	overall  *widget.ProgressBar
	summary  *widget.Label
	addBtn   *widget.Button
	startBtn *widget.Button
	clearBtn *widget.Button
}

// NewUploaderDialog creates the uploader. Show binds it to a folder.
func NewUploaderDialog(ctx context.Context, engine *core.Engine, window fyne.Window, logger *logging.Logger) *UploaderDialog {
	return &UploaderDialog{
		engine: engine,
		window: window,
		ctx:    ctx,
		logger: logger,
	}
}

// Show opens the uploader for folderID. Reopening it for the same folder shows
// the same queue.
func (u *UploaderDialog) Show(folderID int64, folderName string) {
	u.open(u.engine.Uploader(folderID), folderName)
}

func (u *UploaderDialog) open(c *transfer.Coordinator, folderName string) {
	u.coordinator = c

	u.list = widget.NewList(
		func() int { return len(u.tasks) },
		u.newTaskRow,
		u.updateTaskRow,
	)
	u.overall = widget.NewProgressBar()
	u.summary = widget.NewLabel("")
	u.summary.Wrapping = fyne.TextWrapWord

	u.addBtn = widget.NewButtonWithIcon("Add Files", theme.ContentAddIcon(), u.pickFile)
	u.startBtn = NewPrimaryButtonWithIcon("Upload", theme.UploadIcon(), u.start)
	u.clearBtn = widget.NewButtonWithIcon("Clear", theme.DeleteIcon(), u.clear)

	hint := widget.NewLabel("Add files or drop them on the window.")
	hint.Importance = widget.LowImportance

	content := container.NewBorder(
		container.NewVBox(hint, container.NewHBox(u.addBtn, u.clearBtn)),
		container.NewVBox(VerticalSpacer(4), u.overall, u.summary, container.NewHBox(u.startBtn)),
		nil, nil,
		u.list,
	)

	u.dialog = dialog.NewCustom("Upload to "+folderName, "Close", content, u.window)
	u.dialog.SetOnClosed(func() { u.visible = false })
	u.dialog.Resize(fyne.NewSize(560, 420))
	u.visible = true
	u.Refresh()
	u.dialog.Show()
}

// AddPaths queues local files while the dialog is open. It reports false when
// there is no open uploader to take them.
func (u *UploaderDialog) AddPaths(paths ...string) bool {
	if !u.visible || u.coordinator == nil {
		return false
	}
	if _, err := u.coordinator.EnqueuePaths(paths...); err != nil {
		dialog.ShowError(err, u.window)
	}
	u.Refresh()
	return true
}

// IsOpen reports whether the dialog is showing.
func (u *UploaderDialog) IsOpen() bool {
	return u.visible
}

// BatchDone redraws the queue for a finished batch and closes the dialog when
// the batch belongs to it and every file was uploaded. A batch with failures
// keeps the dialog open so the errors stay readable. It must run on the UI
// goroutine.
func (u *UploaderDialog) BatchDone(e *events.UploadBatchEvent) {
	u.Refresh()
	if !u.visible || u.coordinator == nil || u.coordinator.FolderID() != e.FolderID {
		return
	}
	if e.Failed == 0 && e.Succeeded > 0 {
		u.visible = false
		u.dialog.Hide()
	}
}

// Refresh redraws the queue. It must run on the UI goroutine.
func (u *UploaderDialog) Refresh() {
	if u.coordinator == nil || u.list == nil {
		return
	}
	c := u.coordinator
	u.tasks = c.Tasks()

	u.overall.SetValue(c.Overall() / 100)
	u.summary.SetText(summaryText(len(u.tasks), c.SuccessCount(), c.AllProcessed()))

	uploading := c.HasUploading()
	setEnabled(u.startBtn, c.HasPending() && !uploading)
	setEnabled(u.clearBtn, len(u.tasks) > 0 && !uploading)
	setEnabled(u.addBtn, !uploading)

	u.list.Refresh()
}

func (u *UploaderDialog) pickFile() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, u.window)
			return
		}
		if rc == nil {
			return
		}
		path := rc.URI().Path()
		rc.Close()
		u.AddPaths(path)
	}, u.window)
	fd.Show()
}

// start runs the queue off the UI goroutine. Progress arrives through
// transfer events; the engine reloads the folder when the batch is done.
func (u *UploaderDialog) start() {
	c := u.coordinator
	if c == nil {
		return
	}
	u.startBtn.Disable()
	go func() {
		summary, err := c.Start(u.ctx)
		if errors.Is(err, transfer.ErrUploadInProgress) {
			return
		}
		if err != nil {
			u.logger.Warn().Err(err).Msg("Upload batch did not run")
		}
		u.logger.Info().
			Int64("folder_id", c.FolderID()).
			Int("succeeded", summary.Succeeded).
			Int("failed", summary.Failed).
			Msg("Upload batch finished")
		fyne.Do(u.Refresh)
	}()
}

func (u *UploaderDialog) clear() {
	if u.coordinator == nil {
		return
	}
	if err := u.coordinator.Clear(); err != nil {
		dialog.ShowError(err, u.window)
		return
	}
	u.Refresh()
}

func (u *UploaderDialog) remove(taskID string) {
	if err := u.coordinator.Remove(taskID); err != nil {
		u.logger.Debug().Err(err).Str("task_id", taskID).Msg("Cannot remove task")
	}
	u.Refresh()
}

func (u *UploaderDialog) newTaskRow() fyne.CanvasObject {
	name := widget.NewLabel("")
	name.Truncation = fyne.TextTruncateEllipsis
	status := widget.NewLabel("")
	status.Importance = widget.LowImportance
	bar := widget.NewProgressBar()
	removeBtn := widget.NewButtonWithIcon("", theme.CancelIcon(), nil)
	removeBtn.Importance = widget.LowImportance

	return container.NewBorder(nil, bar, nil, container.NewHBox(status, removeBtn), name)
}

func (u *UploaderDialog) updateTaskRow(id widget.ListItemID, o fyne.CanvasObject) {
	if id >= len(u.tasks) {
		return
	}
	task := &u.tasks[id]

	c := o.(*fyne.Container)
	name := c.Objects[0].(*widget.Label)
	bar := c.Objects[1].(*widget.ProgressBar)
	right := c.Objects[2].(*fyne.Container)
	status := right.Objects[0].(*widget.Label)
	removeBtn := right.Objects[1].(*widget.Button)

	name.SetText(fmt.Sprintf("%s (%s)", task.File.Name, format.FileSize(task.File.Size)))
	status.SetText(taskStatusText(task))
	bar.SetValue(task.Progress / 100)

	switch task.Status {
	case transfer.StatusError:
		status.Importance = widget.DangerImportance
	case transfer.StatusSuccess:
		status.Importance = widget.SuccessImportance
	default:
		status.Importance = widget.LowImportance
	}
	status.Refresh()

	taskID := task.ID
	removeBtn.OnTapped = func() { u.remove(taskID) }
	setEnabled(removeBtn, task.Status == transfer.StatusPending)
}

// taskStatusText is the status column of a queued file.
func taskStatusText(t *transfer.UploadTask) string {
	switch t.Status {
	case transfer.StatusPending:
		return "Pending"
	case transfer.StatusUploading:
		if t.Speed > 0 {
			return fmt.Sprintf("Uploading %s (%s)", format.Percent(t.Progress), format.Speed(t.Speed))
		}
		return "Uploading " + format.Percent(t.Progress)
	case transfer.StatusSuccess:
		return "Done"
	case transfer.StatusError:
		if t.Error != "" {
			return "Failed: " + t.Error
		}
		return constants.MsgUploadFailed
	}
	return string(t.Status)
}

// summaryText is the line under the overall progress bar.
func summaryText(total, succeeded int, allProcessed bool) string {
	switch {
	case total == 0:
		return "No files queued"
	case allProcessed && succeeded > 0:
		return fmt.Sprintf("%d file(s) uploaded successfully!", succeeded)
	case allProcessed:
		return "No files were uploaded"
	default:
		return fmt.Sprintf("%d of %d uploaded", succeeded, total)
	}
}
