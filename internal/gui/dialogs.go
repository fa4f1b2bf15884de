package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/rescale/pdrive/internal/api"
)

// nameDialogSpec describes a single-entry name dialog.
type nameDialogSpec struct {
	Title   string
	Confirm string
	Initial string

	// Submit runs off the UI goroutine. done=false with a nil error keeps the
	// dialog open without a message (e.g. a blank name). An error keeps it open
	// and is shown under the entry.
	Submit func(name string) (done bool, err error)

	// OnChanged and OnCancel are optional.
	OnChanged func(string)
	OnCancel  func()
}

// nameDialog is a dialog that stays open until Submit succeeds or the user
// cancels. fyne's form dialogs close on confirm, so the buttons are our own.
type nameDialog struct {
	dialog    dialog.Dialog
	entry     *widget.Entry
	errLabel  *widget.Label
	submitBtn *widget.Button
	cancelBtn *widget.Button
}

func showNameDialog(win fyne.Window, spec nameDialogSpec) *nameDialog {
	d := &nameDialog{}

	d.entry = widget.NewEntry()
	d.entry.SetText(spec.Initial)
	d.entry.SetPlaceHolder("Name")
	d.entry.OnChanged = spec.OnChanged

	d.errLabel = widget.NewLabel("")
	d.errLabel.Importance = widget.DangerImportance
	d.errLabel.Wrapping = fyne.TextWrapWord
	d.errLabel.Hide()

	submit := func() {
		name := d.entry.Text
		d.submitBtn.Disable()
		go func() {
			done, err := spec.Submit(name)
			fyne.Do(func() {
				d.submitBtn.Enable()
				switch {
				case err != nil:
					d.errLabel.SetText(api.Message(err))
					d.errLabel.Show()
				case done:
					d.dialog.Hide()
				}
			})
		}()
	}
	d.entry.OnSubmitted = func(string) { submit() }

	d.submitBtn = NewPrimaryButton(spec.Confirm, submit)
	d.cancelBtn = widget.NewButtonWithIcon("Cancel", theme.CancelIcon(), func() {
		if spec.OnCancel != nil {
			spec.OnCancel()
		}
		d.dialog.Hide()
	})

	content := container.NewVBox(
		d.entry,
		d.errLabel,
		VerticalSpacer(8),
		container.NewHBox(layout.NewSpacer(), d.cancelBtn, d.submitBtn),
	)

	d.dialog = dialog.NewCustomWithoutButtons(spec.Title, content, win)
	d.dialog.Resize(fyne.NewSize(380, 0))
	d.dialog.Show()
	win.Canvas().Focus(d.entry)
	return d
}
