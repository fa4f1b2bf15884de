// Package gui provides the graphical user interface for pdrive.
package gui

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"github.com/rs/zerolog"

	"github.com/rescale/pdrive/internal/browser"
	"github.com/rescale/pdrive/internal/config"
	"github.com/rescale/pdrive/internal/constants"
	"github.com/rescale/pdrive/internal/core"
	"github.com/rescale/pdrive/internal/events"
	"github.com/rescale/pdrive/internal/logging"
)

var (
	// guiLogger is the package-level logger for GUI mode
	guiLogger *logging.Logger
)

// Run opens the main window and blocks until it is closed or ctx is cancelled.
// The logger passed by the CLI is only used for startup errors; the window logs
// through a GUI logger that also feeds the event bus.
func Run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	if err := checkDisplay(); err != nil {
		return err
	}

	bus := events.NewEventBus(constants.EventBusDefaultBuffer)
	guiLogger = logging.NewLogger("gui", bus)
	if fileLog, err := openFileLog(); err != nil {
		logger.Warn().Err(err).Msg("File logging disabled")
	} else {
		defer fileLog.Close()
		guiLogger.SetOutput(logWriter(fileLog))
	}

	// In GUI mode, default to WarnLevel for a cleaner console experience.
	// Set PDRIVE_DEBUG=1 to see debug/info messages.
	switch {
	case os.Getenv("PDRIVE_DEBUG") != "":
		logging.SetGlobalLevel(zerolog.DebugLevel)
		guiLogger.Info().Msg("Debug logging enabled via PDRIVE_DEBUG")
	case cfg.LogLevel != "":
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			logger.Warn().Err(err).Msg("Ignoring log level from config")
			level = zerolog.WarnLevel
		}
		logging.SetGlobalLevel(level)
	default:
		logging.SetGlobalLevel(zerolog.WarnLevel)
	}

	myApp := app.NewWithID(constants.AppID)
	myApp.Settings().SetTheme(&pdriveTheme{})

	mainWindow := myApp.NewWindow("pdrive")
	mainWindow.SetMaster()

	engine, err := core.NewEngine(cfg,
		core.WithLogger(guiLogger),
		core.WithEventBus(bus),
		core.WithOpener(browser.OpenerFunc(func(raw string) error {
			u, err := url.Parse(raw)
			if err != nil {
				return err
			}
			return myApp.OpenURL(u)
		})),
	)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer engine.Close()

	ui := NewUI(ctx, engine, mainWindow)
	ui.Start()

	mainWindow.SetContent(ui.Build())
	mainWindow.Resize(fyne.NewSize(1100, 700))
	mainWindow.CenterOnScreen()
	mainWindow.SetOnDropped(ui.onDropped)
	mainWindow.SetOnClosed(ui.Stop)

	// Ctrl+C in the launching terminal closes the window.
	go func() {
		<-ui.ctx.Done()
		if ctx.Err() != nil {
			fyne.Do(myApp.Quit)
		}
	}()

	mainWindow.ShowAndRun()
	return nil
}

// UI represents the main user interface
type UI struct {
	engine     *core.Engine
	window     fyne.Window
	sidebar    *Sidebar
	folderView *FolderView
	uploader   *UploaderDialog
	statusBar  *StatusBar
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewUI creates the window's components. Operations started from the UI use a
// context derived from parent that is cancelled by Stop.
func NewUI(parent context.Context, engine *core.Engine, window fyne.Window) *UI {
	ctx, cancel := context.WithCancel(parent)

	ui := &UI{
		engine:    engine,
		window:    window,
		statusBar: NewStatusBar(),
		ctx:       ctx,
		cancel:    cancel,
	}

	logger := engine.Logger()
	ui.sidebar = NewSidebar(ctx, engine.Tree(), window, logger)
	ui.uploader = NewUploaderDialog(ctx, engine, window, logger)
	ui.folderView = NewFolderView(ctx, engine.Browser(), window, logger)
	ui.folderView.OnUpload = ui.uploader.Show

	return ui
}

// Build creates the UI layout: folder sidebar on the left, folder view on the
// right, status bar at the bottom.
func (ui *UI) Build() fyne.CanvasObject {
	split := container.NewHSplit(ui.sidebar.Build(), ui.folderView.Build())
	split.Offset = 0.25

	return container.NewBorder(
		nil,
		container.NewVBox(VerticalSpacer(2), ui.statusBar),
		nil, nil,
		split,
	)
}

// Start loads the folder tree and begins event monitoring.
func (ui *UI) Start() {
	go ui.monitorBrowser()
	go ui.monitorTree()
	go ui.monitorTransfers()
	go ui.monitorMutations()

	go func() {
		ui.statusBar.SetProgress("Loading folders...")
		if err := ui.engine.Tree().Load(ui.ctx); err != nil {
			ui.statusBar.SetError("Could not load folders")
			return
		}
		ui.statusBar.SetInfo("Ready")
	}()
}

// Stop stops event monitoring and cancels running operations.
func (ui *UI) Stop() {
	ui.cancel()
}

// onDropped queues files dropped on the window into the open uploader.
func (ui *UI) onDropped(_ fyne.Position, uris []fyne.URI) {
	paths := make([]string, 0, len(uris))
	for _, u := range uris {
		if u.Scheme() == "file" {
			paths = append(paths, u.Path())
		}
	}
	if len(paths) == 0 {
		return
	}
	if !ui.uploader.AddPaths(paths...) {
		ui.statusBar.SetWarning("Open the uploader to drop files")
	}
}

func (ui *UI) monitorBrowser() {
	ch := ui.engine.Events().Subscribe(events.EventBrowserChanged)
	defer ui.engine.Events().Unsubscribe(events.EventBrowserChanged, ch)

	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
			// Render the latest view; intermediate events carry nothing extra.
			view := ui.engine.Browser().View()
			fyne.Do(func() {
				ui.folderView.Render(view)
			})

		case <-ui.ctx.Done():
			return
		}
	}
}

func (ui *UI) monitorTree() {
	ch := ui.engine.Events().Subscribe(events.EventTreeChanged)
	defer ui.engine.Events().Unsubscribe(events.EventTreeChanged, ch)

	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
			snap := ui.engine.Tree().Snapshot()
			fyne.Do(func() {
				ui.sidebar.Render(snap)
			})

		case <-ui.ctx.Done():
			return
		}
	}
}

func (ui *UI) monitorTransfers() {
	ch := ui.engine.Events().SubscribeAll()
	defer ui.engine.Events().UnsubscribeAll(ch)

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			switch e := event.(type) {
			case *events.TransferEvent:
				fyne.Do(ui.uploader.Refresh)
			case *events.UploadBatchEvent:
				fyne.Do(func() { ui.uploader.BatchDone(e) })
				if e.Failed > 0 {
					ui.statusBar.SetWarning(fmt.Sprintf("%d of %d uploads failed", e.Failed, e.Total))
				} else {
					ui.statusBar.SetSuccess(fmt.Sprintf("%d file(s) uploaded", e.Succeeded))
				}
			}

		case <-ui.ctx.Done():
			return
		}
	}
}

func (ui *UI) monitorMutations() {
	ch := ui.engine.Events().Subscribe(events.EventMutationFailed)
	defer ui.engine.Events().Unsubscribe(events.EventMutationFailed, ch)

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			if e, ok := event.(*events.MutationFailedEvent); ok {
				ui.statusBar.SetError(fmt.Sprintf("Could not %s %s %q", e.Op, e.Target, e.Name))
			}

		case <-ui.ctx.Done():
			return
		}
	}
}
