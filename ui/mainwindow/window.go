// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"mask-annotator/internal/app"
	"mask-annotator/internal/editor"
	maskimage "mask-annotator/internal/image"
	"mask-annotator/internal/version"
	"mask-annotator/ui/canvas"
	"mask-annotator/ui/prefs"
	"mask-annotator/ui/toolbar"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const appTitle = "Mask Annotator"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app     fyne.App
	ctx     context.Context
	session *editor.Session
	state   *app.State
	prefs   *prefs.Prefs
	cfg     editor.Config
	logger  *slog.Logger

	canvas    *canvas.EditorCanvas
	toolbar   *toolbar.Toolbar
	statusBar *widget.Label
}

// New creates the main window around an editing session. ctx bounds the
// backend calls started from the UI.
func New(ctx context.Context, fyneApp fyne.App, session *editor.Session, p *prefs.Prefs, cfg editor.Config, logger *slog.Logger) *MainWindow {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	mw := &MainWindow{
		Window:  fyneApp.NewWindow(appTitle),
		app:     fyneApp,
		ctx:     ctx,
		session: session,
		state:   session.State(),
		prefs:   p,
		cfg:     cfg,
		logger:  logger.With("component", "mainwindow"),
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()

	w := p.Float(prefs.KeyWindowWidth, cfg.ContainerWidth+40)
	h := p.Float(prefs.KeyWindowHeight, cfg.MaxDisplayHeight+120)
	mw.Resize(fyne.NewSize(float32(w), float32(h)))
	mw.SetCloseIntercept(func() {
		mw.SavePreferences()
		mw.Close()
	})
	return mw
}

func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewEditorCanvas(mw.session, mw.cfg.MaxDisplayHeight)

	brush := mw.session.SetBrushSize(mw.prefs.Int(prefs.KeyBrushSize, mw.cfg.BrushSize))
	mw.toolbar = toolbar.New(toolbar.Actions{
		SetMode:      mw.session.SetMode,
		SetBrushSize: mw.onBrushSize,
		Predict:      mw.onPredict,
		Save:         mw.onSave,
		ShowMasks:    mw.onShowMasks,
		HideMasks:    mw.session.HideMasks,
		Upload:       mw.onUpload,
	}, brush, mw.cfg.MinBrushSize, mw.cfg.MaxBrushSize)

	mw.statusBar = widget.NewLabel(mw.state.Status())

	content := container.NewBorder(
		mw.toolbar.Object(),
		container.NewPadded(mw.statusBar),
		nil,
		nil,
		mw.canvas,
	)
	mw.SetContent(content)
}

func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Upload Image...", mw.onUpload),
		fyne.NewMenuItem("Save Mask", mw.onSave),
	)
	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Box Select", func() { mw.session.SetMode(editor.ModeBoxSelect) }),
		fyne.NewMenuItem("Brush Add", func() { mw.session.SetMode(editor.ModeBrushAdd) }),
		fyne.NewMenuItem("Brush Subtract", func() { mw.session.SetMode(editor.ModeBrushSubtract) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Run Prediction", mw.onPredict),
	)
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Show Masks", mw.onShowMasks),
		fyne.NewMenuItem("Hide Masks", mw.session.HideMasks),
		fyne.NewMenuItem("Reload Masks", mw.onRefreshMasks),
	)
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)
	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}

func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventStatus, func(data interface{}) {
		if text, ok := data.(string); ok {
			mw.statusBar.SetText(text)
		}
	})

	mw.state.On(app.EventImageLoaded, func(data interface{}) {
		if src, ok := data.(*maskimage.Source); ok {
			mw.SetTitle(appTitle + " - " + src.Name())
		}
		if w := mw.canvas.Size().Width; w > 0 {
			mw.canvas.Fit(w)
		} else {
			mw.canvas.Refresh()
		}
	})

	syncTools := func(interface{}) {
		mw.toolbar.Update(mw.session.Mode(), mw.state.Busy())
		mw.canvas.Refresh()
	}
	mw.state.On(app.EventModeChanged, syncTools)
	mw.state.On(app.EventBusyChanged, syncTools)

	redraw := func(interface{}) { mw.canvas.Refresh() }
	mw.state.On(app.EventMaskChanged, redraw)
	mw.state.On(app.EventSelectionChanged, redraw)
	mw.state.On(app.EventRecordsChanged, redraw)
}

// SavePreferences stores the brush size and window geometry.
func (mw *MainWindow) SavePreferences() {
	mw.recordPreferences()
	if err := mw.prefs.Save(); err != nil {
		mw.logger.Warn("failed to save preferences", "path", mw.prefs.Path(), "err", err)
	}
}

// SavePreferencesIfChanged writes preferences only when something changed.
func (mw *MainWindow) SavePreferencesIfChanged() {
	mw.recordPreferences()
	if err := mw.prefs.SaveIfChanged(); err != nil {
		mw.logger.Warn("failed to save preferences", "path", mw.prefs.Path(), "err", err)
	}
}

func (mw *MainWindow) recordPreferences() {
	mw.prefs.SetInt(prefs.KeyBrushSize, mw.session.BrushSize())
	if size := mw.Canvas().Size(); size.Width > 0 && size.Height > 0 {
		mw.prefs.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
		mw.prefs.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
	}
}

// lastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) lastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastDir, "")
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

func (mw *MainWindow) onBrushSize(size int) int {
	size = mw.session.SetBrushSize(size)
	mw.prefs.SetInt(prefs.KeyBrushSize, size)
	return size
}

func (mw *MainWindow) onUpload() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.prefs.SetString(prefs.KeyLastDir, filepath.Dir(path))
		mw.state.SetStatus("Uploading " + filepath.Base(path) + "...")
		go mw.session.Upload(mw.ctx, path)
	}, mw.Window)

	exts := maskimage.SupportedFormats()
	filter := make([]string, 0, len(exts)*2)
	for _, ext := range exts {
		filter = append(filter, ext, strings.ToUpper(ext))
	}
	fd.SetFilter(storage.NewExtensionFileFilter(filter))
	if loc := mw.lastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onPredict() {
	mw.session.Predict(mw.ctx)
}

func (mw *MainWindow) onSave() {
	go func() {
		if id, err := mw.session.Save(mw.ctx); err == nil {
			mw.logger.Info("mask saved", "mask_id", id)
		}
	}()
}

func (mw *MainWindow) onShowMasks() {
	go mw.session.ShowMasks(mw.ctx)
}

func (mw *MainWindow) onRefreshMasks() {
	go mw.session.Refresh(mw.ctx)
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Box-prompted segmentation with brush refinement.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
