package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"mask-annotator/internal/app"
	"mask-annotator/internal/backend"
	"mask-annotator/internal/editerr"
	maskimage "mask-annotator/internal/image"
	"mask-annotator/pkg/geometry"

	"github.com/google/uuid"
)

// Collaborators groups the external services a Session uses. Uploader and
// Resetter may be nil for a purely local setup.
type Collaborators struct {
	Segmenter backend.Segmenter
	Store     backend.Store
	Resetter  backend.SessionResetter
	Uploader  backend.Uploader
}

// Session wraps a Controller with a mutex and runs collaborator calls.
// Pointer handlers and asynchronous completions may come from different
// goroutines; every Controller access goes through the lock.
type Session struct {
	mu   sync.Mutex
	ctrl *Controller

	collab  Collaborators
	state   *app.State
	logger  *slog.Logger
	metrics Recorder
	cfg     Config

	wg sync.WaitGroup
}

// NewSession creates a session. A nil state gets a private one.
func NewSession(cfg Config, collab Collaborators, state *app.State, logger *slog.Logger, metrics Recorder) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if state == nil {
		state = app.NewState()
	}
	return &Session{
		ctrl:    NewController(cfg, logger, metrics),
		collab:  collab,
		state:   state,
		logger:  logger.With("component", "session"),
		metrics: metrics,
		cfg:     cfg,
	}
}

// State returns the event hub.
func (s *Session) State() *app.State {
	return s.state
}

// Wait blocks until every background segmentation has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

// report shows err to the operator unless it is silent, and returns it.
func (s *Session) report(err error) error {
	if err == nil {
		return nil
	}
	if editerr.Silent(err) {
		s.logger.Debug("discarded", "err", err)
		return err
	}
	s.state.SetStatus(editerr.Message(err))
	return err
}

func (s *Session) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.RequestTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

// Upload resets the backend session, uploads the file, and loads it for
// editing. It blocks on the network.
func (s *Session) Upload(ctx context.Context, path string) error {
	if !maskimage.IsSupportedFormat(path) {
		return s.report(fmt.Errorf("unsupported image format: %s", filepath.Ext(path)))
	}
	src, err := maskimage.Load(path)
	if err != nil {
		return s.report(err)
	}

	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	if s.collab.Resetter != nil {
		if err := s.collab.Resetter.Reset(ctx); err != nil {
			return s.report(fmt.Errorf("reset session: %w", err))
		}
	}
	if s.collab.Uploader != nil {
		f, err := os.Open(path)
		if err != nil {
			return s.report(fmt.Errorf("failed to open image: %w", err))
		}
		res, err := s.collab.Uploader.Upload(ctx, filepath.Base(path), f)
		f.Close()
		if err != nil {
			return s.report(err)
		}
		src.ID = res.ImagePath
	}
	return s.LoadSource(src)
}

// LoadSource starts editing an already decoded image.
func (s *Session) LoadSource(src *maskimage.Source) error {
	s.mu.Lock()
	err := s.ctrl.LoadImage(src)
	s.mu.Unlock()
	if err != nil {
		return s.report(err)
	}
	s.state.SetBusy(false)
	s.state.SetStatus(fmt.Sprintf("Loaded %s (%dx%d)", src.Name(), src.Width(), src.Height()))
	s.state.Emit(app.EventImageLoaded, src)
	s.state.Emit(app.EventModeChanged, ModeBoxSelect)
	return nil
}

// Predict sends the current box to the segmenter. The response is applied
// in the background; a response that has been superseded is dropped.
func (s *Session) Predict(ctx context.Context) error {
	s.mu.Lock()
	ticket, err := s.ctrl.BeginSegmentation()
	s.mu.Unlock()
	if err != nil {
		return s.report(err)
	}
	if s.collab.Segmenter == nil {
		s.mu.Lock()
		s.ctrl.AbandonSegmentation(ticket)
		s.mu.Unlock()
		return s.report(errors.New("no segmentation backend configured"))
	}

	s.state.SetBusy(true)
	s.state.SetStatus("Running prediction...")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := s.callCtx(ctx)
		defer cancel()

		raster, err := s.collab.Segmenter.Segment(ctx, ticket.Request)
		s.complete(ticket, raster, err)
	}()
	return nil
}

func (s *Session) complete(ticket Ticket, raster image.Image, segErr error) {
	s.mu.Lock()
	var err error
	if segErr != nil {
		if err = s.ctrl.AbandonSegmentation(ticket); err == nil {
			err = fmt.Errorf("segmentation: %w", segErr)
		}
	} else {
		err = s.ctrl.CompleteSegmentation(ticket, raster)
	}
	busy := s.ctrl.Busy()
	s.mu.Unlock()

	if editerr.Silent(err) {
		s.logger.Debug("stale segmentation dropped", "generation", ticket.Generation)
		return
	}
	s.state.SetBusy(busy)
	if err != nil {
		s.logger.Warn("segmentation failed", "generation", ticket.Generation, "err", err)
		s.report(err)
		return
	}
	s.state.SetStatus("Mask ready")
	s.state.Emit(app.EventMaskChanged, nil)
}

// Save exports the mask at natural resolution and persists it under a new
// ID. The result is ignored if a different image was loaded meanwhile.
func (s *Session) Save(ctx context.Context) (string, error) {
	s.mu.Lock()
	epoch := s.ctrl.Epoch()
	m, err := s.ctrl.ExportMask()
	s.mu.Unlock()
	if err != nil {
		return "", s.report(err)
	}
	if s.collab.Store == nil {
		return "", s.report(errors.New("no mask store configured"))
	}

	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	id := uuid.NewString()
	if err := s.collab.Store.Save(ctx, id, m); err != nil {
		s.metrics.ObserveSave(OutcomeFailed)
		s.logger.Error("save failed", "mask_id", id, "err", err)
		return "", s.report(fmt.Errorf("save mask: %w", err))
	}

	s.mu.Lock()
	stale := s.ctrl.Epoch() != epoch
	inspecting := s.ctrl.Mode() == ModeInspect
	s.mu.Unlock()
	if stale {
		s.metrics.ObserveSave(OutcomeStale)
		return id, fmt.Errorf("save mask %s: %w", id, editerr.ErrStaleResponse)
	}

	s.metrics.ObserveSave(OutcomeSaved)
	s.state.SetStatus("Saved mask " + id)
	s.state.Emit(app.EventMaskSaved, id)
	if inspecting {
		return id, s.refreshRecords(ctx, epoch)
	}
	return id, nil
}

// ShowMasks lists saved masks and enters INSPECT.
func (s *Session) ShowMasks(ctx context.Context) error {
	s.mu.Lock()
	ready := s.ctrl.Source() != nil
	epoch := s.ctrl.Epoch()
	s.mu.Unlock()
	if !ready {
		return s.report(editerr.ErrNotReady)
	}

	ctx, cancel := s.callCtx(ctx)
	defer cancel()
	if err := s.refreshRecords(ctx, epoch); err != nil {
		return err
	}

	s.mu.Lock()
	s.ctrl.SetMode(ModeInspect)
	s.mu.Unlock()
	s.state.Emit(app.EventModeChanged, ModeInspect)
	return nil
}

// Refresh reloads the record snapshot without changing mode.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	epoch := s.ctrl.Epoch()
	s.mu.Unlock()
	ctx, cancel := s.callCtx(ctx)
	defer cancel()
	return s.refreshRecords(ctx, epoch)
}

func (s *Session) refreshRecords(ctx context.Context, epoch uint64) error {
	if s.collab.Store == nil {
		return s.report(errors.New("no mask store configured"))
	}
	records, err := s.collab.Store.List(ctx)
	if err != nil {
		return s.report(fmt.Errorf("list masks: %w", err))
	}

	s.mu.Lock()
	if s.ctrl.Epoch() != epoch {
		s.mu.Unlock()
		return fmt.Errorf("list masks: %w", editerr.ErrStaleResponse)
	}
	s.ctrl.SetRecords(records)
	s.mu.Unlock()

	s.logger.Debug("records loaded", "count", len(records))
	s.state.Emit(app.EventRecordsChanged, len(records))
	return nil
}

// HideMasks leaves INSPECT and returns to the previous tool.
func (s *Session) HideMasks() {
	s.mu.Lock()
	s.ctrl.ExitInspect()
	mode := s.ctrl.Mode()
	s.mu.Unlock()
	s.state.Emit(app.EventModeChanged, mode)
}

// SetMode switches tools.
func (s *Session) SetMode(m Mode) {
	s.mu.Lock()
	s.ctrl.SetMode(m)
	busy := s.ctrl.Busy()
	s.mu.Unlock()
	s.state.SetBusy(busy)
	if m == ModeBrushAdd || m == ModeBrushSubtract {
		s.state.SetStatus("Drag to paint, Shift+drag to lasso")
	}
	s.state.Emit(app.EventModeChanged, m)
}

// Mode returns the active tool.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Mode()
}

// SetBrushSize sets and returns the clamped brush radius.
func (s *Session) SetBrushSize(size int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.SetBrushSize(size)
}

// BrushSize returns the brush radius.
func (s *Session) BrushSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.BrushSize()
}

// PointerDown handles a press at a display point. In BOX_SELECT this drops
// the previous box, its mask and any pending prediction.
func (s *Session) PointerDown(p geometry.Point2D) error {
	s.mu.Lock()
	err := s.ctrl.PointerDown(p)
	busy := s.ctrl.Busy()
	s.mu.Unlock()
	s.state.SetBusy(busy)
	return s.report(err)
}

// PointerMove handles motion while a button is held.
func (s *Session) PointerMove(p geometry.Point2D) error {
	s.mu.Lock()
	err := s.ctrl.PointerMove(p)
	s.mu.Unlock()
	return s.report(err)
}

// PointerUp handles a release.
func (s *Session) PointerUp(p geometry.Point2D) error {
	s.mu.Lock()
	err := s.ctrl.PointerUp(p)
	_, hasBox := s.ctrl.Selection()
	s.mu.Unlock()
	if err == nil && hasBox {
		s.state.Emit(app.EventSelectionChanged, nil)
	}
	return s.report(err)
}

// Click handles a click; only INSPECT reacts.
func (s *Session) Click(p geometry.Point2D) error {
	s.mu.Lock()
	err := s.ctrl.Click(p)
	id, _ := s.ctrl.InspectSelection()
	s.mu.Unlock()
	if err == nil {
		s.state.Emit(app.EventSelectionChanged, id)
	}
	return s.report(err)
}

// Hover handles motion with no button held.
func (s *Session) Hover(p geometry.Point2D) {
	s.mu.Lock()
	s.ctrl.Hover(p)
	s.mu.Unlock()
}

// PointerLeft clears the brush cursor.
func (s *Session) PointerLeft() {
	s.mu.Lock()
	s.ctrl.PointerLeft()
	s.mu.Unlock()
}

// Lasso forwards a freehand path; closing it edits the mask in the brush
// modes.
func (s *Session) Lasso(path []geometry.Point2D, closed bool) error {
	s.mu.Lock()
	err := s.ctrl.Lasso(path, closed)
	s.mu.Unlock()
	if err == nil && closed {
		s.state.Emit(app.EventMaskChanged, nil)
	}
	return s.report(err)
}

// Resize refits the image to a new display area.
func (s *Session) Resize(containerW, maxH float64) error {
	s.mu.Lock()
	err := s.ctrl.Resize(containerW, maxH)
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("resize failed", "err", err)
	}
	return err
}

// Render copies the composed layers into a new image, or returns nil
// before an image is loaded.
func (s *Session) Render() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.ctrl.Compose()
	if out == nil {
		return nil
	}
	cp := image.NewRGBA(out.Rect)
	copy(cp.Pix, out.Pix)
	return cp
}

// DisplaySize returns the composed image size.
func (s *Session) DisplaySize() (geometry.Size, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.DisplaySize()
}
