package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// HotReloader watches the running binary's directory and reports when a
// newer build replaces it. It also drives a periodic tick that callers use
// to flush preferences.
type HotReloader struct {
	execPath     string
	startupTime  time.Time
	tickInterval time.Duration
	logger       *slog.Logger

	mu          sync.Mutex
	onNewBinary func()
	onTick      func()
	fired       bool
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewHotReloader resolves the current executable. It fails if the path or
// its modification time cannot be read.
func NewHotReloader(tickInterval time.Duration, logger *slog.Logger) (*HotReloader, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("hot reload: %w", err)
	}
	return newHotReloader(execPath, tickInterval, logger)
}

func newHotReloader(execPath string, tickInterval time.Duration, logger *slog.Logger) (*HotReloader, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	// go build replaces the file, so follow symlinks to the real target
	if real, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = real
	}
	info, err := os.Stat(execPath)
	if err != nil {
		return nil, fmt.Errorf("hot reload: %w", err)
	}
	return &HotReloader{
		execPath:     execPath,
		startupTime:  info.ModTime(),
		tickInterval: tickInterval,
		logger:       logger.With("component", "hotreload"),
		stopCh:       make(chan struct{}),
	}, nil
}

// OnNewBinary sets the callback for a detected rebuild. It runs on the
// watcher goroutine and fires at most once.
func (h *HotReloader) OnNewBinary(callback func()) {
	h.mu.Lock()
	h.onNewBinary = callback
	h.mu.Unlock()
}

// OnTick sets a callback invoked every tick interval.
func (h *HotReloader) OnTick(callback func()) {
	h.mu.Lock()
	h.onTick = callback
	h.mu.Unlock()
}

// Start begins watching in a background goroutine.
func (h *HotReloader) Start() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("hot reload: %w", err)
	}
	if err := w.Add(filepath.Dir(h.execPath)); err != nil {
		w.Close()
		return fmt.Errorf("hot reload: %w", err)
	}
	h.logger.Info("watching binary", "path", h.execPath,
		"modified", h.startupTime.Format("15:04:05"))
	go h.watchLoop(w)
	return nil
}

// Stop ends the watcher goroutine.
func (h *HotReloader) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

func (h *HotReloader) watchLoop(w *fsnotify.Watcher) {
	defer w.Close()

	var tick <-chan time.Time
	if h.tickInterval > 0 {
		ticker := time.NewTicker(h.tickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-h.stopCh:
			return
		case <-tick:
			h.mu.Lock()
			cb := h.onTick
			h.mu.Unlock()
			if cb != nil {
				cb()
			}
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != h.execPath || !ev.Has(fsnotify.Create|fsnotify.Write|fsnotify.Rename) {
				continue
			}
			h.checkForUpdate()
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			h.logger.Warn("watcher error", "err", err)
		}
	}
}

// checkForUpdate fires onNewBinary once if the binary is newer than at startup.
func (h *HotReloader) checkForUpdate() bool {
	info, err := os.Stat(h.execPath)
	if err != nil || !info.ModTime().After(h.StartupTime()) {
		return false
	}
	h.mu.Lock()
	if h.fired {
		h.mu.Unlock()
		return false
	}
	h.fired = true
	cb := h.onNewBinary
	h.mu.Unlock()

	h.logger.Info("newer binary detected", "modified", info.ModTime().Format("15:04:05"))
	if cb != nil {
		cb()
	}
	return true
}

// ExecPath returns the path to the current executable.
func (h *HotReloader) ExecPath() string {
	return h.execPath
}

// StartupTime returns the baseline modification time.
func (h *HotReloader) StartupTime() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.startupTime
}

// ResetBaseline adopts the binary's current modification time and re-arms
// the callback. Call it when the operator declines a restart.
func (h *HotReloader) ResetBaseline() {
	if info, err := os.Stat(h.execPath); err == nil {
		h.mu.Lock()
		h.startupTime = info.ModTime()
		h.fired = false
		h.mu.Unlock()
	}
}

// Restart replaces the current process with a new instance of the binary,
// preserving arguments and environment. It does not return on success.
func (h *HotReloader) Restart() error {
	return syscall.Exec(h.execPath, os.Args, os.Environ())
}
