// Package main provides the entry point for the mask annotator.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"mask-annotator/internal/app"
	"mask-annotator/internal/backend"
	"mask-annotator/internal/editor"
	"mask-annotator/internal/metrics"
	"mask-annotator/internal/store"
	"mask-annotator/internal/version"
	"mask-annotator/ui/mainwindow"
	"mask-annotator/ui/prefs"
	"mask-annotator/ui/theme"

	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
)

func main() {
	defaults := editor.DefaultConfig()

	backendURL := flag.String("backend", "", "Annotation backend base URL (default from preferences, else "+backend.DefaultBaseURL+")")
	storeDir := flag.String("store", "", "Keep saved masks in this directory instead of on the backend")
	metricsAddr := flag.String("metrics", "", "Serve Prometheus metrics on this address, e.g. :9090")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	maxHeight := flag.Float64("max-display-height", defaults.MaxDisplayHeight, "Maximum height of the displayed image in pixels")
	timeout := flag.Duration("timeout", defaults.RequestTimeout, "Backend request timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(*logLevel)}))
	logger.Info("starting", "version", version.Version, "commit", version.GitCommit)

	appPrefs, err := prefs.Load()
	if err != nil {
		logger.Warn("preferences ignored", "err", err)
	}

	cfg := defaults
	cfg.MaxDisplayHeight = *maxHeight
	cfg.RequestTimeout = *timeout

	url := *backendURL
	if url == "" {
		url = appPrefs.String(prefs.KeyBackendURL, backend.DefaultBaseURL)
	}
	appPrefs.SetString(prefs.KeyBackendURL, url)
	client := backend.NewClient(url, cfg.RequestTimeout, logger)

	collab := editor.Collaborators{
		Segmenter: client,
		Store:     client,
		Resetter:  client,
		Uploader:  client,
	}
	if *storeDir != "" {
		ds, err := store.NewDirStore(*storeDir, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open mask store: %v\n", err)
			os.Exit(1)
		}
		collab.Store = ds
		collab.Resetter = resetBoth{client, ds}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var recorder editor.Recorder
	if *metricsAddr != "" {
		m := metrics.New()
		recorder = m
		go func() {
			if err := m.Serve(ctx, *metricsAddr, logger); err != nil {
				logger.Error("metrics server stopped", "err", err)
			}
		}()
	}

	fyneApp := fyneapp.NewWithID("io.github.mask-annotator")
	fyneApp.Settings().SetTheme(&theme.AnnotatorTheme{})

	session := editor.NewSession(cfg, collab, app.NewState(), logger, recorder)
	win := mainwindow.New(ctx, fyneApp, session, appPrefs, cfg, logger)

	if flag.NArg() > 0 {
		path := flag.Arg(0)
		go func() {
			if err := session.Upload(ctx, path); err != nil {
				logger.Error("failed to open image", "path", path, "err", err)
			}
		}()
	}

	setupHotReload(win, logger)

	win.ShowAndRun()
	cancel()
	session.Wait()
}

// resetBoth clears the backend session and the local store.
type resetBoth struct {
	remote backend.SessionResetter
	local  backend.SessionResetter
}

func (r resetBoth) Reset(ctx context.Context) error {
	if err := r.remote.Reset(ctx); err != nil {
		return err
	}
	return r.local.Reset(ctx)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupHotReload offers a restart when the binary is rebuilt.
func setupHotReload(win *mainwindow.MainWindow, logger *slog.Logger) {
	reloader, err := app.NewHotReloader(2*time.Second, logger)
	if err != nil {
		logger.Warn("hot reload disabled", "err", err)
		return
	}

	reloader.OnTick(win.SavePreferencesIfChanged)

	reloader.OnNewBinary(func() {
		dialog.ShowConfirm("New Version Available",
			"The application binary has been updated.\nRestart now?",
			func(yes bool) {
				if !yes {
					reloader.ResetBaseline()
					return
				}
				win.SavePreferences()
				logger.Info("restarting")
				if err := reloader.Restart(); err != nil {
					logger.Error("restart failed", "err", err)
				}
			}, win.Window)
	})

	if err := reloader.Start(); err != nil {
		logger.Warn("hot reload disabled", "err", err)
	}
}
