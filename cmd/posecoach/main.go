package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ayusman/posecoach/internal/app"
	"github.com/ayusman/posecoach/internal/config"
	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/exercise"
	"github.com/ayusman/posecoach/internal/logging"
	"github.com/ayusman/posecoach/internal/metrics"
	"github.com/ayusman/posecoach/internal/server"
	"github.com/ayusman/posecoach/internal/session"
	"github.com/ayusman/posecoach/internal/store"
	"github.com/ayusman/posecoach/internal/tray"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "posecoach: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, os.Stderr)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("posecoach failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	logger.Info("PoseCoach - exercise form scoring", "data_dir", cfg.DataDir)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	uploadDir := filepath.Join(cfg.DataDir, "uploads")
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return fmt.Errorf("create upload directory: %w", err)
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	m := metrics.New()
	det, newVideoDetector := newDetectors(cfg, logger)

	a := app.New(app.Config{
		Store:            st,
		Registry:         exercise.NewRegistry(),
		Detector:         det,
		NewVideoDetector: newVideoDetector,
		Metrics:          m,
		PluginDir:        cfg.PluginDir,
		Workers:          cfg.Workers,
		ProgressInterval: cfg.ProgressInterval,
		Logger:           logger,
	})
	if err := a.DiscoverPlugins(); err != nil {
		logger.Warn("plugin discovery failed", "dir", cfg.PluginDir, "err", err)
	}

	if cfg.StaticDir != "" {
		logger.Info("serving static files", "dir", cfg.StaticDir)
	}

	srv := server.New(server.Config{
		StaticDir: cfg.StaticDir,
		UploadDir: uploadDir,
		Store:     st,
		Manager:   a.Manager(),
		Detector:  a.Detector(),
		Videos:    a,
		Metrics:   m.Handler(),
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Start(ctx)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Addr)
		serveErr <- srv.ListenAndServe(cfg.Addr)
	}()

	if cfg.Tray {
		// systray owns the main thread until Quit
		t := newTray(cfg, a, logger)
		go func() {
			select {
			case <-ctx.Done():
			case <-serveErr:
			}
			t.Quit()
		}()
		t.Run()
		stop()
	} else {
		select {
		case <-ctx.Done():
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.Stop()
				return fmt.Errorf("server: %w", err)
			}
		}
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", "err", err)
	}

	// Open sessions are cancelled so their partial aggregates are persisted
	for _, s := range a.Manager().List() {
		if !s.Status().Closed() {
			s.Cancel()
		}
	}
	a.Stop()
	return nil
}

// newDetectors builds the shared pose detector used for single images and a
// constructor for per-video detectors. Both fall back to the mock detector
// when MediaPipe is unavailable.
func newDetectors(cfg config.Config, logger *slog.Logger) (detector.Detector, func() (detector.Detector, error)) {
	if cfg.Detector == config.DetectorMock {
		logger.Info("using mock pose detector")
		return detector.NewMockDetector(), nil
	}

	dcfg := detector.DefaultConfig()
	dcfg.MinDetectionConfidence = cfg.MinDetectionConfidence
	dcfg.MinTrackingConfidence = cfg.MinTrackingConfidence
	dcfg.ModelComplexity = cfg.ModelComplexity

	// Requests from different clients interleave on the shared detector
	imageCfg := dcfg
	imageCfg.StaticImageMode = true

	mp, err := detector.NewMediaPipeDetector(imageCfg, logger)
	if err != nil {
		logger.Warn("MediaPipe not available, using mock detector", "err", err)
		return detector.NewMockDetector(), nil
	}
	logger.Info("using MediaPipe pose detection")

	// Each video gets its own tracking process
	newVideoDetector := func() (detector.Detector, error) {
		return detector.NewMediaPipeDetector(dcfg, logger)
	}
	return mp, newVideoDetector
}

func newTray(cfg config.Config, a *app.App, logger *slog.Logger) *tray.Tray {
	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnDashboard(func() {
		if err := openBrowser(dashboardURL(cfg.Addr)); err != nil {
			logger.Warn("failed to open dashboard", "err", err)
		}
	})
	a.OnSessionClosed(func(rec session.Record) {
		t.SetLastSession(rec)
	})
	return t
}

func dashboardURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
