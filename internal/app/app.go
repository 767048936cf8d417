// Package app wires sessions to persistence, the video analysis worker pool
// and plugin hooks.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ayusman/posecoach/internal/capture"
	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/exercise"
	"github.com/ayusman/posecoach/internal/metrics"
	"github.com/ayusman/posecoach/internal/plugin"
	"github.com/ayusman/posecoach/internal/server/api"
	"github.com/ayusman/posecoach/internal/session"
	"github.com/ayusman/posecoach/internal/store"
)

// Worker pool defaults.
const (
	// DefaultWorkers is the number of videos analyzed concurrently.
	DefaultWorkers = 2
	// DefaultQueueSize is the number of videos that may wait for a worker.
	DefaultQueueSize = 16
	// MaxConsecutiveDetectErrors fails a video once this many frames in a row
	// could not be analyzed. Fewer errors are recorded as frames without a pose.
	MaxConsecutiveDetectErrors = 10
)

// Config holds configuration options for the application.
type Config struct {
	Store            *store.Store
	Registry         *exercise.Registry
	Detector         detector.Detector
	// NewVideoDetector builds a detector for a single video job; it is closed
	// when the job ends. When nil, jobs share Detector, which suits detectors
	// that keep no state between frames.
	NewVideoDetector func() (detector.Detector, error)
	Metrics          *metrics.Metrics
	PluginDir        string
	Workers          int
	QueueSize        int
	ProgressInterval int

	// OpenSource opens a video for analysis. Defaults to capture.NewVideoFile.
	OpenSource func(path string) capture.Source

	Logger *slog.Logger
}

// job is one queued video analysis.
type job struct {
	session *session.Session
	path    string
}

// App is the main application that owns sessions, analyzes queued videos and
// runs plugins when sessions complete.
type App struct {
	config     Config
	logger     *slog.Logger
	manager    *session.Manager
	detector   detector.Detector
	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor
	jobs       chan job

	mu        sync.RWMutex
	enabled   bool
	pending   map[string]bool
	ctx       context.Context
	cancel    context.CancelFunc
	listeners []func(session.Record)

	// persistMu orders progress updates against the final save.
	persistMu sync.Mutex

	workers sync.WaitGroup
	hooks   sync.WaitGroup
}

// New creates a new App instance with the given configuration.
// A nil Detector falls back to the mock detector, which never finds a pose.
func New(config Config) *App {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}
	if config.OpenSource == nil {
		config.OpenSource = func(path string) capture.Source {
			return capture.NewVideoFile(path)
		}
	}
	if config.Detector == nil {
		config.Logger.Warn("no pose detector configured, using mock detector")
		config.Detector = detector.NewMockDetector()
	}

	a := &App{
		config:     config,
		logger:     config.Logger,
		detector:   config.Detector,
		pluginMgr:  plugin.NewManager(config.PluginDir, config.Logger),
		pluginExec: plugin.NewExecutor(plugin.DefaultTimeout),
		jobs:       make(chan job, config.QueueSize),
		enabled:    true,
		pending:    make(map[string]bool),
		ctx:        context.Background(),
	}

	managerCfg := session.Config{
		Registry:         config.Registry,
		ProgressInterval: config.ProgressInterval,
		Hooks: session.Hooks{
			OnCreate:   a.sessionCreated,
			OnProgress: a.sessionProgress,
			OnClose:    a.sessionClosed,
		},
		Logger: config.Logger,
	}
	if config.Metrics != nil {
		managerCfg.Observer = config.Metrics
	}
	a.manager = session.NewManager(managerCfg)

	return a
}

// Manager returns the session manager.
func (a *App) Manager() *session.Manager {
	return a.manager
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Detector returns the pose detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// SetEnabled pauses or resumes video intake.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
	a.logger.Info("video intake toggled", "enabled", enabled)
}

// IsEnabled returns whether new videos are accepted.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// OnSessionClosed registers fn to be called after a session is closed and persisted.
func (a *App) OnSessionClosed(fn func(session.Record)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Enqueue schedules a video for analysis in session s. It implements
// api.VideoQueue. A wrapped api.ErrQueueFull is returned when intake is
// paused or every queue slot is taken.
func (a *App) Enqueue(s *session.Session, path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.enabled {
		return fmt.Errorf("%w: video intake is paused", api.ErrQueueFull)
	}
	if a.pending[s.ID()] {
		return fmt.Errorf("%w: video already queued", session.ErrClosed)
	}

	select {
	case a.jobs <- job{session: s, path: path}:
		a.pending[s.ID()] = true
		a.logger.Info("video queued", "session", s.ID(), "path", path, "queued", len(a.jobs))
		return nil
	default:
		return api.ErrQueueFull
	}
}

// Start launches the worker pool. Workers stop when ctx is done or Stop is
// called; sessions they are processing are cancelled.
func (a *App) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.cancel != nil {
		return
	}

	a.ctx, a.cancel = context.WithCancel(ctx)
	for i := 0; i < a.config.Workers; i++ {
		a.workers.Add(1)
		go a.worker(a.ctx, i)
	}

	a.logger.Info("video pipeline started", "workers", a.config.Workers, "queue", a.config.QueueSize)
}

// Stop halts the worker pool, cancels queued videos, waits for plugin hooks
// and releases the detector.
func (a *App) Stop() {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	a.workers.Wait()

	// Cancel sessions whose videos never reached a worker
drain:
	for {
		select {
		case j := <-a.jobs:
			a.release(j.session.ID())
			if _, err := j.session.Cancel(); err != nil {
				a.logger.Debug("queued session already closed", "session", j.session.ID(), "err", err)
			}
		default:
			break drain
		}
	}

	a.hooks.Wait()

	if err := a.detector.Close(); err != nil {
		a.logger.Warn("error closing detector", "err", err)
	}

	a.logger.Info("video pipeline stopped")
}

// Wait blocks until plugin hooks started so far have returned.
func (a *App) Wait() {
	a.hooks.Wait()
}

func (a *App) release(id string) {
	a.mu.Lock()
	delete(a.pending, id)
	a.mu.Unlock()
}

func (a *App) baseContext() context.Context {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ctx
}

func (a *App) sessionCreated(rec session.Record) {
	if a.config.Store == nil {
		return
	}
	if err := a.config.Store.Sessions().Create(&rec); err != nil {
		a.logger.Error("failed to persist session", "session", rec.ID, "err", err)
	}
}

func (a *App) sessionProgress(p session.Progress) {
	a.logger.Debug("session progress",
		"session", p.SessionID, "processed", p.Processed, "expected", p.Expected, "percent", p.Percent)

	if a.config.Store == nil {
		return
	}
	s, err := a.manager.Get(p.SessionID)
	if err != nil {
		return
	}

	a.persistMu.Lock()
	defer a.persistMu.Unlock()

	rec := s.Record()
	if rec.Status.Closed() {
		return
	}
	if err := a.config.Store.Sessions().Update(&rec); err != nil {
		a.logger.Warn("failed to persist session progress", "session", p.SessionID, "err", err)
	}
}

func (a *App) sessionClosed(rec session.Record, frames []session.FrameRecord) {
	if a.config.Store != nil {
		a.persistMu.Lock()
		if err := a.config.Store.Sessions().Save(&rec); err != nil {
			a.logger.Error("failed to persist session", "session", rec.ID, "err", err)
		} else if err := a.config.Store.Frames().Create(rec.ID, frames); err != nil {
			a.logger.Error("failed to persist frames", "session", rec.ID, "frames", len(frames), "err", err)
		}
		a.persistMu.Unlock()
	}

	if rec.Status == session.StatusCompleted {
		a.hooks.Add(1)
		go func() {
			defer a.hooks.Done()
			a.runPlugins(a.baseContext(), rec)
		}()
	}

	a.mu.RLock()
	listeners := make([]func(session.Record), len(a.listeners))
	copy(listeners, a.listeners)
	a.mu.RUnlock()

	for _, fn := range listeners {
		fn(rec)
	}
}
