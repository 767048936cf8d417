package session

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/posecoach/internal/exercise"
)

// DefaultProgressInterval is how many frames pass between progress notifications.
const DefaultProgressInterval = 10

// Hooks are optional callbacks invoked outside session locks.
type Hooks struct {
	// OnCreate is called after a session is registered.
	OnCreate func(Record)

	// OnProgress is called every progress interval frames.
	OnProgress func(Progress)

	// OnClose is called once when a session completes, fails or is cancelled.
	OnClose func(Record, []FrameRecord)
}

// Observer receives per-frame and lifecycle events, typically for metrics.
type Observer interface {
	SessionStarted(exerciseType string, usedFallback bool)
	FrameAnalyzed(exerciseType string, result exercise.FrameResult)
	SessionEnded(exerciseType string, status string)
}

// Config holds configuration for a Manager.
type Config struct {
	Registry         *exercise.Registry
	ProgressInterval int
	Hooks            Hooks
	Observer         Observer
	Logger           *slog.Logger
}

// Manager owns the set of live sessions.
type Manager struct {
	registry *exercise.Registry
	interval int
	hooks    Hooks
	observer Observer
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a Manager. A nil Registry uses exercise.NewRegistry().
func NewManager(cfg Config) *Manager {
	if cfg.Registry == nil {
		cfg.Registry = exercise.NewRegistry()
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = DefaultProgressInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Manager{
		registry: cfg.Registry,
		interval: cfg.ProgressInterval,
		hooks:    cfg.Hooks,
		observer: cfg.Observer,
		logger:   cfg.Logger,
		sessions: make(map[string]*Session),
	}
}

// Registry returns the exercise registry sessions are resolved against.
func (m *Manager) Registry() *exercise.Registry {
	return m.registry
}

// ProgressInterval returns how many frames pass between progress notifications.
func (m *Manager) ProgressInterval() int {
	return m.interval
}

// Create starts a new session for the named exercise. Unknown exercise names
// fall back to the general variant and the session is flagged.
// expectedFrames may be zero when the total is not yet known.
func (m *Manager) Create(kind Kind, exerciseName string, expectedFrames int) *Session {
	variant, fallback := m.registry.Lookup(exerciseName)
	if fallback {
		m.logger.Warn("unsupported exercise type, using fallback",
			"requested", exerciseName, "using", variant.Type)
	}

	now := time.Now()
	s := &Session{
		id:            uuid.New().String(),
		kind:          kind,
		requested:     exerciseName,
		usedFallback:  fallback,
		variant:       variant,
		expected:      expectedFrames,
		progressEvery: m.interval,
		createdAt:     now,
		hooks:         &m.hooks,
		observer:      m.observer,
		logger:        m.logger,
		status:        StatusInitializing,
		updatedAt:     now,
		seq:           newSequencer(),
		agg:           NewAggregator(),
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logger.Info("session created",
		"session", s.id, "kind", kind, "exercise", variant.Type)

	if m.observer != nil {
		m.observer.SessionStarted(string(variant.Type), fallback)
	}
	if m.hooks.OnCreate != nil {
		m.hooks.OnCreate(s.Record())
	}
	return s
}

// Get returns a session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// List returns all sessions, oldest first.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].createdAt.Before(out[j].createdAt)
	})
	return out
}

// Remove drops a session from memory. An open session is cancelled first.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	if !s.Status().Closed() {
		_, _ = s.Cancel()
	}
	return nil
}

// Active returns the number of sessions still accepting frames.
func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, s := range m.sessions {
		if !s.Status().Closed() {
			n++
		}
	}
	return n
}
