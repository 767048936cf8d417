// Package tray provides a macOS system tray menu for posecoach.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/posecoach/internal/session"
)

// Tray represents the macOS system tray application.
type Tray struct {
	onToggle    func(enabled bool)
	onDashboard func()
	onQuit      func()
	enabled     bool
	lastSession string
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuLastSession *systray.MenuItem
}

// New creates a new Tray instance with video intake enabled.
func New() *Tray {
	return &Tray{
		enabled:     true,
		lastSession: "Last: none",
	}
}

// OnToggle sets the callback function to be called when video intake is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnDashboard sets the callback function to be called when the dashboard menu item is clicked.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray event loop, unblocking Run.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("PoseCoach")
	systray.SetTooltip("PoseCoach exercise form scoring")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume video analysis")
	systray.AddSeparator()

	t.menuLastSession = systray.AddMenuItem(t.lastSession, "Most recent session")
	t.menuLastSession.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit PoseCoach")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	t.menuToggle.SetTitle(toggleTitle(enabled))
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastSession updates the last session display in the menu.
func (t *Tray) SetLastSession(rec session.Record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastSession = lastSessionTitle(rec)
	if t.menuLastSession != nil {
		t.menuLastSession.SetTitle(t.lastSession)
	}
}

// LastSession returns the current last session title.
func (t *Tray) LastSession() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastSession
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Accepting videos"
	}
	return "○ Paused"
}

func lastSessionTitle(rec session.Record) string {
	if rec.ID == "" {
		return "Last: none"
	}
	if rec.Status != session.StatusCompleted {
		return fmt.Sprintf("Last: %s %s", rec.ExerciseType, rec.Status)
	}
	if rec.Summary.Score == nil {
		return fmt.Sprintf("Last: %s, no pose", rec.ExerciseType)
	}
	return fmt.Sprintf("Last: %s %.1f", rec.ExerciseType, rec.Summary.Score.Overall)
}
