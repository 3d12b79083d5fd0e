// Package tray provides the menu bar controls for mudra.
package tray

import (
	"fmt"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/gesture"
)

// Tray is the system tray menu. It implements session.Listener so the menu
// follows the session state.
type Tray struct {
	mu sync.RWMutex

	onStart       func() error
	onStop        func()
	onToggleMouse func() bool
	onDashboard   func()
	onQuit        func()

	ready   bool
	running bool
	mouse   bool
	last    string

	menuSession *systray.MenuItem
	menuMouse   *systray.MenuItem
	menuLast    *systray.MenuItem
}

// New creates a Tray. Nothing is shown until Run.
func New() *Tray {
	return &Tray{}
}

// OnStart sets the callback for the start menu item.
func (t *Tray) OnStart(fn func() error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStart = fn
}

// OnStop sets the callback for the stop menu item.
func (t *Tray) OnStop(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStop = fn
}

// OnToggleMouse sets the callback for the mouse control item. The menu
// title follows MouseChanged, not the callback's result.
func (t *Tray) OnToggleMouse(fn func() bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggleMouse = fn
}

// OnDashboard sets the callback for the dashboard item.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback run before the tray exits.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run shows the tray. It blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra hand gestures")

	t.mu.Lock()
	t.menuSession = systray.AddMenuItem(sessionTitle(t.running), "Start or stop the camera")
	t.menuMouse = systray.AddMenuItem(mouseTitle(t.mouse), "Move the cursor with your index finger")
	systray.AddSeparator()
	t.menuLast = systray.AddMenuItem(lastTitle(t.last), "Last detected gesture")
	t.menuLast.Disable()
	systray.AddSeparator()
	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")
	t.ready = true
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-t.menuSession.ClickedCh:
				t.handleSession()
			case <-t.menuMouse.ClickedCh:
				t.handleMouse()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleSession() {
	t.mu.RLock()
	running := t.running
	start, stop := t.onStart, t.onStop
	t.mu.RUnlock()

	if running {
		if stop != nil {
			stop()
		}
		return
	}

	if start == nil {
		return
	}
	if err := start(); err != nil {
		t.notify(fmt.Sprintf("Camera unavailable: %v", err))
	}
}

func (t *Tray) handleMouse() {
	t.mu.RLock()
	toggle := t.onToggleMouse
	t.mu.RUnlock()

	if toggle != nil {
		toggle()
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
}

// setTitle updates item once the menu exists. Callers hold t.mu.
func (t *Tray) setTitle(item *systray.MenuItem, title string) {
	if t.ready && item != nil {
		item.SetTitle(title)
	}
}

func (t *Tray) notify(msg string) {
	t.mu.RLock()
	ready := t.ready
	t.mu.RUnlock()

	if ready {
		systray.SetTooltip(msg)
	}
}

// SessionStarted implements session.Listener.
func (t *Tray) SessionStarted(id string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = true
	t.setTitle(t.menuSession, sessionTitle(true))
}

// GestureEmitted implements session.Listener.
func (t *Tray) GestureEmitted(sessionID string, ev gesture.Event, mouseEnabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = string(ev.Label)
	t.setTitle(t.menuLast, lastTitle(t.last))
}

// SessionEnded implements session.Listener.
func (t *Tray) SessionEnded(id, reason string, at time.Time) {
	t.mu.Lock()
	t.running = false
	t.last = ""
	t.setTitle(t.menuSession, sessionTitle(false))
	t.setTitle(t.menuLast, lastTitle(""))
	t.mu.Unlock()
}

// MouseChanged implements session.MouseListener. It fires for toggles from
// any surface, including the dashboard.
func (t *Tray) MouseChanged(enabled bool) {
	t.mu.Lock()
	t.mouse = enabled
	t.setTitle(t.menuMouse, mouseTitle(enabled))
	t.mu.Unlock()

	if enabled {
		t.notify("Mouse control enabled. Point with your index finger to move the cursor.")
	} else {
		t.notify("Mudra hand gestures")
	}
}

// State returns the menu's view of the session.
func (t *Tray) State() (running, mouse bool, last string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running, t.mouse, t.last
}

func sessionTitle(running bool) string {
	if running {
		return "■ Stop Camera"
	}
	return "▶ Start Camera"
}

func mouseTitle(enabled bool) string {
	if enabled {
		return "● Mouse Control"
	}
	return "○ Mouse Control"
}

func lastTitle(name string) string {
	if name == "" {
		return "Last: none"
	}
	return "Last: " + name
}
