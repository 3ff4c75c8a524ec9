package ui

import (
	"sync"
	"sync/atomic"

	"fyne.io/fyne/v2"
)

// uiRuntime owns the main window between launch and shutdown: whether the
// user is looking at it, hiding to the tray and the order background
// listeners are released in.
type uiRuntime struct {
	fyApp  fyne.App
	window fyne.Window
	onQuit func()

	hidden  atomic.Bool
	focused atomic.Bool

	mu           sync.Mutex
	cleanups     []func()
	shutdownOnce sync.Once
}

func newUIRuntime(fyApp fyne.App, window fyne.Window, onQuit func()) *uiRuntime {
	return &uiRuntime{
		fyApp:  fyApp,
		window: window,
		onQuit: onQuit,
	}
}

// OnShutdown registers fn to run once on shutdown. Cleanups run latest first,
// then onQuit.
func (r *uiRuntime) OnShutdown(fn func()) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.cleanups = append(r.cleanups, fn)
	r.mu.Unlock()
}

// Attended reports whether the chat window is visible and focused.
func (r *uiRuntime) Attended() bool {
	return !r.hidden.Load() && r.focused.Load()
}

// ShowWindow brings the window back from the tray.
func (r *uiRuntime) ShowWindow() {
	if r.window == nil {
		return
	}
	r.window.Show()
	r.window.RequestFocus()
	r.hidden.Store(false)
	r.focused.Store(true)
}

func (r *uiRuntime) hideWindow(reason string) {
	if r.window == nil {
		return
	}
	appLogger.Debug("hiding main window", "reason", reason)
	r.window.Hide()
	r.hidden.Store(true)
}

// BindCloseIntercept hides the window instead of quitting when a tray icon
// can bring it back.
func (r *uiRuntime) BindCloseIntercept(hasTray bool) {
	if r.window == nil || !hasTray {
		return
	}
	r.window.SetCloseIntercept(func() {
		r.hideWindow("closed to tray")
	})
}

func (r *uiRuntime) Quit() {
	r.shutdownOnce.Do(func() {
		appLogger.Info("quitting UI runtime")
		r.shutdown()
		if r.fyApp != nil {
			r.fyApp.Quit()
		}
	})
}

// Run blocks in the fyne event loop. Cleanups also run when the loop ends
// without Quit.
func (r *uiRuntime) Run(startHidden bool) {
	if r.window != nil {
		r.window.Show()
		r.focused.Store(true)
		if startHidden {
			r.hideWindow("start hidden")
		}
	}
	if r.fyApp != nil {
		r.fyApp.Run()
	}
	appLogger.Info("UI runtime stopped")
	r.shutdownOnce.Do(r.shutdown)
}

func (r *uiRuntime) shutdown() {
	r.mu.Lock()
	cleanups := r.cleanups
	r.cleanups = nil
	r.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	if r.onQuit != nil {
		r.onQuit()
	}
}
