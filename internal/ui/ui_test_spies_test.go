package ui

import (
	"fyne.io/fyne/v2"

	"github.com/skobkin/ponyexpress/internal/notifications"
)

// basicAppWrapper hides the desktop extensions of the test app.
type basicAppWrapper struct {
	fyne.App
}

type appRunQuitSpy struct {
	fyne.App
	runCalls  int
	quitCalls int
}

func (a *appRunQuitSpy) Run()  { a.runCalls++ }
func (a *appRunQuitSpy) Quit() { a.quitCalls++ }

type trayAppSpy struct {
	fyne.App
	trayMenu *fyne.Menu
	trayIcon fyne.Resource
}

func (a *trayAppSpy) SetSystemTrayMenu(menu *fyne.Menu)    { a.trayMenu = menu }
func (a *trayAppSpy) SetSystemTrayIcon(icon fyne.Resource) { a.trayIcon = icon }
func (a *trayAppSpy) SetSystemTrayWindow(fyne.Window)      {}

type windowSpy struct {
	fyne.Window
	showCalls      int
	hideCalls      int
	focusCalls     int
	closeIntercept func()
}

func (w *windowSpy) Show() {
	w.showCalls++
	w.Window.Show()
}

func (w *windowSpy) Hide() {
	w.hideCalls++
	w.Window.Hide()
}

func (w *windowSpy) RequestFocus() {
	w.focusCalls++
	w.Window.RequestFocus()
}

func (w *windowSpy) SetCloseIntercept(fn func()) {
	w.closeIntercept = fn
	w.Window.SetCloseIntercept(fn)
}

type lifecycleSpy struct {
	entered func()
	exited  func()
}

func (l *lifecycleSpy) SetOnEnteredForeground(fn func()) { l.entered = fn }
func (l *lifecycleSpy) SetOnExitedForeground(fn func())  { l.exited = fn }
func (l *lifecycleSpy) SetOnStarted(func())              {}
func (l *lifecycleSpy) SetOnStopped(func())              {}

type notificationSenderSpy struct {
	sent chan notifications.Payload
}

func newNotificationSenderSpy() *notificationSenderSpy {
	return &notificationSenderSpy{sent: make(chan notifications.Payload, 8)}
}

func (s *notificationSenderSpy) Send(payload notifications.Payload) {
	s.sent <- payload
}
