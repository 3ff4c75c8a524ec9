package ui

import (
	"context"
	"log/slog"

	"fyne.io/fyne/v2"

	ponyapp "github.com/skobkin/ponyexpress/internal/app"
	"github.com/skobkin/ponyexpress/internal/config"
	"github.com/skobkin/ponyexpress/internal/notifications"
)

// trackFocus follows OS focus. A window hidden in the tray stays unattended
// even while the app itself is focused.
func (r *uiRuntime) trackFocus(lc fyne.Lifecycle) {
	if lc == nil {
		return
	}
	lc.SetOnEnteredForeground(func() {
		r.focused.Store(true)
	})
	lc.SetOnExitedForeground(func() {
		r.focused.Store(false)
	})
}

// startNotificationService notifies about session and server changes while
// the chat window is not attended. The returned func stops it.
func startNotificationService(dep RuntimeDependencies, sender notifications.Sender, attended func() bool) func() {
	currentConfig := dep.Data.CurrentConfig
	if currentConfig == nil {
		cfg := dep.Data.Config
		currentConfig = func() config.AppConfig { return cfg }
	}

	ctx, stop := context.WithCancel(context.Background())
	ponyapp.NewNotificationService(
		dep.Data.Bus,
		currentConfig,
		attended,
		sender,
		slog.With("component", "ui.notifications"),
	).Start(ctx)

	return stop
}
