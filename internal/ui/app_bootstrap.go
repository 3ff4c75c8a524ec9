package ui

import (
	"log/slog"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	ponyapp "github.com/skobkin/ponyexpress/internal/app"
	"github.com/skobkin/ponyexpress/internal/query"
	"github.com/skobkin/ponyexpress/internal/session"
)

var appLogger = slog.With("component", "ui")

var newFyneApp = func() fyne.App {
	return fyneapp.NewWithID("net.skobkin." + ponyapp.Name)
}

// Run opens the main window and blocks until the app quits.
func Run(dep RuntimeDependencies) error {
	return runWithApp(dep, newFyneApp())
}

func runWithApp(dep RuntimeDependencies, fyApp fyne.App) error {
	appLogger.Info("starting UI runtime", "start_hidden", dep.Launch.StartHidden)

	window := fyApp.NewWindow(ponyapp.DisplayName)
	window.Resize(fyne.NewSize(1000, 700))

	dep.UIHooks.CurrentWindow = func() fyne.Window { return window }
	dep.UIHooks = withDefaultHooks(dep.UIHooks)

	router := newRouter(dep, ParseRoute(dep.Launch.InitialRoute), func(route Route) {
		window.SetTitle(formatWindowTitle(route))
	})
	router.Refresh()
	if chatID := dep.Data.LastSelectedChat; chatID != "" && dep.Launch.InitialRoute == "" && validChatID(chatID) {
		router.Navigate(chatRoute(chatID))
	}
	window.SetContent(router.Object())

	uiRuntime := newUIRuntime(fyApp, window, dep.Actions.OnQuit)
	uiRuntime.trackFocus(fyApp.Lifecycle())
	uiRuntime.OnShutdown(startNotificationService(dep, NewFyneNotificationSender(fyApp), uiRuntime.Attended))
	uiRuntime.OnShutdown(startUIEventListeners(
		dep.Data.Bus,
		func(event session.Event) {
			dep.UIHooks.RunOnUI(func() { router.HandleSessionEvent(event) })
		},
		func(key query.Key) {
			dep.UIHooks.RunOnUI(func() { router.HandleQueryUpdate(key) })
		},
		func(status ponyapp.ServerStatus) {
			dep.UIHooks.RunOnUI(func() { router.HandleServerStatus(status) })
		},
	))
	hasTray := configureSystemTray(fyApp, uiRuntime.ShowWindow, uiRuntime.Quit)
	uiRuntime.BindCloseIntercept(hasTray)

	uiRuntime.Run(dep.Launch.StartHidden)

	return nil
}

func formatWindowTitle(route Route) string {
	switch route.Name {
	case RouteChat:
		return ponyapp.DisplayName + " - chat " + route.ChatID
	case RouteSettings:
		return ponyapp.DisplayName + " - settings"
	default:
		return ponyapp.DisplayName
	}
}
