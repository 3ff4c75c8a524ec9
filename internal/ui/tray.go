package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"

	ponyapp "github.com/skobkin/ponyexpress/internal/app"
)

// configureSystemTray reports false when the driver has no tray; closing the
// window then quits.
func configureSystemTray(fyApp fyne.App, show func(), quit func()) bool {
	desk, ok := fyApp.(desktop.App)
	if !ok {
		return false
	}

	desk.SetSystemTrayIcon(theme.MailComposeIcon())
	desk.SetSystemTrayMenu(fyne.NewMenu(ponyapp.DisplayName,
		fyne.NewMenuItem("Open chats", func() {
			appLogger.Debug("tray: open chats")
			if show != nil {
				show()
			}
		}),
		fyne.NewMenuItem("Quit", func() {
			appLogger.Debug("tray: quit")
			if quit != nil {
				quit()
			}
		}),
	))

	return true
}
