package ui

import (
	"fyne.io/fyne/v2"

	"github.com/skobkin/ponyexpress/internal/notifications"
)

// FyneNotificationSender bridges app notifications to native Fyne notifications.
type FyneNotificationSender struct {
	app fyne.App
}

func NewFyneNotificationSender(app fyne.App) *FyneNotificationSender {
	return &FyneNotificationSender{app: app}
}

func (s *FyneNotificationSender) Send(notification notifications.Payload) {
	if s == nil || s.app == nil {
		return
	}

	notification, ok := notification.Normalized()
	if !ok {
		return
	}

	fyne.Do(func() {
		s.app.SendNotification(fyne.NewNotification(notification.Title, notification.Content))
	})
}
