package notifications

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

type notifyFunc func(title, message string, icon string) error

// DesktopSender shows native desktop notifications without a GUI toolkit.
// The CLI uses it; the GUI goes through fyne instead.
type DesktopSender struct {
	notify notifyFunc
	logger *slog.Logger
}

func NewDesktopSender(appName string, logger *slog.Logger) *DesktopSender {
	if logger == nil {
		logger = slog.Default().With("component", "notifications.desktop")
	}
	if appName != "" {
		beeep.AppName = appName
	}

	return &DesktopSender{
		notify: func(title, message, icon string) error {
			return beeep.Notify(title, message, icon)
		},
		logger: logger,
	}
}

func (s *DesktopSender) Send(payload Payload) {
	if s == nil || s.notify == nil {
		return
	}
	payload, ok := payload.Normalized()
	if !ok {
		return
	}
	if err := s.notify(payload.Title, payload.Content, ""); err != nil {
		s.logger.Warn("desktop notification failed", "error", err)
	}
}
