package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/skobkin/ponyexpress/internal/bus"
	"github.com/skobkin/ponyexpress/internal/config"
	"github.com/skobkin/ponyexpress/internal/notifications"
	"github.com/skobkin/ponyexpress/internal/session"
)

const (
	notificationTitleSignedIn       = "Signed in"
	notificationTitleSignedOut      = "Signed out"
	notificationTitleSessionExpired = "Session expired"
	notificationTitleServerOnline   = "Server is back online"
	notificationTitleServerOffline  = "Server unreachable"
)

// NotificationService listens to bus events and emits user-facing notifications.
type NotificationService struct {
	bus           bus.MessageBus
	currentConfig func() config.AppConfig
	isForeground  func() bool
	sender        notifications.Sender
	logger        *slog.Logger

	statusMu        sync.Mutex
	lastServerState ServerState
}

func NewNotificationService(
	messageBus bus.MessageBus,
	currentConfig func() config.AppConfig,
	isForeground func() bool,
	sender notifications.Sender,
	logger *slog.Logger,
) *NotificationService {
	if logger == nil {
		logger = slog.Default().With("component", "app.notifications")
	}

	return &NotificationService{
		bus:           messageBus,
		currentConfig: currentConfig,
		isForeground:  isForeground,
		sender:        sender,
		logger:        logger,
	}
}

// Start listens until ctx is done.
func (s *NotificationService) Start(ctx context.Context) {
	if s == nil || s.bus == nil || s.sender == nil {
		return
	}

	bus.Listen(ctx, s.bus, bus.TopicSessionChanged, func(raw any) {
		if event, ok := raw.(session.Event); ok {
			s.handleSessionEvent(event)
		}
	})
	bus.Listen(ctx, s.bus, bus.TopicServerStatus, func(raw any) {
		if status, ok := raw.(ServerStatus); ok {
			s.handleServerStatus(status)
		}
	})
}

// Only changes this window did not cause itself are worth a notification.
func (s *NotificationService) handleSessionEvent(event session.Event) {
	prefs := s.notificationPrefs()
	if !s.shouldNotify(prefs, prefs.Events.SessionChanged) {
		return
	}

	switch {
	case event.Source == session.SourceExpired:
		s.send(notifications.Payload{
			Title:   notificationTitleSessionExpired,
			Content: "Your session has expired. Please log in again.",
		})
	case event.Source != session.SourceExternal:
		return
	case event.Session.LoggedIn:
		s.send(notifications.Payload{
			Title:   notificationTitleSignedIn,
			Content: "You logged in from another window.",
		})
	default:
		s.send(notifications.Payload{
			Title:   notificationTitleSignedOut,
			Content: "You logged out in another window.",
		})
	}
}

func (s *NotificationService) handleServerStatus(status ServerStatus) {
	if status.State == "" {
		return
	}

	s.statusMu.Lock()
	previous := s.lastServerState
	s.lastServerState = status.State
	s.statusMu.Unlock()

	// The first observation is the baseline, not a transition.
	if previous == "" || previous == status.State {
		return
	}
	prefs := s.notificationPrefs()
	if !s.shouldNotify(prefs, prefs.Events.ServerStatus) {
		return
	}

	if status.State == ServerStateOnline {
		s.send(notifications.Payload{
			Title:   notificationTitleServerOnline,
			Content: "Connection to the chat server was restored.",
		})
		return
	}
	content := "The chat server cannot be reached."
	if status.Err != "" {
		content = fmt.Sprintf("%s (error: %s)", content, status.Err)
	}
	s.send(notifications.Payload{
		Title:   notificationTitleServerOffline,
		Content: content,
	})
}

func (s *NotificationService) shouldNotify(prefs config.NotificationConfig, kindEnabled bool) bool {
	if !kindEnabled {
		return false
	}
	if prefs.NotifyWhenFocused || s.isForeground == nil {
		return true
	}

	return !s.isForeground()
}

func (s *NotificationService) notificationPrefs() config.NotificationConfig {
	if s.currentConfig == nil {
		return config.Default().UI.Notifications
	}

	return s.currentConfig().UI.Notifications
}

func (s *NotificationService) send(payload notifications.Payload) {
	payload, ok := payload.Normalized()
	if !ok {
		return
	}
	s.logger.Debug("sending notification", "title", payload.Title)
	s.sender.Send(payload)
}
