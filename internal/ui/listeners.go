package ui

import (
	"context"
	"sync"

	ponyapp "github.com/skobkin/ponyexpress/internal/app"
	"github.com/skobkin/ponyexpress/internal/bus"
	"github.com/skobkin/ponyexpress/internal/query"
	"github.com/skobkin/ponyexpress/internal/session"
)

// startUIEventListeners forwards bus events to the callbacks. Callbacks run on
// listener goroutines; callers hop to the UI thread themselves.
func startUIEventListeners(
	messageBus bus.MessageBus,
	onSession func(session.Event),
	onQuery func(query.Key),
	onServerStatus func(ponyapp.ServerStatus),
) func() {
	if messageBus == nil {
		appLogger.Debug("skipping UI event listeners: message bus is nil")

		return func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	stops := []func(){
		bus.Listen(ctx, messageBus, bus.TopicSessionChanged, func(raw any) {
			if event, ok := raw.(session.Event); ok && onSession != nil {
				onSession(event)
			}
		}),
		bus.Listen(ctx, messageBus, bus.TopicQueryUpdated, func(raw any) {
			if key, ok := raw.(query.Key); ok && onQuery != nil {
				onQuery(key)
			}
		}),
		bus.Listen(ctx, messageBus, bus.TopicServerStatus, func(raw any) {
			if status, ok := raw.(ponyapp.ServerStatus); ok && onServerStatus != nil {
				onServerStatus(status)
			}
		}),
	}
	appLogger.Debug(
		"subscribed to UI bus topics",
		"topics", []string{bus.TopicSessionChanged, bus.TopicQueryUpdated, bus.TopicServerStatus},
	)

	var stopOnce sync.Once

	return func() {
		stopOnce.Do(func() {
			appLogger.Debug("stopping UI event listeners")
			cancel()
			for _, stop := range stops {
				stop()
			}
		})
	}
}
