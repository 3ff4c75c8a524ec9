package query

import (
	"context"

	"github.com/skobkin/ponyexpress/internal/bus"
	"github.com/skobkin/ponyexpress/internal/session"
)

// Listen keeps the cache consistent with session changes made elsewhere:
// a logout drops everything, a new login refetches the current account.
func (c *Client) Listen(ctx context.Context, b bus.MessageBus) (stop func()) {
	return bus.Listen(ctx, b, bus.TopicSessionChanged, func(msg any) {
		ev, ok := msg.(session.Event)
		if !ok {
			return
		}
		if !ev.Session.LoggedIn {
			c.cache.Reset()
			return
		}
		c.Invalidate(Key{Kind: KindCurrentAccount})
	})
}
