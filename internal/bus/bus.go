package bus

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/cskr/pubsub"
)

const defaultCapacity = 128

type Subscription chan any

type MessageBus interface {
	Publish(topic string, msg any)
	Subscribe(topic string) Subscription
	Unsubscribe(ch Subscription, topics ...string)
	Close()
}

type PubSubBus struct {
	ps        *pubsub.PubSub
	logger    *slog.Logger
	closeOnce sync.Once
	closed    atomic.Bool
}

func New(logger *slog.Logger) *PubSubBus {
	if logger == nil {
		logger = slog.Default().With("component", "bus")
	}

	return &PubSubBus{
		ps:     pubsub.New(defaultCapacity),
		logger: logger,
	}
}

// Publish is a no-op once the bus is closed; pubsub would block forever.
func (b *PubSubBus) Publish(topic string, msg any) {
	if b.closed.Load() {
		return
	}
	b.logger.Debug("publish", "topic", topic, "payload_type", payloadType(msg))
	b.ps.Pub(msg, topic)
}

func (b *PubSubBus) Subscribe(topic string) Subscription {
	if b.closed.Load() {
		ch := make(Subscription)
		close(ch)
		return ch
	}
	ch := b.ps.Sub(topic)
	b.logger.Debug("subscribe", "topic", topic)
	return ch
}

func (b *PubSubBus) Unsubscribe(ch Subscription, topics ...string) {
	if b.closed.Load() {
		return
	}
	if len(topics) == 0 {
		b.ps.Unsub(ch)
		b.logger.Debug("unsubscribe", "mode", "all")
		return
	}
	b.ps.Unsub(ch, topics...)
	b.logger.Debug("unsubscribe", "topics", topics)
}

func (b *PubSubBus) Close() {
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		b.ps.Shutdown()
	})
}

// Listen delivers every message published on topic to fn from a dedicated
// goroutine. The subscription is released when ctx is done or stop is called;
// stop waits for the goroutine to exit.
func Listen(ctx context.Context, b MessageBus, topic string, fn func(msg any)) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	sub := b.Subscribe(topic)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				drainUnsubscribe(b, sub, topic)
				return
			case msg, ok := <-sub:
				if !ok {
					// Bus shut down.
					return
				}
				fn(msg)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// pubsub closes the channel only after Unsub is processed, and a blocked
// publisher would deadlock on a channel nobody reads anymore.
func drainUnsubscribe(b MessageBus, sub Subscription, topic string) {
	go func() {
		for range sub {
		}
	}()
	b.Unsubscribe(sub, topic)
}

func payloadType(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
