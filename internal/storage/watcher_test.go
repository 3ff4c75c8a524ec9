package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/skobkin/ponyexpress/internal/bus"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	msgs   []any
}

func (p *recordingPublisher) Publish(topic string, msg any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.msgs = append(p.msgs, msg)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.msgs)
}

func TestWatcherRescanPublishesOnlyChangedItems(t *testing.T) {
	store, path := openTestStorage(t)
	ctx := context.Background()

	if _, err := store.Set(ctx, "existing", "x"); err != nil {
		t.Fatalf("set: %v", err)
	}

	pub := &recordingPublisher{}
	w, err := NewWatcher(ctx, store, path, pub, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer func() {
		_ = w.Close()
	}()

	changes, err := w.Rescan(ctx)
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if len(changes) != 0 {
		t.Fatalf("expected no changes for known revisions, got %+v", changes)
	}

	if _, err := store.Set(ctx, "token", "abc"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	changes, err = w.Rescan(ctx)
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if len(changes) != 1 || changes[0].Item.Key != "token" || changes[0].Item.Value != "abc" {
		t.Fatalf("unexpected changes: %+v", changes)
	}
	if pub.count() != 1 || pub.topics[0] != bus.TopicStorageChanged {
		t.Fatalf("unexpected publications: %v", pub.topics)
	}

	changes, err = w.Rescan(ctx)
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if len(changes) != 0 {
		t.Fatalf("expected no repeated changes, got %+v", changes)
	}
}

func TestWatcherPublishesWritesFromAnotherConnection(t *testing.T) {
	store, path := openTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := &recordingPublisher{}
	w, err := NewWatcher(ctx, store, path, pub, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer func() {
		_ = w.Close()
	}()
	w.debounce = 10 * time.Millisecond
	w.Start(ctx)

	other, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open other: %v", err)
	}
	defer func() {
		_ = other.Close()
	}()
	if _, err := NewLocalStorage(other).Set(ctx, "token", "external"); err != nil {
		t.Fatalf("set: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for pub.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("watcher did not publish external write")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWatcherRelevant(t *testing.T) {
	w := &Watcher{base: "ponyexpress.db"}

	cases := map[string]bool{
		"/tmp/x/ponyexpress.db":     true,
		"/tmp/x/ponyexpress.db-wal": true,
		"/tmp/x/ponyexpress.db-shm": true,
		"/tmp/x/app.log":            false,
		"/tmp/x/ponyexpress.dbx":    false,
	}
	for name, want := range cases {
		if got := w.relevant(name); got != want {
			t.Fatalf("relevant(%q) = %v, want %v", name, got, want)
		}
	}
}
