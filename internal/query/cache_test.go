package query

import (
	"errors"
	"sync"
	"testing"

	"github.com/skobkin/ponyexpress/internal/bus"
)

type recordingPublisher struct {
	mu   sync.Mutex
	keys []Key
}

func (p *recordingPublisher) Publish(topic string, msg any) {
	if topic != bus.TopicQueryUpdated {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, msg.(Key))
}

func TestCache_DistinctKeysDoNotCollide(t *testing.T) {
	c := NewCache(nil)
	a := Key{Kind: KindMessages, ID: "1"}
	b := Key{Kind: KindMessages, ID: "2"}
	m := Key{Kind: KindMembers, ID: "1"}

	c.commit(a, c.begin(a), "a", nil)
	c.commit(b, c.begin(b), "b", nil)
	c.commit(m, c.begin(m), "m", nil)

	for key, want := range map[Key]string{a: "a", b: "b", m: "m"} {
		entry, ok := c.Peek(key)
		if !ok || entry.Value != want {
			t.Fatalf("Peek(%s) = %+v, want %q", key, entry, want)
		}
	}
}

func TestCache_OlderResponseDropped(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewCache(pub)
	key := Key{Kind: KindChats}

	older := c.begin(key)
	newer := c.begin(key)
	if _, applied := c.commit(key, newer, "new", nil); !applied {
		t.Fatalf("newer response must apply")
	}
	entry, applied := c.commit(key, older, "old", nil)
	if applied {
		t.Fatalf("older response must be dropped")
	}
	if entry.Value != "new" {
		t.Fatalf("dropped commit must return current entry, got %+v", entry)
	}
	if len(pub.keys) != 1 || pub.keys[0] != key {
		t.Fatalf("expected one update publication, got %v", pub.keys)
	}
}

func TestCache_InvalidateMarksStale(t *testing.T) {
	c := NewCache(nil)
	key := Key{Kind: KindCurrentAccount}

	c.commit(key, c.begin(key), "me", nil)
	if _, ok := c.fresh(key); !ok {
		t.Fatalf("committed entry must be fresh")
	}

	inflight := c.begin(key)
	c.Invalidate(key)
	if _, ok := c.fresh(key); ok {
		t.Fatalf("invalidated entry must not be fresh")
	}

	// Started before invalidation: applied but still stale.
	entry, applied := c.commit(key, inflight, "me-old", nil)
	if !applied || !entry.Stale {
		t.Fatalf("expected applied stale entry, got %+v applied=%v", entry, applied)
	}

	entry, _ = c.commit(key, c.begin(key), "me-new", nil)
	if entry.Stale {
		t.Fatalf("request issued after invalidation must clear staleness")
	}
}

func TestCache_ErrorEntryIsNotFresh(t *testing.T) {
	c := NewCache(nil)
	key := Key{Kind: KindChats}

	c.commit(key, c.begin(key), nil, errors.New("boom"))
	if _, ok := c.fresh(key); ok {
		t.Fatalf("failed entry must not be served as fresh")
	}
	entry, ok := c.Peek(key)
	if !ok || entry.Err == nil {
		t.Fatalf("failed entry must keep its error, got %+v", entry)
	}
}

func TestCache_ResetDropsInflight(t *testing.T) {
	c := NewCache(nil)
	key := Key{Kind: KindChat, ID: "5"}

	inflight := c.begin(key)
	c.Reset()
	if _, applied := c.commit(key, inflight, "chat", nil); applied {
		t.Fatalf("response started before reset must be dropped")
	}
	if _, ok := c.Peek(key); ok {
		t.Fatalf("reset cache must stay empty")
	}
}

func TestCache_InvalidateKind(t *testing.T) {
	c := NewCache(nil)
	a := Key{Kind: KindMembers, ID: "1"}
	b := Key{Kind: KindMembers, ID: "2"}
	other := Key{Kind: KindChats}
	for _, key := range []Key{a, b, other} {
		c.commit(key, c.begin(key), key.String(), nil)
	}

	if keys := c.InvalidateKind(KindMembers); len(keys) != 2 {
		t.Fatalf("expected two invalidated keys, got %v", keys)
	}
	if _, ok := c.fresh(other); !ok {
		t.Fatalf("other kinds must stay fresh")
	}
	if _, ok := c.fresh(a); ok {
		t.Fatalf("members entry must be stale")
	}
}

func TestKeyString(t *testing.T) {
	if got := (Key{Kind: KindChats}).String(); got != "chats" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := (Key{Kind: KindMessages, ID: "42"}).String(); got != "messages/42" {
		t.Fatalf("unexpected key %q", got)
	}
}
