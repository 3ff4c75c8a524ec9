package query

import (
	"sync"
	"time"

	"github.com/skobkin/ponyexpress/internal/bus"
)

type Kind string

const (
	KindChats          Kind = "chats"
	KindChat           Kind = "chat"
	KindMessages       Kind = "messages"
	KindMembers        Kind = "members"
	KindAccount        Kind = "account"
	KindCurrentAccount Kind = "current_account"
)

// Key identifies one cached resource. Distinct ids never share an entry.
type Key struct {
	Kind Kind
	ID   string
}

func (k Key) String() string {
	if k.ID == "" {
		return string(k.Kind)
	}

	return string(k.Kind) + "/" + k.ID
}

// Entry is the last applied result for a key.
type Entry struct {
	Value     any
	Err       error
	UpdatedAt time.Time
	// Stale entries are refetched on the next read.
	Stale bool
}

type Publisher interface {
	Publish(topic string, msg any)
}

// ticket orders responses of one key; generation drops responses that
// started before a Reset.
type ticket struct {
	generation uint64
	seq        uint64
}

type cacheEntry struct {
	Entry
	issued  uint64
	applied uint64
	// invalidated is the last seq issued before the entry was invalidated.
	invalidated uint64
}

// Cache holds fetched server state keyed by resource. A response is applied
// only if no newer response for the same key was applied before it.
type Cache struct {
	mu         sync.Mutex
	entries    map[Key]*cacheEntry
	generation uint64
	publisher  Publisher
	now        func() time.Time
}

func NewCache(publisher Publisher) *Cache {
	return &Cache{
		entries:   make(map[Key]*cacheEntry),
		publisher: publisher,
		now:       time.Now,
	}
}

func (c *Cache) Peek(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.applied == 0 {
		return Entry{}, false
	}

	return e.Entry, true
}

// fresh reports whether the entry can be served without a request.
func (c *Cache) fresh(key Key) (Entry, bool) {
	entry, ok := c.Peek(key)
	if !ok || entry.Stale || entry.Err != nil {
		return Entry{}, false
	}

	return entry, true
}

func (c *Cache) begin(key Key) ticket {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(key)
	e.issued++

	return ticket{generation: c.generation, seq: e.issued}
}

// commit applies a response. When the response is outdated the current entry
// is returned with applied=false.
func (c *Cache) commit(key Key, t ticket, value any, err error) (Entry, bool) {
	c.mu.Lock()
	if t.generation != c.generation {
		c.mu.Unlock()
		return Entry{Value: value, Err: err}, false
	}
	e := c.entry(key)
	if t.seq < e.applied {
		current := e.Entry
		c.mu.Unlock()
		return current, false
	}
	e.applied = t.seq
	e.Entry = Entry{Value: value, Err: err, UpdatedAt: c.now(), Stale: t.seq <= e.invalidated}
	applied := e.Entry
	c.mu.Unlock()

	if c.publisher != nil {
		c.publisher.Publish(bus.TopicQueryUpdated, key)
	}

	return applied, true
}

func (c *Cache) entry(key Key) *cacheEntry {
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{}
		c.entries[key] = e
	}

	return e
}

// Invalidate marks entries stale so the next read issues a request.
func (c *Cache) Invalidate(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		if e, ok := c.entries[key]; ok {
			e.Stale = true
			e.invalidated = e.issued
		}
	}
}

// InvalidateKind marks every entry of kind stale and returns the keys touched.
func (c *Cache) InvalidateKind(kind Kind) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	var keys []Key
	for key, e := range c.entries {
		if key.Kind == kind {
			e.Stale = true
			e.invalidated = e.issued
			keys = append(keys, key)
		}
	}

	return keys
}

// Reset drops every entry. Responses still in flight are discarded.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[Key]*cacheEntry)
	c.generation++
}
