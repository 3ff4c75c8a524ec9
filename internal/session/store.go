package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/skobkin/ponyexpress/internal/bus"
	"github.com/skobkin/ponyexpress/internal/storage"
)

// TokenKey is the durable storage key of the access token.
const TokenKey = "pony_express_access_token"

var ErrEmptyToken = errors.New("access token is empty")

type Storage interface {
	Get(ctx context.Context, key string) (storage.Item, error)
	Set(ctx context.Context, key, value string) (storage.Item, error)
	Remove(ctx context.Context, key string) (storage.Item, error)
}

// Store owns the authentication state of one client process. Storage is
// optional: without it the session lives in memory only.
type Store struct {
	storage Storage
	bus     bus.MessageBus
	logger  *slog.Logger
	now     func() time.Time

	// writeMu serializes every read-modify-write against durable storage.
	writeMu sync.Mutex

	mu      sync.RWMutex
	state   Session
	changes chan struct{}

	loaded     chan struct{}
	initOnce   sync.Once
	listenCtx  context.Context
	stopListen func()
}

func NewStore(st Storage, b bus.MessageBus, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default().With("component", "session")
	}

	return &Store{
		storage: st,
		bus:     b,
		logger:  logger,
		now:     time.Now,
		changes: make(chan struct{}, 1),
		loaded:  make(chan struct{}),
	}
}

// Initialize reads the persisted token once. The session is marked loaded
// even when storage fails; it then starts logged out.
func (s *Store) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		s.listenCtx = context.WithoutCancel(ctx)
		if s.bus != nil && s.storage != nil {
			s.stopListen = bus.Listen(ctx, s.bus, bus.TopicStorageChanged, s.handleStorageMessage)
		}

		s.writeMu.Lock()
		next := Session{AuthLoaded: true}
		if item, ok := s.readToken(ctx); ok {
			next = s.sessionFromItem(ctx, item)
			next.AuthLoaded = true
		}
		s.apply(next, SourceInit, "")
		s.writeMu.Unlock()

		close(s.loaded)
		snap := s.Snapshot()
		s.logger.Info("session initialized", "logged_in", snap.LoggedIn, "revision", snap.Revision)
	})
}

func (s *Store) readToken(ctx context.Context) (storage.Item, bool) {
	if s.storage == nil {
		s.logger.Warn("local storage unavailable, starting logged out")
		return storage.Item{}, false
	}
	item, err := s.storage.Get(ctx, TokenKey)
	if err != nil {
		s.logger.Warn("read persisted token", "error", err)
		return storage.Item{}, false
	}

	return item, true
}

// sessionFromItem drops expired tokens, removing them from storage too.
func (s *Store) sessionFromItem(ctx context.Context, item storage.Item) Session {
	next := Session{Revision: item.Revision}
	if !item.Present || item.Value == "" {
		return next
	}
	next.Token = item.Value
	next.LoggedIn = true
	next.ExpiresAt = tokenExpiry(item.Value)
	if !next.Expired(s.now()) {
		return next
	}

	s.logger.Info("discarding expired access token", "expired_at", next.ExpiresAt)
	removed, err := s.storage.Remove(ctx, TokenKey)
	if err != nil {
		s.logger.Warn("remove expired token", "error", err)
		return Session{Revision: item.Revision}
	}

	return Session{Revision: removed.Revision}
}

// Login stores token in memory and durably. Persistence failures are logged;
// the in-memory session keeps working.
func (s *Store) Login(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.Snapshot()
	next.Token = token
	next.LoggedIn = true
	next.ExpiresAt = tokenExpiry(token)
	if s.storage != nil {
		item, err := s.storage.Set(ctx, TokenKey, token)
		if err != nil {
			s.logger.Warn("persist access token", "error", err)
		} else {
			next.Revision = item.Revision
		}
	}
	s.apply(next, SourceLocal, "")

	return nil
}

// Logout clears the session and always removes the durable record.
func (s *Store) Logout(ctx context.Context) {
	s.clear(ctx, SourceLocal, "")
}

// Expire logs the session out after the server rejected its token.
func (s *Store) Expire(ctx context.Context, reason string) {
	if !s.LoggedIn() {
		return
	}
	s.logger.Info("access token rejected by server", "reason", reason)
	s.clear(ctx, SourceExpired, reason)
}

func (s *Store) clear(ctx context.Context, source Source, reason string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.Snapshot()
	next.Token = ""
	next.LoggedIn = false
	next.ExpiresAt = time.Time{}
	if s.storage != nil {
		item, err := s.storage.Remove(ctx, TokenKey)
		if err != nil {
			s.logger.Warn("remove persisted token", "error", err)
		} else {
			next.Revision = item.Revision
		}
	}
	s.apply(next, source, reason)
}

func (s *Store) handleStorageMessage(msg any) {
	change, ok := msg.(storage.Change)
	if !ok || change.Item.Key != TokenKey {
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	item := change.Item
	if fresh, err := s.storage.Get(s.listenCtx, TokenKey); err != nil {
		s.logger.Warn("re-read token after storage change", "error", err)
	} else {
		item = fresh
	}

	current := s.Snapshot()
	if item.Revision < current.Revision {
		s.logger.Debug("ignoring stale token change", "revision", item.Revision, "applied", current.Revision)
		return
	}

	next := s.sessionFromItem(s.listenCtx, item)
	next.AuthLoaded = current.AuthLoaded
	s.apply(next, SourceExternal, "")
}

// apply swaps the state and notifies consumers when the auth state moved.
// Revision-only updates are silent.
func (s *Store) apply(next Session, source Source, reason string) {
	s.mu.Lock()
	changed := !s.state.sameAuth(next)
	s.state = next
	s.mu.Unlock()

	if !changed {
		return
	}
	s.logger.Debug("session changed", "source", source, "logged_in", next.LoggedIn, "revision", next.Revision)
	s.notify()
	if s.bus != nil {
		s.bus.Publish(bus.TopicSessionChanged, Event{Session: next, Source: source, Reason: reason})
	}
}

func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

func (s *Store) Token() string {
	return s.Snapshot().Token
}

func (s *Store) LoggedIn() bool {
	return s.Snapshot().LoggedIn
}

func (s *Store) AuthLoaded() bool {
	return s.Snapshot().AuthLoaded
}

// WaitLoaded blocks until Initialize finished or ctx is done.
func (s *Store) WaitLoaded(ctx context.Context) error {
	select {
	case <-s.loaded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

func (s *Store) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Close stops listening for storage changes.
func (s *Store) Close() {
	s.writeMu.Lock()
	stop := s.stopListen
	s.stopListen = nil
	s.writeMu.Unlock()

	if stop != nil {
		stop()
	}
}
