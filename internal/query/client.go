package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/skobkin/ponyexpress/internal/api"
	"github.com/skobkin/ponyexpress/internal/domain"
)

// API is the subset of the HTTP client the data-fetch layer needs.
type API interface {
	Token(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, username, email, password string) (domain.Account, error)
	Me(ctx context.Context) (domain.Account, error)
	Account(ctx context.Context, accountID int64) (domain.Account, error)
	UpdateMe(ctx context.Context, username, email string) (domain.Account, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	DeleteMe(ctx context.Context) error
	Chats(ctx context.Context) ([]domain.Chat, error)
	Chat(ctx context.Context, chatID string) (domain.Chat, error)
	Messages(ctx context.Context, chatID string) ([]domain.Message, error)
	ChatAccounts(ctx context.Context, chatID string) ([]domain.Account, error)
	SendMessage(ctx context.Context, chatID string, accountID int64, text string) (domain.Message, error)
}

type Session interface {
	LoggedIn() bool
	Login(ctx context.Context, token string) error
	Logout(ctx context.Context)
	Expire(ctx context.Context, reason string)
}

// Client exposes server resources as cached, coalesced queries and the
// mutations that invalidate them.
type Client struct {
	api     API
	session Session
	cache   *Cache
	group   singleflight.Group
	logger  *slog.Logger
}

func NewClient(apiClient API, session Session, publisher Publisher, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default().With("component", "query")
	}

	return &Client{
		api:     apiClient,
		session: session,
		cache:   NewCache(publisher),
		logger:  logger,
	}
}

func (c *Client) Cache() *Cache {
	return c.cache
}

// Invalidate marks keys stale and forgets their in-flight requests, so the
// next read always issues a new request.
func (c *Client) Invalidate(keys ...Key) {
	c.cache.Invalidate(keys...)
	for _, key := range keys {
		c.group.Forget(key.String())
	}
}

func (c *Client) invalidateKind(kind Kind) {
	for _, key := range c.cache.InvalidateKind(kind) {
		c.group.Forget(key.String())
	}
}

// Reset drops all cached server state.
func (c *Client) Reset() {
	c.cache.Reset()
}

func fetch[T any](ctx context.Context, c *Client, key Key, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if entry, ok := c.cache.fresh(key); ok {
		if v, ok := entry.Value.(T); ok {
			return v, nil
		}
	}

	// The request is shared by every coalesced caller, so it must outlive
	// the one that started it. Each caller still stops waiting on its own ctx.
	flight := c.group.DoChan(key.String(), func() (any, error) {
		loadCtx := context.WithoutCancel(ctx)
		t := c.cache.begin(key)
		value, err := load(loadCtx)
		if interrupted(err) {
			c.logger.Debug("query interrupted", "key", key.String(), "error", err)
			return value, err
		}
		if err != nil {
			c.handleAuthError(loadCtx, err)
			c.logger.Debug("query failed", "key", key.String(), "error", err)
		}
		entry, applied := c.cache.commit(key, t, value, err)
		if !applied {
			c.logger.Debug("dropped outdated response", "key", key.String())
		}

		return entry.Value, entry.Err
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-flight:
		v, _ := res.Val.(T)
		return v, res.Err
	}
}

// interrupted results say nothing about the resource and are never cached.
func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) handleAuthError(ctx context.Context, err error) {
	if !api.IsAuthExpired(err) {
		return
	}
	var apiErr *api.APIError
	reason := ""
	if errors.As(err, &apiErr) {
		reason = apiErr.Code
	}
	c.session.Expire(ctx, reason)
	c.cache.Reset()
}

// Chats returns every chat sorted by name.
func (c *Client) Chats(ctx context.Context) ([]domain.Chat, error) {
	chats, err := fetch(ctx, c, Key{Kind: KindChats}, func(ctx context.Context) ([]domain.Chat, error) {
		chats, err := c.api.Chats(ctx)
		if err != nil {
			return nil, fmt.Errorf("load chats: %w", err)
		}

		return domain.SortChatsByName(chats), nil
	})

	return slices.Clone(chats), err
}

func (c *Client) Chat(ctx context.Context, chatID string) (domain.Chat, error) {
	if chatID == "" {
		return domain.Chat{}, ErrMissingChatID
	}

	return fetch(ctx, c, Key{Kind: KindChat, ID: chatID}, func(ctx context.Context) (domain.Chat, error) {
		chat, err := c.api.Chat(ctx, chatID)
		if err != nil {
			return domain.Chat{}, fmt.Errorf("load chat %s: %w", chatID, err)
		}

		return chat, nil
	})
}

// Messages returns the chat messages oldest first.
func (c *Client) Messages(ctx context.Context, chatID string) ([]domain.Message, error) {
	if chatID == "" {
		return nil, ErrMissingChatID
	}

	msgs, err := fetch(ctx, c, messagesKey(chatID), func(ctx context.Context) ([]domain.Message, error) {
		msgs, err := c.api.Messages(ctx, chatID)
		if err != nil {
			return nil, fmt.Errorf("load messages of chat %s: %w", chatID, err)
		}

		return domain.SortMessagesByCreatedAt(msgs), nil
	})

	return slices.Clone(msgs), err
}

func (c *Client) ChatMembers(ctx context.Context, chatID string) ([]domain.Account, error) {
	if chatID == "" {
		return nil, ErrMissingChatID
	}

	members, err := fetch(ctx, c, Key{Kind: KindMembers, ID: chatID}, func(ctx context.Context) ([]domain.Account, error) {
		members, err := c.api.ChatAccounts(ctx, chatID)
		if err != nil {
			return nil, fmt.Errorf("load members of chat %s: %w", chatID, err)
		}
		if members == nil {
			members = []domain.Account{}
		}

		return members, nil
	})

	return slices.Clone(members), err
}

// CurrentAccount returns the logged in account. It is disabled while logged
// out: no request is made and ok is false.
func (c *Client) CurrentAccount(ctx context.Context) (account domain.Account, ok bool, err error) {
	if !c.session.LoggedIn() {
		return domain.Account{}, false, nil
	}

	account, err = fetch(ctx, c, Key{Kind: KindCurrentAccount}, func(ctx context.Context) (domain.Account, error) {
		account, err := c.api.Me(ctx)
		if err != nil {
			return domain.Account{}, fmt.Errorf("load current account: %w", err)
		}

		return account, nil
	})
	if err != nil {
		return domain.Account{}, false, err
	}

	return account, true, nil
}

// AccountUsername resolves a message author. Removed authors, missing ids and
// accounts without a username all resolve to domain.RemovedUsername.
func (c *Client) AccountUsername(ctx context.Context, accountID *int64) (string, error) {
	if accountID == nil {
		return domain.RemovedUsername, nil
	}
	id := *accountID

	account, err := fetch(ctx, c, Key{Kind: KindAccount, ID: strconv.FormatInt(id, 10)}, func(ctx context.Context) (domain.Account, error) {
		account, err := c.api.Account(ctx, id)
		if api.IsNotFound(err) {
			return domain.Account{ID: id}, nil
		}
		if err != nil {
			return domain.Account{}, fmt.Errorf("load account %d: %w", id, err)
		}

		return account, nil
	})
	if err != nil {
		return "", err
	}

	return account.DisplayName(), nil
}

// CanCompose reports whether the current account is a member of the chat.
func (c *Client) CanCompose(ctx context.Context, chatID string) (bool, error) {
	if chatID == "" {
		return false, ErrMissingChatID
	}
	if !c.session.LoggedIn() {
		return false, nil
	}

	var (
		account domain.Account
		members []domain.Account
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		account, _, err = c.CurrentAccount(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		members, err = c.ChatMembers(gCtx, chatID)
		return err
	})
	if err := g.Wait(); err != nil {
		return false, err
	}

	return domain.CanCompose(account, members), nil
}

func messagesKey(chatID string) Key {
	return Key{Kind: KindMessages, ID: chatID}
}
