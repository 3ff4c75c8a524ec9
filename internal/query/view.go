package query

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/skobkin/ponyexpress/internal/domain"
)

const maxUsernameLookups = 4

type MessageView struct {
	domain.Message
	Author string
}

// ChatView is everything the chat screen renders.
type ChatView struct {
	Chat       domain.Chat
	Messages   []MessageView
	Members    []domain.Account
	CanCompose bool
}

// ChatView loads chat, messages, members and compose permission concurrently,
// then resolves every distinct author once.
func (c *Client) ChatView(ctx context.Context, chatID string) (ChatView, error) {
	if chatID == "" {
		return ChatView{}, ErrMissingChatID
	}

	var (
		view     ChatView
		messages []domain.Message
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		view.Chat, err = c.Chat(gCtx, chatID)
		return err
	})
	g.Go(func() error {
		var err error
		messages, err = c.Messages(gCtx, chatID)
		return err
	})
	g.Go(func() error {
		var err error
		view.Members, err = c.ChatMembers(gCtx, chatID)
		return err
	})
	g.Go(func() error {
		var err error
		view.CanCompose, err = c.CanCompose(gCtx, chatID)
		return err
	})
	if err := g.Wait(); err != nil {
		return ChatView{}, err
	}

	authors, err := c.resolveAuthors(ctx, messages)
	if err != nil {
		return ChatView{}, err
	}
	view.Messages = make([]MessageView, 0, len(messages))
	for _, msg := range messages {
		author := domain.RemovedUsername
		if msg.AccountID != nil {
			author = authors[*msg.AccountID]
		}
		view.Messages = append(view.Messages, MessageView{Message: msg, Author: author})
	}

	return view, nil
}

func (c *Client) resolveAuthors(ctx context.Context, messages []domain.Message) (map[int64]string, error) {
	ids := make(map[int64]struct{})
	for _, msg := range messages {
		if msg.AccountID != nil {
			ids[*msg.AccountID] = struct{}{}
		}
	}

	var mu sync.Mutex
	authors := make(map[int64]string, len(ids))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxUsernameLookups)
	for id := range ids {
		g.Go(func() error {
			name, err := c.AccountUsername(gCtx, &id)
			if err != nil {
				return err
			}
			mu.Lock()
			authors[id] = name
			mu.Unlock()

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return authors, nil
}
