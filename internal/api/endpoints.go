package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/skobkin/ponyexpress/internal/domain"
)

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type accountPayload struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type chatPayload struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	OwnerID int64  `json:"owner_id"`
}

type messagePayload struct {
	ID        int64  `json:"id"`
	ChatID    int64  `json:"chat_id"`
	AccountID *int64 `json:"account_id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

type chatsResponse struct {
	Chats []chatPayload `json:"chats"`
}

type messagesResponse struct {
	Messages []messagePayload `json:"messages"`
}

type accountsResponse struct {
	Accounts []accountPayload `json:"accounts"`
}

type newMessageRequest struct {
	Text      string `json:"text"`
	AccountID int64  `json:"account_id"`
}

type accountUpdateRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Token exchanges credentials for an access token.
func (c *Client) Token(ctx context.Context, username, password string) (string, error) {
	resp, err := decode[accessTokenResponse](c.PostForm(ctx, "/auth/token", url.Values{
		"username": {username},
		"password": {password},
	}))
	if err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("token response has no access_token")
	}

	return resp.AccessToken, nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) (domain.Account, error) {
	resp, err := decode[accountPayload](c.PostForm(ctx, "/auth/registration", url.Values{
		"username": {username},
		"email":    {email},
		"password": {password},
	}))
	if err != nil {
		return domain.Account{}, err
	}

	return resp.toDomain(), nil
}

func (c *Client) Me(ctx context.Context) (domain.Account, error) {
	resp, err := decode[accountPayload](c.Get(ctx, "/accounts/me"))
	if err != nil {
		return domain.Account{}, err
	}

	return resp.toDomain(), nil
}

func (c *Client) Account(ctx context.Context, accountID int64) (domain.Account, error) {
	resp, err := decode[accountPayload](c.Get(ctx, "/accounts/"+strconv.FormatInt(accountID, 10)))
	if err != nil {
		return domain.Account{}, err
	}

	return resp.toDomain(), nil
}

func (c *Client) UpdateMe(ctx context.Context, username, email string) (domain.Account, error) {
	resp, err := decode[accountPayload](c.PutJSON(ctx, "/accounts/me/", accountUpdateRequest{
		Username: username,
		Email:    email,
	}))
	if err != nil {
		return domain.Account{}, err
	}

	return resp.toDomain(), nil
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	_, err := c.PutForm(ctx, "/accounts/me/password/", url.Values{
		"old_password": {oldPassword},
		"new_password": {newPassword},
	})

	return err
}

func (c *Client) DeleteMe(ctx context.Context) error {
	_, err := c.Delete(ctx, "/accounts/me/")
	return err
}

func (c *Client) Chats(ctx context.Context) ([]domain.Chat, error) {
	resp, err := decode[chatsResponse](c.Get(ctx, "/chats"))
	if err != nil {
		return nil, err
	}

	chats := make([]domain.Chat, 0, len(resp.Chats))
	for _, item := range resp.Chats {
		chats = append(chats, item.toDomain())
	}

	return chats, nil
}

func (c *Client) Chat(ctx context.Context, chatID string) (domain.Chat, error) {
	resp, err := decode[chatPayload](c.Get(ctx, "/chats/"+url.PathEscape(chatID)))
	if err != nil {
		return domain.Chat{}, err
	}

	return resp.toDomain(), nil
}

func (c *Client) Messages(ctx context.Context, chatID string) ([]domain.Message, error) {
	resp, err := decode[messagesResponse](c.Get(ctx, "/chats/"+url.PathEscape(chatID)+"/messages"))
	if err != nil {
		return nil, err
	}

	msgs := make([]domain.Message, 0, len(resp.Messages))
	for _, item := range resp.Messages {
		msg, err := item.toDomain()
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}

	return msgs, nil
}

func (c *Client) ChatAccounts(ctx context.Context, chatID string) ([]domain.Account, error) {
	resp, err := decode[accountsResponse](c.Get(ctx, "/chats/"+url.PathEscape(chatID)+"/accounts"))
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, 0, len(resp.Accounts))
	for _, item := range resp.Accounts {
		accounts = append(accounts, item.toDomain())
	}

	return accounts, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID string, accountID int64, text string) (domain.Message, error) {
	resp, err := decode[messagePayload](c.PostJSON(ctx, "/chats/"+url.PathEscape(chatID)+"/messages", newMessageRequest{
		Text:      text,
		AccountID: accountID,
	}))
	if err != nil {
		return domain.Message{}, err
	}

	return resp.toDomain()
}

// Status checks backend reachability; the backend answers 204.
func (c *Client) Status(ctx context.Context) error {
	_, err := c.Get(ctx, "/status")
	return err
}

func (p accountPayload) toDomain() domain.Account {
	return domain.Account{ID: p.ID, Username: p.Username, Email: p.Email}
}

func (p chatPayload) toDomain() domain.Chat {
	return domain.Chat{ID: p.ID, Name: p.Name, OwnerID: p.OwnerID}
}

func (p messagePayload) toDomain() (domain.Message, error) {
	createdAt, err := domain.ParseTimestamp(p.CreatedAt)
	if err != nil {
		return domain.Message{}, fmt.Errorf("message %d: %w", p.ID, err)
	}

	return domain.Message{
		ID:        p.ID,
		ChatID:    p.ChatID,
		AccountID: p.AccountID,
		Text:      p.Text,
		CreatedAt: createdAt,
	}, nil
}
