package query

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/skobkin/ponyexpress/internal/api"
	"github.com/skobkin/ponyexpress/internal/domain"
)

// Login exchanges credentials for a token and starts the session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	token, err := c.api.Token(ctx, username, password)
	if err != nil {
		return err
	}
	if err := c.session.Login(ctx, token); err != nil {
		return err
	}
	c.Invalidate(Key{Kind: KindCurrentAccount})

	return nil
}

// Register creates an account and logs into it with the same credentials.
func (c *Client) Register(ctx context.Context, username, email, password string) (domain.Account, error) {
	account, err := c.api.Register(ctx, username, email, password)
	if err != nil {
		return domain.Account{}, err
	}

	token, err := c.api.Token(ctx, username, password)
	if err != nil {
		return account, fmt.Errorf("%w: %w", ErrRegisteredLoginFailed, err)
	}
	if err := c.session.Login(ctx, token); err != nil {
		return account, fmt.Errorf("%w: %w", ErrRegisteredLoginFailed, err)
	}
	c.Invalidate(Key{Kind: KindCurrentAccount})

	return account, nil
}

// Logout ends the session and drops every cached resource.
func (c *Client) Logout(ctx context.Context) {
	c.session.Logout(ctx)
	c.cache.Reset()
}

// SendMessage posts text as the current account. The message list of the
// chat is refetched after the post succeeded and before SendMessage returns.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) (domain.Message, error) {
	if chatID == "" {
		return domain.Message{}, ErrMissingChatID
	}
	if strings.TrimSpace(text) == "" {
		return domain.Message{}, ErrEmptyMessage
	}
	account, ok, err := c.CurrentAccount(ctx)
	if err != nil {
		return domain.Message{}, err
	}
	if !ok {
		return domain.Message{}, ErrNotLoggedIn
	}

	msg, err := c.api.SendMessage(ctx, chatID, account.ID, text)
	if err != nil {
		c.handleAuthError(ctx, err)
		return domain.Message{}, fmt.Errorf("send message to chat %s: %w", chatID, err)
	}

	c.Invalidate(messagesKey(chatID))
	if _, err := c.Messages(ctx, chatID); err != nil {
		c.logger.Warn("refetch messages after send", "chat_id", chatID, "error", err)
	}

	return msg, nil
}

func (c *Client) UpdateAccount(ctx context.Context, username, email string) (domain.Account, error) {
	if !c.session.LoggedIn() {
		return domain.Account{}, ErrNotLoggedIn
	}
	account, err := c.api.UpdateMe(ctx, username, email)
	if err != nil {
		c.handleAuthError(ctx, err)
		return domain.Account{}, err
	}

	c.Invalidate(Key{Kind: KindCurrentAccount}, Key{Kind: KindAccount, ID: strconv.FormatInt(account.ID, 10)})
	c.invalidateKind(KindMembers)

	return account, nil
}

// ChangePassword maps the backend's 401 to ErrWrongOldPassword.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if !c.session.LoggedIn() {
		return ErrNotLoggedIn
	}
	err := c.api.ChangePassword(ctx, oldPassword, newPassword)
	if api.IsStatus(err, http.StatusUnauthorized) {
		return ErrWrongOldPassword
	}
	if err != nil {
		c.handleAuthError(ctx, err)
		return err
	}

	return nil
}

// DeleteAccount removes the account on the server and logs out locally.
func (c *Client) DeleteAccount(ctx context.Context) error {
	if !c.session.LoggedIn() {
		return ErrNotLoggedIn
	}
	if err := c.api.DeleteMe(ctx); err != nil {
		c.handleAuthError(ctx, err)
		return err
	}
	c.Logout(ctx)

	return nil
}

// ConfirmPassword validates a repeated password input before any request.
func ConfirmPassword(password, confirmation string) error {
	if password != confirmation {
		return ErrPasswordMismatch
	}

	return nil
}

// ErrorText renders an error for inline display next to a form.
func ErrorText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRegisteredLoginFailed):
		return ErrRegisteredLoginFailed.Error()
	case api.IsNetwork(err):
		return "unable to reach the server, try again"
	}

	var validationErr *api.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Detail
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	return err.Error()
}
