package ui

import (
	"context"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/skobkin/ponyexpress/internal/domain"
	"github.com/skobkin/ponyexpress/internal/query"
	"github.com/skobkin/ponyexpress/internal/session"
)

type fakeSession struct {
	mu    sync.Mutex
	state session.Session
}

func newFakeSession(loggedIn bool) *fakeSession {
	s := &fakeSession{state: session.Session{AuthLoaded: true}}
	if loggedIn {
		s.state.Token = "token"
		s.state.LoggedIn = true
	}

	return s
}

func (s *fakeSession) Snapshot() session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

func (s *fakeSession) set(state session.Session) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *fakeSession) setLoggedIn(loggedIn bool) {
	token := ""
	if loggedIn {
		token = "token"
	}
	s.set(session.Session{Token: token, LoggedIn: loggedIn, AuthLoaded: true})
}

type fakeChatClient struct {
	mu      sync.Mutex
	session *fakeSession
	cache   *query.Cache

	chats       []domain.Chat
	chatsErr    error
	views       map[string]query.ChatView
	viewErr     error
	account     domain.Account
	loginErr    error
	registerErr error
	sendErr     error
	updateErr   error
	passwordErr error
	deleteErr   error

	chatsCalls  int
	viewCalls   int
	logins      []string
	registered  []string
	sent        []string
	updates     []string
	passwords   []string
	logouts     int
	deleteCalls int
}

func newFakeChatClient(s *fakeSession) *fakeChatClient {
	return &fakeChatClient{
		session: s,
		cache:   query.NewCache(nil),
		views:   make(map[string]query.ChatView),
	}
}

func (c *fakeChatClient) Chats(context.Context) ([]domain.Chat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chatsCalls++

	return append([]domain.Chat(nil), c.chats...), c.chatsErr
}

func (c *fakeChatClient) ChatView(_ context.Context, chatID string) (query.ChatView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewCalls++
	if c.viewErr != nil {
		return query.ChatView{}, c.viewErr
	}

	return c.views[chatID], nil
}

func (c *fakeChatClient) CurrentAccount(context.Context) (domain.Account, bool, error) {
	if !c.session.Snapshot().LoggedIn {
		return domain.Account{}, false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.account, true, nil
}

func (c *fakeChatClient) SendMessage(_ context.Context, chatID, text string) (domain.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, chatID+":"+text)
	if c.sendErr != nil {
		return domain.Message{}, c.sendErr
	}

	return domain.Message{Text: text}, nil
}

func (c *fakeChatClient) Login(_ context.Context, username, _ string) error {
	c.mu.Lock()
	c.logins = append(c.logins, username)
	err := c.loginErr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.session.setLoggedIn(true)

	return nil
}

func (c *fakeChatClient) Register(_ context.Context, username, email, _ string) (domain.Account, error) {
	c.mu.Lock()
	c.registered = append(c.registered, username+"/"+email)
	err := c.registerErr
	c.mu.Unlock()
	if err != nil {
		return domain.Account{}, err
	}
	c.session.setLoggedIn(true)

	return domain.Account{Username: username, Email: email}, nil
}

func (c *fakeChatClient) Logout(context.Context) {
	c.mu.Lock()
	c.logouts++
	c.mu.Unlock()
	c.session.setLoggedIn(false)
}

func (c *fakeChatClient) UpdateAccount(_ context.Context, username, email string) (domain.Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, username+"/"+email)
	if c.updateErr != nil {
		return domain.Account{}, c.updateErr
	}

	return domain.Account{Username: username, Email: email}, nil
}

func (c *fakeChatClient) ChangePassword(_ context.Context, oldPassword, newPassword string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.passwords = append(c.passwords, oldPassword+"->"+newPassword)

	return c.passwordErr
}

func (c *fakeChatClient) DeleteAccount(context.Context) error {
	c.mu.Lock()
	c.deleteCalls++
	err := c.deleteErr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.session.setLoggedIn(false)

	return nil
}

func (c *fakeChatClient) Cache() *query.Cache {
	return c.cache
}

// syncHooks run everything inline so screens settle before assertions.
func syncHooks() UIHooks {
	return UIHooks{
		CurrentWindow:   func() fyne.Window { return nil },
		RunOnUI:         func(fn func()) { fn() },
		RunAsync:        func(fn func()) { fn() },
		ShowErrorDialog: func(error, fyne.Window) {},
		ShowConfirmDialog: func(_, _ string, onConfirm func(), _ fyne.Window) {
			onConfirm()
		},
	}
}

func newTestDependencies(loggedIn bool) (RuntimeDependencies, *fakeSession, *fakeChatClient) {
	s := newFakeSession(loggedIn)
	client := newFakeChatClient(s)

	return RuntimeDependencies{
		Data: DataDependencies{
			Session: s,
			Client:  client,
		},
		UIHooks: syncHooks(),
	}, s, client
}

type recordingNavigator struct {
	routes    []Route
	refreshes int
}

func (n *recordingNavigator) Navigate(route Route) {
	n.routes = append(n.routes, route)
}

func (n *recordingNavigator) Refresh() {
	n.refreshes++
}
