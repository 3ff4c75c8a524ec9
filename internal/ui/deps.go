package ui

import (
	"context"

	"fyne.io/fyne/v2"

	ponyapp "github.com/skobkin/ponyexpress/internal/app"
	"github.com/skobkin/ponyexpress/internal/bus"
	"github.com/skobkin/ponyexpress/internal/config"
	"github.com/skobkin/ponyexpress/internal/domain"
	"github.com/skobkin/ponyexpress/internal/query"
	"github.com/skobkin/ponyexpress/internal/session"
)

// SessionSource exposes the auth state the router gates on.
type SessionSource interface {
	Snapshot() session.Session
}

// ChatClient is the part of the data-fetch layer the screens use.
type ChatClient interface {
	Chats(ctx context.Context) ([]domain.Chat, error)
	ChatView(ctx context.Context, chatID string) (query.ChatView, error)
	CurrentAccount(ctx context.Context) (domain.Account, bool, error)
	SendMessage(ctx context.Context, chatID, text string) (domain.Message, error)
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, username, email, password string) (domain.Account, error)
	Logout(ctx context.Context)
	UpdateAccount(ctx context.Context, username, email string) (domain.Account, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	DeleteAccount(ctx context.Context) error
	Cache() *query.Cache
}

type DataDependencies struct {
	Config              config.AppConfig
	CurrentConfig       func() config.AppConfig
	Session             SessionSource
	Client              ChatClient
	Bus                 bus.MessageBus
	LastSelectedChat    string
	CurrentServerStatus func() (ponyapp.ServerStatus, bool)
}

type ActionDependencies struct {
	OnSave         func(cfg config.AppConfig) error
	OnChatSelected func(chatID string)
	OnQuit         func()
}

type UIHooks struct {
	CurrentWindow     func() fyne.Window
	RunOnUI           func(func())
	RunAsync          func(func())
	ShowErrorDialog   func(err error, window fyne.Window)
	ShowConfirmDialog func(title, message string, onConfirm func(), window fyne.Window)
}

type LaunchOptions struct {
	StartHidden bool
	// InitialRoute is a path such as "/chats/3"; empty opens home.
	InitialRoute string
}

type RuntimeDependencies struct {
	Data    DataDependencies
	Actions ActionDependencies
	UIHooks UIHooks
	Launch  LaunchOptions
}
