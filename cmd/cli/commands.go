package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/skobkin/ponyexpress/internal/app"
	"github.com/skobkin/ponyexpress/internal/domain"
	"github.com/skobkin/ponyexpress/internal/query"
	"github.com/skobkin/ponyexpress/internal/session"
)

const (
	commandLogin    = "login"
	commandRegister = "register"
	commandLogout   = "logout"
	commandWhoami   = "whoami"
	commandChats    = "chats"
	commandMessages = "messages"
	commandSend     = "send"
	commandWatch    = "watch"

	timeLayout = "2006-01-02 15:04"
)

type command struct {
	name string
	args []string
}

type chatClient interface {
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, username, email, password string) (domain.Account, error)
	Logout(ctx context.Context)
	CurrentAccount(ctx context.Context) (domain.Account, bool, error)
	Chats(ctx context.Context) ([]domain.Chat, error)
	ChatView(ctx context.Context, chatID string) (query.ChatView, error)
	SendMessage(ctx context.Context, chatID, text string) (domain.Message, error)
}

type commandEnv struct {
	client       chatClient
	out          io.Writer
	readPassword func(prompt string) (string, error)
	loc          *time.Location
}

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, fmt.Errorf("missing command")
	}
	cmd := command{name: args[0], args: args[1:]}

	want := map[string]int{
		commandLogin:    1,
		commandRegister: 2,
		commandLogout:   0,
		commandWhoami:   0,
		commandChats:    0,
		commandMessages: 1,
		commandWatch:    0,
	}
	if cmd.name == commandSend {
		if len(cmd.args) < 2 {
			return command{}, fmt.Errorf("send: expected <chat-id> <text>")
		}
		cmd.args = []string{cmd.args[0], strings.Join(cmd.args[1:], " ")}

		return cmd, nil
	}
	n, ok := want[cmd.name]
	if !ok {
		return command{}, fmt.Errorf("unknown command %q", cmd.name)
	}
	if len(cmd.args) != n {
		return command{}, fmt.Errorf("%s: expected %d argument(s), got %d", cmd.name, n, len(cmd.args))
	}

	return cmd, nil
}

func execute(ctx context.Context, env commandEnv, cmd command) error {
	switch cmd.name {
	case commandLogin:
		return runLogin(ctx, env, cmd.args[0])
	case commandRegister:
		return runRegister(ctx, env, cmd.args[0], cmd.args[1])
	case commandLogout:
		env.client.Logout(ctx)
		fmt.Fprintln(env.out, "logged out")

		return nil
	case commandWhoami:
		return runWhoami(ctx, env)
	case commandChats:
		return runChats(ctx, env)
	case commandMessages:
		return runMessages(ctx, env, cmd.args[0])
	case commandSend:
		return runSend(ctx, env, cmd.args[0], cmd.args[1])
	default:
		return fmt.Errorf("unknown command %q", cmd.name)
	}
}

func runLogin(ctx context.Context, env commandEnv, username string) error {
	password, err := env.readPassword("password: ")
	if err != nil {
		return err
	}
	if err := env.client.Login(ctx, username, password); err != nil {
		return userError("login", err)
	}
	fmt.Fprintf(env.out, "logged in as %s\n", username)

	return nil
}

func runRegister(ctx context.Context, env commandEnv, username, email string) error {
	password, err := env.readPassword("password: ")
	if err != nil {
		return err
	}
	confirmation, err := env.readPassword("confirm password: ")
	if err != nil {
		return err
	}
	if err := query.ConfirmPassword(password, confirmation); err != nil {
		return err
	}
	account, err := env.client.Register(ctx, username, email, password)
	if err != nil {
		return userError("register", err)
	}
	fmt.Fprintf(env.out, "registered %s (id %d)\n", account.Username, account.ID)

	return nil
}

func runWhoami(ctx context.Context, env commandEnv) error {
	account, ok, err := env.client.CurrentAccount(ctx)
	if err != nil {
		return userError("whoami", err)
	}
	if !ok {
		fmt.Fprintln(env.out, "not logged in")

		return nil
	}
	fmt.Fprintf(env.out, "%s <%s> (id %d)\n", account.Username, account.Email, account.ID)

	return nil
}

func runChats(ctx context.Context, env commandEnv) error {
	chats, err := env.client.Chats(ctx)
	if err != nil {
		return userError("chats", err)
	}
	if len(chats) == 0 {
		fmt.Fprintln(env.out, "no chats")

		return nil
	}

	w := tabwriter.NewWriter(env.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, chat := range chats {
		fmt.Fprintf(w, "%d\t%s\n", chat.ID, chat.Name)
	}

	return w.Flush()
}

func runMessages(ctx context.Context, env commandEnv, chatID string) error {
	view, err := env.client.ChatView(ctx, chatID)
	if err != nil {
		return userError("messages", err)
	}
	fmt.Fprintf(env.out, "# %s\n", view.Chat.Name)
	if len(view.Messages) == 0 {
		fmt.Fprintln(env.out, "no messages yet")

		return nil
	}
	loc := env.loc
	if loc == nil {
		loc = time.Local
	}
	for _, msg := range view.Messages {
		fmt.Fprintf(env.out, "[%s] %s: %s\n", msg.CreatedAt.In(loc).Format(timeLayout), msg.Author, msg.Text)
	}

	return nil
}

func runSend(ctx context.Context, env commandEnv, chatID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("send: message text is empty")
	}
	msg, err := env.client.SendMessage(ctx, chatID, text)
	if err != nil {
		return userError("send", err)
	}
	fmt.Fprintf(env.out, "sent message %d\n", msg.ID)

	return nil
}

func userError(op string, err error) error {
	return fmt.Errorf("%s: %s", op, query.ErrorText(err))
}

func formatSessionState(s session.Session) string {
	if s.LoggedIn {
		return "session: logged in"
	}

	return "session: logged out"
}

func formatSessionEvent(event session.Event) string {
	line := formatSessionState(event.Session) + " (" + string(event.Source) + ")"
	if event.Reason != "" {
		line += ": " + event.Reason
	}

	return line
}

func formatServerStatus(status app.ServerStatus) string {
	line := "server: " + string(status.State)
	if status.Err != "" {
		line += " (" + status.Err + ")"
	}

	return line
}
