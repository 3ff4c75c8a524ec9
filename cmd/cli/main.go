package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/skobkin/ponyexpress/internal/app"
	"github.com/skobkin/ponyexpress/internal/bus"
	"github.com/skobkin/ponyexpress/internal/notifications"
	"github.com/skobkin/ponyexpress/internal/session"
)

const usage = `usage: ponyexpress-cli [flags] <command> [args]

commands:
  login <username>            log in, the password is prompted
  register <username> <email> create an account and log in
  logout                      forget the stored token
  whoami                      print the current account
  chats                       list your chats
  messages <chat-id>          print chat messages
  send <chat-id> <text>       post a message
  watch                       print session changes made by other windows
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		slog.Error("run cli", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("ponyexpress-cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	verbose := fs.Bool("v", false, "log to stderr at the configured level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd, err := parseCommand(fs.Args())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var logOutput io.Writer = io.Discard
	if *verbose {
		logOutput = os.Stderr
	}
	rt, err := app.Initialize(ctx, app.Options{
		LogOutput:            logOutput,
		DisableStatusMonitor: cmd.name != commandWatch,
	})
	if err != nil {
		return fmt.Errorf("initialize runtime: %w", err)
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			slog.Warn("close runtime", "error", closeErr)
		}
	}()

	logger := rt.LogManager.Logger("cli")
	logger.Debug("starting cli", "version", app.BuildVersionWithDate(), "command", cmd.name)

	if cmd.name == commandWatch {
		return watch(ctx, rt, os.Stdout)
	}

	return execute(ctx, commandEnv{
		client:       rt.Query,
		out:          os.Stdout,
		readPassword: promptPassword,
	}, cmd)
}

// promptPassword reads without echo on a terminal and a plain line otherwise,
// so passwords can be piped in.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}

		return string(raw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func watch(ctx context.Context, rt *app.Runtime, out io.Writer) error {
	rt.StartNotifications(
		notifications.NewDesktopSender(app.DisplayName, rt.LogManager.Logger("notifications")),
		func() bool { return false },
	)

	stopSession := bus.Listen(ctx, rt.Bus, bus.TopicSessionChanged, func(msg any) {
		if event, ok := msg.(session.Event); ok {
			fmt.Fprintln(out, formatSessionEvent(event))
		}
	})
	defer stopSession()
	stopStatus := bus.Listen(ctx, rt.Bus, bus.TopicServerStatus, func(msg any) {
		if status, ok := msg.(app.ServerStatus); ok {
			fmt.Fprintln(out, formatServerStatus(status))
		}
	})
	defer stopStatus()

	fmt.Fprintln(out, formatSessionState(rt.Session.Snapshot()))
	<-ctx.Done()

	return nil
}
