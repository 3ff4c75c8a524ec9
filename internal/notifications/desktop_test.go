package notifications

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func TestDesktopSender_SkipsEmptyPayload(t *testing.T) {
	calls := 0
	s := &DesktopSender{
		notify: func(string, string, string) error {
			calls++
			return nil
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	s.Send(Payload{Title: "  ", Content: "\n"})
	if calls != 0 {
		t.Fatalf("empty payload must not be sent")
	}
}

func TestDesktopSender_TrimsAndSends(t *testing.T) {
	var gotTitle, gotContent string
	s := &DesktopSender{
		notify: func(title, content, _ string) error {
			gotTitle, gotContent = title, content
			return errors.New("no notification daemon")
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	s.Send(Payload{Title: " Signed out ", Content: " Another window logged out. "})
	if gotTitle != "Signed out" || gotContent != "Another window logged out." {
		t.Fatalf("unexpected notification %q / %q", gotTitle, gotContent)
	}
}

func TestNilDesktopSenderIsSafe(t *testing.T) {
	var s *DesktopSender
	s.Send(Payload{Title: "x"})
}
