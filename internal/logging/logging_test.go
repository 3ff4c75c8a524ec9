package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skobkin/ponyexpress/internal/config"
)

func TestTeeWriter_ContinuesWhenOneDestinationFails(t *testing.T) {
	var dst bytes.Buffer
	w := teeWriter{errorWriter{err: errors.New("broken stderr")}, &dst}

	n, err := w.Write([]byte("test"))
	if err != nil {
		t.Fatalf("write returned error: %v", err)
	}
	if n != len("test") {
		t.Fatalf("unexpected bytes written: got %d, want %d", n, len("test"))
	}
	if got := dst.String(); got != "test" {
		t.Fatalf("unexpected destination contents: got %q", got)
	}
}

func TestTeeWriter_AllDestinationsFail(t *testing.T) {
	w := teeWriter{errorWriter{err: errors.New("a")}, errorWriter{err: errors.New("b")}}

	if _, err := w.Write([]byte("x")); err == nil || err.Error() != "a" {
		t.Fatalf("expected first error, got %v", err)
	}
}

func TestManager_RedactsCredentials(t *testing.T) {
	origDefault := slog.Default()
	t.Cleanup(func() { slog.SetDefault(origDefault) })

	var out bytes.Buffer
	m := NewManager(&out)
	if err := m.Configure(config.LoggingConfig{Level: "debug"}, ""); err != nil {
		t.Fatalf("configure: %v", err)
	}

	m.Logger("session").Info("login", "token", "secret-jwt", "Authorization", "Bearer secret-jwt", "username", "alice")

	got := out.String()
	if strings.Contains(got, "secret-jwt") {
		t.Fatalf("credentials leaked into log: %q", got)
	}
	if !strings.Contains(got, "username=alice") || !strings.Contains(got, "component=session") {
		t.Fatalf("regular attributes missing: %q", got)
	}
	if !strings.Contains(got, "token="+redacted) {
		t.Fatalf("expected redaction marker: %q", got)
	}
}

func TestManager_LevelFiltering(t *testing.T) {
	origDefault := slog.Default()
	t.Cleanup(func() { slog.SetDefault(origDefault) })

	var out bytes.Buffer
	m := NewManager(&out)
	if err := m.Configure(config.LoggingConfig{Level: "warn"}, ""); err != nil {
		t.Fatalf("configure: %v", err)
	}

	logger := m.Logger("test")
	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(out.String(), "hidden") || !strings.Contains(out.String(), "shown") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestManager_RejectsUnknownLevel(t *testing.T) {
	m := NewManager(&bytes.Buffer{})
	if err := m.Configure(config.LoggingConfig{Level: "trace"}, ""); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestManagerConfigure_LogFileReceivesLogsWhenOutputFails(t *testing.T) {
	origDefault := slog.Default()
	t.Cleanup(func() { slog.SetDefault(origDefault) })

	logPath := filepath.Join(t.TempDir(), "logs", "app.log")
	m := NewManager(errorWriter{err: errors.New("terminal gone")})
	t.Cleanup(func() { _ = m.Close() })

	if err := m.Configure(config.LoggingConfig{Level: "debug", LogToFile: true}, logPath); err != nil {
		t.Fatalf("configure manager: %v", err)
	}

	slog.Info("file must receive this message")

	if err := m.Close(); err != nil {
		t.Fatalf("close manager: %v", err)
	}

	// #nosec G304 -- logPath is created from t.TempDir() in this test.
	raw, err := os.ReadFile(filepath.Clean(logPath))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !bytes.Contains(raw, []byte("file must receive this message")) {
		t.Fatalf("log file does not contain test message, contents: %q", string(raw))
	}
}

type errorWriter struct {
	err error
}

func (w errorWriter) Write(_ []byte) (int, error) {
	return 0, w.err
}
