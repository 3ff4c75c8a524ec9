//go:build linux

package platform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skobkin/ponyexpress/internal/config"
)

func TestXDGAutostartWritesUpdatesAndRemovesEntry(t *testing.T) {
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", root)
	entryPath := filepath.Join(root, "autostart", "ponyexpress.desktop")

	autostart := NewAutostart()
	if err := autostart.Apply(config.AutostartConfig{Enabled: true, Mode: config.AutostartModeNormal}); err != nil {
		t.Fatalf("enable normal mode: %v", err)
	}
	raw, err := os.ReadFile(entryPath) // #nosec G304 -- path under t.TempDir.
	if err != nil {
		t.Fatalf("read desktop entry: %v", err)
	}
	entry := string(raw)
	if !strings.HasPrefix(entry, "[Desktop Entry]\n") || !strings.Contains(entry, "Name=Pony Express\n") {
		t.Fatalf("unexpected desktop entry %q", entry)
	}
	if strings.Contains(entry, trayLaunch) {
		t.Fatalf("did not expect %q in normal mode entry", trayLaunch)
	}

	if err := autostart.Apply(config.AutostartConfig{Enabled: true, Mode: config.AutostartModeTray}); err != nil {
		t.Fatalf("enable tray mode: %v", err)
	}
	raw, err = os.ReadFile(entryPath) // #nosec G304 -- path under t.TempDir.
	if err != nil {
		t.Fatalf("read updated desktop entry: %v", err)
	}
	if !strings.Contains(string(raw), `"`+trayLaunch+`"`) {
		t.Fatalf("expected %q in tray mode entry, got %q", trayLaunch, string(raw))
	}

	if err := autostart.Apply(config.AutostartConfig{Enabled: false}); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if _, err := os.Stat(entryPath); !os.IsNotExist(err) {
		t.Fatalf("expected desktop entry to be removed, stat err: %v", err)
	}
	if err := autostart.Apply(config.AutostartConfig{Enabled: false}); err != nil {
		t.Fatalf("disable twice: %v", err)
	}
}

func TestExecLineQuotesFields(t *testing.T) {
	got := execLine(`/opt/pony express/bin/pony$x`, []string{"--start-hidden"})
	want := `"/opt/pony express/bin/pony\$x" "--start-hidden"`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
