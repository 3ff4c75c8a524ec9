// Package platform registers the desktop app with the host session so it
// starts at login.
package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/skobkin/ponyexpress/internal/config"
)

const (
	entryName   = "ponyexpress"
	entryTitle  = "Pony Express"
	trayLaunch  = "--start-hidden"
	entryRemark = "Pony Express chat client"
)

// Autostart adds or removes the login entry for the running executable.
type Autostart interface {
	Apply(cfg config.AutostartConfig) error
}

func NewAutostart() Autostart {
	return newAutostart()
}

func launchArgs(mode config.AutostartMode) []string {
	if config.NormalizeAutostartMode(mode) == config.AutostartModeTray {
		return []string{trayLaunch}
	}

	return nil
}

func launchCommand(cfg config.AutostartConfig) (string, []string, error) {
	executable, err := executablePath()
	if err != nil {
		return "", nil, err
	}

	return executable, launchArgs(cfg.Mode), nil
}

// executablePath resolves symlinks so package-manager shims keep working
// after upgrades.
func executablePath() (string, error) {
	raw, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	return filepath.Clean(abs), nil
}
