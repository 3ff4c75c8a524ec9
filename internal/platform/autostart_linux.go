//go:build linux

package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skobkin/ponyexpress/internal/config"
)

// xdgAutostart manages a desktop entry under $XDG_CONFIG_HOME/autostart.
type xdgAutostart struct{}

func newAutostart() Autostart {
	return xdgAutostart{}
}

func (xdgAutostart) Apply(cfg config.AutostartConfig) error {
	path, err := desktopEntryPath()
	if err != nil {
		return err
	}

	if !cfg.Enabled {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove desktop entry: %w", err)
		}

		return nil
	}

	executable, args, err := launchCommand(cfg)
	if err != nil {
		return err
	}

	return writeDesktopEntry(path, desktopEntry(execLine(executable, args)))
}

func desktopEntryPath() (string, error) {
	base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if base == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("resolve user config dir: %w", err)
		}
		base = dir
	}

	return filepath.Join(filepath.Clean(base), "autostart", entryName+".desktop"), nil
}

func desktopEntry(exec string) string {
	lines := []string{
		"[Desktop Entry]",
		"Type=Application",
		"Name=" + entryTitle,
		"Comment=" + entryRemark,
		"Exec=" + exec,
		"Terminal=false",
		"Categories=Network;Chat;",
		"X-GNOME-Autostart-enabled=true",
	}

	return strings.Join(lines, "\n") + "\n"
}

// execLine quotes every field as the desktop entry spec requires for paths
// with spaces.
func execLine(executable string, args []string) string {
	fields := make([]string, 0, len(args)+1)
	for _, field := range append([]string{executable}, args...) {
		quoted := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", "$", `\$`).Replace(field)
		fields = append(fields, `"`+quoted+`"`)
	}

	return strings.Join(fields, " ")
}

func writeDesktopEntry(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create autostart dir: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write desktop entry: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("replace desktop entry: %w", err)
	}

	return nil
}
