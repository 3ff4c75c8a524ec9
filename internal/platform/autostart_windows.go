//go:build windows

package platform

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/skobkin/ponyexpress/internal/config"
)

const runKeyPath = `Software\Microsoft\Windows\CurrentVersion\Run`

// runKeyAutostart manages a value under the per-user Run registry key.
type runKeyAutostart struct{}

func newAutostart() Autostart {
	return runKeyAutostart{}
}

func (runKeyAutostart) Apply(cfg config.AutostartConfig) error {
	key, _, err := registry.CreateKey(registry.CURRENT_USER, runKeyPath, registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open run key: %w", err)
	}
	defer key.Close()

	if !cfg.Enabled {
		if err := key.DeleteValue(entryName); err != nil && !errors.Is(err, registry.ErrNotExist) {
			return fmt.Errorf("delete run value: %w", err)
		}

		return nil
	}

	executable, args, err := launchCommand(cfg)
	if err != nil {
		return err
	}
	fields := make([]string, 0, len(args)+1)
	for _, field := range append([]string{executable}, args...) {
		fields = append(fields, windows.EscapeArg(field))
	}
	if err := key.SetStringValue(entryName, strings.Join(fields, " ")); err != nil {
		return fmt.Errorf("set run value: %w", err)
	}

	return nil
}
