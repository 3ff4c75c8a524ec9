//go:build !linux && !windows

package platform

import (
	"fmt"
	"runtime"

	"github.com/skobkin/ponyexpress/internal/config"
)

type unsupportedAutostart struct{}

func newAutostart() Autostart {
	return unsupportedAutostart{}
}

func (unsupportedAutostart) Apply(cfg config.AutostartConfig) error {
	if !cfg.Enabled {
		return nil
	}

	return fmt.Errorf("start at login is not supported on %s", runtime.GOOS)
}
