package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultAPIBaseURL        = "http://localhost:8000"
	DefaultAPITimeoutSeconds = 15
	DefaultStatusPollSeconds = 60
)

var validLogLevels = map[string]struct{}{
	"debug":   {},
	"info":    {},
	"warn":    {},
	"warning": {},
	"error":   {},
}

// APIConfig points the client at the backend.
type APIConfig struct {
	BaseURL           string `json:"base_url" mapstructure:"base_url"`
	TimeoutSeconds    int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	StatusPollSeconds int    `json:"status_poll_seconds" mapstructure:"status_poll_seconds"`
}

func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c APIConfig) StatusPollInterval() time.Duration {
	return time.Duration(c.StatusPollSeconds) * time.Second
}

// LoggingConfig defines runtime logging behavior.
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	LogToFile bool   `json:"log_to_file" mapstructure:"log_to_file"`
}

// AutostartMode controls how the desktop app is launched at login.
type AutostartMode string

const (
	AutostartModeNormal AutostartMode = "normal"
	// AutostartModeTray starts with the window hidden in the tray.
	AutostartModeTray AutostartMode = "tray"
)

// UIConfig stores persistent UI preferences.
type UIConfig struct {
	LastSelectedChat string             `json:"last_selected_chat" mapstructure:"last_selected_chat"`
	Notifications    NotificationConfig `json:"notifications" mapstructure:"notifications"`
	Autostart        AutostartConfig    `json:"autostart" mapstructure:"autostart"`
}

type AutostartConfig struct {
	Enabled bool          `json:"enabled" mapstructure:"enabled"`
	Mode    AutostartMode `json:"mode" mapstructure:"mode"`
}

// NotificationConfig stores desktop notification preferences.
type NotificationConfig struct {
	NotifyWhenFocused bool                     `json:"notify_when_focused" mapstructure:"notify_when_focused"`
	Events            NotificationEventsConfig `json:"events" mapstructure:"events"`
}

// NotificationEventsConfig stores per-event notification toggles.
type NotificationEventsConfig struct {
	SessionChanged bool `json:"session_changed" mapstructure:"session_changed"`
	ServerStatus   bool `json:"server_status" mapstructure:"server_status"`
}

// AppConfig is the root persisted application configuration.
type AppConfig struct {
	API     APIConfig     `json:"api" mapstructure:"api"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
	UI      UIConfig      `json:"ui" mapstructure:"ui"`
}

func Default() AppConfig {
	return AppConfig{
		API: APIConfig{
			BaseURL:           DefaultAPIBaseURL,
			TimeoutSeconds:    DefaultAPITimeoutSeconds,
			StatusPollSeconds: DefaultStatusPollSeconds,
		},
		Logging: LoggingConfig{
			Level:     "info",
			LogToFile: false,
		},
		UI: UIConfig{
			LastSelectedChat: "",
			Notifications: NotificationConfig{
				NotifyWhenFocused: false,
				Events: NotificationEventsConfig{
					SessionChanged: true,
					ServerStatus:   true,
				},
			},
			Autostart: AutostartConfig{
				Enabled: false,
				Mode:    AutostartModeNormal,
			},
		},
	}
}

// Load merges defaults, the JSON file at path and environment overrides.
// A missing file is not an error.
func Load(path string) (AppConfig, error) {
	v := newViper()

	cleanPath := filepath.Clean(path)
	if _, err := os.Stat(cleanPath); err == nil {
		v.SetConfigFile(cleanPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return AppConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("stat config: %w", err)
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.FillMissingDefaults()

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")

	def := Default()
	v.SetDefault("api.base_url", def.API.BaseURL)
	v.SetDefault("api.timeout_seconds", def.API.TimeoutSeconds)
	v.SetDefault("api.status_poll_seconds", def.API.StatusPollSeconds)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.log_to_file", def.Logging.LogToFile)
	v.SetDefault("ui.last_selected_chat", def.UI.LastSelectedChat)
	v.SetDefault("ui.notifications.notify_when_focused", def.UI.Notifications.NotifyWhenFocused)
	v.SetDefault("ui.notifications.events.session_changed", def.UI.Notifications.Events.SessionChanged)
	v.SetDefault("ui.notifications.events.server_status", def.UI.Notifications.Events.ServerStatus)
	v.SetDefault("ui.autostart.enabled", def.UI.Autostart.Enabled)
	v.SetDefault("ui.autostart.mode", string(def.UI.Autostart.Mode))

	_ = v.BindEnv("api.base_url", "PONY_API_URL", "API_URL")
	_ = v.BindEnv("logging.level", "PONY_LOG_LEVEL")

	return v
}

func (c *AppConfig) FillMissingDefaults() {
	c.API.BaseURL = strings.TrimSpace(c.API.BaseURL)
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBaseURL
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = DefaultAPITimeoutSeconds
	}
	if c.API.StatusPollSeconds <= 0 {
		c.API.StatusPollSeconds = DefaultStatusPollSeconds
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.UI.Autostart.Mode = NormalizeAutostartMode(c.UI.Autostart.Mode)
}

func NormalizeAutostartMode(mode AutostartMode) AutostartMode {
	if mode == AutostartModeTray {
		return AutostartModeTray
	}

	return AutostartModeNormal
}

func (c AppConfig) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api base url must use http or https: %q", c.API.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("api base url has no host: %q", c.API.BaseURL)
	}
	if c.API.TimeoutSeconds <= 0 {
		return errors.New("api timeout must be positive")
	}
	if c.API.StatusPollSeconds <= 0 {
		return errors.New("status poll interval must be positive")
	}
	if _, ok := validLogLevels[c.Logging.Level]; !ok {
		return fmt.Errorf("unknown log level: %s", c.Logging.Level)
	}

	return nil
}

func Save(path string, cfg AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config: %w", err)
	}

	return nil
}
