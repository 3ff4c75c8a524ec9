package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/skobkin/ponyexpress/internal/api"
	"github.com/skobkin/ponyexpress/internal/bus"
	"github.com/skobkin/ponyexpress/internal/config"
	"github.com/skobkin/ponyexpress/internal/logging"
	"github.com/skobkin/ponyexpress/internal/notifications"
	"github.com/skobkin/ponyexpress/internal/platform"
	"github.com/skobkin/ponyexpress/internal/query"
	"github.com/skobkin/ponyexpress/internal/session"
	"github.com/skobkin/ponyexpress/internal/storage"
)

// Options customizes runtime startup.
type Options struct {
	// Paths overrides the per-user locations, mostly for tests.
	Paths *Paths
	// LogOutput receives console logs, stderr when nil.
	LogOutput io.Writer
	// DisableStatusMonitor skips background reachability polling.
	DisableStatusMonitor bool
	// Autostart replaces the OS login entry manager.
	Autostart platform.Autostart
}

// Runtime wires the session store, the API client and the data-fetch layer
// that every front end shares.
type Runtime struct {
	mu sync.RWMutex

	Ctx    context.Context
	cancel context.CancelFunc

	Paths  Paths
	Config config.AppConfig

	LogManager *logging.Manager
	Bus        *bus.PubSubBus
	DB         *sql.DB
	Storage    *storage.LocalStorage
	Watcher    *storage.Watcher

	Session *session.Store
	API     *api.Client
	Query   *query.Client
	Status  *StatusMonitor

	Autostart platform.Autostart

	stopQueryListen func()
	statusStarted   bool
}

func Initialize(parent context.Context, opts Options) (*Runtime, error) {
	var paths Paths
	if opts.Paths != nil {
		paths = *opts.Paths
	} else {
		resolved, err := ResolvePaths()
		if err != nil {
			return nil, err
		}
		paths = resolved
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(parent)
	rt := &Runtime{
		Ctx:       ctx,
		cancel:    cancel,
		Paths:     paths,
		Config:    cfg,
		Autostart: opts.Autostart,
	}
	if rt.Autostart == nil {
		rt.Autostart = platform.NewAutostart()
	}

	logMgr := logging.NewManager(opts.LogOutput)
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		_ = logMgr.Close()
		cancel()

		return nil, fmt.Errorf("configure logging: %w", err)
	}
	rt.LogManager = logMgr
	logger := logMgr.Logger("app")
	logger.Info("starting runtime", "version", BuildVersion(), "build_date", BuildDateYMD(), "api", cfg.API.BaseURL)

	rt.Bus = bus.New(logMgr.Logger("bus"))

	// Without the shared storage file the session lives in memory only.
	var sessionStorage session.Storage
	db, err := storage.Open(ctx, paths.DBFile)
	if err != nil {
		logger.Warn("open shared storage, session will not persist", "path", paths.DBFile, "error", err)
	} else {
		rt.DB = db
		rt.Storage = storage.NewLocalStorage(db)
		sessionStorage = rt.Storage

		watcher, err := storage.NewWatcher(ctx, rt.Storage, paths.DBFile, rt.Bus, logMgr.Logger("storage"))
		if err != nil {
			logger.Warn("watch shared storage, other windows will not sync", "error", err)
		} else {
			rt.Watcher = watcher
			watcher.Start(ctx)
		}
	}

	rt.Session = session.NewStore(sessionStorage, rt.Bus, logMgr.Logger("session"))
	rt.Session.Initialize(ctx)

	apiClient, err := api.NewClient(api.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout(),
		Tokens:    rt.Session,
		UserAgent: UserAgent(),
		Logger:    logMgr.Logger("api"),
	})
	if err != nil {
		_ = rt.Close()

		return nil, fmt.Errorf("initialize api client: %w", err)
	}
	rt.API = apiClient

	rt.Query = query.NewClient(apiClient, rt.Session, rt.Bus, logMgr.Logger("query"))
	rt.stopQueryListen = rt.Query.Listen(ctx, rt.Bus)

	rt.Status = NewStatusMonitor(StatusMonitorConfig{
		Checker:  apiClient,
		Bus:      rt.Bus,
		Interval: cfg.API.StatusPollInterval(),
		Timeout:  cfg.API.Timeout(),
		Logger:   logMgr.Logger("status"),
	})
	if !opts.DisableStatusMonitor {
		rt.Status.Start(ctx)
		rt.statusStarted = true
	}

	return rt, nil
}

// StartNotifications forwards session and server events to sender until the
// runtime closes.
func (r *Runtime) StartNotifications(sender notifications.Sender, isForeground func() bool) {
	service := NewNotificationService(
		r.Bus,
		r.CurrentConfig,
		isForeground,
		sender,
		r.LogManager.Logger("notifications"),
	)
	service.Start(r.Ctx)
}

func (r *Runtime) CurrentConfig() config.AppConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.Config
}

// SaveAndApplyConfig persists cfg and applies the parts that can change
// without a restart. The API base URL takes effect on the next start.
func (r *Runtime) SaveAndApplyConfig(cfg config.AppConfig) error {
	cfg.FillMissingDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	cfg.UI.LastSelectedChat = r.Config.UI.LastSelectedChat
	if err := config.Save(r.Paths.ConfigFile, cfg); err != nil {
		r.mu.Unlock()

		return err
	}
	previousAutostart := r.Config.UI.Autostart
	r.Config = cfg
	r.mu.Unlock()

	if err := r.LogManager.Configure(cfg.Logging, r.Paths.LogFile); err != nil {
		return err
	}
	if cfg.UI.Autostart != previousAutostart && r.Autostart != nil {
		if err := r.Autostart.Apply(cfg.UI.Autostart); err != nil {
			return fmt.Errorf("apply start at login: %w", err)
		}
	}

	return nil
}

func (r *Runtime) RememberSelectedChat(chatID string) {
	normalized := strings.TrimSpace(chatID)

	r.mu.Lock()
	if r.Config.UI.LastSelectedChat == normalized {
		r.mu.Unlock()

		return
	}
	cfg := r.Config
	cfg.UI.LastSelectedChat = normalized
	if err := config.Save(r.Paths.ConfigFile, cfg); err != nil {
		r.mu.Unlock()
		slog.Warn("save selected chat", "error", err)

		return
	}
	r.Config = cfg
	r.mu.Unlock()
}

// Close stops background work. Listeners unsubscribe through the bus, so it
// is shut down after them.
func (r *Runtime) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.stopQueryListen != nil {
		r.stopQueryListen()
	}
	if r.statusStarted {
		<-r.Status.Done()
	}
	if r.Session != nil {
		r.Session.Close()
	}
	if r.Watcher != nil {
		_ = r.Watcher.Close()
	}
	if r.Bus != nil {
		r.Bus.Close()
	}
	if r.DB != nil {
		_ = r.DB.Close()
	}
	if r.LogManager != nil {
		_ = r.LogManager.Close()
	}

	return nil
}
