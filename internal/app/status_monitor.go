package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/skobkin/ponyexpress/internal/bus"
)

const (
	defaultStatusCheckInterval = time.Minute
	defaultStatusCheckTimeout  = 10 * time.Second
)

type ServerState string

const (
	ServerStateOnline  ServerState = "online"
	ServerStateOffline ServerState = "offline"
)

// ServerStatus is published on bus.TopicServerStatus whenever the state flips.
type ServerStatus struct {
	State     ServerState
	Err       string
	CheckedAt time.Time
}

type StatusChecker interface {
	Status(ctx context.Context) error
}

// StatusMonitorConfig customizes status monitor behavior.
type StatusMonitorConfig struct {
	Checker  StatusChecker
	Bus      bus.MessageBus
	Interval time.Duration
	Timeout  time.Duration
	Logger   *slog.Logger
}

// StatusMonitor periodically probes backend reachability.
type StatusMonitor struct {
	checker  StatusChecker
	bus      bus.MessageBus
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu          sync.RWMutex
	latest      ServerStatus
	latestKnown bool

	startOnce sync.Once
	done      chan struct{}
}

func NewStatusMonitor(cfg StatusMonitorConfig) *StatusMonitor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultStatusCheckInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultStatusCheckTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("component", "app.status")
	}

	return &StatusMonitor{
		checker:  cfg.Checker,
		bus:      cfg.Bus,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

func (m *StatusMonitor) Start(ctx context.Context) {
	if m == nil || m.checker == nil {
		return
	}

	m.startOnce.Do(func() {
		go m.run(ctx)
	})
}

// Done is closed once the polling goroutine exits.
func (m *StatusMonitor) Done() <-chan struct{} {
	return m.done
}

func (m *StatusMonitor) CurrentStatus() (ServerStatus, bool) {
	if m == nil {
		return ServerStatus{}, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.latest, m.latestKnown
}

func (m *StatusMonitor) run(ctx context.Context) {
	defer close(m.done)
	m.logger.Info("status monitor started", "interval", m.interval.String())

	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("status monitor stopped")

			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check probes the backend once and records the result.
func (m *StatusMonitor) Check(ctx context.Context) ServerStatus {
	checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	status := ServerStatus{State: ServerStateOnline, CheckedAt: m.now().UTC()}
	if err := m.checker.Status(checkCtx); err != nil {
		if ctx.Err() != nil {
			current, _ := m.CurrentStatus()
			return current
		}
		status.State = ServerStateOffline
		status.Err = strings.TrimSpace(err.Error())
	}

	m.mu.Lock()
	changed := !m.latestKnown || m.latest.State != status.State
	m.latest = status
	m.latestKnown = true
	m.mu.Unlock()

	if !changed {
		m.logger.Debug("server status unchanged", "state", status.State)
		return status
	}
	m.logger.Info("server status changed", "state", status.State, "error", status.Err)
	if m.bus != nil {
		m.bus.Publish(bus.TopicServerStatus, status)
	}

	return status
}
