package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/skobkin/ponyexpress/internal/bus"
)

const defaultWatchDebounce = 50 * time.Millisecond

// Change is published on bus.TopicStorageChanged when an item revision moves.
type Change struct {
	Item Item
}

type Publisher interface {
	Publish(topic string, msg any)
}

// Watcher turns file system events on the database file into item changes, so
// writes made by other client processes become visible without polling.
type Watcher struct {
	storage   *LocalStorage
	dir       string
	base      string
	publisher Publisher
	logger    *slog.Logger
	debounce  time.Duration

	mu    sync.Mutex
	known map[string]int64

	fs        *fsnotify.Watcher
	closeOnce sync.Once
}

func NewWatcher(ctx context.Context, storage *LocalStorage, dbPath string, publisher Publisher, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default().With("component", "storage.watcher")
	}
	cleanPath := filepath.Clean(dbPath)
	w := &Watcher{
		storage:   storage,
		dir:       filepath.Dir(cleanPath),
		base:      filepath.Base(cleanPath),
		publisher: publisher,
		logger:    logger,
		debounce:  defaultWatchDebounce,
		known:     make(map[string]int64),
	}

	items, err := storage.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		w.known[item.Key] = item.Revision
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()

		return nil, fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.fs = fsw

	return w, nil
}

// Start processes file events until ctx is cancelled or Close is called.
func (w *Watcher) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *Watcher) run(ctx context.Context) {
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(event.Name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fs watcher error", "error", err)
		case <-timerC:
			timerC = nil
			if _, err := w.Rescan(ctx); err != nil {
				w.logger.Warn("rescan local storage", "error", err)
			}
		}
	}
}

// Rescan re-reads all items and publishes those whose revision changed since
// the previous scan.
func (w *Watcher) Rescan(ctx context.Context) ([]Change, error) {
	items, err := w.storage.List(ctx)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	var changes []Change
	for _, item := range items {
		if w.known[item.Key] == item.Revision {
			continue
		}
		w.known[item.Key] = item.Revision
		changes = append(changes, Change{Item: item})
	}
	w.mu.Unlock()

	for _, change := range changes {
		w.logger.Debug("local storage item changed", "key", change.Item.Key, "revision", change.Item.Revision, "present", change.Item.Present)
		if w.publisher != nil {
			w.publisher.Publish(bus.TopicStorageChanged, change)
		}
	}

	return changes, nil
}

func (w *Watcher) relevant(name string) bool {
	base := filepath.Base(name)
	return base == w.base || strings.HasPrefix(base, w.base+"-")
}

func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		if w.fs != nil {
			err = w.fs.Close()
		}
	})

	return err
}
