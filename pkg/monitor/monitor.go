package monitor

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"pattern-atlas-service/internal/models"
	"pattern-atlas-service/pkg/config"
	"pattern-atlas-service/pkg/errors"
	"pattern-atlas-service/pkg/logging"
)

// DefaultDebounce is the quiet period before a file event is delivered
const DefaultDebounce = 500 * time.Millisecond

// CatalogMonitor watches a catalog directory tree for changes to catalog files
type CatalogMonitor struct {
	watcher       *fsnotify.Watcher
	debounceDelay time.Duration
	logger        *logging.StructuredLogger

	mu        sync.Mutex
	callbacks []func(models.CatalogEvent)
	onError   func(error)
	timers    map[string]*time.Timer
	started   bool
	closed    bool
}

// NewCatalogMonitor creates a new catalog monitor. A zero debounce uses DefaultDebounce.
func NewCatalogMonitor(debounce time.Duration, logger *logging.StructuredLogger) (*CatalogMonitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewFileSystemError(errors.ErrCodeFileSystemUnavailable,
			"failed to create file watcher", err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.NewStructuredLogger("monitor")
	}

	return &CatalogMonitor{
		watcher:       watcher,
		debounceDelay: debounce,
		logger:        logger,
		callbacks:     make([]func(models.CatalogEvent), 0),
		timers:        make(map[string]*time.Timer),
	}, nil
}

// WatchDirectory starts watching root and every directory below it
func (cm *CatalogMonitor) WatchDirectory(root string, callback func(models.CatalogEvent)) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return cm.watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return errors.NewFileSystemError(errors.ErrCodeDirectoryNotFound,
			"failed to watch catalog directory", err).
			WithContext("path", root)
	}

	cm.mu.Lock()
	cm.callbacks = append(cm.callbacks, callback)
	startLoop := !cm.started
	cm.started = true
	cm.mu.Unlock()

	if startLoop {
		go cm.monitorEvents()
	}

	cm.logger.LogFileSystemEvent("watch_started", root, map[string]interface{}{
		"debounce_ms": cm.debounceDelay.Milliseconds(),
	})
	return nil
}

// SetErrorHandler registers a function called with watcher errors after
// watching has started
func (cm *CatalogMonitor) SetErrorHandler(handler func(error)) {
	cm.mu.Lock()
	cm.onError = handler
	cm.mu.Unlock()
}

// StopWatching stops monitoring and cancels pending events. Safe to call twice.
func (cm *CatalogMonitor) StopWatching() error {
	cm.mu.Lock()
	if cm.closed {
		cm.mu.Unlock()
		return nil
	}
	cm.closed = true
	for path, timer := range cm.timers {
		timer.Stop()
		delete(cm.timers, path)
	}
	cm.mu.Unlock()

	return cm.watcher.Close()
}

// monitorEvents processes file system events with per-file debouncing
func (cm *CatalogMonitor) monitorEvents() {
	for {
		select {
		case event, ok := <-cm.watcher.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := cm.watcher.Add(event.Name); err != nil {
						cm.logger.WithError(err).Warn("Failed to watch new catalog subdirectory")
					}
					continue
				}
			}

			if !config.IsCatalogFile(strings.ToLower(filepath.Ext(event.Name))) {
				continue
			}

			cm.debounce(event)

		case err, ok := <-cm.watcher.Errors:
			if !ok {
				return
			}
			cm.logger.WithError(err).Error("File watcher error")

			cm.mu.Lock()
			handler := cm.onError
			cm.mu.Unlock()
			if handler != nil {
				handler(errors.NewFileSystemError(errors.ErrCodeFileSystemUnavailable,
					"file watcher failed", err))
			}
		}
	}
}

func (cm *CatalogMonitor) debounce(event fsnotify.Event) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.closed {
		return
	}
	if timer, exists := cm.timers[event.Name]; exists {
		timer.Stop()
	}
	cm.timers[event.Name] = time.AfterFunc(cm.debounceDelay, func() {
		cm.mu.Lock()
		delete(cm.timers, event.Name)
		closed := cm.closed
		cm.mu.Unlock()

		if !closed {
			cm.processEvent(event)
		}
	})
}

// processEvent converts an fsnotify event to a CatalogEvent and calls the callbacks
func (cm *CatalogMonitor) processEvent(event fsnotify.Event) {
	eventType, ok := eventTypeOf(event.Op)
	if !ok {
		return
	}

	catalogEvent := models.CatalogEvent{
		Type: eventType,
		Path: event.Name,
	}

	cm.mu.Lock()
	callbacks := append([]func(models.CatalogEvent){}, cm.callbacks...)
	cm.mu.Unlock()

	for _, callback := range callbacks {
		callback(catalogEvent)
	}

	cm.logger.LogFileSystemEvent(eventType, event.Name, nil)
}

func eventTypeOf(op fsnotify.Op) (string, bool) {
	switch {
	case op&fsnotify.Create == fsnotify.Create:
		return models.EventCreate, true
	case op&fsnotify.Write == fsnotify.Write:
		return models.EventModify, true
	case op&fsnotify.Remove == fsnotify.Remove:
		return models.EventDelete, true
	case op&fsnotify.Rename == fsnotify.Rename:
		return models.EventDelete, true // the new name arrives as a create
	default:
		return "", false
	}
}
