package server

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"pattern-atlas-service/internal/models"
	"pattern-atlas-service/pkg/config"
	"pattern-atlas-service/pkg/errors"
	"pattern-atlas-service/pkg/live"
)

// refreshBatchWindow collects monitor events into a single reload
const refreshBatchWindow = 200 * time.Millisecond

// fallbackRescanSchedule runs when watching degrades and no rescan
// schedule is configured
const fallbackRescanSchedule = "@every 1m"

// handleCatalogEvent queues a monitor event for catalog reload
func (s *Server) handleCatalogEvent(event models.CatalogEvent) {
	// any delivered event means the watcher works again
	s.degradation.RecordSuccess(errors.ComponentCatalogWatching)

	if !config.IsCatalogFile(strings.ToLower(filepath.Ext(event.Path))) {
		return
	}

	select {
	case s.refreshChan <- event:
	default:
		// Non-blocking send prevents the monitor from blocking on a full channel
		s.logger.WithContext("event_path", event.Path).
			WithContext("event_type", event.Type).
			Warn("Refresh channel full, dropping catalog event")
	}
}

// catalogRefreshCoordinator batches catalog events and reloads the whole
// catalog once per batch. The monitor already debounces per file; this
// window merges edits to several files into one registry swap.
func (s *Server) catalogRefreshCoordinator(ctx context.Context) {
	pending := make(map[string]models.CatalogEvent)
	var batch <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdownChan:
			return
		case event := <-s.refreshChan:
			pending[event.Path] = event
			if batch == nil {
				batch = time.After(refreshBatchWindow)
			}
		case <-batch:
			batch = nil
			paths := make([]string, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
				delete(pending, path)
			}
			sort.Strings(paths)

			if err := s.reloadCatalog(ctx, paths); err != nil {
				s.logger.WithError(err).Error("Catalog reload failed, keeping previous catalog")
			}
		}
	}
}

// Reload reloads the catalog from its sources and swaps the registry
func (s *Server) Reload(ctx context.Context) error {
	return s.reloadCatalog(ctx, nil)
}

func (s *Server) reloadCatalog(ctx context.Context, paths []string) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	refreshStart := time.Now()
	s.logger.WithContext("changed_files", len(paths)).Info("Reloading pattern catalog")

	records, err := s.loadCatalog(ctx)
	if err != nil {
		s.degradation.RecordError(errors.ComponentCatalogReload, err)
		s.metrics.RecordCatalogLoad(false, 0)
		s.loggingManager.LogCatalogRefresh(paths, s.registry.Size(), time.Since(refreshStart), false)
		return errors.NewCatalogError(errors.ErrCodeCatalogReloadFailed,
			"failed to reload catalog", err)
	}

	s.registry.Replace(records)
	s.degradation.RecordSuccess(errors.ComponentCatalogReload)
	s.metrics.RecordCatalogLoad(true, len(records))
	s.loggingManager.LogCatalogRefresh(paths, len(records), time.Since(refreshStart), true)

	message := models.LiveMessage{
		Event:    live.EventCatalogReloaded,
		Patterns: len(records),
		Paths:    relativePaths(s.config.Catalog.Directory, paths),
	}
	if err := s.hub.Broadcast(message); err != nil {
		s.degradation.RecordError(errors.ComponentLiveUpdates, err)
		s.logger.WithError(err).Warn("Failed to broadcast catalog reload")
	} else {
		s.degradation.RecordSuccess(errors.ComponentLiveUpdates)
		s.metrics.RecordBroadcast()
	}

	return nil
}

// startRescanSchedule reloads the catalog on a cron schedule whenever file
// watching is off or degraded. Runs never overlap. Only one schedule runs:
// later calls, and calls after shutdown began, do nothing.
func (s *Server) startRescanSchedule(ctx context.Context, spec string) error {
	scheduler := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	if _, err := scheduler.AddFunc(spec, func() { s.scheduledRescan(ctx) }); err != nil {
		return errors.NewSystemError(errors.ErrCodeInitializationFailed,
			"invalid catalog rescan schedule", err).WithContext("schedule", spec)
	}

	s.mu.Lock()
	if s.scheduler != nil || ctx.Err() != nil {
		s.mu.Unlock()
		return nil
	}
	s.scheduler = scheduler
	scheduler.Start()
	s.mu.Unlock()

	s.logger.WithContext("schedule", spec).Info("Periodic catalog rescan scheduled")
	return nil
}

// startFallbackRescan keeps directory changes flowing while the watcher
// is degraded
func (s *Server) startFallbackRescan() {
	s.mu.RLock()
	ctx := s.runCtx
	s.mu.RUnlock()
	if ctx == nil || s.config.Catalog.Directory == "" {
		return
	}

	if err := s.startRescanSchedule(ctx, fallbackRescanSchedule); err != nil {
		s.logger.WithError(err).Error("Failed to start the fallback catalog rescan")
	}
}

func (s *Server) scheduledRescan(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	s.mu.RLock()
	watching := s.monitor != nil
	s.mu.RUnlock()
	if watching && s.degradation.Healthy(errors.ComponentCatalogWatching) {
		return
	}

	if err := s.reloadCatalog(ctx, nil); err != nil {
		s.logger.WithError(err).Error("Scheduled catalog rescan failed, keeping previous catalog")
	}
}

// relativePaths strips the catalog directory so clients never see host paths
func relativePaths(root string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
		out = append(out, filepath.ToSlash(path))
	}
	return out
}
