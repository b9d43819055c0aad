package server

import (
	"context"
	"time"

	"pattern-atlas-service/internal/models"
	"pattern-atlas-service/pkg/catalog"
	"pattern-atlas-service/pkg/config"
	"pattern-atlas-service/pkg/errors"
	"pattern-atlas-service/pkg/monitor"
)

// initializeCatalog performs the first catalog load into the registry
func (s *Server) initializeCatalog(ctx context.Context) error {
	s.logger.Info("Loading pattern catalog")

	records, err := s.loadCatalog(ctx)
	if err != nil {
		return err
	}

	s.registry.Replace(records)
	s.metrics.RecordCatalogLoad(true, len(records))

	s.logger.WithContext("total_patterns", s.registry.Size()).
		Info("Pattern catalog initialized")
	return nil
}

// loadCatalog loads the builtin catalog and the configured directory,
// merges them (directory records override builtin ones by id) and drops
// records that fail validation. Per-file problems are logged and skipped.
func (s *Server) loadCatalog(ctx context.Context) ([]models.PatternRecord, error) {
	var results []*catalog.Result
	clean := true

	if s.config.Catalog.Builtin {
		result, err := s.loader.LoadBuiltin(ctx)
		if err != nil {
			return nil, errors.NewCatalogError(errors.ErrCodeInitializationFailed,
				"failed to load builtin catalog", err)
		}
		s.recordLoad(result)
		results = append(results, result)
	}

	if dir := s.config.Catalog.Directory; dir != "" {
		result, err := s.loader.LoadDir(ctx, dir)
		switch {
		case err != nil && len(results) == 0:
			return nil, err
		case err != nil:
			s.logger.WithError(err).WithContext("directory", dir).
				Warn("Catalog directory unavailable, serving builtin patterns only")
			s.degradation.RecordError(errors.ComponentCatalogParsing, err)
			clean = false
		default:
			s.recordLoad(result)
			results = append(results, result)
		}
	}

	for _, result := range results {
		if len(result.Errors) > 0 {
			clean = false
		}
	}
	if clean {
		s.degradation.RecordSuccess(errors.ComponentCatalogParsing)
	}

	merged := catalog.Merge(results...)
	records := s.validRecords(merged)

	if len(records) == 0 {
		return nil, errors.NewCatalogError(errors.ErrCodeCatalogEmpty,
			"catalog contains no valid patterns", nil)
	}
	return records, nil
}

// recordLoad logs a load result and feeds file errors to degradation tracking
func (s *Server) recordLoad(result *catalog.Result) {
	s.loggingManager.LogCatalogLoad(result.Source, len(result.Records), result.ErrorStrings(), result.Duration)

	for _, fileErr := range result.Errors {
		s.degradation.RecordError(errors.ComponentCatalogParsing, fileErr)
	}
	s.metrics.RecordFileErrors(len(result.Errors))
}

// validRecords validates the merged catalog and keeps the records without errors
func (s *Server) validRecords(records []models.PatternRecord) []models.PatternRecord {
	report := s.validator.ValidateCatalog(records)

	for _, warning := range report.Warnings {
		s.logger.WithContext("pattern_id", warning.PatternID).
			WithContext("field", warning.Field).
			Warn(warning.Message)
	}

	rejected := make(map[string]bool)
	for _, issue := range report.Errors {
		rejected[issue.PatternID] = true
		s.logger.WithContext("pattern_id", issue.PatternID).
			WithContext("field", issue.Field).
			Error("Rejecting pattern: " + issue.Message)
	}

	if len(rejected) == 0 {
		return records
	}

	kept := make([]models.PatternRecord, 0, len(records))
	for _, record := range records {
		if !rejected[record.ID] {
			kept = append(kept, record)
		}
	}
	return kept
}

// setupCatalogWatching starts the file monitor on the catalog directory
func (s *Server) setupCatalogWatching() error {
	catalogMonitor, err := monitor.NewCatalogMonitor(s.config.Catalog.Debounce,
		s.loggingManager.GetLogger("monitor"))
	if err != nil {
		s.degradation.RecordError(errors.ComponentCatalogWatching, err)
		return err
	}

	catalogMonitor.SetErrorHandler(func(err error) {
		s.degradation.RecordError(errors.ComponentCatalogWatching, err)
	})

	dir := s.config.Catalog.Directory
	watchStart := time.Now()
	if err := catalogMonitor.WatchDirectory(dir, s.handleCatalogEvent); err != nil {
		s.degradation.RecordError(errors.ComponentCatalogWatching, err)
		catalogMonitor.StopWatching()
		return err
	}

	s.mu.Lock()
	s.monitor = catalogMonitor
	s.mu.Unlock()

	s.loggingManager.LogStartupSequence("catalog_watch", map[string]interface{}{
		"directory":  dir,
		"extensions": config.CatalogExtensions,
	}, time.Since(watchStart), true)
	return nil
}
