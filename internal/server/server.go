package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"pattern-atlas-service/internal/models"
	"pattern-atlas-service/pkg/catalog"
	"pattern-atlas-service/pkg/config"
	"pattern-atlas-service/pkg/content"
	"pattern-atlas-service/pkg/errors"
	"pattern-atlas-service/pkg/live"
	"pattern-atlas-service/pkg/logging"
	"pattern-atlas-service/pkg/metrics"
	"pattern-atlas-service/pkg/monitor"
	"pattern-atlas-service/pkg/registry"
	"pattern-atlas-service/pkg/validation"
)

const (
	serviceName    = "pattern-atlas-service"
	serviceVersion = "1.0.0"
)

// Server owns the pattern registry and serves it over HTTP
type Server struct {
	config *config.Config

	// Catalog components
	registry  *registry.PatternRegistry
	loader    *catalog.Loader
	validator *validation.PatternValidator
	content   *content.Renderer
	monitor   *monitor.CatalogMonitor
	hub       *live.Hub
	scheduler *cron.Cron

	// Error handling and degradation
	degradation *errors.DegradationTracker

	// Logging
	loggingManager *logging.LoggingManager
	logger         *logging.StructuredLogger
	metrics        *metrics.Collector

	router     *gin.Engine
	handler    http.Handler
	limiter    *clientLimiter
	httpServer *http.Server

	// Coordination channels
	refreshChan  chan models.CatalogEvent
	shutdownChan chan struct{}
	runCtx       context.Context
	cancel       context.CancelFunc

	startedAt    time.Time
	initialized  bool
	shutdownOnce sync.Once
	reloadMu     sync.Mutex
	mu           sync.RWMutex
}

// NewServer creates a server from cfg. A nil cfg uses config.Default and
// a nil loggingManager logs to stdout.
func NewServer(cfg *config.Config, loggingManager *logging.LoggingManager) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if loggingManager == nil {
		loggingManager = logging.NewLoggingManager()
	}
	loggingManager.SetGlobalContext("service", serviceName)
	loggingManager.SetGlobalContext("version", serviceVersion)
	logger := loggingManager.GetLogger("server")

	loader, err := catalog.NewLoader(
		catalog.WithWorkers(cfg.Catalog.Workers),
		catalog.WithLogger(loggingManager.GetLogger("catalog")),
	)
	if err != nil {
		return nil, errors.NewSystemError(errors.ErrCodeInitializationFailed,
			"failed to create catalog loader", err)
	}

	patterns := registry.New(nil, registry.WithLogger(loggingManager.GetLogger("registry")))

	s := &Server{
		config:         cfg,
		registry:       patterns,
		loader:         loader,
		validator:      validation.NewPatternValidator(),
		content:        content.NewRenderer(),
		hub:            live.NewHub(loggingManager.GetLogger("live"), patterns.Size),
		degradation:    errors.NewDegradationTracker(errors.DefaultRules()...),
		loggingManager: loggingManager,
		logger:         logger,
		metrics:        metrics.NewCollector(),
		refreshChan:    make(chan models.CatalogEvent, 100),
		shutdownChan:   make(chan struct{}),
	}

	s.degradation.OnLevelChange(s.onDegradationStateChange)

	if rl := cfg.Server.RateLimit; rl.RequestsPerSecond > 0 {
		s.limiter = newClientLimiter(rl.RequestsPerSecond, rl.Burst)
	}

	s.router = s.setupRouter()
	s.handler = s.withCORS(s.router)
	s.httpServer = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      s.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s, nil
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.handler
}

// withCORS lets the browser front end call the API from another origin
func (s *Server) withCORS(next http.Handler) http.Handler {
	cfg := s.config.Server.CORS
	if !cfg.Enabled {
		return next
	}
	return cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         cfg.MaxAge,
	}).Handler(next)
}

// Registry returns the live pattern registry
func (s *Server) Registry() *registry.PatternRegistry {
	return s.registry
}

// Initialize loads the catalog and starts the background workers. Start
// calls it; tests call it directly and drive Handler with httptest.
func (s *Server) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.initialized = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	startTime := time.Now()
	s.loggingManager.LogStartupSequence("server_start", map[string]interface{}{
		"phase": "initialization",
	}, 0, true)

	catalogStart := time.Now()
	if err := s.initializeCatalog(ctx); err != nil {
		s.loggingManager.LogStartupSequence("catalog_init", map[string]interface{}{
			"error": err.Error(),
		}, time.Since(catalogStart), false)
		return err
	}
	s.loggingManager.LogStartupSequence("catalog_init", map[string]interface{}{
		"patterns": s.registry.Size(),
	}, time.Since(catalogStart), true)

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.runCtx = runCtx
	s.cancel = cancel
	s.mu.Unlock()

	go s.hub.Run(runCtx)
	go s.catalogRefreshCoordinator(runCtx)

	if s.config.Catalog.Watch && s.config.Catalog.Directory != "" {
		if err := s.setupCatalogWatching(); err != nil {
			s.logger.WithError(err).Warn("Catalog hot reload is disabled")
			s.startFallbackRescan()
		}
	}

	if spec := s.config.Catalog.RescanSchedule; spec != "" {
		if err := s.startRescanSchedule(runCtx, spec); err != nil {
			s.logger.WithError(err).Warn("Periodic catalog rescan is disabled")
		}
	}

	s.loggingManager.LogStartupSequence("server_ready", map[string]interface{}{
		"total_startup_time_ms": time.Since(startTime).Milliseconds(),
	}, time.Since(startTime), true)
	return nil
}

// Start initializes the server and serves HTTP until Shutdown is called
func (s *Server) Start(ctx context.Context) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}

	s.logger.WithContext("address", s.config.Server.Address).
		Info("Pattern Atlas Service started successfully")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.NewSystemError(errors.ErrCodeInitializationFailed,
			"HTTP server failed", err).
			WithContext("address", s.config.Server.Address)
	}
	return nil
}

// Shutdown gracefully shuts down the server. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		shutdownStart := time.Now()
		s.loggingManager.LogShutdownSequence("shutdown_start", map[string]interface{}{}, 0, true)

		// Signal shutdown to background goroutines
		close(s.shutdownChan)
		s.mu.RLock()
		cancel := s.cancel
		s.mu.RUnlock()
		if cancel != nil {
			cancel()
		}

		s.mu.RLock()
		scheduler := s.scheduler
		s.mu.RUnlock()
		if scheduler != nil {
			select {
			case <-scheduler.Stop().Done():
			case <-ctx.Done():
				s.logger.Warn("Timed out waiting for a scheduled rescan to finish")
			}
		}

		if s.monitor != nil {
			monitorStart := time.Now()
			if err := s.monitor.StopWatching(); err != nil {
				s.loggingManager.LogShutdownSequence("monitor_stop", map[string]interface{}{
					"error": err.Error(),
				}, time.Since(monitorStart), false)
				s.logger.WithError(err).Error("Error stopping catalog monitor")
			} else {
				s.loggingManager.LogShutdownSequence("monitor_stop", map[string]interface{}{},
					time.Since(monitorStart), true)
			}
		}

		httpStart := time.Now()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			shutdownErr = errors.NewSystemError(errors.ErrCodeShutdownFailed,
				"failed to stop HTTP server", err)
			s.loggingManager.LogShutdownSequence("http_stop", map[string]interface{}{
				"error": err.Error(),
			}, time.Since(httpStart), false)
		} else {
			s.loggingManager.LogShutdownSequence("http_stop", map[string]interface{}{},
				time.Since(httpStart), true)
		}

		s.loggingManager.LogShutdownSequence("shutdown_complete", map[string]interface{}{
			"total_shutdown_time_ms": time.Since(shutdownStart).Milliseconds(),
		}, time.Since(shutdownStart), shutdownErr == nil)

		s.logger.Info("Pattern Atlas Service shutdown completed")
	})

	return shutdownErr
}

// onDegradationStateChange handles degradation state changes
func (s *Server) onDegradationStateChange(component errors.ServiceComponent, oldLevel, newLevel errors.DegradationLevel) {
	s.loggingManager.LogDegradationStateChange(component, oldLevel, newLevel)

	switch component {
	case errors.ComponentCatalogWatching:
		if newLevel != errors.DegradationNone {
			s.logger.WithContext("action", "fallback_rescan").
				Warn("Catalog watching degraded - falling back to periodic rescans")
			s.startFallbackRescan()
		} else {
			s.logger.WithContext("action", "resume_watching").
				Info("Catalog watching recovered")
		}
	case errors.ComponentCatalogReload:
		if newLevel != errors.DegradationNone {
			s.logger.WithContext("action", "serve_last_good_catalog").
				Warn("Catalog reload degraded - serving the last good catalog")
		}
	}
}
