package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"pattern-atlas-service/pkg/errors"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelDEBUG LogLevel = iota
	LogLevelINFO
	LogLevelWARN
	LogLevelERROR
)

// String returns the upper-case level name
func (l LogLevel) String() string {
	switch l {
	case LogLevelDEBUG:
		return "DEBUG"
	case LogLevelINFO:
		return "INFO"
	case LogLevelWARN:
		return "WARN"
	case LogLevelERROR:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLogLevel converts a level name to a LogLevel, defaulting to INFO
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return LogLevelDEBUG
	case "WARN", "WARNING":
		return LogLevelWARN
	case "ERROR":
		return LogLevelERROR
	default:
		return LogLevelINFO
	}
}

// LoggingManager manages structured logging across the application
type LoggingManager struct {
	loggers map[string]*StructuredLogger
	mutex   sync.RWMutex

	// Global context that gets added to all log entries
	globalContext LogContext

	stats LoggingStats

	logLevel LogLevel
	output   io.Writer
}

// LoggingStats tracks logging statistics
type LoggingStats struct {
	TotalMessages    int64            `json:"totalMessages"`
	MessagesByLevel  map[string]int64 `json:"messagesByLevel"`
	MessagesByLogger map[string]int64 `json:"messagesByLogger"`
	ErrorCount       int64            `json:"errorCount"`
	LastLogTime      time.Time        `json:"lastLogTime"`
}

// NewLoggingManager creates a new logging manager writing to stdout
func NewLoggingManager() *LoggingManager {
	return NewLoggingManagerWithOutput(os.Stdout)
}

// NewLoggingManagerWithOutput creates a logging manager writing to w
func NewLoggingManagerWithOutput(w io.Writer) *LoggingManager {
	return &LoggingManager{
		loggers:       make(map[string]*StructuredLogger),
		globalContext: make(LogContext),
		stats: LoggingStats{
			MessagesByLevel:  make(map[string]int64),
			MessagesByLogger: make(map[string]int64),
		},
		logLevel: LogLevelINFO,
		output:   w,
	}
}

// GetLogger gets or creates a logger for a specific component
func (lm *LoggingManager) GetLogger(component string) *StructuredLogger {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	if logger, exists := lm.loggers[component]; exists {
		return logger
	}

	logger := NewStructuredLoggerWithWriter(component, lm.output)
	logger.manager = lm

	for key, value := range lm.globalContext {
		logger = logger.WithContext(key, value)
	}

	lm.loggers[component] = logger
	return logger
}

// SetLogLevel sets the logging level for all loggers.
// Unknown level names fall back to INFO.
func (lm *LoggingManager) SetLogLevel(level string) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	lm.logLevel = ParseLogLevel(level)
}

// GetLogLevel returns the active logging level
func (lm *LoggingManager) GetLogLevel() LogLevel {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()
	return lm.logLevel
}

// shouldLog checks if a message at the given level should be logged
func (lm *LoggingManager) shouldLog(level LogLevel) bool {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()
	return level >= lm.logLevel
}

// SetGlobalContext sets global context that will be added to all log entries
func (lm *LoggingManager) SetGlobalContext(key string, value interface{}) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	lm.globalContext[key] = value

	for component, logger := range lm.loggers {
		lm.loggers[component] = logger.WithContext(key, value)
	}
}

// GetGlobalContext returns a copy of the global context
func (lm *LoggingManager) GetGlobalContext() LogContext {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()

	context := make(LogContext, len(lm.globalContext))
	for k, v := range lm.globalContext {
		context[k] = v
	}
	return context
}

// LogError logs an error with full context
func (lm *LoggingManager) LogError(component string, err error, message string, context map[string]interface{}) {
	lm.GetLogger(component).WithError(err).WithFields(context).Error(message)
}

// LogDegradationStateChange logs service degradation state changes
func (lm *LoggingManager) LogDegradationStateChange(component errors.ServiceComponent, oldLevel, newLevel errors.DegradationLevel) {
	lm.GetLogger("degradation").LogDegradationEvent(component, oldLevel, newLevel)
}

// LogCatalogLoad logs a catalog load with its outcome
func (lm *LoggingManager) LogCatalogLoad(source string, patternsFound int, loadErrors []string, duration time.Duration) {
	logger := lm.GetLogger("catalog").
		WithContext("catalog_source", source).
		WithContext("patterns_found", patternsFound).
		WithContext("error_count", len(loadErrors)).
		WithContext("duration_ms", duration.Milliseconds())

	if len(loadErrors) > 0 {
		sample := loadErrors
		if len(sample) > 5 {
			sample = sample[:5]
		}
		logger.WithContext("sample_errors", sample).Warn("Catalog load completed with errors")
		return
	}

	logger.Info("Catalog load completed successfully")
}

// LogCatalogRefresh logs a hot reload triggered by catalog file changes
func (lm *LoggingManager) LogCatalogRefresh(affectedFiles []string, patterns int, duration time.Duration, success bool) {
	logger := lm.GetLogger("catalog").
		WithContext("affected_files_count", len(affectedFiles)).
		WithContext("patterns", patterns).
		WithContext("duration_ms", duration.Milliseconds()).
		WithContext("success", success)

	if len(affectedFiles) > 0 && len(affectedFiles) <= 10 {
		logger = logger.WithContext("affected_files", affectedFiles)
	}

	if success {
		logger.Info("Catalog refresh completed")
	} else {
		logger.Warn("Catalog refresh failed")
	}
}

// LogRenderEvent logs a diagram render with its scene size
func (lm *LoggingManager) LogRenderEvent(patternID, format string, nodes, edges, skippedEdges int, duration time.Duration) {
	logger := lm.GetLogger("render").
		WithContext("pattern_id", patternID).
		WithContext("format", format).
		WithContext("nodes", nodes).
		WithContext("edges", edges).
		WithContext("duration_ms", duration.Milliseconds())

	if skippedEdges > 0 {
		logger.WithContext("skipped_edges", skippedEdges).Debug("Diagram rendered with dangling edges skipped")
		return
	}
	logger.Debug("Diagram rendered")
}

// LogFileSystemEvent logs catalog directory events
func (lm *LoggingManager) LogFileSystemEvent(eventType string, path string, processingTime time.Duration) {
	lm.GetLogger("catalog_monitor").LogFileSystemEvent(eventType, path, map[string]interface{}{
		"processing_time_ms": processingTime.Milliseconds(),
	})
}

// LogStartupSequence logs application startup sequence
func (lm *LoggingManager) LogStartupSequence(phase string, details map[string]interface{}, duration time.Duration, success bool) {
	startupDetails := make(map[string]interface{}, len(details)+2)
	for k, v := range details {
		startupDetails[k] = v
	}
	startupDetails["duration_ms"] = duration.Milliseconds()
	startupDetails["success"] = success

	lm.GetLogger("startup").LogStartup(phase, startupDetails)
}

// LogShutdownSequence logs application shutdown sequence
func (lm *LoggingManager) LogShutdownSequence(phase string, details map[string]interface{}, duration time.Duration, success bool) {
	shutdownDetails := make(map[string]interface{}, len(details)+2)
	for k, v := range details {
		shutdownDetails[k] = v
	}
	shutdownDetails["duration_ms"] = duration.Milliseconds()
	shutdownDetails["success"] = success

	lm.GetLogger("shutdown").LogShutdown(phase, shutdownDetails)
}

// updateStats updates logging statistics
func (lm *LoggingManager) updateStats(component, level string) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	lm.stats.TotalMessages++
	lm.stats.MessagesByLevel[level]++
	lm.stats.MessagesByLogger[component]++
	lm.stats.LastLogTime = time.Now()

	if level == "ERROR" {
		lm.stats.ErrorCount++
	}
}

// GetStats returns current logging statistics
func (lm *LoggingManager) GetStats() LoggingStats {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()

	stats := LoggingStats{
		TotalMessages:    lm.stats.TotalMessages,
		ErrorCount:       lm.stats.ErrorCount,
		LastLogTime:      lm.stats.LastLogTime,
		MessagesByLevel:  make(map[string]int64, len(lm.stats.MessagesByLevel)),
		MessagesByLogger: make(map[string]int64, len(lm.stats.MessagesByLogger)),
	}

	for k, v := range lm.stats.MessagesByLevel {
		stats.MessagesByLevel[k] = v
	}
	for k, v := range lm.stats.MessagesByLogger {
		stats.MessagesByLogger[k] = v
	}

	return stats
}

// GetLoggerNames returns the names of all registered loggers
func (lm *LoggingManager) GetLoggerNames() []string {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()

	names := make([]string, 0, len(lm.loggers))
	for name := range lm.loggers {
		names = append(names, name)
	}
	return names
}

// ResetStats resets logging statistics
func (lm *LoggingManager) ResetStats() {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	lm.stats = LoggingStats{
		MessagesByLevel:  make(map[string]int64),
		MessagesByLogger: make(map[string]int64),
	}
}
