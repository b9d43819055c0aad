package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"pattern-atlas-service/pkg/errors"
)

// LogContext represents contextual information for log entries
type LogContext map[string]interface{}

// StructuredLogger provides structured logging capabilities
type StructuredLogger struct {
	logger    *slog.Logger
	component string
	context   LogContext
	manager   *LoggingManager
}

// NewStructuredLogger creates a new structured logger writing JSON to stdout
func NewStructuredLogger(component string) *StructuredLogger {
	return NewStructuredLoggerWithWriter(component, os.Stdout)
}

// NewStructuredLoggerWithWriter creates a structured logger writing JSON to w
func NewStructuredLoggerWithWriter(component string, w io.Writer) *StructuredLogger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(time.Now().UTC().Format(time.RFC3339Nano)),
				}
			case slog.LevelKey:
				return slog.Attr{Key: "level", Value: a.Value}
			case slog.MessageKey:
				return slog.Attr{Key: "message", Value: a.Value}
			}
			return a
		},
	}

	return &StructuredLogger{
		logger:    slog.New(slog.NewJSONHandler(w, opts)),
		component: component,
		context:   make(LogContext),
	}
}

// WithContext adds context to the logger (returns a new logger instance)
func (sl *StructuredLogger) WithContext(key string, value interface{}) *StructuredLogger {
	newLogger := &StructuredLogger{
		logger:    sl.logger,
		component: sl.component,
		context:   make(LogContext, len(sl.context)+1),
		manager:   sl.manager,
	}

	for k, v := range sl.context {
		newLogger.context[k] = v
	}

	newLogger.context[key] = value
	return newLogger
}

// WithFields adds several context entries at once
func (sl *StructuredLogger) WithFields(fields map[string]interface{}) *StructuredLogger {
	logger := sl
	for k, v := range fields {
		logger = logger.WithContext(k, v)
	}
	return logger
}

// WithError adds error information to the logger context
func (sl *StructuredLogger) WithError(err error) *StructuredLogger {
	if err == nil {
		return sl
	}

	newLogger := sl.WithContext("error", err.Error())

	if structuredErr, ok := err.(*errors.StructuredError); ok {
		newLogger = newLogger.
			WithContext("error_category", structuredErr.Category).
			WithContext("error_code", structuredErr.Code).
			WithContext("error_severity", structuredErr.Severity).
			WithContext("error_recoverable", structuredErr.IsRecoverable())

		for k, v := range structuredErr.Context {
			newLogger = newLogger.WithContext(fmt.Sprintf("error_ctx_%s", k), v)
		}
	}

	return newLogger
}

// Component returns the component name the logger was created for
func (sl *StructuredLogger) Component() string {
	return sl.component
}

// buildLogAttributes creates slog attributes from context
func (sl *StructuredLogger) buildLogAttributes() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(sl.context)+1)
	attrs = append(attrs, slog.String("component", sl.component))

	for key, value := range sl.context {
		attrs = append(attrs, slog.Any(key, value))
	}

	return attrs
}

func (sl *StructuredLogger) log(level LogLevel, slogLevel slog.Level, message string) {
	if sl.manager != nil && !sl.manager.shouldLog(level) {
		return
	}
	sl.logger.LogAttrs(context.Background(), slogLevel, message, sl.buildLogAttributes()...)
	if sl.manager != nil {
		sl.manager.updateStats(sl.component, level.String())
	}
}

// Debug logs a debug message
func (sl *StructuredLogger) Debug(message string) {
	sl.log(LogLevelDEBUG, slog.LevelDebug, message)
}

// Info logs an info message
func (sl *StructuredLogger) Info(message string) {
	sl.log(LogLevelINFO, slog.LevelInfo, message)
}

// Warn logs a warning message
func (sl *StructuredLogger) Warn(message string) {
	sl.log(LogLevelWARN, slog.LevelWarn, message)
}

// Error logs an error message
func (sl *StructuredLogger) Error(message string) {
	sl.log(LogLevelERROR, slog.LevelError, message)
}

// LogHTTPRequest logs an HTTP request with timing information
func (sl *StructuredLogger) LogHTTPRequest(method, path string, status int, requestID string, duration time.Duration) {
	logger := sl.WithContext("http_method", method).
		WithContext("http_path", path).
		WithContext("http_status", status).
		WithContext("request_id", requestID).
		WithContext("duration_ms", duration.Milliseconds())

	switch {
	case status >= 500:
		logger.Error("HTTP request failed")
	case status >= 400:
		logger.Warn("HTTP request rejected")
	default:
		logger.Info("HTTP request served")
	}
}

// LogStartup logs application startup events
func (sl *StructuredLogger) LogStartup(event string, details map[string]interface{}) {
	sl.WithContext("startup_event", event).WithFields(details).Info("Application startup event")
}

// LogShutdown logs application shutdown events
func (sl *StructuredLogger) LogShutdown(event string, details map[string]interface{}) {
	sl.WithContext("shutdown_event", event).WithFields(details).Info("Application shutdown event")
}

// LogRegistryOperation logs pattern registry mutations
func (sl *StructuredLogger) LogRegistryOperation(operation string, patternID string, details map[string]interface{}) {
	sl.WithContext("registry_operation", operation).
		WithContext("pattern_id", patternID).
		WithFields(details).
		Debug("Registry operation completed")
}

// LogFileSystemEvent logs catalog directory events
func (sl *StructuredLogger) LogFileSystemEvent(eventType string, path string, details map[string]interface{}) {
	sl.WithContext("fs_event_type", eventType).
		WithContext("fs_path", sanitizeFilePath(path)).
		WithFields(details).
		Info("File system event detected")
}

// LogDegradationEvent logs service degradation events
func (sl *StructuredLogger) LogDegradationEvent(component errors.ServiceComponent, oldLevel, newLevel errors.DegradationLevel) {
	sl.WithContext("degraded_component", string(component)).
		WithContext("old_level", oldLevel.String()).
		WithContext("new_level", newLevel.String()).
		Warn("Service degradation level changed")
}

// LogPerformanceMetric logs performance-related metrics
func (sl *StructuredLogger) LogPerformanceMetric(metric string, value interface{}, unit string) {
	sl.WithContext("metric_name", metric).
		WithContext("metric_value", value).
		WithContext("metric_unit", unit).
		Debug("Performance metric recorded")
}

// sanitizeFilePath trims absolute paths down to the catalog-relative part
func sanitizeFilePath(path string) string {
	normalized := strings.ReplaceAll(path, "\\", "/")

	if idx := strings.LastIndex(normalized, "catalog/"); idx >= 0 {
		return normalized[idx:]
	}

	if lastSlash := strings.LastIndex(normalized, "/"); lastSlash >= 0 {
		return normalized[lastSlash+1:]
	}

	return normalized
}

// LogJSON logs a message with JSON-serializable data
func (sl *StructuredLogger) LogJSON(level LogLevel, message string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		sl.WithContext("json_error", err.Error()).Error("Failed to marshal JSON data for logging")
		return
	}

	logger := sl.WithContext("json_data", string(jsonData))

	switch level {
	case LogLevelDEBUG:
		logger.Debug(message)
	case LogLevelINFO:
		logger.Info(message)
	case LogLevelWARN:
		logger.Warn(message)
	case LogLevelERROR:
		logger.Error(message)
	}
}
