package server

import (
	stderrors "errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"pattern-atlas-service/pkg/errors"
)

// handleStats reports registry, live hub, degradation and runtime metrics
func (s *Server) handleStats(c *gin.Context) {
	s.mu.RLock()
	startedAt := s.startedAt
	s.mu.RUnlock()

	var uptime time.Duration
	if !startedAt.IsZero() {
		uptime = time.Since(startedAt)
	}

	c.JSON(http.StatusOK, gin.H{
		"registry":   s.registry.GetStats(),
		"hitRatio":   s.registry.GetHitRatio(),
		"live":       gin.H{"clients": s.hub.ClientCount(), "dropped": s.hub.Dropped()},
		"components": s.degradation.Statuses(),
		"logging":    s.loggingManager.GetStats(),
		"goroutines": runtime.NumGoroutine(),
		"memory":     getMemoryStats(),
		"uptimeMs":   uptime.Milliseconds(),
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}

// writeError writes err as a problem body. Errors that are not structured
// become 500s.
func (s *Server) writeError(c *gin.Context, err error) {
	var structuredErr *errors.StructuredError
	if !stderrors.As(err, &structuredErr) {
		structuredErr = errors.NewSystemError(errors.ErrCodeUnexpectedPanic,
			"internal server error", err)
	}

	if requestID := c.GetString(requestIDKey); requestID != "" {
		structuredErr.WithContext("request_id", requestID)
	}

	status := structuredErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		s.logger.WithError(structuredErr).
			WithContext("path", c.Request.URL.Path).
			Error("Request failed")
	}

	c.AbortWithStatusJSON(status, structuredErr.ToProblem())
}

// getMemoryStats returns current memory statistics
func getMemoryStats() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"alloc_bytes":       m.Alloc,
		"total_alloc_bytes": m.TotalAlloc,
		"sys_bytes":         m.Sys,
		"num_gc":            m.NumGC,
		"gc_cpu_fraction":   m.GCCPUFraction,
	}
}
