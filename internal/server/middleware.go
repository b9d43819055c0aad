package server

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pattern-atlas-service/pkg/errors"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"

	// metric label for requests no route matched; raw paths would be unbounded
	unmatchedRoute = "unmatched"
)

// requestID reuses the caller's request id or assigns a new one
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger writes one structured log line per request
func (s *Server) requestLogger() gin.HandlerFunc {
	httpLogger := s.loggingManager.GetLogger("http")

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		elapsed := time.Since(start)
		route := c.FullPath()
		path := route
		if route == "" {
			route = unmatchedRoute
			path = c.Request.URL.Path
		}
		httpLogger.LogHTTPRequest(c.Request.Method, path, c.Writer.Status(),
			c.GetString(requestIDKey), elapsed)
		s.metrics.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), elapsed)
	}
}

// recovery turns handler panics into a problem response
func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		err := errors.NewSystemError(errors.ErrCodeUnexpectedPanic,
			"internal server error", fmt.Errorf("%v", recovered)).
			WithContext("request_id", c.GetString(requestIDKey))

		s.logger.WithError(err).
			WithContext("path", c.Request.URL.Path).
			Error("Recovered from handler panic")

		c.AbortWithStatusJSON(err.HTTPStatus(), err.ToProblem())
	})
}

// rateLimit rejects clients that exceed their token bucket
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter.allow(c.ClientIP()) {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		s.writeError(c, errors.NewHTTPError(errors.ErrCodeRateLimited,
			"too many requests", nil).WithContext("client", c.ClientIP()))
	}
}
