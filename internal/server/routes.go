package server

import (
	"github.com/gin-gonic/gin"

	"pattern-atlas-service/pkg/config"
)

// setupRouter builds the gin engine with middleware and API routes
func (s *Server) setupRouter() *gin.Engine {
	gin.SetMode(s.config.Server.Mode)

	router := gin.New()
	router.Use(requestID(), s.requestLogger(), s.recovery())
	router.NoRoute(s.handleNoRoute)

	if s.config.Server.Metrics {
		router.GET(config.MetricsPath, gin.WrapH(s.metrics.Handler()))
	}

	api := router.Group(config.APIBasePath)
	if s.limiter != nil {
		api.Use(s.rateLimit())
	}
	api.GET(config.HealthPath, s.handleHealth)
	api.GET("/categories", s.handleCategories)
	api.GET("/stats", s.handleStats)
	api.GET("/live", s.handleLive)

	patterns := api.Group("/patterns")
	patterns.GET("", s.handleListPatterns)
	patterns.GET("/:id", s.handleGetPattern)
	patterns.GET("/:id/related", s.handleRelatedPatterns)
	patterns.GET("/:id/description", s.handleDescription)
	patterns.GET("/:id/examples", s.handleExamples)
	patterns.GET("/:id/diagram", s.handleDiagram)
	patterns.GET("/:id/diagram.svg", s.handleDiagramSVG)

	return router
}
