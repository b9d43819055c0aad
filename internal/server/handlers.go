package server

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pattern-atlas-service/internal/models"
	"pattern-atlas-service/pkg/config"
	"pattern-atlas-service/pkg/errors"
	"pattern-atlas-service/pkg/render"
	"pattern-atlas-service/pkg/search"
	"pattern-atlas-service/pkg/validation"
)

// PatternList is the body of GET /patterns
type PatternList struct {
	Patterns interface{} `json:"patterns"`
	Count    int         `json:"count"`
	Query    string      `json:"query,omitempty"`
	Category string      `json:"category,omitempty"`
}

// Examples is the code comparison payload of a pattern
type Examples struct {
	PatternID    string   `json:"patternId"`
	BadExample   string   `json:"badExample"`
	GoodExample  string   `json:"goodExample"`
	WhenToUse    []string `json:"whenToUse"`
	WhenNotToUse []string `json:"whenNotToUse"`
}

// handleHealth reports whether the catalog is being served
func (s *Server) handleHealth(c *gin.Context) {
	size := s.registry.Size()
	overall := s.degradation.Overall()

	status := "ok"
	code := http.StatusOK
	switch {
	case size == 0:
		status = "unavailable"
		code = http.StatusServiceUnavailable
	case overall != errors.DegradationNone:
		status = "degraded"
	}

	c.JSON(code, gin.H{
		"status":      status,
		"degradation": overall.String(),
		"patterns":    size,
		"version":     serviceVersion,
	})
}

// handleListPatterns lists pattern metas, filtered by category and searched by q
func (s *Server) handleListPatterns(c *gin.Context) {
	category, err := validation.ParseCategory(c.Query("category"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeError(c, errors.NewValidationError(errors.ErrCodeInvalidParams,
				"limit must be a non-negative integer", err).WithContext("limit", raw))
			return
		}
	}

	query := c.Query("q")
	if query == "" {
		metas := s.categoryMetas(category)
		if limit > 0 && len(metas) > limit {
			metas = metas[:limit]
		}
		c.JSON(http.StatusOK, PatternList{Patterns: metas, Count: len(metas), Category: string(category)})
		return
	}

	results := search.Search(s.registry.GetMetas(), search.Query{
		Text:     query,
		Category: category,
		Limit:    limit,
	})
	c.JSON(http.StatusOK, PatternList{
		Patterns: results,
		Count:    len(results),
		Query:    query,
		Category: string(category),
	})
}

func (s *Server) categoryMetas(category models.Category) []models.PatternMeta {
	if category == "" {
		return s.registry.GetMetas()
	}
	records := s.registry.GetByCategory(category)
	metas := make([]models.PatternMeta, 0, len(records))
	for _, record := range records {
		metas = append(metas, record.Meta())
	}
	return metas
}

// handleGetPattern returns the full record
func (s *Server) handleGetPattern(c *gin.Context) {
	record, ok := s.lookupPattern(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, record)
}

// handleRelatedPatterns returns metas of the related patterns that exist
func (s *Server) handleRelatedPatterns(c *gin.Context) {
	id := c.Param("id")
	related, ok := s.registry.ResolveRelated(id)
	if !ok {
		s.writeError(c, s.patternNotFound(id))
		return
	}
	c.JSON(http.StatusOK, PatternList{Patterns: related, Count: len(related)})
}

// handleDescription renders the description markdown. ?format=html returns
// the fragment itself instead of JSON.
func (s *Server) handleDescription(c *gin.Context) {
	record, ok := s.lookupPattern(c)
	if !ok {
		return
	}

	description, err := s.content.Describe(record.ID, record.Description)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if c.Query("format") == "html" {
		c.Data(http.StatusOK, config.MimeTypeHTML, []byte(description.HTML))
		return
	}
	c.JSON(http.StatusOK, description)
}

// handleExamples returns the anti-pattern and best-practice code samples
func (s *Server) handleExamples(c *gin.Context) {
	record, ok := s.lookupPattern(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, Examples{
		PatternID:    record.ID,
		BadExample:   record.BadExample,
		GoodExample:  record.GoodExample,
		WhenToUse:    record.WhenToUse,
		WhenNotToUse: record.WhenNotToUse,
	})
}

// handleDiagram returns the laid-out scene as JSON
func (s *Server) handleDiagram(c *gin.Context) {
	record, ok := s.lookupPattern(c)
	if !ok {
		return
	}

	start := time.Now()
	scene := s.layout(c, record)
	elapsed := time.Since(start)
	s.loggingManager.LogRenderEvent(record.ID, "json", len(scene.Nodes), len(scene.Edges),
		len(scene.SkippedEdges), elapsed)
	s.metrics.RecordRender("json", len(scene.SkippedEdges), elapsed)

	c.JSON(http.StatusOK, scene)
}

// handleDiagramSVG returns the diagram as a standalone animated SVG document
func (s *Server) handleDiagramSVG(c *gin.Context) {
	record, ok := s.lookupPattern(c)
	if !ok {
		return
	}

	start := time.Now()
	scene := s.layout(c, record)

	var buf bytes.Buffer
	if err := render.WriteSVG(&buf, scene); err != nil {
		s.writeError(c, err)
		return
	}
	elapsed := time.Since(start)
	s.loggingManager.LogRenderEvent(record.ID, "svg", len(scene.Nodes), len(scene.Edges),
		len(scene.SkippedEdges), elapsed)
	s.metrics.RecordRender("svg", len(scene.SkippedEdges), elapsed)

	c.Data(http.StatusOK, config.MimeTypeSVG, buf.Bytes())
}

// layout lays out a record's diagram with the selection and hover state
// passed by the client
func (s *Server) layout(c *gin.Context, record models.PatternRecord) *render.Scene {
	state := render.Interaction{
		SelectedNodeID: c.Query("selected"),
		HoveredNodeID:  c.Query("hovered"),
	}

	opts := []render.Option{render.WithNeutralFill(s.config.Render.NeutralFill)}
	if s.config.Render.ShowTitles {
		opts = append(opts, render.WithTitle(record.Name))
	}
	return render.Layout(record.Diagram, state, opts...)
}

// handleCategories returns pattern counts per category
func (s *Server) handleCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": s.registry.Categories()})
}

// handleLive upgrades the request to a websocket receiving catalog changes
func (s *Server) handleLive(c *gin.Context) {
	if err := s.hub.ServeWS(c.Writer, c.Request); err != nil {
		// a client problem; the upgrader has already written the HTTP error
		s.logger.WithError(err).Debug("Live connection rejected")
	}
}

func (s *Server) handleNoRoute(c *gin.Context) {
	s.writeError(c, errors.NewHTTPError(errors.ErrCodeResourceNotFound,
		"route not found", nil).WithContext("path", c.Request.URL.Path))
}

// lookupPattern resolves the :id parameter or writes a 404
func (s *Server) lookupPattern(c *gin.Context) (models.PatternRecord, bool) {
	id := c.Param("id")
	record, ok := s.registry.GetByID(id)
	if !ok {
		s.writeError(c, s.patternNotFound(id))
		return models.PatternRecord{}, false
	}
	return record, true
}

// maxSuggestions caps the "did you mean" ids of a not-found problem
const maxSuggestions = 3

func (s *Server) patternNotFound(id string) *errors.StructuredError {
	err := errors.NewRegistryError(errors.ErrCodeResourceNotFound,
		"pattern not found", nil).WithContext("id", id)
	if suggestions := search.Suggest(s.registry.GetMetas(), id, maxSuggestions); len(suggestions) > 0 {
		err = err.WithContext("suggestions", suggestions)
	}
	return err
}
