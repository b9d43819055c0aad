package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"pattern-atlas-service/internal/models"
	"pattern-atlas-service/pkg/errors"
	"pattern-atlas-service/pkg/render"
)

var idPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Issue is one finding about a pattern record
type Issue struct {
	PatternID string `json:"patternId"`
	Field     string `json:"field"`
	Message   string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.PatternID, i.Field, i.Message)
}

// Report collects errors (record should not be served) and warnings
// (record is served, something will be skipped at display time)
type Report struct {
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Valid reports whether the report has no errors
func (r *Report) Valid() bool {
	return len(r.Errors) == 0
}

func (r *Report) errorf(id, field, format string, args ...interface{}) {
	r.Errors = append(r.Errors, Issue{PatternID: id, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) warnf(id, field, format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, Issue{PatternID: id, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) merge(other Report) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// PatternValidator checks pattern records beyond their schema. Diagram
// checks are existence checks only; coordinates are never validated.
type PatternValidator struct {
	markdown goldmark.Markdown
}

// NewPatternValidator creates a new pattern validator
func NewPatternValidator() *PatternValidator {
	return &PatternValidator{
		markdown: goldmark.New(),
	}
}

// ValidateRecord checks a single record
func (pv *PatternValidator) ValidateRecord(record models.PatternRecord) Report {
	var report Report
	id := record.ID

	if err := ValidateID(id); err != nil {
		report.errorf(id, "id", "%v", err)
	}
	if strings.TrimSpace(record.Name) == "" {
		report.errorf(id, "name", "name is required")
	}
	if !record.Category.IsValid() {
		report.errorf(id, "category", "unknown category %q", record.Category)
	}
	if !record.Difficulty.IsValid() {
		report.errorf(id, "difficulty", "unknown difficulty %q", record.Difficulty)
	}
	if strings.TrimSpace(record.Description) == "" {
		report.errorf(id, "description", "description is required")
	} else if err := pv.ValidateMarkdownStructure([]byte(record.Description)); err != nil {
		report.warnf(id, "description", "%v", err)
	}
	if strings.TrimSpace(record.BadExample) == "" || strings.TrimSpace(record.GoodExample) == "" {
		report.warnf(id, "examples", "code comparison is incomplete")
	}

	report.merge(ValidateDiagram(id, record.Diagram))
	return report
}

// ValidateDiagram runs the existence checks on a diagram
func ValidateDiagram(patternID string, diagram models.DiagramConfig) Report {
	var report Report

	nodeIDs := make(map[string]bool, len(diagram.Nodes))
	for i, node := range diagram.Nodes {
		field := fmt.Sprintf("diagram.nodes[%d]", i)
		if node.ID == "" {
			report.errorf(patternID, field, "node id is required")
			continue
		}
		if nodeIDs[node.ID] {
			report.errorf(patternID, field, "duplicate node id %q", node.ID)
		}
		nodeIDs[node.ID] = true
		if !node.Type.IsValid() {
			report.errorf(patternID, field, "unknown node type %q", node.Type)
		}
		if node.Color != "" && !render.IsColor(node.Color) {
			report.warnf(patternID, field, "color %q is not a CSS colour; the type default is used", node.Color)
		}
	}

	edgeIDs := make(map[string]bool, len(diagram.Edges))
	for i, edge := range diagram.Edges {
		field := fmt.Sprintf("diagram.edges[%d]", i)
		if edgeIDs[edge.ID] {
			report.warnf(patternID, field, "duplicate edge id %q", edge.ID)
		}
		edgeIDs[edge.ID] = true
		if !edge.Type.IsValid() {
			report.errorf(patternID, field, "unknown edge type %q", edge.Type)
		}
		if edge.Color != "" && !render.IsColor(edge.Color) {
			report.warnf(patternID, field, "color %q is not a CSS colour; the type default is used", edge.Color)
		}
		if !nodeIDs[edge.Source] {
			report.warnf(patternID, field, "source %q is not a node; edge will not be drawn", edge.Source)
		}
		if !nodeIDs[edge.Target] {
			report.warnf(patternID, field, "target %q is not a node; edge will not be drawn", edge.Target)
		}
	}

	return report
}

// ValidateCatalog checks every record plus cross-record references
func (pv *PatternValidator) ValidateCatalog(records []models.PatternRecord) Report {
	var report Report

	seen := make(map[string]int, len(records))
	for _, record := range records {
		seen[record.ID]++
	}

	for id, count := range seen {
		if count > 1 {
			report.warnf(id, "id", "defined %d times; the last definition wins", count)
		}
	}

	for _, record := range records {
		report.merge(pv.ValidateRecord(record))
		for _, related := range record.RelatedPatterns {
			if seen[related] == 0 {
				report.warnf(record.ID, "relatedPatterns", "related pattern %q is not in the catalog", related)
			}
		}
	}

	return report
}

// ValidateMarkdownStructure checks that headings in a description do not skip levels
func (pv *PatternValidator) ValidateMarkdownStructure(content []byte) error {
	doc := pv.markdown.Parser().Parse(text.NewReader(content))

	var headingLevels []int
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			heading := n.(*ast.Heading)
			headingLevels = append(headingLevels, heading.Level)
		}
		return ast.WalkContinue, nil
	})

	if err := validateHeadingHierarchy(headingLevels); err != nil {
		return fmt.Errorf("invalid heading hierarchy: %w", err)
	}
	return nil
}

// ValidateID checks that an id is a lowercase slug usable as a URL segment
func ValidateID(id string) error {
	if id == "" {
		return errors.NewValidationError(errors.ErrCodeMissingField, "pattern id cannot be empty", nil)
	}
	if !idPattern.MatchString(id) {
		return errors.NewValidationError(errors.ErrCodeInvalidID,
			"pattern id must be lowercase letters, digits and single dashes", nil).
			WithContext("id", id)
	}
	return nil
}

// ParseCategory parses a category filter. An empty string means no filter.
func ParseCategory(value string) (models.Category, error) {
	if value == "" {
		return "", nil
	}
	category := models.Category(strings.ToLower(strings.TrimSpace(value)))
	if !category.IsValid() {
		return "", errors.NewValidationError(errors.ErrCodeInvalidCategory,
			"unknown category", nil).
			WithContext("category", value)
	}
	return category, nil
}

// validateHeadingHierarchy ensures headings follow proper hierarchy (no skipping levels)
func validateHeadingHierarchy(levels []int) error {
	for i := 1; i < len(levels); i++ {
		prevLevel := levels[i-1]
		currentLevel := levels[i]

		// Allow same level, one level deeper, or any level shallower
		if currentLevel > prevLevel+1 {
			return fmt.Errorf("heading level %d follows level %d, skipping intermediate levels", currentLevel, prevLevel)
		}
	}
	return nil
}
