package content

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"pattern-atlas-service/pkg/errors"
)

// Description is the rendered form of a pattern description
type Description struct {
	PatternID string `json:"patternId"`
	HTML      string `json:"html"`
	Summary   string `json:"summary"`
}

// Renderer turns pattern descriptions written in markdown into HTML.
// Raw HTML in the source is not passed through.
type Renderer struct {
	markdown goldmark.Markdown
}

// NewRenderer creates a markdown renderer with GitHub flavoured extensions
func NewRenderer() *Renderer {
	return &Renderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// HTML renders markdown to an HTML fragment
func (r *Renderer) HTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(source), &buf); err != nil {
		return "", errors.NewParsingError(errors.ErrCodeMalformedMarkdown,
			"failed to render markdown", err)
	}
	return buf.String(), nil
}

// Summary returns the plain text of the first paragraph
func (r *Renderer) Summary(source string) string {
	src := []byte(source)
	doc := r.markdown.Parser().Parse(text.NewReader(src))

	var summary string
	ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if paragraph, ok := node.(*ast.Paragraph); ok {
			summary = strings.TrimSpace(extractText(paragraph, src))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	return summary
}

// Describe renders a description and its summary together
func (r *Renderer) Describe(patternID, source string) (*Description, error) {
	html, err := r.HTML(source)
	if err != nil {
		return nil, err
	}
	return &Description{
		PatternID: patternID,
		HTML:      html,
		Summary:   r.Summary(source),
	}, nil
}

// extractText collects the text below a node, joining soft line breaks with a space
func extractText(node ast.Node, source []byte) string {
	var buf bytes.Buffer

	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
			continue
		}
		buf.WriteString(extractText(child, source))
	}

	return buf.String()
}
