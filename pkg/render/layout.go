package render

import (
	"fmt"
	"unicode/utf8"

	"pattern-atlas-service/internal/models"
)

// Member lines are clipped to this many characters before the ellipsis
const (
	MaxMemberChars = 20
	MaxMemberLines = 2
	Ellipsis       = "…"
)

const (
	baseStrokeWidth   = 2.0
	activeStrokeWidth = 3.0
)

// Scene is a laid-out diagram ready to be written as SVG or JSON.
// Edges are drawn before nodes so nodes sit above connectors.
type Scene struct {
	Width        float64                `json:"width"`
	Height       float64                `json:"height"`
	Title        string                 `json:"title,omitempty"`
	NeutralFill  string                 `json:"neutralFill"`
	Timing       models.AnimationTiming `json:"timing"`
	Markers      []Marker               `json:"markers"`
	Edges        []EdgeShape            `json:"edges"`
	Nodes        []NodeShape            `json:"nodes"`
	SkippedEdges []string               `json:"skippedEdges,omitempty"`

	interaction Interaction
	nodeIndex   map[string]int
}

// EdgeShape is one resolved connector
type EdgeShape struct {
	ID       string          `json:"id"`
	Type     models.EdgeType `json:"type"`
	Source   string          `json:"source"`
	Target   string          `json:"target"`
	Start    models.Position `json:"start"`
	End      models.Position `json:"end"`
	Path     string          `json:"path"`
	Color    string          `json:"color"`
	Marker   MarkerShape     `json:"marker"`
	MarkerID string          `json:"markerId"`
	Dashed   bool            `json:"dashed"`
	Animated bool            `json:"animated"`
	Label    string          `json:"label,omitempty"`
	LabelAt  models.Position `json:"labelAt"`
	Delay    float64         `json:"delay"`
}

// NodeShape is one positioned node box
type NodeShape struct {
	ID          string          `json:"id"`
	Type        models.NodeType `json:"type"`
	Header      string          `json:"header"`
	Label       string          `json:"label"`
	Position    models.Position `json:"position"`
	Size        models.Size     `json:"size"`
	Color       string          `json:"color"`
	Fill        string          `json:"fill"`
	StrokeWidth float64         `json:"strokeWidth"`
	Selected    bool            `json:"selected"`
	Hovered     bool            `json:"hovered"`
	Highlighted bool            `json:"highlighted"`
	Properties  []string        `json:"properties"`
	Methods     []string        `json:"methods"`
	Delay       float64         `json:"delay"`
}

// BottomCenter is the anchor connectors leave from
func (n NodeShape) BottomCenter() models.Position {
	return models.Position{X: n.Position.X + n.Size.Width/2, Y: n.Position.Y + n.Size.Height}
}

// TopCenter is the anchor connectors arrive at
func (n NodeShape) TopCenter() models.Position {
	return models.Position{X: n.Position.X + n.Size.Width/2, Y: n.Position.Y}
}

// Option adjusts how a scene is laid out
type Option func(*Scene)

// WithNeutralFill sets the body fill used for unselected nodes. Values
// that are not colours are ignored.
func WithNeutralFill(fill string) Option {
	return func(s *Scene) {
		if IsColor(fill) {
			s.NeutralFill = fill
		}
	}
}

// WithTitle sets the document title written into the SVG
func WithTitle(title string) Option {
	return func(s *Scene) {
		s.Title = title
	}
}

// Layout turns a diagram configuration into a scene. Nodes stay at their
// authored positions. Edges whose source or target is not a node of the
// diagram are skipped and listed in SkippedEdges.
func Layout(cfg models.DiagramConfig, state Interaction, opts ...Option) *Scene {
	viewport := cfg.ResolvedViewport()
	scene := &Scene{
		Width:       viewport.Width,
		Height:      viewport.Height,
		NeutralFill: DefaultNeutralFill,
		Timing:      cfg.ResolvedAnimation(),
		Markers:     []Marker{},
		Edges:       make([]EdgeShape, 0, len(cfg.Edges)),
		Nodes:       make([]NodeShape, 0, len(cfg.Nodes)),
		interaction: state,
		nodeIndex:   make(map[string]int, len(cfg.Nodes)),
	}
	for _, opt := range opts {
		opt(scene)
	}

	for i, node := range cfg.Nodes {
		scene.nodeIndex[node.ID] = len(scene.Nodes)
		scene.Nodes = append(scene.Nodes, scene.layoutNode(node, i, state))
	}

	markers := newMarkerSet()
	for i, edge := range cfg.Edges {
		sourceIdx, okSource := scene.nodeIndex[edge.Source]
		targetIdx, okTarget := scene.nodeIndex[edge.Target]
		if !okSource || !okTarget {
			scene.SkippedEdges = append(scene.SkippedEdges, edge.ID)
			continue
		}

		start := scene.Nodes[sourceIdx].BottomCenter()
		end := scene.Nodes[targetIdx].TopCenter()
		midY := (start.Y + end.Y) / 2
		color := EdgeColor(edge)
		shape := MarkerFor(edge.Type)

		scene.Edges = append(scene.Edges, EdgeShape{
			ID:       edge.ID,
			Type:     edge.Type,
			Source:   edge.Source,
			Target:   edge.Target,
			Start:    start,
			End:      end,
			Path:     ConnectorPath(start, end),
			Color:    color,
			Marker:   shape,
			MarkerID: markers.id(shape, color),
			Dashed:   IsDashed(edge.Type),
			Animated: edge.Animated,
			Label:    edge.Label,
			LabelAt:  models.Position{X: (start.X + end.X) / 2, Y: midY},
			Delay:    Delay(scene.Timing, i),
		})
	}
	scene.Markers = append(scene.Markers, markers.markers...)

	return scene
}

func (s *Scene) layoutNode(node models.DiagramNode, index int, state Interaction) NodeShape {
	color := NodeColor(node)
	selected := state.SelectedNodeID != "" && state.SelectedNodeID == node.ID
	hovered := state.HoveredNodeID != "" && state.HoveredNodeID == node.ID

	shape := NodeShape{
		ID:          node.ID,
		Type:        node.Type,
		Header:      "«" + string(node.Type) + "»",
		Label:       node.Label,
		Position:    node.Position,
		Size:        node.ResolvedSize(),
		Color:       color,
		Fill:        s.NeutralFill,
		StrokeWidth: baseStrokeWidth,
		Selected:    selected,
		Hovered:     hovered,
		Highlighted: node.Highlighted,
		Properties:  MemberLines(node.Properties),
		Methods:     MemberLines(node.Methods),
		Delay:       Delay(s.Timing, index),
	}
	if selected {
		shape.Fill = color
	}
	if selected || hovered {
		shape.StrokeWidth = activeStrokeWidth
	}
	return shape
}

// ConnectorPath is the vertical S-curve from start to end through their vertical midpoint
func ConnectorPath(start, end models.Position) string {
	midY := (start.Y + end.Y) / 2
	return fmt.Sprintf("M %g %g C %g %g, %g %g, %g %g",
		start.X, start.Y, start.X, midY, end.X, midY, end.X, end.Y)
}

// MemberLines returns the first two entries of a property or method list, each truncated
func MemberLines(members []string) []string {
	n := len(members)
	if n > MaxMemberLines {
		n = MaxMemberLines
	}
	lines := make([]string, 0, n)
	for _, member := range members[:n] {
		lines = append(lines, Truncate(member))
	}
	return lines
}

// Truncate clips text longer than MaxMemberChars characters and appends an ellipsis
func Truncate(text string) string {
	if utf8.RuneCountInString(text) <= MaxMemberChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:MaxMemberChars]) + Ellipsis
}
