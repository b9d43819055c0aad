package render

import (
	"regexp"
	"strconv"

	"pattern-atlas-service/internal/models"
)

// DefaultNeutralFill is the body fill of unselected nodes
const DefaultNeutralFill = "#1f2937"

const fallbackColor = "#6b7280"

// colorPattern accepts hex colours, CSS colour names and the rgb/hsl
// functional forms. Anything else could break out of a style attribute.
var colorPattern = regexp.MustCompile(
	`^(#[0-9a-fA-F]{3,4}|#[0-9a-fA-F]{6}|#[0-9a-fA-F]{8}|[a-zA-Z]{3,20}|(rgb|hsl)a?\([0-9.,% ]+\))$`)

// IsColor reports whether value is a colour the renderer will write
func IsColor(value string) bool {
	return colorPattern.MatchString(value)
}

var nodeColors = map[models.NodeType]string{
	models.NodeTypeClass:     "#3b82f6",
	models.NodeTypeInterface: "#10b981",
	models.NodeTypeAbstract:  "#8b5cf6",
	models.NodeTypeObject:    "#f59e0b",
	models.NodeTypeMethod:    "#ec4899",
}

var edgeColors = map[models.EdgeType]string{
	models.EdgeTypeInheritance:    "#3b82f6",
	models.EdgeTypeImplementation: "#10b981",
	models.EdgeTypeComposition:    "#f59e0b",
	models.EdgeTypeAggregation:    "#8b5cf6",
	models.EdgeTypeAssociation:    "#6b7280",
	models.EdgeTypeDependency:     "#ef4444",
}

// MarkerShape is the decoration drawn at the target end of a connector
type MarkerShape string

const (
	MarkerArrow         MarkerShape = "arrow"
	MarkerHollowArrow   MarkerShape = "hollow-arrow"
	MarkerDiamond       MarkerShape = "diamond"
	MarkerHollowDiamond MarkerShape = "hollow-diamond"
)

// Marker is one marker definition shared by every edge with the same shape and colour
type Marker struct {
	ID    string      `json:"id"`
	Shape MarkerShape `json:"shape"`
	Color string      `json:"color"`
}

// Hollow reports whether the marker is drawn as an outline
func (m Marker) Hollow() bool {
	return m.Shape == MarkerHollowArrow || m.Shape == MarkerHollowDiamond
}

// Diamond reports whether the marker is a diamond
func (m Marker) Diamond() bool {
	return m.Shape == MarkerDiamond || m.Shape == MarkerHollowDiamond
}

// NodeColor resolves the colour of a node: a valid override first, then
// the type default
func NodeColor(node models.DiagramNode) string {
	if IsColor(node.Color) {
		return node.Color
	}
	if color, ok := nodeColors[node.Type]; ok {
		return color
	}
	return fallbackColor
}

// EdgeColor resolves the colour of an edge: a valid override first, then
// the type default
func EdgeColor(edge models.DiagramEdge) string {
	if IsColor(edge.Color) {
		return edge.Color
	}
	if color, ok := edgeColors[edge.Type]; ok {
		return color
	}
	return fallbackColor
}

// MarkerFor returns the marker shape of an edge type
func MarkerFor(edgeType models.EdgeType) MarkerShape {
	switch edgeType {
	case models.EdgeTypeInheritance, models.EdgeTypeImplementation:
		return MarkerHollowArrow
	case models.EdgeTypeComposition:
		return MarkerDiamond
	case models.EdgeTypeAggregation:
		return MarkerHollowDiamond
	default:
		return MarkerArrow
	}
}

// IsDashed reports whether connectors of this type use a dashed stroke
func IsDashed(edgeType models.EdgeType) bool {
	return edgeType == models.EdgeTypeDependency || edgeType == models.EdgeTypeImplementation
}

// markerSet hands out one marker id per distinct (shape, colour) pair in first-use order
type markerSet struct {
	ids     map[Marker]string
	markers []Marker
}

func newMarkerSet() *markerSet {
	return &markerSet{ids: make(map[Marker]string)}
}

func (s *markerSet) id(shape MarkerShape, color string) string {
	key := Marker{Shape: shape, Color: color}
	if id, ok := s.ids[key]; ok {
		return id
	}
	id := "marker-" + string(shape) + "-" + strconv.Itoa(len(s.markers))
	s.ids[key] = id
	s.markers = append(s.markers, Marker{ID: id, Shape: shape, Color: color})
	return id
}
