package render

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"pattern-atlas-service/pkg/errors"
)

const (
	headerHeight   = 22
	labelOffset    = 40
	membersOffset  = 58
	memberSpacing  = 12
	memberPadding  = 8
	highlightInset = 4
	dotRadius      = 4
	dotDuration    = 2.0
)

const entranceCSS = `@keyframes atlas-enter {
  from { opacity: 0; transform: scale(0.8); }
  to { opacity: 1; transform: scale(1); }
}
.atlas-enter {
  opacity: 0;
  animation-name: atlas-enter;
  animation-fill-mode: forwards;
  transform-box: fill-box;
  transform-origin: center;
}
.atlas-node { cursor: pointer; }
.atlas-member { font-family: ui-monospace, monospace; font-size: 10px; fill: #d1d5db; }`

// WriteSVG writes the scene as a standalone animated SVG document
func WriteSVG(w io.Writer, scene *Scene) error {
	bw := bufio.NewWriter(w)
	canvas := svg.New(bw)

	width, height := px(scene.Width), px(scene.Height)
	canvas.Startview(width, height, 0, 0, width, height)
	if scene.Title != "" {
		canvas.Title(scene.Title)
	}
	canvas.Style("text/css", entranceCSS)

	canvas.Def()
	for _, marker := range scene.Markers {
		writeMarker(canvas, marker, scene.NeutralFill)
	}
	canvas.DefEnd()

	canvas.Group(`class="atlas-edges"`)
	for _, edge := range scene.Edges {
		writeEdge(canvas, edge, scene.Timing.Duration, CSSEasing(scene.Timing.Ease))
	}
	canvas.Gend()

	canvas.Group(`class="atlas-nodes"`)
	for _, node := range scene.Nodes {
		writeNode(canvas, node, scene.Timing.Duration, CSSEasing(scene.Timing.Ease))
	}
	canvas.Gend()

	canvas.End()

	if err := bw.Flush(); err != nil {
		return errors.NewRenderError(errors.ErrCodeSVGWriteFailed, "failed to write diagram SVG", err)
	}
	return nil
}

func writeMarker(canvas *svg.SVG, marker Marker, neutralFill string) {
	fill := attr(marker.Color)
	if marker.Hollow() {
		fill = attr(neutralFill)
	}
	paint := fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1.5", fill, attr(marker.Color))

	if marker.Diamond() {
		canvas.Marker(marker.ID, 12, 6, 12, 12, `orient="auto"`, `viewBox="0 0 12 12"`, `markerUnits="userSpaceOnUse"`)
		canvas.Path("M 0 6 L 6 0 L 12 6 L 6 12 z", paint)
	} else {
		canvas.Marker(marker.ID, 10, 5, 10, 10, `orient="auto"`, `viewBox="0 0 10 10"`, `markerUnits="userSpaceOnUse"`)
		canvas.Path("M 0 0 L 10 5 L 0 10 z", paint)
	}
	canvas.MarkerEnd()
}

func writeEdge(canvas *svg.SVG, edge EdgeShape, duration float64, easing string) {
	canvas.Group(
		`class="atlas-edge atlas-enter"`,
		fmt.Sprintf(`data-edge-id="%s"`, attr(edge.ID)),
		fmt.Sprintf(`data-edge-type="%s"`, attr(string(edge.Type))),
		entranceStyle(edge.Delay, duration, easing),
	)

	stroke := []string{
		"fill:none",
		"stroke:" + attr(edge.Color),
		"stroke-width:2",
		"marker-end:url(#" + attr(edge.MarkerID) + ")",
	}
	if edge.Dashed {
		stroke = append(stroke, "stroke-dasharray:6 4")
	}
	canvas.Path(edge.Path, strings.Join(stroke, ";"))

	if edge.Label != "" {
		canvas.Text(px(edge.LabelAt.X), px(edge.LabelAt.Y)-4, edge.Label,
			"font-size:10px;fill:#9ca3af;text-anchor:middle")
	}

	if edge.Animated {
		// svgo has no element form that nests animateMotion inside a shape
		fmt.Fprintf(canvas.Writer,
			"<circle r=\"%d\" style=\"fill:%s\"><animateMotion dur=\"%gs\" repeatCount=\"indefinite\" path=\"%s\"/></circle>\n",
			dotRadius, attr(edge.Color), dotDuration, edge.Path)
	}

	canvas.Gend()
}

func writeNode(canvas *svg.SVG, node NodeShape, duration float64, easing string) {
	x, y := px(node.Position.X), px(node.Position.Y)
	w, h := px(node.Size.Width), px(node.Size.Height)
	color := attr(node.Color)

	canvas.Group(
		`class="atlas-node atlas-enter"`,
		fmt.Sprintf(`data-node-id="%s"`, attr(node.ID)),
		fmt.Sprintf(`data-node-type="%s"`, attr(string(node.Type))),
		fmt.Sprintf(`data-selected="%t"`, node.Selected),
		fmt.Sprintf(`data-hovered="%t"`, node.Hovered),
		entranceStyle(node.Delay, duration, easing),
	)
	canvas.Title(node.Label)

	if node.Highlighted {
		canvas.Roundrect(x-highlightInset, y-highlightInset, w+2*highlightInset, h+2*highlightInset, 10, 10,
			fmt.Sprintf("fill:none;stroke:%s;stroke-width:2;stroke-opacity:0.5;stroke-dasharray:4 3", color))
	}

	canvas.Roundrect(x, y, w, h, 8, 8,
		fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%g", attr(node.Fill), color, node.StrokeWidth))
	canvas.Rect(x, y, w, headerHeight, fmt.Sprintf("fill:%s;fill-opacity:0.25", color))

	canvas.Text(x+w/2, y+15, node.Header, "font-size:10px;font-style:italic;fill:#d1d5db;text-anchor:middle")
	canvas.Text(x+w/2, y+labelOffset, node.Label, "font-size:14px;font-weight:bold;fill:#f9fafb;text-anchor:middle")

	line := 0
	for _, member := range append(append([]string{}, node.Properties...), node.Methods...) {
		canvas.Text(x+memberPadding, y+membersOffset+line*memberSpacing, member, `class="atlas-member"`)
		line++
	}

	canvas.Gend()
}

func entranceStyle(delay, duration float64, easing string) string {
	return fmt.Sprintf("animation-delay:%gs;animation-duration:%gs;animation-timing-function:%s",
		round3(delay), duration, easing)
}

// attr escapes author-supplied values written into attributes
func attr(s string) string {
	return html.EscapeString(s)
}

func px(v float64) int {
	return int(math.Round(v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
