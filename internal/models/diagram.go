package models

// NodeType drives the default colour and header decoration of a diagram node
type NodeType string

const (
	NodeTypeClass     NodeType = "class"
	NodeTypeInterface NodeType = "interface"
	NodeTypeAbstract  NodeType = "abstract"
	NodeTypeObject    NodeType = "object"
	NodeTypeMethod    NodeType = "method"
)

// IsValid reports whether t is a known node type
func (t NodeType) IsValid() bool {
	switch t {
	case NodeTypeClass, NodeTypeInterface, NodeTypeAbstract, NodeTypeObject, NodeTypeMethod:
		return true
	}
	return false
}

// EdgeType drives the default colour and marker shape of a connector
type EdgeType string

const (
	EdgeTypeInheritance    EdgeType = "inheritance"
	EdgeTypeImplementation EdgeType = "implementation"
	EdgeTypeComposition    EdgeType = "composition"
	EdgeTypeAggregation    EdgeType = "aggregation"
	EdgeTypeAssociation    EdgeType = "association"
	EdgeTypeDependency     EdgeType = "dependency"
)

// IsValid reports whether t is a known edge type
func (t EdgeType) IsValid() bool {
	switch t {
	case EdgeTypeInheritance, EdgeTypeImplementation, EdgeTypeComposition,
		EdgeTypeAggregation, EdgeTypeAssociation, EdgeTypeDependency:
		return true
	}
	return false
}

// Default geometry and timing applied when a diagram leaves them unset
const (
	DefaultNodeWidth      = 160.0
	DefaultNodeHeight     = 100.0
	DefaultViewportWidth  = 800.0
	DefaultViewportHeight = 600.0

	DefaultAnimationDuration = 0.5
	DefaultAnimationDelay    = 0.0
	DefaultAnimationStagger  = 0.1
	DefaultAnimationEase     = "easeOut"
)

// Position is a point in SVG user space
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Size is a width/height pair in SVG user space
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// DiagramNode is one visual box of a class-structure diagram
type DiagramNode struct {
	ID          string   `json:"id" yaml:"id"`
	Type        NodeType `json:"type" yaml:"type"`
	Label       string   `json:"label" yaml:"label"`
	Position    Position `json:"position" yaml:"position"`
	Size        *Size    `json:"size,omitempty" yaml:"size,omitempty"`
	Properties  []string `json:"properties,omitempty" yaml:"properties,omitempty"`
	Methods     []string `json:"methods,omitempty" yaml:"methods,omitempty"`
	Highlighted bool     `json:"highlighted,omitempty" yaml:"highlighted,omitempty"`
	Color       string   `json:"color,omitempty" yaml:"color,omitempty"`
}

// ResolvedSize returns the node size, falling back to 160x100
func (n DiagramNode) ResolvedSize() Size {
	if n.Size == nil {
		return Size{Width: DefaultNodeWidth, Height: DefaultNodeHeight}
	}
	return *n.Size
}

// DiagramEdge is one visual connector between two nodes
type DiagramEdge struct {
	ID       string   `json:"id" yaml:"id"`
	Type     EdgeType `json:"type" yaml:"type"`
	Source   string   `json:"source" yaml:"source"`
	Target   string   `json:"target" yaml:"target"`
	Label    string   `json:"label,omitempty" yaml:"label,omitempty"`
	Animated bool     `json:"animated,omitempty" yaml:"animated,omitempty"`
	Color    string   `json:"color,omitempty" yaml:"color,omitempty"`
}

// AnimationConfig holds optional entrance animation hints. Nil fields take defaults.
type AnimationConfig struct {
	Duration *float64 `json:"duration,omitempty" yaml:"duration,omitempty"`
	Delay    *float64 `json:"delay,omitempty" yaml:"delay,omitempty"`
	Stagger  *float64 `json:"stagger,omitempty" yaml:"stagger,omitempty"`
	Ease     string   `json:"ease,omitempty" yaml:"ease,omitempty"`
}

// AnimationTiming is an AnimationConfig with every default resolved
type AnimationTiming struct {
	Duration float64 `json:"duration"`
	Delay    float64 `json:"delay"`
	Stagger  float64 `json:"stagger"`
	Ease     string  `json:"ease"`
}

// Viewport is the drawing area of a diagram
type Viewport struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// DiagramConfig describes one pattern's visual diagram
type DiagramConfig struct {
	Nodes     []DiagramNode    `json:"nodes" yaml:"nodes"`
	Edges     []DiagramEdge    `json:"edges" yaml:"edges"`
	Animation *AnimationConfig `json:"animation,omitempty" yaml:"animation,omitempty"`
	Viewport  *Viewport        `json:"viewport,omitempty" yaml:"viewport,omitempty"`
}

// ResolvedViewport returns the viewport, falling back to 800x600
func (d DiagramConfig) ResolvedViewport() Viewport {
	if d.Viewport == nil {
		return Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	return *d.Viewport
}

// ResolvedAnimation returns the animation timing with defaults applied
func (d DiagramConfig) ResolvedAnimation() AnimationTiming {
	timing := AnimationTiming{
		Duration: DefaultAnimationDuration,
		Delay:    DefaultAnimationDelay,
		Stagger:  DefaultAnimationStagger,
		Ease:     DefaultAnimationEase,
	}
	if d.Animation == nil {
		return timing
	}
	if d.Animation.Duration != nil {
		timing.Duration = *d.Animation.Duration
	}
	if d.Animation.Delay != nil {
		timing.Delay = *d.Animation.Delay
	}
	if d.Animation.Stagger != nil {
		timing.Stagger = *d.Animation.Stagger
	}
	if d.Animation.Ease != "" {
		timing.Ease = d.Animation.Ease
	}
	return timing
}

// NodeByID returns the node with the given id, or nil
func (d DiagramConfig) NodeByID(id string) *DiagramNode {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the diagram
func (d DiagramConfig) Clone() DiagramConfig {
	out := DiagramConfig{}
	if d.Nodes != nil {
		out.Nodes = make([]DiagramNode, len(d.Nodes))
		for i, n := range d.Nodes {
			if n.Size != nil {
				size := *n.Size
				n.Size = &size
			}
			n.Properties = cloneStrings(n.Properties)
			n.Methods = cloneStrings(n.Methods)
			out.Nodes[i] = n
		}
	}
	if d.Edges != nil {
		out.Edges = make([]DiagramEdge, len(d.Edges))
		copy(out.Edges, d.Edges)
	}
	if d.Animation != nil {
		anim := AnimationConfig{Ease: d.Animation.Ease}
		anim.Duration = cloneFloat(d.Animation.Duration)
		anim.Delay = cloneFloat(d.Animation.Delay)
		anim.Stagger = cloneFloat(d.Animation.Stagger)
		out.Animation = &anim
	}
	if d.Viewport != nil {
		vp := *d.Viewport
		out.Viewport = &vp
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
