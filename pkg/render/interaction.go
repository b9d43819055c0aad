package render

// Interaction is the externally owned selection and hover state of a
// diagram, plus the callbacks invoked on pointer events. The scene reflects
// this state and never stores changes to it.
type Interaction struct {
	SelectedNodeID string
	HoveredNodeID  string
	OnSelectNode   func(id string)
	OnHoverNode    func(id string) // "" when the pointer leaves a node
}

// Click reports a click on a node. It returns false if the node is not in the scene.
func (s *Scene) Click(nodeID string) bool {
	if !s.HasNode(nodeID) {
		return false
	}
	if s.interaction.OnSelectNode != nil {
		s.interaction.OnSelectNode(nodeID)
	}
	return true
}

// PointerEnter reports the pointer entering a node
func (s *Scene) PointerEnter(nodeID string) bool {
	if !s.HasNode(nodeID) {
		return false
	}
	if s.interaction.OnHoverNode != nil {
		s.interaction.OnHoverNode(nodeID)
	}
	return true
}

// PointerLeave reports the pointer leaving a node
func (s *Scene) PointerLeave(nodeID string) bool {
	if !s.HasNode(nodeID) {
		return false
	}
	if s.interaction.OnHoverNode != nil {
		s.interaction.OnHoverNode("")
	}
	return true
}

// HasNode reports whether the scene contains a node with the given id
func (s *Scene) HasNode(nodeID string) bool {
	_, ok := s.nodeIndex[nodeID]
	return ok
}

// Node returns the laid-out node with the given id
func (s *Scene) Node(nodeID string) (NodeShape, bool) {
	idx, ok := s.nodeIndex[nodeID]
	if !ok {
		return NodeShape{}, false
	}
	return s.Nodes[idx], true
}
