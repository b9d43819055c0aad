package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pattern-atlas-service/internal/models"
)

func TestScene_Callbacks(t *testing.T) {
	var selected []string
	var hovered []string
	state := Interaction{
		OnSelectNode: func(id string) { selected = append(selected, id) },
		OnHoverNode:  func(id string) { hovered = append(hovered, id) },
	}

	scene := Layout(twoNodeDiagram(models.EdgeTypeAssociation), state)

	assert.True(t, scene.Click("A"))
	assert.True(t, scene.PointerEnter("B"))
	assert.True(t, scene.PointerLeave("B"))

	assert.Equal(t, []string{"A"}, selected)
	assert.Equal(t, []string{"B", ""}, hovered)
}

func TestScene_CallbacksIgnoreUnknownNodes(t *testing.T) {
	calls := 0
	state := Interaction{
		OnSelectNode: func(string) { calls++ },
		OnHoverNode:  func(string) { calls++ },
	}

	scene := Layout(twoNodeDiagram(models.EdgeTypeAssociation), state)

	assert.False(t, scene.Click("missing"))
	assert.False(t, scene.PointerEnter("missing"))
	assert.False(t, scene.PointerLeave("missing"))
	assert.Zero(t, calls)
}

func TestScene_ReflectsStateWithoutStoringIt(t *testing.T) {
	scene := Layout(twoNodeDiagram(models.EdgeTypeAssociation), Interaction{
		OnSelectNode: func(string) {},
	})

	scene.Click("B")

	b, _ := scene.Node("B")
	assert.False(t, b.Selected, "selection is owned by the caller")
}

func TestScene_NilCallbacks(t *testing.T) {
	scene := Layout(twoNodeDiagram(models.EdgeTypeAssociation), Interaction{})

	assert.NotPanics(t, func() {
		scene.Click("A")
		scene.PointerEnter("A")
		scene.PointerLeave("A")
	})
}
