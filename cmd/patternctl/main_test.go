package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pattern-atlas-service/pkg/render"
)

const visitorYAML = `id: visitor
name: Visitor
category: behavioral
difficulty: advanced
description: Adds operations to a type hierarchy without changing it.
diagram:
  nodes:
    - id: visitor
      type: interface
      label: Visitor
      position: { x: 100, y: 80 }
`

const brokenYAML = `id: broken
name: Broken
category: structural
difficulty: beginner
description: Two nodes share one id.
diagram:
  nodes:
    - id: same
      type: class
      label: A
      position: { x: 0, y: 0 }
    - id: same
      type: class
      label: B
      position: { x: 200, y: 0 }
`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func catalogDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func rows(output string) []string {
	return strings.Split(strings.TrimSpace(output), "\n")
}

func TestList(t *testing.T) {
	out, _, err := execute(t, "list")
	require.NoError(t, err)

	lines := rows(out)
	require.Len(t, lines, 10)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.True(t, strings.HasPrefix(lines[1], "singleton"))
	assert.True(t, strings.HasPrefix(lines[9], "command"))
}

func TestList_Category(t *testing.T) {
	out, _, err := execute(t, "list", "--category", "behavioral")
	require.NoError(t, err)

	lines := rows(out)
	require.Len(t, lines, 4)
	for _, line := range lines[1:] {
		assert.Contains(t, line, "behavioral")
	}

	_, _, err = execute(t, "list", "--category", "functional")
	assert.Error(t, err)
}

func TestList_Search(t *testing.T) {
	out, _, err := execute(t, "list", "-s", "observer")
	require.NoError(t, err)

	lines := rows(out)
	require.GreaterOrEqual(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[1], "observer"))
}

func TestList_WithDirectory(t *testing.T) {
	dir := catalogDir(t, map[string]string{"visitor.yaml": visitorYAML})

	out, _, err := execute(t, "list", "--dir", dir)
	require.NoError(t, err)
	assert.Len(t, rows(out), 11)
	assert.Contains(t, out, "visitor")

	out, _, err = execute(t, "list", "--dir", dir, "--no-builtin")
	require.NoError(t, err)
	assert.Len(t, rows(out), 2)
}

func TestNoSource(t *testing.T) {
	_, _, err := execute(t, "list", "--no-builtin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no catalog source")
}

func TestShow(t *testing.T) {
	out, _, err := execute(t, "show", "observer")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "Observer (behavioral, intermediate)"))
	assert.Contains(t, out, "When to use:")
	assert.Contains(t, out, "When not to use:")
	// mediator is referenced but not in the catalog
	assert.Contains(t, out, "Related: strategy\n")
	assert.Contains(t, out, "Diagram: 4 nodes, 3 edges")
}

func TestShow_Raw(t *testing.T) {
	out, _, err := execute(t, "show", "observer", "--raw")
	require.NoError(t, err)

	assert.Contains(t, out, "models.PatternRecord{")
	assert.Contains(t, out, `"observer"`)
	assert.Contains(t, out, "GoodExample:")
}

func TestShow_Unknown(t *testing.T) {
	_, _, err := execute(t, "show", "visitor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `pattern "visitor" not found`)

	_, _, err = execute(t, "show", "obsrver")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean observer?")

	_, _, err = execute(t, "show")
	assert.Error(t, err)
}

func TestRender_SVGFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observer.svg")

	_, _, err := execute(t, "render", "observer", "-o", path, "--selected", "subject")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	svg := string(data)
	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.Contains(t, svg, `data-node-id="subject"`)
	assert.Contains(t, svg, `data-selected="true"`)
	assert.Contains(t, svg, "<title>Observer</title>")
}

func TestRender_JSON(t *testing.T) {
	out, _, err := execute(t, "render", "observer", "--format", "json", "--hovered", "observer")
	require.NoError(t, err)

	var scene render.Scene
	require.NoError(t, json.Unmarshal([]byte(out), &scene))
	assert.Len(t, scene.Nodes, 4)
	assert.Len(t, scene.Edges, 3)

	for _, node := range scene.Nodes {
		assert.Equal(t, node.ID == "observer", node.Hovered, node.ID)
	}
}

func TestRender_Errors(t *testing.T) {
	_, _, err := execute(t, "render", "observer", "--format", "png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")

	_, _, err = execute(t, "render", "visitor")
	assert.Error(t, err)
}

func TestValidate_Builtin(t *testing.T) {
	out, _, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "9 patterns, 0 errors")

	// builtin patterns reference patterns outside the catalog
	_, _, err = execute(t, "validate", "--strict")
	assert.Error(t, err)
}

func TestValidate_Directory(t *testing.T) {
	dir := catalogDir(t, map[string]string{
		"visitor.yaml": visitorYAML,
		"broken.yaml":  brokenYAML,
		"bad.json":     "{not json",
	})

	out, _, err := execute(t, "validate", dir, "--no-builtin")
	require.Error(t, err)

	assert.Contains(t, out, "bad.json")
	assert.Contains(t, out, `duplicate node id "same"`)
	assert.Contains(t, out, "2 patterns, 2 errors")
}

func TestValidate_MissingDirectory(t *testing.T) {
	_, _, err := execute(t, "validate", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
