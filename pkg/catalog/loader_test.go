package catalog

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pattern-atlas-service/internal/models"
	atlaserrors "pattern-atlas-service/pkg/errors"
	"pattern-atlas-service/pkg/logging"
)

const validYAML = `id: prototype
name: Prototype
category: creational
difficulty: intermediate
description: Creates new objects by copying an existing instance.
whenToUse:
  - Construction is expensive and copies are cheap
badExample: "x := expensive()"
goodExample: "y := x.Clone()"
diagram:
  nodes:
    - id: prototype
      type: interface
      label: Prototype
      position: { x: 100, y: 100 }
  edges: []
tags: [copy]
`

const validJSON = `{
  "id": "memento",
  "name": "Memento",
  "category": "behavioral",
  "difficulty": "advanced",
  "description": "Captures and restores an object's internal state.",
  "diagram": {
    "nodes": [
      {"id": "originator", "type": "class", "label": "Originator", "position": {"x": 10, "y": 20}}
    ],
    "edges": []
  }
}`

const badEnumYAML = `id: x
name: X
category: functional
difficulty: beginner
description: d
diagram: {nodes: []}
`

func newTestLoader(t *testing.T, opts ...Option) *Loader {
	t.Helper()
	loader, err := NewLoader(opts...)
	require.NoError(t, err)
	return loader
}

func TestLoadBuiltin(t *testing.T) {
	loader := newTestLoader(t)

	result, err := loader.LoadBuiltin(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Errors, "builtin catalog must be valid: %v", result.ErrorStrings())

	assert.Equal(t, "builtin", result.Source)
	assert.Equal(t, 3, result.Files)
	require.Len(t, result.Records, 9)

	ids := make([]string, 0, len(result.Records))
	for _, record := range result.Records {
		ids = append(ids, record.ID)
		assert.True(t, record.Category.IsValid(), record.ID)
		assert.NotEmpty(t, record.Diagram.Nodes, record.ID)
		assert.NotEmpty(t, record.BadExample, record.ID)
		assert.NotEmpty(t, record.GoodExample, record.ID)
	}
	assert.Equal(t, []string{
		"singleton", "factory-method", "builder",
		"adapter", "decorator", "facade",
		"observer", "strategy", "command",
	}, ids)
}

func TestLoad_MixedFormats(t *testing.T) {
	fsys := fstest.MapFS{
		"a/prototype.yaml": {Data: []byte(validYAML)},
		"b/memento.json":   {Data: []byte(validJSON)},
		"README.md":        {Data: []byte("# not a catalog file")},
	}

	result, err := newTestLoader(t).Load(context.Background(), fsys, "test")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Files)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "prototype", result.Records[0].ID)
	assert.Equal(t, "memento", result.Records[1].ID)
	assert.Equal(t, models.Position{X: 10, Y: 20}, result.Records[1].Diagram.Nodes[0].Position)
	assert.Equal(t, []string{"copy"}, result.Records[0].Tags)
}

func TestLoad_BadFilesDoNotAbortLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"good.yaml":     {Data: []byte(validYAML)},
		"broken.yaml":   {Data: []byte("id: [unterminated")},
		"bad-enum.yaml": {Data: []byte(badEnumYAML)},
		"missing.json":  {Data: []byte(`{"id": "only-id"}`)},
		"not-json.json": {Data: []byte(`{`)},
		"empty.yml":     {Data: []byte("")},
	}

	result, err := newTestLoader(t, WithWorkers(3)).Load(context.Background(), fsys, "test")
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "prototype", result.Records[0].ID)
	assert.Len(t, result.Errors, 5)

	byPath := map[string]error{}
	for _, fe := range result.Errors {
		byPath[fe.Path] = fe.Err
	}

	var se *atlaserrors.StructuredError
	require.True(t, errors.As(byPath["bad-enum.yaml"], &se))
	assert.Equal(t, atlaserrors.ErrCodeSchemaViolation, se.Code)
	assert.NotEmpty(t, se.Details)

	require.True(t, errors.As(byPath["broken.yaml"], &se))
	assert.Equal(t, atlaserrors.ErrCodeMalformedYAML, se.Code)

	require.True(t, errors.As(byPath["missing.json"], &se))
	assert.Equal(t, atlaserrors.ErrCodeSchemaViolation, se.Code)
}

func TestLoad_MultiDocumentYAML(t *testing.T) {
	second := `id: prototype-two
name: Prototype Two
category: creational
difficulty: beginner
description: Another one.
diagram:
  nodes: []
`
	fsys := fstest.MapFS{
		"stream.yaml": {Data: []byte(validYAML + "---\n" + second + "---\n")},
	}

	result, err := newTestLoader(t).Load(context.Background(), fsys, "test")
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "prototype-two", result.Records[1].ID)
}

func TestLoad_InvalidID(t *testing.T) {
	fsys := fstest.MapFS{
		"bad-id.yaml": {Data: []byte(`id: Not A Slug
name: X
category: creational
difficulty: beginner
description: d
diagram: {nodes: []}
`)},
	}

	result, err := newTestLoader(t).Load(context.Background(), fsys, "test")
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	require.Len(t, result.Errors, 1)
}

func TestLoad_EmptyFS(t *testing.T) {
	result, err := newTestLoader(t).Load(context.Background(), fstest.MapFS{}, "empty")
	require.NoError(t, err)
	assert.Zero(t, result.Files)
	assert.NotNil(t, result.Records)
	assert.Empty(t, result.Records)
}

func TestLoad_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fsys := fstest.MapFS{"p.yaml": {Data: []byte(validYAML)}}
	_, err := newTestLoader(t).Load(ctx, fsys, "test")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_LogsSkippedFiles(t *testing.T) {
	var buf bytes.Buffer
	manager := logging.NewLoggingManagerWithOutput(&buf)

	fsys := fstest.MapFS{"broken.yaml": {Data: []byte("id: [")}}
	_, err := newTestLoader(t, WithLogger(manager.GetLogger("catalog"))).Load(context.Background(), fsys, "test")
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Skipping catalog file")
	assert.Contains(t, buf.String(), "broken.yaml")
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prototype.yaml"), []byte(validYAML), 0o644))

	result, err := newTestLoader(t).LoadDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, dir, result.Source)
}

func TestLoadDir_Errors(t *testing.T) {
	loader := newTestLoader(t)

	_, err := loader.LoadDir(context.Background(), "")
	assert.Error(t, err)

	_, err = loader.LoadDir(context.Background(), filepath.Join(t.TempDir(), "missing"))
	var se *atlaserrors.StructuredError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, atlaserrors.ErrCodeDirectoryNotFound, se.Code)

	file := filepath.Join(t.TempDir(), "file.yaml")
	require.NoError(t, os.WriteFile(file, []byte(validYAML), 0o644))
	_, err = loader.LoadDir(context.Background(), file)
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	builtin := &Result{Records: []models.PatternRecord{
		{ID: "singleton", Name: "Singleton"},
		{ID: "adapter", Name: "Adapter"},
	}}
	disk := &Result{Records: []models.PatternRecord{
		{ID: "adapter", Name: "Adapter (local)"},
		{ID: "visitor", Name: "Visitor"},
	}}

	merged := Merge(builtin, nil, disk)
	require.Len(t, merged, 3)
	assert.Equal(t, "singleton", merged[0].ID)
	assert.Equal(t, "Adapter (local)", merged[1].Name)
	assert.Equal(t, "visitor", merged[2].ID)
}

func TestCalculateOptimalWorkerCount(t *testing.T) {
	for _, n := range []int{1, 10, 50, 500} {
		workers := calculateOptimalWorkerCount(n)
		assert.GreaterOrEqual(t, workers, 1)
		assert.LessOrEqual(t, workers, 8)
	}
}
