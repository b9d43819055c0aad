package registry

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pattern-atlas-service/internal/models"
	"pattern-atlas-service/pkg/logging"
)

func record(id string, category models.Category) models.PatternRecord {
	return models.PatternRecord{
		ID:          id,
		Name:        id,
		Category:    category,
		Difficulty:  models.DifficultyBeginner,
		Description: "Description of " + id,
		BadExample:  "bad " + id,
		GoodExample: "good " + id,
		Diagram: models.DiagramConfig{
			Nodes: []models.DiagramNode{{ID: "n1", Type: models.NodeTypeClass, Label: id}},
		},
		Tags: []string{"tag-" + id},
	}
}

func TestNew_Empty(t *testing.T) {
	r := New(nil)

	assert.True(t, r.IsEmpty())
	for _, id := range []string{"singleton", "", "observer", "🙂"} {
		_, ok := r.GetByID(id)
		assert.False(t, ok, "id %q should be absent", id)
	}
	assert.Empty(t, r.GetAll())
	assert.Empty(t, r.GetMetas())
}

func TestRegister_ThenGetByID(t *testing.T) {
	r := New(nil)
	rec := record("singleton", models.CategoryCreational)

	r.Register(rec)

	got, ok := r.GetByID("singleton")
	require.True(t, ok)
	assert.Equal(t, rec, got)
}

func TestRegister_DuplicateLastWriteWins(t *testing.T) {
	r := New(nil)
	first := record("adapter", models.CategoryStructural)
	second := record("adapter", models.CategoryStructural)
	second.Name = "Adapter v2"

	r.Register(first)
	r.Register(second)

	all := r.GetAll()
	matches := 0
	for _, rec := range all {
		if rec.ID == "adapter" {
			matches++
			assert.Equal(t, "Adapter v2", rec.Name)
		}
	}
	assert.Equal(t, 1, matches)
}

func TestNew_DuplicateSeedLastWriteWins(t *testing.T) {
	a := record("facade", models.CategoryStructural)
	b := record("facade", models.CategoryStructural)
	b.Description = "later"

	r := New([]models.PatternRecord{a, record("builder", models.CategoryCreational), b})

	assert.Equal(t, 2, r.Size())
	got, ok := r.GetByID("facade")
	require.True(t, ok)
	assert.Equal(t, "later", got.Description)

	ids := []string{}
	for _, rec := range r.GetAll() {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []string{"facade", "builder"}, ids, "overwrite keeps the first insertion position")
}

func TestGetByCategory(t *testing.T) {
	r := New([]models.PatternRecord{
		record("singleton", models.CategoryCreational),
		record("adapter", models.CategoryStructural),
		record("builder", models.CategoryCreational),
		record("observer", models.CategoryBehavioral),
	})

	creational := r.GetByCategory(models.CategoryCreational)
	require.Len(t, creational, 2)
	assert.Equal(t, "singleton", creational[0].ID, "insertion order, not alphabetical")
	assert.Equal(t, "builder", creational[1].ID)

	all := r.GetAll()
	for _, category := range models.Categories {
		subset := r.GetByCategory(category)
		assert.LessOrEqual(t, len(subset), len(all))
		for _, rec := range subset {
			assert.Equal(t, category, rec.Category)
			assert.Contains(t, all, rec)
		}
	}
}

func TestScenario_SingleCreationalRecord(t *testing.T) {
	r := New([]models.PatternRecord{record("singleton", models.CategoryCreational)})

	creational := r.GetByCategory(models.CategoryCreational)
	require.Len(t, creational, 1)
	assert.Equal(t, "singleton", creational[0].ID)

	assert.Empty(t, r.GetByCategory(models.CategoryBehavioral))
}

func TestGetMetas(t *testing.T) {
	r := New([]models.PatternRecord{
		record("strategy", models.CategoryBehavioral),
		record("decorator", models.CategoryStructural),
	})

	metas := r.GetMetas()
	all := r.GetAll()
	require.Len(t, metas, len(all))
	for i := range metas {
		assert.Equal(t, all[i].ID, metas[i].ID)
		assert.Equal(t, all[i].Tags, metas[i].Tags)
	}
}

func TestUnregister(t *testing.T) {
	r := New([]models.PatternRecord{
		record("command", models.CategoryBehavioral),
		record("state", models.CategoryBehavioral),
	})

	assert.True(t, r.Unregister("command"))
	_, ok := r.GetByID("command")
	assert.False(t, ok)

	before := r.GetAll()
	assert.False(t, r.Unregister("command"))
	assert.False(t, r.Unregister("never-registered"))
	assert.Equal(t, before, r.GetAll(), "mapping unchanged after failed unregister")

	stats := r.GetStats()
	assert.Equal(t, int64(1), stats.Removals)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	r := New([]models.PatternRecord{record("proxy", models.CategoryStructural)})

	got, _ := r.GetByID("proxy")
	got.Tags[0] = "mutated"
	got.Diagram.Nodes[0].Label = "mutated"

	again, _ := r.GetByID("proxy")
	assert.Equal(t, "tag-proxy", again.Tags[0])
	assert.Equal(t, "proxy", again.Diagram.Nodes[0].Label)
}

func TestRegisterStoresCopy(t *testing.T) {
	r := New(nil)
	rec := record("iterator", models.CategoryBehavioral)
	r.Register(rec)

	rec.Tags[0] = "mutated"

	got, _ := r.GetByID("iterator")
	assert.Equal(t, "tag-iterator", got.Tags[0])
}

func TestResolveRelated(t *testing.T) {
	observer := record("observer", models.CategoryBehavioral)
	observer.RelatedPatterns = []string{"mediator", "does-not-exist", "singleton"}

	r := New([]models.PatternRecord{
		observer,
		record("mediator", models.CategoryBehavioral),
		record("singleton", models.CategoryCreational),
	})

	related, ok := r.ResolveRelated("observer")
	require.True(t, ok)
	require.Len(t, related, 2, "dangling references are skipped")
	assert.Equal(t, "mediator", related[0].ID)
	assert.Equal(t, "singleton", related[1].ID)

	_, ok = r.ResolveRelated("missing")
	assert.False(t, ok)
}

func TestReplace(t *testing.T) {
	r := New([]models.PatternRecord{record("old", models.CategoryCreational)})

	r.Replace([]models.PatternRecord{
		record("new-a", models.CategoryStructural),
		record("new-b", models.CategoryBehavioral),
	})

	assert.False(t, r.Has("old"))
	assert.Equal(t, 2, r.Size())
	assert.False(t, r.GetStats().LastReplace.IsZero())
}

func TestCategories(t *testing.T) {
	r := New([]models.PatternRecord{
		record("singleton", models.CategoryCreational),
		record("observer", models.CategoryBehavioral),
		record("strategy", models.CategoryBehavioral),
	})

	assert.Equal(t, []CategoryCount{
		{Category: models.CategoryCreational, Count: 1},
		{Category: models.CategoryStructural, Count: 0},
		{Category: models.CategoryBehavioral, Count: 2},
	}, r.Categories())
}

func TestStatsAndHitRatio(t *testing.T) {
	r := New([]models.PatternRecord{record("flyweight", models.CategoryStructural)})
	assert.Equal(t, 0.0, r.GetHitRatio())

	r.GetByID("flyweight")
	r.GetByID("missing")

	stats := r.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 50.0, r.GetHitRatio())
}

func TestRegistryLogsMutations(t *testing.T) {
	var buf bytes.Buffer
	manager := logging.NewLoggingManagerWithOutput(&buf)
	manager.SetLogLevel("DEBUG")

	r := New(nil, WithLogger(manager.GetLogger("registry")))
	r.Register(record("bridge", models.CategoryStructural))
	r.Unregister("bridge")

	assert.Contains(t, buf.String(), `"registry_operation":"register"`)
	assert.Contains(t, buf.String(), `"registry_operation":"unregister"`)
}

func TestConcurrentAccess(t *testing.T) {
	r := New(nil)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Register(record(fmt.Sprintf("p-%d-%d", n, j), models.CategoryCreational))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = r.GetMetas()
				_ = r.GetByCategory(models.CategoryCreational)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 400, r.Size())
}

func BenchmarkGetByID(b *testing.B) {
	records := make([]models.PatternRecord, 0, 100)
	for i := 0; i < 100; i++ {
		records = append(records, record(fmt.Sprintf("pattern-%d", i), models.Categories[i%3]))
	}
	r := New(records)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.GetByID("pattern-42")
	}
}

func BenchmarkGetMetas(b *testing.B) {
	records := make([]models.PatternRecord, 0, 100)
	for i := 0; i < 100; i++ {
		records = append(records, record(fmt.Sprintf("pattern-%d", i), models.Categories[i%3]))
	}
	r := New(records)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.GetMetas()
	}
}
