package registry

import (
	"sync"
	"sync/atomic"
	"time"

	"pattern-atlas-service/internal/models"
	"pattern-atlas-service/pkg/logging"
)

// PatternRegistry is the in-memory keyed store of pattern records.
// Iteration order is insertion order; re-registering an id keeps its
// original position and replaces the value.
type PatternRegistry struct {
	patterns map[string]*models.PatternRecord
	order    []string
	mutex    sync.RWMutex

	hits          atomic.Int64
	misses        atomic.Int64
	registrations atomic.Int64
	removals      atomic.Int64
	lastReplace   atomic.Int64 // unix nanos

	logger *logging.StructuredLogger
}

// RegistryStats tracks registry usage
type RegistryStats struct {
	Patterns      int       `json:"patterns"`
	Hits          int64     `json:"hits"`
	Misses        int64     `json:"misses"`
	Registrations int64     `json:"registrations"`
	Removals      int64     `json:"removals"`
	LastReplace   time.Time `json:"lastReplace,omitempty"`
}

// CategoryCount is the number of patterns in one category
type CategoryCount struct {
	Category models.Category `json:"category"`
	Count    int             `json:"count"`
}

// Option configures a PatternRegistry
type Option func(*PatternRegistry)

// WithLogger attaches a logger used for registry mutations
func WithLogger(logger *logging.StructuredLogger) Option {
	return func(r *PatternRegistry) {
		r.logger = logger
	}
}

// New creates a registry seeded from initial. Duplicate ids in initial
// resolve to the last occurrence.
func New(initial []models.PatternRecord, opts ...Option) *PatternRegistry {
	r := &PatternRegistry{
		patterns: make(map[string]*models.PatternRecord, len(initial)),
		order:    make([]string, 0, len(initial)),
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, record := range initial {
		r.put(record)
	}

	return r
}

// put inserts or overwrites a record (must be called with lock held or before publication)
func (r *PatternRegistry) put(record models.PatternRecord) bool {
	clone := record.Clone()
	_, exists := r.patterns[record.ID]
	if !exists {
		r.order = append(r.order, record.ID)
	}
	r.patterns[record.ID] = &clone
	return exists
}

// GetByID returns a copy of the record with the given id
func (r *PatternRegistry) GetByID(id string) (models.PatternRecord, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	record, exists := r.patterns[id]
	if !exists {
		r.misses.Add(1)
		return models.PatternRecord{}, false
	}

	r.hits.Add(1)
	return record.Clone(), true
}

// Has reports whether a record with the given id is registered
func (r *PatternRegistry) Has(id string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, exists := r.patterns[id]
	return exists
}

// GetByCategory returns the records of one category in insertion order
func (r *PatternRegistry) GetByCategory(category models.Category) []models.PatternRecord {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]models.PatternRecord, 0)
	for _, id := range r.order {
		if record := r.patterns[id]; record.Category == category {
			result = append(result, record.Clone())
		}
	}
	return result
}

// GetAll returns every record in insertion order
func (r *PatternRegistry) GetAll() []models.PatternRecord {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]models.PatternRecord, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.patterns[id].Clone())
	}
	return result
}

// GetMetas returns the listing projection of every record in insertion order
func (r *PatternRegistry) GetMetas() []models.PatternMeta {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]models.PatternMeta, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.patterns[id].Meta())
	}
	return result
}

// Register inserts a record or overwrites the one with the same id
func (r *PatternRegistry) Register(record models.PatternRecord) {
	r.mutex.Lock()
	overwritten := r.put(record)
	r.mutex.Unlock()

	r.registrations.Add(1)
	if r.logger != nil {
		r.logger.LogRegistryOperation("register", record.ID, map[string]interface{}{
			"overwritten": overwritten,
		})
	}
}

// Unregister removes the record with the given id and reports whether it existed
func (r *PatternRegistry) Unregister(id string) bool {
	r.mutex.Lock()
	_, exists := r.patterns[id]
	if exists {
		delete(r.patterns, id)
		for i, orderedID := range r.order {
			if orderedID == id {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.mutex.Unlock()

	if exists {
		r.removals.Add(1)
		if r.logger != nil {
			r.logger.LogRegistryOperation("unregister", id, nil)
		}
	}
	return exists
}

// Replace swaps the whole content of the registry in one step
func (r *PatternRegistry) Replace(records []models.PatternRecord) {
	fresh := New(records)

	r.mutex.Lock()
	r.patterns = fresh.patterns
	r.order = fresh.order
	r.mutex.Unlock()

	r.lastReplace.Store(time.Now().UnixNano())
	if r.logger != nil {
		r.logger.LogRegistryOperation("replace", "*", map[string]interface{}{
			"patterns": len(fresh.order),
		})
	}
}

// ResolveRelated returns the metas of the record's related patterns.
// Ids that do not resolve are skipped.
func (r *PatternRegistry) ResolveRelated(id string) ([]models.PatternMeta, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	record, exists := r.patterns[id]
	if !exists {
		return nil, false
	}

	related := make([]models.PatternMeta, 0, len(record.RelatedPatterns))
	for _, relatedID := range record.RelatedPatterns {
		if target, ok := r.patterns[relatedID]; ok {
			related = append(related, target.Meta())
		}
	}
	return related, true
}

// Size returns the number of registered records
func (r *PatternRegistry) Size() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.order)
}

// IsEmpty returns true if the registry holds no records
func (r *PatternRegistry) IsEmpty() bool {
	return r.Size() == 0
}

// Categories returns the number of records per category in display order
func (r *PatternRegistry) Categories() []CategoryCount {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	counts := make(map[models.Category]int, len(models.Categories))
	for _, record := range r.patterns {
		counts[record.Category]++
	}

	result := make([]CategoryCount, 0, len(models.Categories))
	for _, category := range models.Categories {
		result = append(result, CategoryCount{Category: category, Count: counts[category]})
	}
	return result
}

// GetStats returns registry usage statistics
func (r *PatternRegistry) GetStats() RegistryStats {
	stats := RegistryStats{
		Patterns:      r.Size(),
		Hits:          r.hits.Load(),
		Misses:        r.misses.Load(),
		Registrations: r.registrations.Load(),
		Removals:      r.removals.Load(),
	}
	if nanos := r.lastReplace.Load(); nanos != 0 {
		stats.LastReplace = time.Unix(0, nanos)
	}
	return stats
}

// GetHitRatio returns the lookup hit ratio as a percentage
func (r *PatternRegistry) GetHitRatio() float64 {
	hits := r.hits.Load()
	total := hits + r.misses.Load()
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total) * 100.0
}
