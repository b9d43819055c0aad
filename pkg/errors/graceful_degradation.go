package errors

import (
	"sync"
	"time"
)

// DegradationLevel orders how much of the service is impaired
type DegradationLevel int

const (
	DegradationNone DegradationLevel = iota
	// DegradationMinor means a convenience is off, e.g. hot reload
	DegradationMinor
	// DegradationMajor means the catalog can no longer change
	DegradationMajor
	DegradationCritical
)

func (d DegradationLevel) String() string {
	switch d {
	case DegradationNone:
		return "NONE"
	case DegradationMinor:
		return "MINOR"
	case DegradationMajor:
		return "MAJOR"
	case DegradationCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText writes the level by name in JSON status payloads
func (d DegradationLevel) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// ServiceComponent names a part of the atlas whose failures are tracked
type ServiceComponent string

const (
	ComponentCatalogWatching ServiceComponent = "catalog_watching"
	ComponentCatalogReload   ServiceComponent = "catalog_reload"
	ComponentCatalogParsing  ServiceComponent = "catalog_parsing"
	ComponentLiveUpdates     ServiceComponent = "live_updates"
)

// DegradationRule moves Component to Level once Threshold failures fall
// inside Window. The next success restores it.
type DegradationRule struct {
	Component ServiceComponent
	Threshold int
	Window    time.Duration
	Level     DegradationLevel
}

// ComponentStatus is a snapshot of one tracked component
type ComponentStatus struct {
	Component    ServiceComponent `json:"component"`
	Level        DegradationLevel `json:"level"`
	Failures     int              `json:"failures"`
	LastError    string           `json:"lastError,omitempty"`
	LastFailure  time.Time        `json:"lastFailure"`
	LastRecovery time.Time        `json:"lastRecovery"`
}

// LevelChangeFunc is told about every level transition of a component
type LevelChangeFunc func(component ServiceComponent, oldLevel, newLevel DegradationLevel)

type componentState struct {
	rule         DegradationRule
	level        DegradationLevel
	failures     []time.Time
	lastError    string
	lastFailure  time.Time
	lastRecovery time.Time
}

// DegradationTracker counts failures per component over a sliding window
type DegradationTracker struct {
	mu       sync.Mutex
	states   map[ServiceComponent]*componentState
	onChange LevelChangeFunc
	now      func() time.Time
}

// NewDegradationTracker tracks the components named by rules. Failures
// of other components are ignored.
func NewDegradationTracker(rules ...DegradationRule) *DegradationTracker {
	t := &DegradationTracker{
		states: make(map[ServiceComponent]*componentState, len(rules)),
		now:    time.Now,
	}
	for _, rule := range rules {
		if rule.Threshold < 1 {
			rule.Threshold = 1
		}
		t.states[rule.Component] = &componentState{rule: rule}
	}
	return t
}

// OnLevelChange registers fn, called outside the tracker lock after a
// component changes level
func (t *DegradationTracker) OnLevelChange(fn LevelChangeFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

// RecordError counts a failure of component
func (t *DegradationTracker) RecordError(component ServiceComponent, err error) {
	t.mu.Lock()
	state, ok := t.states[component]
	if !ok {
		t.mu.Unlock()
		return
	}

	now := t.now()
	state.failures = append(prune(state.failures, now.Add(-state.rule.Window)), now)
	state.lastFailure = now
	if err != nil {
		state.lastError = err.Error()
	}

	oldLevel := state.level
	if len(state.failures) >= state.rule.Threshold && state.level < state.rule.Level {
		state.level = state.rule.Level
	}
	t.changed(component, oldLevel, state.level)
}

// RecordSuccess clears the failures of component and restores it
func (t *DegradationTracker) RecordSuccess(component ServiceComponent) {
	t.mu.Lock()
	state, ok := t.states[component]
	if !ok {
		t.mu.Unlock()
		return
	}

	state.failures = nil
	oldLevel := state.level
	if oldLevel != DegradationNone {
		state.level = DegradationNone
		state.lastRecovery = t.now()
	}
	t.changed(component, oldLevel, state.level)
}

// changed releases the lock taken by the caller and reports a transition
func (t *DegradationTracker) changed(component ServiceComponent, oldLevel, newLevel DegradationLevel) {
	onChange := t.onChange
	t.mu.Unlock()

	if onChange != nil && oldLevel != newLevel {
		onChange(component, oldLevel, newLevel)
	}
}

func prune(failures []time.Time, cutoff time.Time) []time.Time {
	kept := failures[:0]
	for _, at := range failures {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	return kept
}

// Healthy reports whether component is tracked and not degraded
func (t *DegradationTracker) Healthy(component ServiceComponent) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.states[component]
	return ok && state.level == DegradationNone
}

// Overall returns the worst level across components
func (t *DegradationTracker) Overall() DegradationLevel {
	t.mu.Lock()
	defer t.mu.Unlock()

	worst := DegradationNone
	for _, state := range t.states {
		if state.level > worst {
			worst = state.level
		}
	}
	return worst
}

// Statuses returns a snapshot of every tracked component
func (t *DegradationTracker) Statuses() map[ServiceComponent]ComponentStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now()
	out := make(map[ServiceComponent]ComponentStatus, len(t.states))
	for component, state := range t.states {
		failures := 0
		for _, at := range state.failures {
			if at.After(cutoff.Add(-state.rule.Window)) {
				failures++
			}
		}
		out[component] = ComponentStatus{
			Component:    component,
			Level:        state.level,
			Failures:     failures,
			LastError:    state.lastError,
			LastFailure:  state.lastFailure,
			LastRecovery: state.lastRecovery,
		}
	}
	return out
}

// DefaultRules returns the thresholds the server tracks its components with
func DefaultRules() []DegradationRule {
	return []DegradationRule{
		// a watcher that keeps failing falls back to the rescan schedule
		{Component: ComponentCatalogWatching, Threshold: 3, Window: 5 * time.Minute, Level: DegradationMinor},
		// failing reloads keep serving the last good registry
		{Component: ComponentCatalogReload, Threshold: 5, Window: 3 * time.Minute, Level: DegradationMajor},
		{Component: ComponentCatalogParsing, Threshold: 10, Window: 10 * time.Minute, Level: DegradationMinor},
		{Component: ComponentLiveUpdates, Threshold: 20, Window: time.Minute, Level: DegradationMinor},
	}
}
