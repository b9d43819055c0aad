package models

// Category is the fixed three-way classification of design patterns
type Category string

const (
	CategoryCreational Category = "creational"
	CategoryStructural Category = "structural"
	CategoryBehavioral Category = "behavioral"
)

// Categories lists every category in display order
var Categories = []Category{CategoryCreational, CategoryStructural, CategoryBehavioral}

// IsValid reports whether c is one of the known categories
func (c Category) IsValid() bool {
	switch c {
	case CategoryCreational, CategoryStructural, CategoryBehavioral:
		return true
	}
	return false
}

// Difficulty is the learning level of a pattern write-up
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// IsValid reports whether d is one of the known difficulty levels
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// PatternRecord is one design pattern's documentation unit
type PatternRecord struct {
	ID              string        `json:"id" yaml:"id"`
	Name            string        `json:"name" yaml:"name"`
	Category        Category      `json:"category" yaml:"category"`
	Difficulty      Difficulty    `json:"difficulty" yaml:"difficulty"`
	Description     string        `json:"description" yaml:"description"`
	WhenToUse       []string      `json:"whenToUse" yaml:"whenToUse"`
	WhenNotToUse    []string      `json:"whenNotToUse" yaml:"whenNotToUse"`
	BadExample      string        `json:"badExample" yaml:"badExample"`
	GoodExample     string        `json:"goodExample" yaml:"goodExample"`
	Diagram         DiagramConfig `json:"diagram" yaml:"diagram"`
	RelatedPatterns []string      `json:"relatedPatterns,omitempty" yaml:"relatedPatterns,omitempty"`
	Tags            []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// PatternMeta is the lightweight listing projection of a PatternRecord.
// It deliberately has no example or diagram fields.
type PatternMeta struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Category    Category   `json:"category"`
	Difficulty  Difficulty `json:"difficulty"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags,omitempty"`
}

// Meta projects the record to its listing metadata
func (p PatternRecord) Meta() PatternMeta {
	return PatternMeta{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Difficulty:  p.Difficulty,
		Description: p.Description,
		Tags:        cloneStrings(p.Tags),
	}
}

// Clone returns a deep copy of the record
func (p PatternRecord) Clone() PatternRecord {
	out := p
	out.WhenToUse = cloneStrings(p.WhenToUse)
	out.WhenNotToUse = cloneStrings(p.WhenNotToUse)
	out.RelatedPatterns = cloneStrings(p.RelatedPatterns)
	out.Tags = cloneStrings(p.Tags)
	out.Diagram = p.Diagram.Clone()
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
