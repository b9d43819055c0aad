package search

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"pattern-atlas-service/internal/models"
)

// maxSuggestDistance bounds how far a mistyped id may be from a real one
const maxSuggestDistance = 3

// Suggest returns up to limit pattern ids close to id by edit distance,
// nearest first. Ties keep catalog order.
func Suggest(metas []models.PatternMeta, id string, limit int) []string {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" || limit <= 0 {
		return nil
	}

	type candidate struct {
		id       string
		distance int
	}

	var candidates []candidate
	for _, meta := range metas {
		distance := levenshtein.ComputeDistance(id, strings.ToLower(meta.ID))
		if name := levenshtein.ComputeDistance(id, strings.ToLower(meta.Name)); name < distance {
			distance = name
		}
		if distance == 0 || distance > threshold(id) {
			continue
		}
		candidates = append(candidates, candidate{id: meta.ID, distance: distance})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	suggestions := make([]string, 0, len(candidates))
	for _, c := range candidates {
		suggestions = append(suggestions, c.id)
	}
	return suggestions
}

// threshold scales the allowed distance with the length of the input
func threshold(id string) int {
	n := len([]rune(id)) / 3
	if n < 1 {
		n = 1
	}
	if n > maxSuggestDistance {
		n = maxSuggestDistance
	}
	return n
}
