package search

import (
	"sort"
	"strings"

	"github.com/kljensen/snowball"

	"pattern-atlas-service/internal/models"
)

const maxExcerptLength = 160

// Query is a sidebar search: free text plus an optional category filter
type Query struct {
	Text     string
	Category models.Category
	Limit    int
}

// Result is one matching pattern with its relevance score
type Result struct {
	models.PatternMeta
	Score   float64 `json:"score"`
	Excerpt string  `json:"excerpt,omitempty"`
}

// Search filters and ranks metas. Results keep catalog order on equal
// scores. An empty query text returns every meta of the category.
func Search(metas []models.PatternMeta, q Query) []Result {
	tokens := Tokenize(q.Text)

	results := make([]Result, 0)
	for _, meta := range metas {
		if q.Category != "" && meta.Category != q.Category {
			continue
		}

		if len(tokens) == 0 {
			results = append(results, Result{PatternMeta: meta})
			continue
		}

		score := calculateRelevance(tokens, meta)
		if score > 0 {
			results = append(results, Result{
				PatternMeta: meta,
				Score:       score,
				Excerpt:     extractExcerpt(meta.Description, tokens),
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results
}

// Tokenize splits text into lowercase tokens of two or more characters
func Tokenize(text string) []string {
	text = strings.ToLower(text)

	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ',' || r == '.' || r == ';' || r == ':' || r == '!' || r == '?'
	})

	var filtered []string
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if len(token) >= 2 {
			filtered = append(filtered, token)
		}
	}
	return filtered
}

// stem reduces a token to its english stem; tokens the stemmer rejects are kept as is
func stem(token string) string {
	stemmed, err := snowball.Stem(token, "english", true)
	if err != nil || len(stemmed) < 2 {
		return token
	}
	return stemmed
}

// forms returns the token and, when it differs, its stem
func forms(token string) []string {
	if s := stem(token); s != token {
		return []string{token, s}
	}
	return []string{token}
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// calculateRelevance weighs name and id hits above tags, and tags above description text.
// A token also matches through its stem, so "observers" finds Observer.
func calculateRelevance(tokens []string, meta models.PatternMeta) float64 {
	name := strings.ToLower(meta.Name)
	id := strings.ToLower(meta.ID)
	description := strings.ToLower(meta.Description)

	var score float64
	matchedTokens := 0

	for _, token := range tokens {
		terms := forms(token)
		matched := false

		if containsAny(name, terms) || containsAny(id, terms) {
			score += 10.0
			matched = true
		}

		for _, tag := range meta.Tags {
			if containsAny(strings.ToLower(tag), terms) {
				score += 5.0
				matched = true
				break
			}
		}

		count := 0
		for _, term := range terms {
			if n := strings.Count(description, term); n > count {
				count = n
			}
		}
		if count > 0 {
			score += 1.0 + float64(count)*0.5
			matched = true
		}

		if matched {
			matchedTokens++
		}
	}

	// Bonus for matching several query tokens
	if matchedTokens > 1 {
		score += float64(matchedTokens) * 2.0
	}

	return score
}

// extractExcerpt cuts the description around the first token hit
func extractExcerpt(content string, tokens []string) string {
	content = strings.Join(strings.Fields(content), " ")
	if content == "" {
		return ""
	}

	lower := strings.ToLower(content)
	bestPos := -1
	for _, token := range tokens {
		pos := strings.Index(lower, token)
		if pos != -1 && (bestPos == -1 || pos < bestPos) {
			bestPos = pos
		}
	}

	runes := []rune(content)
	if bestPos == -1 {
		if len(runes) <= maxExcerptLength {
			return content
		}
		return string(runes[:maxExcerptLength]) + "..."
	}

	// byte offset to rune offset
	runePos := len([]rune(lower[:bestPos]))
	start := runePos - 40
	if start < 0 {
		start = 0
	}
	end := start + maxExcerptLength
	if end > len(runes) {
		end = len(runes)
	}

	excerpt := strings.TrimSpace(string(runes[start:end]))
	if start > 0 {
		excerpt = "..." + excerpt
	}
	if end < len(runes) {
		excerpt = excerpt + "..."
	}
	return excerpt
}
