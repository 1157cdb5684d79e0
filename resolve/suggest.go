package resolve

import (
	"sort"
	"strings"

	levenshtein "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"
)

// DefaultSuggestions is the number of "did you mean" hints attached to an
// unknown name.
const DefaultSuggestions = 3

// suggest ranks candidates close to name. Subsequence matches ("Totl" for
// "Total") come first, then near misses by edit distance ("Sumx" for "Sum").
func suggest(name string, candidates []string, limit int) []string {
	if limit <= 0 || name == "" || len(candidates) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	add := func(s string) bool {
		if seen[s] || s == name {
			return len(out) < limit
		}
		seen[s] = true
		out = append(out, s)
		return len(out) < limit
	}

	for _, m := range fuzzy.Find(name, candidates) {
		if !add(m.Str) {
			return out
		}
	}

	type near struct {
		name string
		dist int
	}
	lower := strings.ToLower(name)
	budget := len([]rune(name))/3 + 1
	var nearby []near
	for _, c := range candidates {
		d := levenshtein.LevenshteinDistance(lower, strings.ToLower(c))
		if d <= budget {
			nearby = append(nearby, near{c, d})
		}
	}
	sort.SliceStable(nearby, func(i, j int) bool { return nearby[i].dist < nearby[j].dist })
	for _, c := range nearby {
		if !add(c.name) {
			break
		}
	}
	return out
}
