package suggest

import (
	"sort"
	"strings"
)

// Suggestion is a resolved place name with an optional administrative region
type Suggestion struct {
	Name       string `json:"name"`
	Region     string `json:"region,omitempty"`
	IsSelected bool   `json:"isSelected"`
}

// match tiers, lowest sorts first
const (
	tierExact = iota
	tierPrefix
	tierSubstring
	tierNone
)

func tierOf(name, query string) int {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case query == "":
		return tierSubstring
	case n == query:
		return tierExact
	case strings.HasPrefix(n, query):
		return tierPrefix
	case strings.Contains(n, query):
		return tierSubstring
	default:
		return tierNone
	}
}

// Rank orders candidates against query: exact match, then prefix, then
// substring, then shorter name, then alphabetical. Comparisons ignore case.
// Candidates that do not match at all sort last. The input is not modified.
func Rank(candidates []Suggestion, query string) []Suggestion {
	q := normalizeQuery(query)

	out := make([]Suggestion, len(candidates))
	copy(out, candidates)

	tiers := make(map[string]int, len(out))
	tier := func(s Suggestion) int {
		t, ok := tiers[s.Name]
		if !ok {
			t = tierOf(s.Name, q)
			tiers[s.Name] = t
		}
		return t
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ta, tb := tier(a), tier(b)
		if ta != tb {
			return ta < tb
		}
		if ta != tierNone && len(a.Name) != len(b.Name) {
			return len(a.Name) < len(b.Name)
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	return out
}

// FilterRank ranks candidates and drops the ones that do not contain query
func FilterRank(candidates []Suggestion, query string) []Suggestion {
	q := normalizeQuery(query)
	matching := make([]Suggestion, 0, len(candidates))
	for _, c := range candidates {
		if tierOf(c.Name, q) != tierNone {
			matching = append(matching, c)
		}
	}
	return Rank(matching, q)
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
