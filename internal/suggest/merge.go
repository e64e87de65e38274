package suggest

import "strings"

// DefaultLimit caps the number of suggestions returned to a caller
const DefaultLimit = 10

// Merge combines remote results with the matching part of the fallback list.
// Remote entries win: a fallback entry whose name equals a remote name,
// ignoring case, is dropped. The union is ranked and capped at limit.
func Merge(remote, fallback []Suggestion, query string, limit int) []Suggestion {
	if limit <= 0 {
		limit = DefaultLimit
	}

	seen := make(map[string]struct{}, len(remote))
	merged := make([]Suggestion, 0, len(remote)+len(fallback))
	for _, s := range remote {
		key := strings.ToLower(strings.TrimSpace(s.Name))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, s)
	}

	for _, s := range FilterRank(fallback, query) {
		key := strings.ToLower(strings.TrimSpace(s.Name))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, s)
	}

	return capList(Rank(merged, query), limit)
}

// PinSelected moves the selected place to the front with IsSelected set.
// A selection missing from list is prepended as a bare entry.
func PinSelected(list []Suggestion, selected string) []Suggestion {
	sel := strings.TrimSpace(selected)
	if sel == "" {
		return list
	}

	pinned := Suggestion{Name: sel, IsSelected: true}
	out := make([]Suggestion, 0, len(list)+1)
	for _, s := range list {
		if strings.EqualFold(strings.TrimSpace(s.Name), sel) {
			pinned = s
			pinned.IsSelected = true
			continue
		}
		s.IsSelected = false
		out = append(out, s)
	}
	return append([]Suggestion{pinned}, out...)
}

func capList(list []Suggestion, limit int) []Suggestion {
	if len(list) > limit {
		return list[:limit]
	}
	return list
}
