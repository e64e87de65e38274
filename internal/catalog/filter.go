package catalog

import (
	"strings"
)

// Predicate names used by FilterSet
const (
	PredicateSearch       = "search"
	PredicateBrand        = "brand"
	PredicateLocation     = "location"
	PredicateState        = "state"
	PredicateAvailability = "availability"
)

// Availability categories derived from the counters
const (
	AvailabilityAll       = "all"
	AvailabilityAvailable = "available"
	AvailabilityWaitlist  = "waitlist"
)

// Location match modes
const (
	LocationModeAuto    = ""
	LocationModePincode = "pincode"
	LocationModeCity    = "city"
)

// Predicate is a named, pure test over an Item
type Predicate struct {
	Name  string
	Match func(Item) bool
}

// FilterSet holds the active predicates keyed by name, in insertion order
type FilterSet struct {
	order []string
	preds map[string]Predicate
}

// NewFilterSet creates an empty filter set
func NewFilterSet() *FilterSet {
	return &FilterSet{preds: make(map[string]Predicate)}
}

// Set adds or replaces the predicate with the same name
func (fs *FilterSet) Set(p Predicate) {
	if p.Match == nil {
		return
	}
	if _, exists := fs.preds[p.Name]; !exists {
		fs.order = append(fs.order, p.Name)
	}
	fs.preds[p.Name] = p
}

// Clear removes a predicate by name
func (fs *FilterSet) Clear(name string) {
	if _, exists := fs.preds[name]; !exists {
		return
	}
	delete(fs.preds, name)
	for i, n := range fs.order {
		if n == name {
			fs.order = append(fs.order[:i:i], fs.order[i+1:]...)
			break
		}
	}
}

// ClearAll removes every predicate
func (fs *FilterSet) ClearAll() {
	fs.order = nil
	fs.preds = make(map[string]Predicate)
}

// Has reports whether a predicate with that name is active
func (fs *FilterSet) Has(name string) bool {
	_, ok := fs.preds[name]
	return ok
}

// Active returns the predicates in the order they were first set
func (fs *FilterSet) Active() []Predicate {
	out := make([]Predicate, 0, len(fs.order))
	for _, n := range fs.order {
		out = append(out, fs.preds[n])
	}
	return out
}

// Names returns the active predicate names
func (fs *FilterSet) Names() []string {
	return append([]string(nil), fs.order...)
}

// Filter returns the items satisfying every predicate, order preserved.
// The input slice is never modified.
func Filter(items []Item, preds []Predicate) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if matchesAll(it, preds) {
			out = append(out, it)
		}
	}
	return out
}

func matchesAll(it Item, preds []Predicate) bool {
	for _, p := range preds {
		if p.Match != nil && !p.Match(it) {
			return false
		}
	}
	return true
}

// MatchSearch matches the display name case-insensitively by substring
func MatchSearch(query string) Predicate {
	q := normalize(query)
	return Predicate{
		Name: PredicateSearch,
		Match: func(it Item) bool {
			name := normalize(it.DisplayName())
			if name == "" {
				return false
			}
			return strings.Contains(name, q)
		},
	}
}

// MatchBrand matches the brand label case-insensitively
func MatchBrand(brand string) Predicate {
	b := normalize(brand)
	return Predicate{
		Name: PredicateBrand,
		Match: func(it Item) bool {
			return it.Brand != "" && normalize(it.Brand) == b
		},
	}
}

// MatchLocation matches a pincode exactly or a location by substring.
// With LocationModeAuto a 6-digit query is treated as a pincode.
func MatchLocation(query, mode string) Predicate {
	q := strings.TrimSpace(query)
	if mode == LocationModeAuto {
		mode = LocationModeCity
		if IsPincode(q) {
			mode = LocationModePincode
		}
	}

	if mode == LocationModePincode {
		return Predicate{
			Name: PredicateLocation,
			Match: func(it Item) bool {
				return it.Pincode != "" && strings.TrimSpace(it.Pincode) == q
			},
		}
	}

	lq := normalize(q)
	return Predicate{
		Name: PredicateLocation,
		Match: func(it Item) bool {
			loc := normalize(it.Location)
			return loc != "" && strings.Contains(loc, lq)
		},
	}
}

// MatchState matches the administrative state case-insensitively
func MatchState(state string) Predicate {
	s := normalize(state)
	return Predicate{
		Name: PredicateState,
		Match: func(it Item) bool {
			return it.State != "" && normalize(it.State) == s
		},
	}
}

// MatchAvailability filters by a category computed from the counters.
// Unknown categories and "all" match everything.
func MatchAvailability(category string) Predicate {
	switch normalize(category) {
	case AvailabilityAvailable:
		return Predicate{
			Name: PredicateAvailability,
			Match: func(it Item) bool {
				return !it.BookingsStopped() && it.HasStock()
			},
		}
	case AvailabilityWaitlist:
		return Predicate{
			Name: PredicateAvailability,
			Match: func(it Item) bool {
				return it.BookingsStopped() || !it.HasStock()
			},
		}
	default:
		return Predicate{
			Name:  PredicateAvailability,
			Match: func(Item) bool { return true },
		}
	}
}

// IsPincode reports whether s is exactly six ASCII digits
func IsPincode(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
