package catalog

import (
	"sort"
	"strings"
)

// SortSpec names the active comparator; direction is implied by the name
type SortSpec string

const (
	SortName      SortSpec = "name"
	SortNewest    SortSpec = "newest"
	SortPriceAsc  SortSpec = "price_asc"
	SortPriceDesc SortSpec = "price_desc"
	SortUnitsSold SortSpec = "units_sold"
)

// DefaultSort is used when no sort is requested
const DefaultSort = SortNewest

// ParseSortSpec maps a query value to a SortSpec. A few aliases used by the
// web client are accepted as well.
func ParseSortSpec(s string) (SortSpec, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name", "name_asc", "alphabetical":
		return SortName, true
	case "newest", "date", "created_at", "latest":
		return SortNewest, true
	case "price_asc", "price-low", "price_low_high", "low_to_high":
		return SortPriceAsc, true
	case "price_desc", "price-high", "price_high_low", "high_to_low":
		return SortPriceDesc, true
	case "units_sold", "popular", "popularity", "best_selling":
		return SortUnitsSold, true
	default:
		return DefaultSort, false
	}
}

// Sort returns a stably sorted copy of items. Equal keys keep their input order.
func Sort(items []Item, spec SortSpec) []Item {
	out := make([]Item, len(items))
	copy(out, items)

	var less func(a, b Item) bool
	switch spec {
	case SortName:
		less = func(a, b Item) bool {
			return strings.ToLower(a.DisplayName()) < strings.ToLower(b.DisplayName())
		}
	case SortPriceAsc:
		less = func(a, b Item) bool { return a.ListPrice() < b.ListPrice() }
	case SortPriceDesc:
		less = func(a, b Item) bool { return a.ListPrice() > b.ListPrice() }
	case SortUnitsSold:
		less = func(a, b Item) bool { return a.UnitsSold() > b.UnitsSold() }
	default:
		less = func(a, b Item) bool { return a.createdAtMillis() > b.createdAtMillis() }
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
