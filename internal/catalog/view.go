package catalog

import "errors"

// State of a catalog view
type State int

const (
	StateLoading State = iota
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "loading"
	}
}

// ErrNotReady is returned by View.Err while the view is still loading
var ErrNotReady = errors.New("catalog view not ready")

// View composes Filter, Sort and Paginate over four inputs: the raw items,
// the active filters, the sort spec and the current page. Nothing derived is
// stored; Visible recomputes from the inputs on every call.
//
// A View is not safe for concurrent use.
type View struct {
	state    State
	err      error
	items    []Item
	filters  *FilterSet
	sort     SortSpec
	page     int
	pageSize int
}

// NewView creates a view in the Loading state
func NewView(pageSize int) *View {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &View{
		state:    StateLoading,
		filters:  NewFilterSet(),
		sort:     DefaultSort,
		page:     1,
		pageSize: pageSize,
	}
}

// Load supplies the raw items and moves the view to Ready
func (v *View) Load(items []Item) {
	v.items = items
	v.err = nil
	v.state = StateReady
}

// Fail moves the view to Error. The raw list falls back to empty.
func (v *View) Fail(err error) {
	v.items = nil
	v.err = err
	v.state = StateError
}

// State returns the current lifecycle state
func (v *View) State() State { return v.state }

// Err returns the load error, if any
func (v *View) Err() error {
	if v.state == StateLoading {
		return ErrNotReady
	}
	return v.err
}

// SetFilter activates a predicate and resets to the first page
func (v *View) SetFilter(p Predicate) {
	v.filters.Set(p)
	v.page = 1
}

// ClearFilter removes a predicate and resets to the first page
func (v *View) ClearFilter(name string) {
	v.filters.Clear(name)
	v.page = 1
}

// ClearFilters removes every predicate and resets to the first page
func (v *View) ClearFilters() {
	v.filters.ClearAll()
	v.page = 1
}

// Filters returns the names of the active predicates
func (v *View) Filters() []string {
	return v.filters.Names()
}

// SetSort changes the sort spec and resets to the first page
func (v *View) SetSort(spec SortSpec) {
	v.sort = spec
	v.page = 1
}

// Sort returns the active sort spec
func (v *View) Sort() SortSpec { return v.sort }

// SetPage moves to page, clamped against the current filtered set
func (v *View) SetPage(page int) {
	total := TotalPages(len(Filter(v.items, v.filters.Active())), v.pageSize)
	v.page = ClampPage(page, total)
}

// CurrentPage returns the stored page number
func (v *View) CurrentPage() int { return v.page }

// Visible derives the current page: Filter, then Sort, then Paginate
func (v *View) Visible() Page[Item] {
	if v.state != StateReady {
		return Paginate([]Item{}, 1, v.pageSize)
	}
	filtered := Filter(v.items, v.filters.Active())
	sorted := Sort(filtered, v.sort)
	return Paginate(sorted, v.page, v.pageSize)
}
