package catalog

const (
	DefaultPageSize   = 9
	DefaultWindowSize = 5
)

// Page is one slice of a result set plus the metadata navigation controls need
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
	TotalItems int   `json:"totalItems"`
	Window     []int `json:"window"`
	HasPrev    bool  `json:"hasPrev"`
	HasNext    bool  `json:"hasNext"`
}

// TotalPages is ceil(n/pageSize) with a floor of 1
func TotalPages(n, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if n <= 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

// ClampPage keeps page inside [1, totalPages]
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Paginate returns the half-open slice [(page-1)*pageSize, page*pageSize)
// clamped to the bounds of items.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := TotalPages(len(items), pageSize)
	page = ClampPage(page, total)

	start := (page - 1) * pageSize
	if start > len(items) {
		start = len(items)
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}

	pageItems := make([]T, end-start)
	copy(pageItems, items[start:end])

	return Page[T]{
		Items:      pageItems,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: total,
		TotalItems: len(items),
		Window:     PageWindow(page, total, DefaultWindowSize),
		HasPrev:    page > 1,
		HasNext:    page < total,
	}
}

// PageWindow returns up to size page numbers centred on current, shifted
// near either end so the window stays inside [1, total].
func PageWindow(current, total, size int) []int {
	if size <= 0 {
		size = DefaultWindowSize
	}
	if total < 1 {
		total = 1
	}
	current = ClampPage(current, total)

	if total <= size {
		window := make([]int, total)
		for i := range window {
			window[i] = i + 1
		}
		return window
	}

	start := current - size/2
	if start < 1 {
		start = 1
	}
	end := start + size - 1
	if end > total {
		end = total
		start = end - size + 1
	}

	window := make([]int, 0, size)
	for p := start; p <= end; p++ {
		window = append(window, p)
	}
	return window
}
