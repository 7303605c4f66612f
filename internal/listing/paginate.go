package listing

// DefaultPageSize is used when no usable page size is supplied.
const DefaultPageSize = 10

// PageSizes are the page sizes a view may select.
var PageSizes = []int{10, 25, 50, 100}

// maxPlainButtons is the largest page count rendered without ellipses.
const maxPlainButtons = 7

// Button is one entry of the page selector: a page number or an ellipsis.
type Button struct {
	Page     int  `json:"page,omitempty"`
	Active   bool `json:"active,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// Page is one slice of a derived sequence plus the metadata needed to render
// the pager. StartIndex and EndIndex are 1-based and inclusive; both are 0
// for an empty sequence.
type Page[T any] struct {
	Items      []T      `json:"items"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalPages int      `json:"total_pages"`
	Total      int      `json:"total"`
	StartIndex int      `json:"start_index"`
	EndIndex   int      `json:"end_index"`
	HasPrev    bool     `json:"has_prev"`
	HasNext    bool     `json:"has_next"`
	Buttons    []Button `json:"buttons"`
}

// Paginate slices seq into the requested 1-based page. Out-of-range pages are
// clamped, so callers may pass whatever the user asked for.
func Paginate[T any](seq []T, page, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	n := len(seq)
	totalPages := (n + size - 1) / size
	page = ClampPage(page, totalPages)

	p := Page[T]{
		Items:      []T{},
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
		Total:      n,
		Buttons:    PageButtons(page, totalPages),
	}
	if n == 0 {
		return p
	}

	start := (page - 1) * size
	end := min(start+size, n)
	p.Items = append(p.Items, seq[start:end]...)
	p.StartIndex = start + 1
	p.EndIndex = end
	p.HasPrev = page > 1
	p.HasNext = page < totalPages
	return p
}

// ClampPage forces page into [1, totalPages], or 1 when there are no pages.
func ClampPage(page, totalPages int) int {
	if totalPages < 1 || page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// PageButtons lists every page when there are at most seven. Otherwise it
// shows the first and last page, the current page with one neighbour on
// each side, and a single ellipsis for each gap.
func PageButtons(current, totalPages int) []Button {
	buttons := []Button{}
	if totalPages <= 0 {
		return buttons
	}
	page := func(n int) Button { return Button{Page: n, Active: n == current} }

	if totalPages <= maxPlainButtons {
		for i := 1; i <= totalPages; i++ {
			buttons = append(buttons, page(i))
		}
		return buttons
	}

	buttons = append(buttons, page(1))
	if current > 3 {
		buttons = append(buttons, Button{Ellipsis: true})
	}
	for i := max(2, current-1); i <= min(totalPages-1, current+1); i++ {
		buttons = append(buttons, page(i))
	}
	if current < totalPages-2 {
		buttons = append(buttons, Button{Ellipsis: true})
	}
	return append(buttons, page(totalPages))
}

// NormalizePageSize maps size onto PageSizes: the largest allowed size not
// above it, never below the smallest.
func NormalizePageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	best := PageSizes[0]
	for _, s := range PageSizes {
		if s <= size {
			best = s
		}
	}
	return best
}
