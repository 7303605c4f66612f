package listing

import (
	"net/url"
	"strconv"
)

// ViewState is the complete selection behind one rendered list. It is a
// value: every With* method returns a modified copy.
type ViewState struct {
	Filter   string  `json:"filter"`
	Search   string  `json:"search"`
	Sort     SortKey `json:"sort"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

// NewViewState returns the initial view for a kind: everything, first page,
// default page size, the kind's default sort.
func NewViewState[T any](kind Kind[T]) ViewState {
	return ViewState{
		Filter:   FilterAll,
		Sort:     kind.DefaultSort,
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

// Changing what is shown invalidates the old offset, so these reset to page 1.

func (v ViewState) WithFilter(filter string) ViewState {
	if filter == "" {
		filter = FilterAll
	}
	v.Filter = filter
	v.Page = 1
	return v
}

func (v ViewState) WithSearch(term string) ViewState {
	v.Search = term
	v.Page = 1
	return v
}

func (v ViewState) WithSort(key SortKey) ViewState {
	v.Sort = key
	v.Page = 1
	return v
}

func (v ViewState) WithPageSize(size int) ViewState {
	v.PageSize = NormalizePageSize(size)
	v.Page = 1
	return v
}

// WithPage moves to page. Range checks happen in Paginate.
func (v ViewState) WithPage(page int) ViewState {
	v.Page = page
	return v
}

func (v ViewState) Criteria() Criteria {
	return Criteria{Filter: v.Filter, Search: v.Search, Sort: v.Sort}
}

// Run applies the view to records and returns the visible page.
func Run[T any](records []T, kind Kind[T], v ViewState) (Page[T], Criteria) {
	c := v.Criteria()
	return Paginate(Apply(records, kind, c), v.Page, v.PageSize), c
}

// ParseQuery builds a ViewState from URL query parameters. filterParam names
// the discriminator parameter ("status" or "type"); the rest are q, sort,
// page and page_size. Missing or unparseable values keep the defaults.
func ParseQuery[T any](q url.Values, kind Kind[T], filterParam string) ViewState {
	v := NewViewState(kind)
	if f := q.Get(filterParam); f != "" {
		v = v.WithFilter(f)
	}
	if s := q.Get("q"); s != "" {
		v = v.WithSearch(s)
	}
	if s := q.Get("sort"); s != "" {
		v = v.WithSort(SortKey(s))
	}
	if n, err := strconv.Atoi(q.Get("page_size")); err == nil {
		v = v.WithPageSize(n)
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		v = v.WithPage(n)
	}
	return v
}
