// Package listing implements the list-management engine shared by every
// record kind: a pure filter, search and sort pipeline, a paginator, and the
// view state that drives both.
//
// A record kind plugs in through a Kind descriptor, so abstracts and
// registrations run through the same code.
package listing

import "time"

// FilterAll is the filter value that lets every record through.
const FilterAll = "all"

// SortKey names one of the supported orderings.
type SortKey string

const (
	SortDateDesc SortKey = "date_desc"
	SortDateAsc  SortKey = "date_asc"
	SortNameAsc  SortKey = "name_asc"
	SortNameDesc SortKey = "name_desc"
)

// Valid reports whether k is one of the four recognised keys.
func (k SortKey) Valid() bool {
	switch k {
	case SortDateDesc, SortDateAsc, SortNameAsc, SortNameDesc:
		return true
	}
	return false
}

// Label is the human-readable name shown when a sort is applied.
func (k SortKey) Label() string {
	switch k {
	case SortDateDesc:
		return "Newest First"
	case SortDateAsc:
		return "Oldest First"
	case SortNameAsc:
		return "Name (A-Z)"
	case SortNameDesc:
		return "Name (Z-A)"
	}
	return string(k)
}

// Kind describes how the engine reads one record type.
type Kind[T any] struct {
	// Name is the plural noun used in messages, e.g. "submissions".
	Name string
	// Discriminator returns the field the filter stage compares against.
	Discriminator func(T) string
	// SearchFields returns the values the search stage matches. Missing
	// values should be returned as "".
	SearchFields func(T) []string
	// Date is the creation timestamp used by the date sorts.
	Date func(T) time.Time
	// LastName is the key used by the name sorts.
	LastName    func(T) string
	DefaultSort SortKey
}
