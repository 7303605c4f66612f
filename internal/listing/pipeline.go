package listing

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Criteria is the part of the view state the pipeline consumes.
type Criteria struct {
	Filter string
	Search string
	Sort   SortKey
}

// Apply runs filter, search and sort in that order and returns a new slice.
// The input slice is never modified.
func Apply[T any](records []T, kind Kind[T], c Criteria) []T {
	out := Filter(records, kind, c.Filter)
	out = Search(out, kind, c.Search)
	return Sort(out, kind, c.Sort)
}

// Filter keeps records whose discriminator equals value exactly.
// FilterAll and "" keep everything.
func Filter[T any](records []T, kind Kind[T], value string) []T {
	if value == "" || value == FilterAll {
		return slices.Clone(records)
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		if kind.Discriminator(r) == value {
			out = append(out, r)
		}
	}
	return out
}

// Search keeps records where the lowercased term is a substring of at least
// one lowercased search field. A blank term keeps everything.
func Search[T any](records []T, kind Kind[T], term string) []T {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return slices.Clone(records)
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		for _, f := range kind.SearchFields(r) {
			if strings.Contains(strings.ToLower(f), term) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Sort returns a stably sorted copy. Unknown keys keep the input order.
func Sort[T any](records []T, kind Kind[T], key SortKey) []T {
	out := slices.Clone(records)
	switch key {
	case SortDateDesc:
		slices.SortStableFunc(out, func(a, b T) int { return kind.Date(b).Compare(kind.Date(a)) })
	case SortDateAsc:
		slices.SortStableFunc(out, func(a, b T) int { return kind.Date(a).Compare(kind.Date(b)) })
	case SortNameAsc, SortNameDesc:
		// Collators keep internal buffers, so each sort gets its own.
		col := collate.New(language.English)
		sign := 1
		if key == SortNameDesc {
			sign = -1
		}
		slices.SortStableFunc(out, func(a, b T) int {
			return sign * col.CompareString(kind.LastName(a), kind.LastName(b))
		})
	}
	return out
}

// NoResults reports whether a non-blank search produced nothing, which is
// reported to the user differently from an empty collection.
func (c Criteria) NoResults(matched int) bool {
	return matched == 0 && strings.TrimSpace(c.Search) != ""
}
