package submission

import (
	"strconv"
	"time"

	"aieni/internal/listing"
	"aieni/internal/records"
	"aieni/internal/storage"
	s "aieni/pkg/string"
)

// DefaultTitle is used for stored abstracts that have no title.
const DefaultTitle = "Research Abstract"

// Kind plugs abstracts into the listing engine. The filter compares status;
// search covers first and last name, email, title and institution.
var Kind = listing.Kind[Abstract]{
	Name:          "submissions",
	Discriminator: func(a Abstract) string { return string(a.Status) },
	SearchFields: func(a Abstract) []string {
		return []string{a.FirstName, a.LastName, a.Email, a.Title, a.Institution}
	},
	Date:        func(a Abstract) time.Time { return a.SubmittedAt },
	LastName:    func(a Abstract) string { return a.LastName },
	DefaultSort: listing.SortDateDesc,
}

// Codec stores abstracts under storage.KeySubmissions and fills defaults on
// load.
var Codec = records.Codec[Abstract]{
	Key:       storage.KeySubmissions,
	Noun:      "submission",
	ID:        func(a Abstract) string { return a.ID },
	Normalize: Normalize,
}

// Normalize fills the fields older or hand-edited records may lack. Unknown
// statuses fall back to pending so every loaded record has a valid status.
func Normalize(a Abstract, index int, now time.Time) Abstract {
	if a.ID == "" {
		a.ID = "ABS-" + strconv.Itoa(index+1)
	}
	if !a.Status.Valid() {
		a.Status = StatusPending
	}
	if a.CoAuthors == nil {
		a.CoAuthors = CoAuthors{}
	}
	if a.Title == "" {
		a.Title = DefaultTitle
	}
	if a.SubmittedAt.IsZero() {
		a.SubmittedAt = now
	}
	if a.FirstName == "" || a.LastName == "" {
		first, last := s.SplitName(a.FullName)
		if a.FirstName == "" {
			a.FirstName = first
		}
		if a.LastName == "" {
			a.LastName = last
		}
	}
	return a
}
