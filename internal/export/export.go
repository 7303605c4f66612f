// Package export serializes a whole record collection to delimited text and
// hands the document to a Downloader.
package export

import (
	"strings"
	"time"
)

// MimeCSV is the content type of every export.
const MimeCSV = "text/csv;charset=utf-8;"

// DisplayLayout is the date format shown in lists and exports.
const DisplayLayout = "Jan 2, 2006, 03:04 PM"

// Column is one exported field: a header label and how to read it.
type Column[T any] struct {
	Label string
	Value func(T) string
}

// ToDelimitedText renders a header row of labels followed by one row per
// record. Every cell is quoted with embedded quotes doubled; rows are joined
// by "\n" with no trailing newline.
func ToDelimitedText[T any](records []T, cols []Column[T]) string {
	var b strings.Builder
	writeRow := func(cells func(i int) string) {
		for i := range cols {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(Quote(cells(i)))
		}
	}

	writeRow(func(i int) string { return cols[i].Label })
	for _, rec := range records {
		b.WriteByte('\n')
		writeRow(func(i int) string { return cols[i].Value(rec) })
	}
	return b.String()
}

// Quote wraps s in double quotes, doubling any quotes inside it.
func Quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// JoinSequence flattens a list-valued field into one cell.
func JoinSequence(values []string) string {
	return strings.Join(values, "; ")
}

// DisplayTime formats t in UTC using DisplayLayout. The zero time renders
// as an empty string.
func DisplayTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DisplayLayout)
}

// SubmissionsFilename and RegistrationsFilename name export files after the
// UTC date of the export.
func SubmissionsFilename(now time.Time) string {
	return "aieni-2026-submissions-" + now.UTC().Format(time.DateOnly) + ".csv"
}

func RegistrationsFilename(now time.Time) string {
	return "AIENI_2026_Registrations_" + now.UTC().Format(time.DateOnly) + ".csv"
}
