package string

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

func TrimStrings(ss ...*string) {
	for _, s := range ss {
		*s = strings.TrimSpace(*s)
	}
}

// SplitList splits comma-separated input, trimming entries and dropping empty ones.
// The result is never nil.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func ToSnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 &&
			(unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// SplitName derives first and last name from a full name: the first and the
// last whitespace-separated token. A single token is both.
func SplitName(fullName string) (first, last string) {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], fields[len(fields)-1]
}

// Initials returns the upper-cased first letter of each non-empty name.
func Initials(names ...string) string {
	var b strings.Builder
	for _, n := range names {
		if r, _ := utf8.DecodeRuneInString(n); r != utf8.RuneError {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
