// Package device turns the User-Agent of an admin login into the label
// stored on the token and returned by the login endpoint.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknown = "Unknown Device"

// Label is what a login's User-Agent says about the admin's client.
type Label struct {
	Browser string
	System  string
	Mobile  bool
	Bot     bool
}

// Describe parses ua. An empty string yields the zero Label.
func Describe(ua string) Label {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		return Label{}
	}
	parsed := useragent.New(ua)
	browser, _ := parsed.Browser()
	l := Label{
		Browser: browser,
		System:  parsed.OS(),
		Mobile:  parsed.Mobile(),
		Bot:     parsed.Bot(),
	}
	// Phones report the handset in the platform, which reads better than
	// the OS version string.
	if l.Mobile && parsed.Platform() != "" {
		l.System = parsed.Platform()
	}
	return l
}

// String renders "Chrome on macOS" style text. Missing parts fall back to
// "Unknown Browser" and "Unknown OS"; the zero Label is "Unknown Device".
func (l Label) String() string {
	if l == (Label{}) {
		return unknown
	}
	browser, system := l.Browser, l.System
	if browser == "" {
		browser = "Unknown Browser"
	}
	if system == "" {
		system = "Unknown OS"
	}
	s := browser + " on " + system
	if l.Bot {
		s += " (bot)"
	}
	return strings.TrimSpace(s)
}

// ParseUserAgent is Describe followed by String.
func ParseUserAgent(ua string) string {
	return Describe(ua).String()
}
