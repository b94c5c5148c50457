package target

import (
	"net"
	"regexp"
	"strings"
)

// Target is one probe subject for the duration of a single run.
type Target struct {
	// Identifier is the normalized (trimmed, lowercased) IP literal or hostname.
	Identifier string
	// Label is an optional free-form tag propagated unchanged from the source.
	Label string
	// Job names the scheduler job this target belongs to, empty for one-shot runs.
	Job string
}

// Entry is one (identifier, label) pair produced by a Source before
// normalization. Raw preserves the original input line for invalid reporting.
type Entry struct {
	Identifier string
	Label      string
	Raw        string
}

// hostnameRegexp accepts dot-separated labels of alphanumerics and hyphens,
// no empty labels, no leading or trailing hyphen per label.
var hostnameRegexp = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// IsValidIdentifier reports whether s is an IPv4/IPv6 literal or a
// syntactically plausible hostname.
func IsValidIdentifier(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if ip := net.ParseIP(s); ip != nil {
		return true
	}
	return hostnameRegexp.MatchString(s)
}

// Normalize lowercases and trims an identifier for dedup and comparison.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
