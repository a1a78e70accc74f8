package events

import "strings"

const malformedLinkSuffix = "Registration"

// HasMalformedLink reports whether a registration link ends with the literal
// "Registration" (case-insensitive), ignoring surrounding whitespace.
func HasMalformedLink(link string) bool {
	trimmed := strings.TrimSpace(link)
	if len(trimmed) < len(malformedLinkSuffix) {
		return false
	}
	return strings.EqualFold(trimmed[len(trimmed)-len(malformedLinkSuffix):], malformedLinkSuffix)
}

// NormalizeRegistrationLink strips every trailing "Registration" token and
// the whitespace around it. The result never satisfies HasMalformedLink, so
// normalizing twice is the same as normalizing once.
func NormalizeRegistrationLink(link string) string {
	out := strings.TrimSpace(link)
	for HasMalformedLink(out) {
		out = strings.TrimSpace(out[:len(out)-len(malformedLinkSuffix)])
	}
	return out
}
