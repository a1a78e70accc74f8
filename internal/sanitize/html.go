package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes all HTML tags and attributes.
var StrictPolicy = bluemonday.StrictPolicy()

// maxPasses bounds how many layers of entity encoding are unwrapped.
const maxPasses = 4

// Text strips all HTML tags and returns trimmed plain text. Values are served
// as JSON, so the entities the policy escapes are decoded again; markup that
// only appears after decoding (for example "&lt;b&gt;") is stripped as well.
func Text(input string) string {
	if input == "" {
		return ""
	}
	out := input
	for range maxPasses {
		next := html.UnescapeString(StrictPolicy.Sanitize(out))
		if next == out {
			break
		}
		out = next
	}
	return strings.TrimSpace(out)
}
