package events

import (
	"strings"
	"time"

	dateparser "github.com/markusmobius/go-dateparser"
)

// ParseEventDate accepts YYYY-MM-DD, RFC3339 timestamps and free-form dates
// such as "15 March 2025". now anchors relative expressions ("next friday").
func ParseEventDate(raw string, now time.Time) (Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Date{}, ValidationError{Field: "date", Message: "is required"}
	}
	if parsed, err := time.Parse(DateLayout, raw); err == nil {
		return NewDate(parsed), nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return NewDate(parsed), nil
	}

	parsed, err := dateparser.Parse(&dateparser.Configuration{CurrentTime: now}, raw)
	if err != nil || parsed.Time.IsZero() {
		return Date{}, ValidationError{Field: "date", Message: "must be a calendar date"}
	}
	return NewDate(parsed.Time), nil
}
