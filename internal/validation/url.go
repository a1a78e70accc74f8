package validation

import (
	"net/url"
	"strings"
)

// ValidateHTTPURL checks that raw is an absolute http(s) URL with a host.
// Empty values are allowed.
func ValidateHTTPURL(raw, field string) error {
	if raw == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return FieldError{Field: field, Message: "is not a valid URL"}
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return FieldError{Field: field, Message: "must use http or https"}
	}
	if parsed.Host == "" {
		return FieldError{Field: field, Message: "must include a host"}
	}
	return nil
}

// ValidateBaseURL is ValidateHTTPURL for configuration values that must not
// carry a path, query or fragment.
func ValidateBaseURL(raw, field string) error {
	if err := ValidateHTTPURL(raw, field); err != nil || raw == "" {
		return err
	}
	parsed, _ := url.Parse(raw)
	if (parsed.Path != "" && parsed.Path != "/") || parsed.RawQuery != "" || parsed.Fragment != "" {
		return FieldError{Field: field, Message: "must not contain a path, query or fragment"}
	}
	return nil
}
