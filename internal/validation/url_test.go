package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateHTTPURL(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		valid bool
	}{
		{"http", "http://example.com", true},
		{"https with path", "https://lh3.googleusercontent.com/a/photo.jpg", true},
		{"empty allowed", "", true},
		{"missing scheme", "example.com/photo.jpg", false},
		{"ftp scheme", "ftp://example.com/file", false},
		{"javascript scheme", "javascript:alert(1)", false},
		{"missing host", "https:///path", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHTTPURL(tt.url, "image")
			if tt.valid {
				require.NoError(t, err)
				return
			}
			var fieldErr FieldError
			require.ErrorAs(t, err, &fieldErr)
			require.Equal(t, "image", fieldErr.Field)
		})
	}
}

func TestValidateBaseURL(t *testing.T) {
	require.NoError(t, ValidateBaseURL("http://localhost:8080", "SERVER_BASE_URL"))
	require.NoError(t, ValidateBaseURL("https://events.example.edu/", "SERVER_BASE_URL"))
	require.Error(t, ValidateBaseURL("https://events.example.edu/app", "SERVER_BASE_URL"))
	require.Error(t, ValidateBaseURL("https://events.example.edu?x=1", "SERVER_BASE_URL"))
	require.Error(t, ValidateBaseURL("localhost:8080", "SERVER_BASE_URL"))
}
