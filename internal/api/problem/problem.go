package problem

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/json"

// Kind classifies an API failure and fixes its HTTP status.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthorized
	KindNotFound
	// KindConflict is a business-rule rejection such as a duplicate join.
	// It is reported as 400 so clients can show the message as-is.
	KindConflict
	KindMethodNotAllowed
	KindStorage
	KindTimeout
	// KindTooLarge is a request body over the configured size limit.
	KindTooLarge
)

func (k Kind) Status() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindTimeout:
		return http.StatusServiceUnavailable
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindMethodNotAllowed:
		return "method_not_allowed"
	case KindTimeout:
		return "timeout"
	case KindTooLarge:
		return "too_large"
	default:
		return "storage"
	}
}

// Body is the error document every endpoint returns.
type Body struct {
	Error string `json:"error"`
}

// Write sends {"error": message} with the status for kind. When err is set it
// is logged from the request logger: 5xx at error level, 4xx at warn. The
// message is what clients see; err never is.
func Write(w http.ResponseWriter, r *http.Request, kind Kind, message string, err error) {
	status := kind.Status()
	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		event := logger.Warn()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Err(err).
			Int("status", status).
			Str("kind", kind.String()).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(message)
	}

	if message == "" {
		message = http.StatusText(status)
	}
	WriteBody(w, status, Body{Error: message})
}

// WriteBody writes any JSON error document with the given status.
func WriteBody(w http.ResponseWriter, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal Server Error"}`))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// MethodNotAllowed writes the 405 document used by every route.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Write(w, r, KindMethodNotAllowed, "Method not allowed", nil)
}

// Unauthorized writes the 401 document used by the session guard.
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	Write(w, r, KindUnauthorized, "Unauthorized", nil)
}
