package problem

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestKindStatus(t *testing.T) {
	tests := map[Kind]int{
		KindValidation:       http.StatusBadRequest,
		KindConflict:         http.StatusBadRequest,
		KindUnauthorized:     http.StatusUnauthorized,
		KindNotFound:         http.StatusNotFound,
		KindMethodNotAllowed: http.StatusMethodNotAllowed,
		KindStorage:          http.StatusInternalServerError,
		KindTimeout:          http.StatusServiceUnavailable,
		KindTooLarge:         http.StatusRequestEntityTooLarge,
	}
	for kind, want := range tests {
		if got := kind.Status(); got != want {
			t.Errorf("%s: status %d, want %d", kind, got, want)
		}
	}
}

func TestWriteShape(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/events/x/join", nil)
	res := httptest.NewRecorder()

	Write(res, req, KindConflict, "You have already joined this event", errors.New("already joined"))

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if got := res.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type %q", got)
	}
	var body map[string]string
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 1 || body["error"] != "You have already joined this event" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestWriteHidesCause(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	res := httptest.NewRecorder()

	Write(res, req, KindStorage, "Error fetching events", errors.New("pq: connection refused to 10.0.0.5"))

	if strings.Contains(res.Body.String(), "10.0.0.5") {
		t.Fatalf("cause leaked to client: %s", res.Body.String())
	}
}

func TestWriteLogsByStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(logger.WithContext(req.Context()))

	Write(httptest.NewRecorder(), req, KindStorage, "Error fetching events", errors.New("boom"))
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected error level log, got %s", buf.String())
	}

	buf.Reset()
	Write(httptest.NewRecorder(), req, KindNotFound, "Event not found", errors.New("missing"))
	if !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Fatalf("expected warn level log, got %s", buf.String())
	}

	buf.Reset()
	MethodNotAllowed(httptest.NewRecorder(), req)
	if buf.Len() != 0 {
		t.Fatalf("expected no log without a cause, got %s", buf.String())
	}
}

func TestHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/api/events", nil)

	res := httptest.NewRecorder()
	MethodNotAllowed(res, req)
	if res.Code != http.StatusMethodNotAllowed || !strings.Contains(res.Body.String(), "Method not allowed") {
		t.Fatalf("unexpected 405 response: %d %s", res.Code, res.Body.String())
	}

	res = httptest.NewRecorder()
	Unauthorized(res, req)
	if res.Code != http.StatusUnauthorized || !strings.Contains(res.Body.String(), "Unauthorized") {
		t.Fatalf("unexpected 401 response: %d %s", res.Code, res.Body.String())
	}
}
