package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campusconnect/server/internal/api/middleware"
	"github.com/campusconnect/server/internal/auth"
	"github.com/campusconnect/server/internal/domain/events"
	"github.com/stretchr/testify/require"
)

var errStore = errors.New("connection reset")

// failingEvents fails every call the embedded repository does not answer.
type failingEvents struct {
	events.Repository
	err error
}

func (f failingEvents) List(context.Context) ([]events.Event, error) { return nil, f.err }
func (f failingEvents) AppendAttendee(context.Context, string, events.Attendee) error {
	return f.err
}
func (f failingEvents) GetByID(context.Context, string) (*events.Event, error) { return nil, f.err }
func (f failingEvents) ListMalformedLinks(context.Context) ([]events.LinkRecord, error) {
	return nil, f.err
}

type recordedAudit struct {
	action string
	status string
	actor  string
}

type fakeAudit struct {
	entries []recordedAudit
}

func (a *fakeAudit) LogSuccess(action, actor, _, _, _ string, _ map[string]string) {
	a.entries = append(a.entries, recordedAudit{action: action, status: "success", actor: actor})
}

func (a *fakeAudit) LogFailure(action, actor, _ string, _ map[string]string) {
	a.entries = append(a.entries, recordedAudit{action: action, status: "failure", actor: actor})
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withPrincipal(req *http.Request, email string) *http.Request {
	principal := &auth.Principal{ID: "google:1", Email: email, Name: "Asha", Image: "https://lh3.googleusercontent.com/a.png"}
	return req.WithContext(middleware.ContextWithPrincipal(req.Context(), principal))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func expiredContext() (context.Context, context.CancelFunc) {
	return context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
}
