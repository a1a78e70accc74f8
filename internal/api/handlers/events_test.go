package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/campusconnect/server/internal/domain/events"
	"github.com/campusconnect/server/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

func newEventsHandler(t *testing.T) (*EventsHandler, events.Repository, *fakeAudit) {
	t.Helper()
	repo := memory.New().Events()
	auditLog := &fakeAudit{}
	return NewEventsHandler(events.NewService(repo), auditLog), repo, auditLog
}

func seedEvent(t *testing.T, repo events.Repository, title, link string) *events.Event {
	t.Helper()
	event, err := repo.Create(context.Background(), events.CreateParams{
		Title:            title,
		Description:      "desc",
		Date:             events.NewDate(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)),
		Time:             "10:00 AM",
		Venue:            "Anna Auditorium",
		RegistrationLink: link,
		CreatedAt:        time.Now().UTC(),
	})
	require.NoError(t, err)
	return event
}

func TestListEvents_EmptyIsArray(t *testing.T) {
	h, _, _ := newEventsHandler(t)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())
}

func TestListEvents_StoreFailure(t *testing.T) {
	h := NewEventsHandler(events.NewService(failingEvents{err: errStore}), nil)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Error fetching events", decodeError(t, rec))
}

func TestListEvents_Timeout(t *testing.T) {
	h := NewEventsHandler(events.NewService(memory.New().Events()), nil)
	ctx, cancel := expiredContext()
	defer cancel()

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "Request timed out", decodeError(t, rec))
}

func TestCreateEvent(t *testing.T) {
	h, repo, auditLog := newEventsHandler(t)

	req := withPrincipal(jsonRequest(t, http.MethodPost, "/api/events", map[string]string{
		"title":            "Hack Night",
		"description":      "Build things <b>fast</b>",
		"date":             "2025-03-15",
		"time":             "6:00 PM",
		"venue":            "SJT 801",
		"registrationLink": "https://forms.gle/x",
	}), "asha@vitstudent.ac.in")
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var created events.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Build things fast", created.Description)
	require.Equal(t, "2025-03-15", created.Date.String())
	require.Empty(t, created.Attendees)

	items, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.Len(t, auditLog.entries, 1)
	require.Equal(t, "event.create", auditLog.entries[0].action)
	require.Equal(t, "asha@vitstudent.ac.in", auditLog.entries[0].actor)
}

func TestCreateEvent_Invalid(t *testing.T) {
	h, _, _ := newEventsHandler(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "malformed json", body: `{"title":`, want: "Invalid request body"},
		{name: "missing title", body: `{"description":"d","date":"2025-03-15","time":"t","venue":"v"}`, want: "title is required"},
		{name: "bad date", body: `{"title":"t","description":"d","date":"zzzz","time":"t","venue":"v"}`, want: "date must be a calendar date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(tt.body)), "asha@vitstudent.ac.in")
			rec := httptest.NewRecorder()
			h.Create(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Equal(t, tt.want, decodeError(t, rec))
		})
	}
}

func TestJoinEvent(t *testing.T) {
	h, repo, _ := newEventsHandler(t)
	event := seedEvent(t, repo, "Hack Night", "")

	join := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/events/"+event.ID+"/join", strings.NewReader(body))
		req.SetPathValue("id", event.ID)
		rec := httptest.NewRecorder()
		h.Join(rec, req)
		return rec
	}

	rec := join(`{"name":"Asha","mobileNumber":"9876543210"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message":"Successfully joined the event"}`, rec.Body.String())

	rec = join(`{"name":"Asha again","mobileNumber":"9876543210"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "You have already joined this event", decodeError(t, rec))

	rec = join(`{"name":"","mobileNumber":"9876543210"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Name and mobile number are required", decodeError(t, rec))

	rec = join(`{"name":"Ravi","mobileNumber":"98765"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Please enter a valid 10-digit mobile number", decodeError(t, rec))

	stored, err := repo.GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, stored.Attendees, 1)
}

func TestJoinEvent_NotFound(t *testing.T) {
	h, _, _ := newEventsHandler(t)

	for _, id := range []string{"01HZZZZZZZZZZZZZZZZZZZZZZZ", "not-a-ulid"} {
		req := httptest.NewRequest(http.MethodPost, "/api/events/"+id+"/join", strings.NewReader(`{"name":"Asha","mobileNumber":"9876543210"}`))
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()
		h.Join(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code, id)
		require.Equal(t, "Event not found", decodeError(t, rec))
	}
}

func TestJoinEvent_BodyTooLarge(t *testing.T) {
	h, repo, _ := newEventsHandler(t)
	event := seedEvent(t, repo, "Hack Night", "")

	body := `{"name":"` + strings.Repeat("a", 256) + `","mobileNumber":"9876543210"}`
	req := httptest.NewRequest(http.MethodPost, "/api/events/"+event.ID+"/join", strings.NewReader(body))
	req.SetPathValue("id", event.ID)
	rec := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rec, req.Body, 64)
	h.Join(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Equal(t, "Request body too large", decodeError(t, rec))

	attendees, err := events.NewService(repo).ListAttendees(context.Background(), event.ID)
	require.NoError(t, err)
	require.Empty(t, attendees)
}

func TestJoinEvent_StoreFailure(t *testing.T) {
	h := NewEventsHandler(events.NewService(failingEvents{err: errStore}), nil)
	id := "01HZX3Y8Q4T6B2N5M7K9P1R3S5"

	req := httptest.NewRequest(http.MethodPost, "/api/events/"+id+"/join", strings.NewReader(`{"name":"Asha","mobileNumber":"9876543210"}`))
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.Join(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Failed to join event. Please try again.", decodeError(t, rec))
}

func TestJoinEvent_ConcurrentSameMobile(t *testing.T) {
	h, repo, _ := newEventsHandler(t)
	event := seedEvent(t, repo, "Hack Night", "")

	const n = 12
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Asha","mobileNumber":"9876543210"}`))
			req.SetPathValue("id", event.ID)
			rec := httptest.NewRecorder()
			h.Join(rec, req)
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, code := range codes {
		if code == http.StatusOK {
			ok++
		} else {
			require.Equal(t, http.StatusBadRequest, code)
		}
	}
	require.Equal(t, 1, ok)
}

func TestAttendees(t *testing.T) {
	h, repo, _ := newEventsHandler(t)
	event := seedEvent(t, repo, "Hack Night", "")
	require.NoError(t, repo.AppendAttendee(context.Background(), event.ID, events.Attendee{
		Name: "Asha", MobileNumber: "9876543210", JoinedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/events/"+event.ID+"/attendees", nil)
	req.SetPathValue("id", event.ID)
	rec := httptest.NewRecorder()
	h.Attendees(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[{"name":"Asha","mobileNumber":"9876543210","joinedAt":"2025-03-01T09:00:00Z"}]`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/events/missing/attendees", nil)
	req.SetPathValue("id", "missing")
	rec = httptest.NewRecorder()
	h.Attendees(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAttendees_StoreFailure(t *testing.T) {
	h := NewEventsHandler(events.NewService(failingEvents{err: errStore}), nil)
	id := "01HZX3Y8Q4T6B2N5M7K9P1R3S5"

	req := httptest.NewRequest(http.MethodGet, "/api/events/"+id+"/attendees", nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.Attendees(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFixLinks(t *testing.T) {
	h, repo, auditLog := newEventsHandler(t)
	bad := seedEvent(t, repo, "A", "https://forms.gle/abc Registration")
	seedEvent(t, repo, "B", "https://forms.gle/ok")

	rec := httptest.NewRecorder()
	h.FixLinks(rec, httptest.NewRequest(http.MethodPost, "/api/events/fix-links", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message":"Successfully fixed registration links","fixedCount":1}`, rec.Body.String())

	stored, err := repo.GetByID(context.Background(), bad.ID)
	require.NoError(t, err)
	require.Equal(t, "https://forms.gle/abc", stored.RegistrationLink)

	rec = httptest.NewRecorder()
	h.FixLinks(rec, httptest.NewRequest(http.MethodPost, "/api/events/fix-links", nil))
	require.JSONEq(t, `{"message":"Successfully fixed registration links","fixedCount":0}`, rec.Body.String())

	require.Len(t, auditLog.entries, 2)
	require.Equal(t, "anonymous", auditLog.entries[0].actor)
}

func TestFixLinks_StoreFailure(t *testing.T) {
	auditLog := &fakeAudit{}
	h := NewEventsHandler(events.NewService(failingEvents{err: errStore}), auditLog)

	rec := httptest.NewRecorder()
	h.FixLinks(rec, httptest.NewRequest(http.MethodPost, "/api/events/fix-links", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Error fixing registration links", decodeError(t, rec))
	require.Equal(t, "failure", auditLog.entries[0].status)
}
