package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumentUsesRouteLabel(t *testing.T) {
	handler := Instrument("/api/events/{id}/attendees", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Event not found"}`))
	}))

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/events/{id}/attendees", "404"))

	req := httptest.NewRequest(http.MethodGet, "/api/events/01HQZX3Y4K6F7G8H9J0K1M2N3P/attendees", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/events/{id}/attendees", "404"))
	if after != before+1 {
		t.Fatalf("expected request counted under route label, got %v -> %v", before, after)
	}
}

func TestInstrumentDefaultsStatusToOK(t *testing.T) {
	handler := Instrument("/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/healthz", "200"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/healthz", "200"))

	if after != before+1 {
		t.Fatalf("expected 200 to be recorded, got %v -> %v", before, after)
	}
}

func TestRecordQueryClassifiesErrors(t *testing.T) {
	before := testutil.ToFloat64(DBErrors.WithLabelValues("test_op", "timeout"))

	RecordQuery("test_op", time.Now(), nil)
	RecordQuery("test_op", time.Now(), errors.Join(errors.New("scan"), context.DeadlineExceeded))

	if got := testutil.ToFloat64(DBErrors.WithLabelValues("test_op", "timeout")); got != before+1 {
		t.Fatalf("expected one timeout error, got %v", got-before)
	}
	if testutil.CollectAndCount(DBQueryDuration) == 0 {
		t.Fatal("expected query duration to be observed")
	}
}

func TestDBCollectorStopsOnContext(t *testing.T) {
	collector := NewDBCollector(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		collector.Start(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}
