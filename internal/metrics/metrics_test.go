package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.RecordSearch(StatusSuccess, 10*time.Millisecond)
	m.RecordSearch(StatusSuccess, 20*time.Millisecond)
	m.RecordSearch(StatusError, time.Millisecond)
	m.RecordLLM(StatusFallback, time.Second)
	m.RecordIngestFile(StatusError)
	m.AddChunksIndexed(7)
	m.RecordSessionCleared()
	m.SetActiveSessions(3)

	if got := testutil.ToFloat64(m.SearchRequestsTotal.WithLabelValues(StatusSuccess)); got != 2 {
		t.Errorf("expected 2 successful searches, got %v", got)
	}
	if got := testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues(StatusFallback)); got != 1 {
		t.Errorf("expected 1 fallback, got %v", got)
	}
	if got := testutil.ToFloat64(m.ChunksIndexedTotal); got != 7 {
		t.Errorf("expected 7 chunks, got %v", got)
	}
	if got := testutil.ToFloat64(m.ActiveSessions); got != 3 {
		t.Errorf("expected 3 sessions, got %v", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordSearch(StatusSuccess, time.Millisecond)
	m.RecordLLM(StatusSuccess, time.Millisecond)
	m.RecordIngestFile(StatusSuccess)
	m.AddChunksIndexed(1)
	m.RecordSessionCleared()
	m.SetActiveSessions(1)
	m.RecordHTTPRequest("GET", "/health", "200", time.Millisecond)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordHTTPRequest("POST", "/api/kb/search", "200", 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `support_http_requests_total{method="POST",route="/api/kb/search",status="200"} 1`) {
		t.Errorf("metric not exposed:\n%s", body)
	}
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a, b := New(), New()
	a.AddChunksIndexed(1)
	if testutil.ToFloat64(b.ChunksIndexedTotal) != 0 {
		t.Error("registries should be independent")
	}
}
