package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordTranscription(t *testing.T) {
	m := New()
	m.RecordTranscription(ResultOK, 3*time.Second)
	m.RecordTranscription(ResultOK, time.Second)
	m.RecordTranscription(ResultInvalid, 0)

	if got := testutil.ToFloat64(m.Transcriptions.WithLabelValues(ResultOK)); got != 2 {
		t.Errorf("ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Transcriptions.WithLabelValues(ResultInvalid)); got != 1 {
		t.Errorf("invalid = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.AudioDuration); n != 1 {
		t.Errorf("audio histogram series = %d", n)
	}
}

func TestIndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveStage("mel", time.Millisecond)
	if n := testutil.CollectAndCount(b.StageDuration); n != 0 {
		t.Fatalf("second registry sees %d series", n)
	}
	if n := testutil.CollectAndCount(a.StageDuration); n != 1 {
		t.Fatalf("first registry has %d series", n)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordHTTPRequest("POST", "/", 200, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`whisperedge_http_requests_total{endpoint="/",method="POST",status_code="200"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
