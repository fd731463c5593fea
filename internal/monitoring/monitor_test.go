package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	hits, misses int64
	entries      int
}

func (f *fakeCache) Stats() (int64, int64) { return f.hits, f.misses }
func (f *fakeCache) Len() int              { return f.entries }

func TestMonitor_Snapshot(t *testing.T) {
	m := New(&fakeCache{hits: 3, misses: 1, entries: 12})

	m.RecordRequest(http.MethodGet, "/api/v1/characters", http.StatusOK, 5*time.Millisecond)
	m.RecordRequest(http.MethodGet, "/api/v1/characters", http.StatusOK, 5*time.Millisecond)
	m.RecordRequest(http.MethodPost, "/api/v1/auth/login", http.StatusInternalServerError, time.Millisecond)
	m.RecordError("validation", "/api/v1/auth/register")

	s := m.Snapshot()
	assert.Equal(t, int64(3), s.RequestCount)
	// One 5xx response plus one explicit error.
	assert.Equal(t, int64(2), s.ErrorCount)
	assert.InDelta(t, 2.0/3.0, s.ErrorRate, 0.001)
	assert.Equal(t, 12, s.CacheEntries)
	assert.InDelta(t, 0.75, s.CacheHitRate, 0.001)
	assert.GreaterOrEqual(t, s.UptimeSeconds, 0.0)
}

func TestMonitor_Snapshot_NoTraffic(t *testing.T) {
	m := New(nil)

	s := m.Snapshot()
	assert.Zero(t, s.RequestCount)
	assert.Zero(t, s.ErrorRate)
	assert.Zero(t, s.CacheHitRate)
}

func TestMonitor_Handler_ExposesCounters(t *testing.T) {
	m := New(nil)
	m.RecordRequest(http.MethodGet, "/health", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",path="/health",status="200"} 1`)
	assert.Contains(t, body, "http_request_duration_seconds_bucket")
}

func TestMonitor_Middleware_LabelsByRoutePattern(t *testing.T) {
	m := New(nil)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/characters/{characterID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/characters/42", nil))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/characters/43", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	metrics := httptest.NewRecorder()
	m.Handler().ServeHTTP(metrics, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := metrics.Body.String()

	// Both requests collapse onto the route pattern, not the raw paths.
	assert.Contains(t, body, `path="/characters/{characterID}"`)
	assert.False(t, strings.Contains(body, `path="/characters/42"`), "raw path must not appear as a label")

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.RequestCount)
}

func TestMonitor_Middleware_CountsServerErrors(t *testing.T) {
	m := New(nil)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	s := m.Snapshot()
	assert.Equal(t, int64(1), s.RequestCount)
	assert.Equal(t, int64(1), s.ErrorCount)
}
