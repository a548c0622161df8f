package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewClientMetrics(reg)

	m.Observe(http.MethodGet, http.StatusOK, 10*time.Millisecond)
	m.Observe(http.MethodGet, http.StatusOK, 20*time.Millisecond)
	m.Observe(http.MethodPost, 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodPost, StatusTransport)))
}

func TestClientMetricsShareRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewClientMetrics(reg)
	second := NewClientMetrics(reg)

	first.Observe(http.MethodGet, http.StatusOK, time.Millisecond)
	second.Observe(http.MethodGet, http.StatusOK, time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(first.requests.WithLabelValues(http.MethodGet, "200")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `aqve_client_requests_total{method="GET",status="200"} 2`)
}

func TestNilClientMetrics(t *testing.T) {
	var m *ClientMetrics
	assert.NotPanics(t, func() { m.Observe(http.MethodGet, 200, time.Second) })
}

func TestServerMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg)

	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/api/parking/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)
	r.Handle("/metrics", m.Handler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/parking/p"+string(rune('1'+i)), nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/parking/{id}", http.MethodGet, "404")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), "aqve_devserver_requests_total"))
}
