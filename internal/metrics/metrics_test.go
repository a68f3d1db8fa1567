package metrics_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"licitaciones/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := metrics.New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/tenders/{identifier}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"T-001", "T-002"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tenders/"+id, nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	}

	got := testutil.ToFloat64(m.HttpRequests.WithLabelValues("GET", "/api/tenders/{identifier}", "404"))
	require.Equal(t, 2.0, got)
}

func TestImportRecordAndHandler(t *testing.T) {
	m := metrics.New()
	m.ImportRecord("product", "created")
	m.ImportRecord("product", "created")
	m.ImportRecord("order", "skipped")

	require.Equal(t, 2.0, testutil.ToFloat64(m.ImportRecords.WithLabelValues("product", "created")))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(w.Result().Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "licitaciones_import_records_total")

	var nilMetrics *metrics.Metrics
	nilMetrics.ImportRecord("order", "created")
}

func TestPushSendsImportCounters(t *testing.T) {
	var method, path, body string
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer gw.Close()

	m := metrics.New()
	m.ImportRecord("order", "created")

	require.NoError(t, m.Push(context.Background(), gw.URL, "licitaciones_import"))
	require.Equal(t, http.MethodPut, method)
	require.Equal(t, "/metrics/job/licitaciones_import", path)
	require.NotEmpty(t, body)
}

func TestPushReportsGatewayErrors(t *testing.T) {
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer gw.Close()

	m := metrics.New()
	m.ImportRecord("order", "created")
	require.Error(t, m.Push(context.Background(), gw.URL, "licitaciones_import"))
}
