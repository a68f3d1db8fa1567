package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics метрики HTTP и импорта, зарегистрированные в своём реестре
type Metrics struct {
	registry *prometheus.Registry

	HttpRequests  *prometheus.CounterVec
	HttpDuration  *prometheus.HistogramVec
	ImportRecords *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HttpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "licitaciones",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HttpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "licitaciones",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		ImportRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "licitaciones",
				Subsystem: "import",
				Name:      "records_total",
				Help:      "Imported records by entity and outcome",
			},
			[]string{"entity", "outcome"},
		),
	}
	m.registry.MustRegister(m.HttpRequests, m.HttpDuration, m.ImportRecords)
	return m
}

// Handler отдаёт метрики в формате Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware считает запросы по шаблону маршрута chi, а не по сырому пути
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := prometheus.Labels{
			"method": r.Method,
			"route":  route,
			"status": strconv.Itoa(status),
		}
		m.HttpRequests.With(labels).Inc()
		m.HttpDuration.With(labels).Observe(time.Since(start).Seconds())
	})
}

// ImportRecord учитывает одну запись импорта
func (m *Metrics) ImportRecord(entity, outcome string) {
	if m == nil {
		return
	}
	m.ImportRecords.WithLabelValues(entity, outcome).Inc()
}

// Push отправляет метрики реестра в Pushgateway под именем job.
// Нужен разовым командам вроде import, которые завершаются раньше, чем их успеют опросить.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	return push.New(url, job).Gatherer(m.registry).PushContext(ctx)
}
