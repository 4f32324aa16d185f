package observability

import (
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/deelicious-bakes-backend/internal/platform/envutil"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

// Metrics owns a private registry; the zero of *Metrics (nil) is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	ordersPlaced   prometheus.Counter
	orderRevenue   prometheus.Counter
	emailsSent     *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	maintenanceRun *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics when METRICS_ENABLED is set.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("Prometheus metrics enabled")
		}
	})
	return instance
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bakery_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bakery_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bakery_http_inflight_requests",
			Help: "In-flight HTTP requests.",
		}),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bakery_orders_placed_total",
			Help: "Orders created through checkout.",
		}),
		orderRevenue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bakery_order_value_cents_total",
			Help: "Sum of order totals at checkout, in cents.",
		}),
		emailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bakery_emails_sent_total",
			Help: "Email deliveries by template and outcome.",
		}, []string{"template", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bakery_cache_lookups_total",
			Help: "Cache lookups by cache name and result (hit|miss).",
		}, []string{"cache", "result"}),
		maintenanceRun: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bakery_maintenance_runs_total",
			Help: "Scheduled maintenance runs by job and status.",
		}, []string{"job", "status"}),
	}
	reg.MustRegister(
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.ordersPlaced, m.orderRevenue, m.emailsSent, m.cacheLookups, m.maintenanceRun,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RegisterDB exports database/sql pool stats for the given handle.
func (m *Metrics) RegisterDB(db *sql.DB, name string) error {
	if m == nil || db == nil {
		return nil
	}
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) IncOrderPlaced(totalCents int64) {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
	if totalCents > 0 {
		m.orderRevenue.Add(float64(totalCents))
	}
}

func (m *Metrics) IncEmailSent(template, status string) {
	if m == nil {
		return
	}
	m.emailsSent.WithLabelValues(template, status).Inc()
}

func (m *Metrics) IncCacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

func (m *Metrics) IncMaintenanceRun(job, status string) {
	if m == nil {
		return
	}
	m.maintenanceRun.WithLabelValues(job, status).Inc()
}
