package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
)

// AI request outcomes used as metric labels.
const (
	AIOutcomeSuccess     = "success"
	AIOutcomeCacheHit    = "cache_hit"
	AIOutcomeError       = "error"
	AIOutcomeTimeout     = "timeout"
	AIOutcomeRateLimited = "rate_limited"
	AIOutcomeDisabled    = "disabled"
)

// MetricsService encapsulates Prometheus instrumentation. Every method is safe on a nil receiver.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec

	assessments      *prometheus.CounterVec
	alertsCreated    *prometheus.CounterVec
	alertsSuppressed *prometheus.CounterVec
	aiRequests       *prometheus.CounterVec
	batchDuration    prometheus.Histogram
	batchFailures    prometheus.Counter
	remediations     prometheus.Counter
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache set operations",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database query groups",
			Buckets: prometheus.DefBuckets,
		}, []string{"query"}),
		assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "risk_assessments_total",
			Help: "Risk assessments recorded by level",
		}, []string{"level"}),
		alertsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alerts_created_total",
			Help: "Alerts created by type and severity",
		}, []string{"type", "severity"}),
		alertsSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alerts_suppressed_total",
			Help: "Alerts skipped because an unresolved alert of the same type exists",
		}, []string{"type"}),
		aiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Recommendation bridge calls by kind and outcome",
		}, []string{"kind", "outcome"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "risk_batch_duration_seconds",
			Help:    "Duration of full risk recalculation runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		batchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "risk_batch_failures_total",
			Help: "Students whose recalculation failed",
		}),
		remediations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "remediation_interventions_total",
			Help: "Interventions scheduled by bulk remediation",
		}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal, m.cacheLatency.(prometheus.Histogram), m.cacheWrite.(prometheus.Histogram),
		m.cacheHits, m.cacheMisses, m.dbQueryDuration, m.assessments, m.alertsCreated, m.alertsSuppressed,
		m.aiRequests, m.batchDuration, m.batchFailures, m.remediations, goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records the timing of a labelled query group.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordAssessment counts a persisted assessment.
func (m *MetricsService) RecordAssessment(level models.RiskLevel) {
	if m == nil {
		return
	}
	m.assessments.WithLabelValues(string(level)).Inc()
}

// RecordAlertCreated counts a new alert.
func (m *MetricsService) RecordAlertCreated(alertType models.AlertType, severity models.Severity) {
	if m == nil {
		return
	}
	m.alertsCreated.WithLabelValues(string(alertType), string(severity)).Inc()
}

// RecordAlertSuppressed counts an alert skipped by the dedup guard.
func (m *MetricsService) RecordAlertSuppressed(alertType models.AlertType) {
	if m == nil {
		return
	}
	m.alertsSuppressed.WithLabelValues(string(alertType)).Inc()
}

// RecordAIRequest counts a recommendation bridge call.
func (m *MetricsService) RecordAIRequest(kind, outcome string) {
	if m == nil {
		return
	}
	m.aiRequests.WithLabelValues(kind, outcome).Inc()
}

// ObserveBatch records a completed recalculation run.
func (m *MetricsService) ObserveBatch(duration time.Duration, failures int) {
	if m == nil {
		return
	}
	m.batchDuration.Observe(duration.Seconds())
	m.batchFailures.Add(float64(failures))
}

// RecordRemediation counts interventions scheduled by bulk remediation.
func (m *MetricsService) RecordRemediation(count int) {
	if m == nil {
		return
	}
	m.remediations.Add(float64(count))
}
