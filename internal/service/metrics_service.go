package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sync notification outcomes.
const (
	SyncOutcomeApplied    = "applied"
	SyncOutcomeUnchanged  = "unchanged"
	SyncOutcomeIgnored    = "ignored"
	SyncOutcomeSuppressed = "suppressed"
)

// MetricsService encapsulates Prometheus instrumentation for the board.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	approvals       *prometheus.CounterVec
	syncEvents      *prometheus.CounterVec
	remoteFailures  *prometheus.CounterVec
	emailSends      *prometheus.CounterVec
	pendingGauge    *prometheus.GaugeVec
	classesGauge    prometheus.Gauge
}

// NewMetricsService registers the board collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "board_submissions_total",
		Help: "Change proposals submitted for approval",
	}, []string{"kind"})

	approvals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "board_approvals_total",
		Help: "Approval links resolved",
	}, []string{"kind", "action", "outcome"})

	syncEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "board_sync_notifications_total",
		Help: "Remote change notifications by outcome",
	}, []string{"outcome"})

	remoteFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "board_remote_failures_total",
		Help: "Failed remote document operations",
	}, []string{"op"})

	emailSends := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "board_email_sends_total",
		Help: "Outbound notification e-mails by type and result",
	}, []string{"type", "result"})

	pendingGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "board_pending_records",
		Help: "Records awaiting approval",
	}, []string{"kind"})

	classesGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "board_committed_classes",
		Help: "Classes in the committed collection",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, submissions, approvals, syncEvents, remoteFailures, emailSends, pendingGauge, classesGauge, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		submissions:     submissions,
		approvals:       approvals,
		syncEvents:      syncEvents,
		remoteFailures:  remoteFailures,
		emailSends:      emailSends,
		pendingGauge:    pendingGauge,
		classesGauge:    classesGauge,
	}
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

// Registry exposes the underlying registry.
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

// RecordSubmission counts a proposal of the given kind.
func (m *MetricsService) RecordSubmission(kind string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(kind).Inc()
}

// RecordApproval counts a resolved approval link.
func (m *MetricsService) RecordApproval(kind, action, outcome string) {
	if m == nil {
		return
	}
	m.approvals.WithLabelValues(kind, action, outcome).Inc()
}

// RecordSyncNotification counts a remote change notification by outcome.
func (m *MetricsService) RecordSyncNotification(outcome string) {
	if m == nil {
		return
	}
	m.syncEvents.WithLabelValues(outcome).Inc()
}

// RecordRemoteFailure counts a failed remote operation.
func (m *MetricsService) RecordRemoteFailure(op string) {
	if m == nil {
		return
	}
	m.remoteFailures.WithLabelValues(op).Inc()
}

// RecordEmail counts an outbound e-mail attempt.
func (m *MetricsService) RecordEmail(kind string, ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.emailSends.WithLabelValues(kind, result).Inc()
}

// SetCollectionSizes publishes the current collection sizes.
func (m *MetricsService) SetCollectionSizes(classes, additions, edits, deletions int) {
	if m == nil {
		return
	}
	m.classesGauge.Set(float64(classes))
	m.pendingGauge.WithLabelValues("addition").Set(float64(additions))
	m.pendingGauge.WithLabelValues("edit").Set(float64(edits))
	m.pendingGauge.WithLabelValues("deletion").Set(float64(deletions))
}
