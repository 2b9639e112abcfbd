package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder records client metrics into a Prometheus registry.
type PrometheusRecorder struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	authAttempts    *prometheus.CounterVec
	cartOperations  *prometheus.CounterVec
}

// NewPrometheusRecorder registers the collectors on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_client_requests_total",
		Help: "Requests sent to the storefront API",
	}, []string{"method", "route", "status"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_client_request_duration_seconds",
		Help:    "Round-trip latency of storefront API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	authAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_client_auth_attempts_total",
		Help: "Login and credential revalidation attempts",
	}, []string{"kind", "result"})

	cartOperations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_client_cart_operations_total",
		Help: "Cart container operations by outcome",
	}, []string{"operation", "result"})

	reg.MustRegister(requestsTotal, requestDuration, authAttempts, cartOperations)

	return &PrometheusRecorder{
		requestsTotal:   requestsTotal,
		requestDuration: requestDuration,
		authAttempts:    authAttempts,
		cartOperations:  cartOperations,
	}
}

// RecordRequest counts a request; status 0 means no response was received.
func (p *PrometheusRecorder) RecordRequest(method, route string, status int, elapsed time.Duration) {
	code := "network_error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	p.requestsTotal.WithLabelValues(method, route, code).Inc()
	p.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (p *PrometheusRecorder) RecordAuthAttempt(kind string, success bool) {
	p.authAttempts.WithLabelValues(kind, result(success)).Inc()
}

func (p *PrometheusRecorder) RecordCartOperation(operation string, success bool) {
	p.cartOperations.WithLabelValues(operation, result(success)).Inc()
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

var _ Recorder = (*PrometheusRecorder)(nil)
