package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fingerattend",
		Name:      "backend_request_duration_seconds",
		Help:      "Latency of calls to the attendance REST backend.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint", "outcome"})

	domainFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fingerattend",
		Name:      "dashboard_fetch_failures_total",
		Help:      "Dashboard data domains that finished loading with an error.",
	}, []string{"view", "domain"})

	mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fingerattend",
		Name:      "mutations_total",
		Help:      "Create/update/delete submissions by entity and outcome.",
	}, []string{"entity", "op", "outcome"})

	linkJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fingerattend",
		Name:      "fingerprint_link_jobs_total",
		Help:      "Fingerprint link jobs by final status.",
	}, []string{"status"})

	httpRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fingerattend",
		Name:      "http_request_duration_seconds",
		Help:      "Latency of requests served by the api.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)

// ObserveBackend records one backend call.
func ObserveBackend(endpoint string, err error, took time.Duration) {
	backendDuration.WithLabelValues(endpoint, outcome(err)).Observe(took.Seconds())
}

// DomainFailed counts a failed dashboard domain fetch.
func DomainFailed(view, domain string) {
	domainFailures.WithLabelValues(view, domain).Inc()
}

// Mutation counts a create/update/delete outcome.
func Mutation(entity, op string, err error) {
	mutations.WithLabelValues(entity, op, outcome(err)).Inc()
}

// LinkJob counts a finished fingerprint link job.
func LinkJob(status string) {
	linkJobs.WithLabelValues(status).Inc()
}

// ObserveHTTP records one served request.
func ObserveHTTP(route, method, status string, took time.Duration) {
	httpRequests.WithLabelValues(route, method, status).Observe(took.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
