// Package metrics exposes Prometheus metrics for verification runs and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "irvcheck_verifications_total",
		Help: "Verification runs by verdict (proved, disproved, error)",
	}, []string{"verdict"})

	verificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "irvcheck_verification_duration_seconds",
		Help:    "Time spent searching elimination orders",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10, 60},
	})

	searchNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "irvcheck_search_nodes",
		Help:    "Elimination states expanded per verification",
		Buckets: prometheus.ExponentialBuckets(1, 4, 12),
	})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "irvcheck_http_requests_total",
		Help: "HTTP requests by method and status code",
	}, []string{"method", "status"})
)

// ObserveVerification records one completed search.
func ObserveVerification(verdict string, elapsed time.Duration, explored int64) {
	verificationsTotal.WithLabelValues(verdict).Inc()
	verificationDuration.Observe(elapsed.Seconds())
	searchNodes.Observe(float64(explored))
}

// VerificationFailed records a run that ended in an error instead of a verdict.
func VerificationFailed() {
	verificationsTotal.WithLabelValues("error").Inc()
}

func ObserveHTTPRequest(method string, status int) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
