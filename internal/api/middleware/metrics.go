package middleware

import (
	"net/http"

	"github.com/DemocracyDevelopers/irvcheck/internal/metrics"
)

// Metrics counts every request by method and status code.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)
		metrics.ObserveHTTPRequest(r.Method, rw.statusCode)
	})
}
