package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
	"github.com/soramitsu/iroha-explorer/internal/logging"
	"github.com/soramitsu/iroha-explorer/internal/metrics"
)

// statusRecorder captures the status code a handler writes, since
// http.ResponseWriter doesn't expose it after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestID assigns every request an X-Request-ID (generated with
// uuid when absent) and threads it through the request context as the
// trace id logging.WithContext reads.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Request-ID")
		if traceID == "" {
			traceID = logging.NewTraceID()
		}
		w.Header().Set("X-Request-ID", traceID)
		ctx := logging.WithTraceID(r.Context(), traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withAccessLog logs every completed request at the component's configured
// level via LogHTTPRequest.
func withAccessLog(log *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		if log != nil {
			log.LogHTTPRequest(r.Context(), r.Method, r.URL.Path, httputil.ClientIP(r), rec.status, time.Since(start))
		}
	})
}

// withMetrics records request counts and latency histograms per route.
func withMetrics(m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		m.RequestsInFlight.Inc()
		start := time.Now()
		next.ServeHTTP(rec, r)
		m.RequestsInFlight.Dec()
		m.RecordHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(rec.status), time.Since(start))
	})
}

// withRecover turns a handler panic into a 500 instead of tearing down the
// whole server, logging the recovered value for the operator.
func withRecover(log *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if log != nil {
					log.WithFields(map[string]interface{}{"panic": rec}).Error("httpapi: recovered from panic")
				}
				w.WriteHeader(http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
