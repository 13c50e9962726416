package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/felixge/httpsnoop"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/haguru/choji/internal/interfaces"
	"github.com/haguru/choji/internal/models/dto"
)

const (
	ErrInternalServerError = "internal server error"
	MsgPanicRecovered      = "Recovered from panic"
	MsgRequestServed       = "Request served"

	HTTPRequestsInFlight      = "http_requests_in_flight"
	HTTPResponseBytesTotal    = "http_response_bytes_total"
	HTTPServeDurationSeconds  = "http_serve_duration_seconds"
	helpHTTPRequestsInFlight  = "Requests currently being served."
	helpHTTPResponseBytes     = "Bytes written in response bodies."
	helpHTTPServeDurationSecs = "Time spent serving requests, including middleware."
)

// RegisterMetrics registers the metrics recorded by Instrument.
func RegisterMetrics(metrics interfaces.Metrics) {
	metrics.RegisterGauge(HTTPRequestsInFlight, helpHTTPRequestsInFlight)
	metrics.RegisterCounter(HTTPResponseBytesTotal, helpHTTPResponseBytes)
	metrics.RegisterHistogram(HTTPServeDurationSeconds, helpHTTPServeDurationSecs, prometheus.DefBuckets)
}

// Instrument tracks in-flight requests, response size and serve time.
func Instrument(metrics interfaces.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			metrics.IncGauge(HTTPRequestsInFlight)
			defer metrics.DecGauge(HTTPRequestsInFlight)

			m := httpsnoop.CaptureMetrics(next, w, r)
			metrics.AddCounter(HTTPResponseBytesTotal, float64(m.Written))
			metrics.ObserveHistogram(HTTPServeDurationSeconds, m.Duration.Seconds())
		})
	}
}

// Recover turns a panic in next into a 500 with the standard error body.
func Recover(logger interfaces.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error(MsgPanicRecovered, "method", r.Method, "path", r.URL.Path,
					"panic", rec, "stack", string(debug.Stack()))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(dto.ErrorResponseDTO{Error: ErrInternalServerError})
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs method, path, status and duration of every request.
func RequestLogger(logger interfaces.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)
			logger.WithFields(map[string]interface{}{
				"method": r.Method,
				"path":   r.URL.Path,
			}).Info(MsgRequestServed,
				"status", m.Code,
				"bytes", m.Written,
				"duration", m.Duration.String())
		})
	}
}
