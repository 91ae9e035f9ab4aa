// Package middleware contains HTTP middleware for the ticketing gateway.
//
// RequestLogger provides structured logging for all API requests,
// including method, path, status code, and latency. Metrics exports the
// same signals to Prometheus. Session extracts the caller's identity
// and bearer token for forwarding to the rail operator.
package middleware

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/trackeasy/railtick/internal/upstream"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs every HTTP request with method, path, status, and latency.
//
// Example output:
//
//	[http] POST /api/v1/orders → 201 (12.4ms)
//	[http] GET /api/v1/tickets → 200 (3.1ms)
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		latency := time.Since(start)
		log.Printf("[http] %s %s → %d (%s)",
			r.Method, r.URL.Path, rw.statusCode, latency.Round(100*time.Microsecond))
	})
}

// Recoverer catches panics in handlers and returns a 500 response
// instead of crashing the entire gateway.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[http] PANIC: %s %s → %v", r.Method, r.URL.Path, err)
				http.Error(w, `{"error":"internal_server_error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// CORS adds headers so browser-based clients can call the API.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, X-User-Id, X-User-Email")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ─── Metrics ────────────────────────────────────────────────

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "railtick_http_requests_total",
		Help: "HTTP requests served, by method and status code.",
	}, []string{"method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "railtick_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)

// Metrics records per-request counters and latency histograms.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		requestsTotal.WithLabelValues(r.Method, strconv.Itoa(rw.statusCode)).Inc()
		requestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

// ─── Session ────────────────────────────────────────────────

type ctxKey int

const (
	userIDKey ctxKey = iota
	userEmailKey
)

// Session extracts the caller identity from the X-User-Id and
// X-User-Email headers and forwards any bearer token to the upstream
// client. Identity verification happens at the edge in front of this
// gateway; here the headers are trusted.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if id := r.Header.Get("X-User-Id"); id != "" {
			ctx = context.WithValue(ctx, userIDKey, id)
		}
		if email := r.Header.Get("X-User-Email"); email != "" {
			ctx = context.WithValue(ctx, userEmailKey, email)
		}
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			ctx = upstream.WithAuthToken(ctx, strings.TrimPrefix(auth, "Bearer "))
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the caller's user id, or "" when the request carried
// none.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// UserEmail returns the caller's email, or "".
func UserEmail(ctx context.Context) string {
	email, _ := ctx.Value(userEmailKey).(string)
	return email
}
