package logging

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware creates an HTTP middleware that assigns a request id, seeds
// the request context, and logs one line per completed request.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return MiddlewareFunc(logger, next.ServeHTTP)
	}
}

// MiddlewareFunc wraps a single handler function.
func MiddlewareFunc(logger *Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		endpoint := r.Method + " " + r.URL.Path
		namespace := r.PathValue("namespace")
		metrics := &RequestMetrics{}

		ctx := r.Context()
		ctx = ContextWithRequestID(ctx, requestID)
		ctx = ContextWithRequestTime(ctx, start)
		ctx = ContextWithEndpoint(ctx, endpoint)
		ctx = ContextWithRequestMetrics(ctx, metrics)
		if namespace != "" {
			ctx = ContextWithNamespace(ctx, namespace)
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		w.Header().Set(RequestIDHeader, requestID)

		next(rw, r.WithContext(ctx))

		if metrics.Namespace != "" {
			namespace = metrics.Namespace
		}
		info := &RequestInfo{
			RequestID: requestID,
			Namespace: namespace,
			Endpoint:  endpoint,
			Transport: metrics.Transport,
			Op:        metrics.Op,
			BatchSize: metrics.BatchSize,
			ParseMs:   metrics.ParseMs,
		}

		l := logger.WithRequestInfo(info)
		log := l.Info
		if rw.statusCode >= http.StatusInternalServerError {
			log = l.Error
		}
		log("request completed",
			"status", rw.statusCode,
			"method", r.Method,
			"path", r.URL.Path,
			"server_total_ms", msSince(start),
		)
	}
}
