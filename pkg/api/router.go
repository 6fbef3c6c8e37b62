// Package api exposes the write parser and the collection validator over
// HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vexsearch/vexdb/internal/config"
	"github.com/vexsearch/vexdb/internal/guardrails"
	"github.com/vexsearch/vexdb/internal/logging"
	"github.com/vexsearch/vexdb/internal/metrics"
	"github.com/vexsearch/vexdb/internal/validation"
	"github.com/vexsearch/vexdb/internal/write"
)

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		return gzip.NewWriter(nil)
	},
}

type gzipResponseWriter struct {
	http.ResponseWriter
	gz *gzip.Writer
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	return w.gz.Write(b)
}

// Router serves the HTTP API.
type Router struct {
	cfg        *config.Config
	mux        *http.ServeMux
	handler    http.Handler
	logger     *logging.Logger
	parser     *write.Parser
	validators *validation.Cache
	admission  *guardrails.Admission
}

// NewRouter creates a Router logging JSON to stdout.
func NewRouter(cfg *config.Config) *Router {
	return NewRouterWithLogger(cfg, nil)
}

// NewRouterWithLogger creates a Router with all routes registered.
func NewRouterWithLogger(cfg *config.Config, logger *logging.Logger) *Router {
	if logger == nil {
		logger = logging.New()
	}
	limits := guardrails.FromConfig(cfg.Write)
	r := &Router{
		cfg:    cfg,
		mux:    http.NewServeMux(),
		logger: logger,
		parser: write.NewParser(limits),
		validators: validation.NewCache(validation.DefaultCacheSize, validation.Options{
			Workers: cfg.Validation.GetWorkers(),
			Logger:  logger,
		}),
		admission: guardrails.NewAdmission(limits.MaxConcurrentRequests),
	}

	r.mux.HandleFunc("GET /health", r.handleHealth)
	if cfg.Metrics.Enabled {
		r.mux.Handle("GET "+cfg.Metrics.GetPath(), promhttp.Handler())
	}
	r.mux.HandleFunc("POST /v1/commands", r.route("commands", r.handleCommand))
	r.mux.HandleFunc("POST /v1/wire", r.route("wire", r.handleWire))
	r.mux.HandleFunc("POST /v1/namespaces/{namespace}/validate", r.route("validate", r.handleValidate))

	r.handler = logging.Middleware(logger)(http.HandlerFunc(r.serve))
	return r
}

// route applies auth, admission, the request timeout and request metrics.
func (r *Router) route(name string, next http.HandlerFunc) http.HandlerFunc {
	return r.authMiddleware(r.admit(r.timeoutMiddleware(r.instrument(name, next))))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// Parser returns the write parser used by the router.
func (r *Router) Parser() *write.Parser { return r.parser }

func (r *Router) serve(w http.ResponseWriter, req *http.Request) {
	if req.ContentLength > MaxRequestBodySize {
		r.writeAPIError(w, ErrPayloadTooLarge("request body exceeds 64MB limit"))
		return
	}
	req.Body = http.MaxBytesReader(w, req.Body, MaxRequestBodySize)

	body, err := decompressBody(req)
	if err != nil {
		r.writeAPIError(w, FromError(err))
		return
	}
	req.Body = body
	defer body.Close()

	if strings.Contains(req.Header.Get("Accept-Encoding"), "gzip") {
		gz := gzipWriterPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer func() {
			gz.Close()
			gzipWriterPool.Put(gz)
		}()

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
		r.mux.ServeHTTP(&gzipResponseWriter{ResponseWriter: w, gz: gz}, req)
		return
	}

	r.mux.ServeHTTP(w, req)
}

// decompressBody unwraps gzip or zstd request bodies.
func decompressBody(req *http.Request) (io.ReadCloser, error) {
	switch enc := strings.ToLower(req.Header.Get("Content-Encoding")); enc {
	case "", "identity":
		return req.Body, nil
	case "gzip":
		gz, err := gzip.NewReader(req.Body)
		if err != nil {
			return nil, ErrBadRequestf("invalid gzip body: %v", err)
		}
		return gz, nil
	case "zstd":
		dec, err := zstd.NewReader(req.Body)
		if err != nil {
			return nil, ErrBadRequestf("invalid zstd body: %v", err)
		}
		return dec.IOReadCloser(), nil
	default:
		return nil, ErrUnsupportedEncoding(enc)
	}
}

func (r *Router) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if r.cfg.AuthToken == "" {
			next(w, req)
			return
		}

		auth := req.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			r.writeAPIError(w, ErrUnauthorized("missing or invalid Authorization header"))
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token != r.cfg.AuthToken {
			r.writeAPIError(w, ErrUnauthorized("invalid token"))
			return
		}

		next(w, req)
	}
}

// admit rejects the request when every request slot is taken.
func (r *Router) admit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if !r.admission.TryAcquire() {
			r.writeAPIError(w, ErrTooManyRequests())
			return
		}
		defer r.admission.Release()
		next(w, req)
	}
}

func (r *Router) timeoutMiddleware(next http.HandlerFunc) http.HandlerFunc {
	timeout := time.Duration(r.cfg.Timeout.GetRequestTimeout()) * time.Millisecond
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), timeout)
		defer cancel()
		next(w, req.WithContext(ctx))
	}
}

// statusRecorder remembers whether the handler replied with an error.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (r *Router) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		metrics.IncRequestConcurrency(route)
		defer metrics.DecRequestConcurrency(route)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, req)

		var err error
		if rec.status >= http.StatusBadRequest {
			err = errors.New(http.StatusText(rec.status))
		}
		metrics.ObserveRequest(route, time.Since(start).Seconds(), err)
	}
}

func (r *Router) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (r *Router) writeAPIError(w http.ResponseWriter, err *APIError) {
	r.writeJSON(w, err.StatusCode, err.body())
}
