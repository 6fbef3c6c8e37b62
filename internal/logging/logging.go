// Package logging provides structured logging for vexdb.
//
// Loggers wrap log/slog and carry request-scoped fields (request id,
// namespace, transport, op) pulled from a context or a RequestInfo.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger wraps slog.Logger with additional context fields.
type Logger struct {
	*slog.Logger
}

type contextKey string

const (
	requestIDKey      contextKey = "request_id"
	namespaceKey      contextKey = "namespace"
	endpointKey       contextKey = "endpoint"
	requestTimeKey    contextKey = "request_time"
	requestMetricsKey contextKey = "request_metrics"
)

// Format selects the handler used for output.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Options configures a Logger built by NewWithOptions.
type Options struct {
	Level  slog.Level
	Format Format
}

// RequestInfo contains contextual information about a request.
type RequestInfo struct {
	RequestID     string
	Namespace     string
	Endpoint      string
	Transport     string
	Op            string
	BatchSize     int
	ServerTotalMs float64
	ParseMs       float64
	RequestTime   time.Time
}

// RequestMetrics holds mutable per-request measurements filled in by
// handlers and read back by the middleware once the request completes.
type RequestMetrics struct {
	Namespace string
	Transport string
	Op        string
	BatchSize int
	ParseMs   float64
}

// New creates a new Logger with JSON output on stdout.
func New() *Logger {
	return NewWithWriter(os.Stdout)
}

// NewWithWriter creates a new Logger with JSON output to the provided writer.
func NewWithWriter(w io.Writer) *Logger {
	return NewWithOptions(w, Options{Level: slog.LevelInfo, Format: FormatJSON})
}

// NewWithOptions creates a Logger with the given level and format.
func NewWithOptions(w io.Writer, opts Options) *Logger {
	hopts := &slog.HandlerOptions{Level: opts.Level}
	var handler slog.Handler
	if opts.Format == FormatText {
		handler = slog.NewTextHandler(w, hopts)
	} else {
		handler = slog.NewJSONHandler(w, hopts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return NewWithWriter(io.Discard)
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// ParseFormat validates a format name. Empty means json.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatText:
		return FormatText, nil
	}
	return FormatJSON, fmt.Errorf("unknown log format %q", s)
}

// WithContext returns a logger with context values attached.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	logger := l.Logger

	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		logger = logger.With(slog.String("request_id", requestID))
	}
	if namespace, ok := ctx.Value(namespaceKey).(string); ok && namespace != "" {
		logger = logger.With(slog.String("namespace", namespace))
	}
	if endpoint, ok := ctx.Value(endpointKey).(string); ok && endpoint != "" {
		logger = logger.With(slog.String("endpoint", endpoint))
	}

	return &Logger{Logger: logger}
}

// WithRequestInfo returns a logger with request information attached.
// Zero-valued fields are omitted.
func (l *Logger) WithRequestInfo(info *RequestInfo) *Logger {
	var attrs []any
	if info.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", info.RequestID))
	}
	if info.Namespace != "" {
		attrs = append(attrs, slog.String("namespace", info.Namespace))
	}
	if info.Endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", info.Endpoint))
	}
	if info.Transport != "" {
		attrs = append(attrs, slog.String("transport", info.Transport))
	}
	if info.Op != "" {
		attrs = append(attrs, slog.String("op", info.Op))
	}
	if info.BatchSize > 0 {
		attrs = append(attrs, slog.Int("batch_size", info.BatchSize))
	}
	if info.ServerTotalMs > 0 {
		attrs = append(attrs, slog.Float64("server_total_ms", info.ServerTotalMs))
	}
	if info.ParseMs > 0 {
		attrs = append(attrs, slog.Float64("parse_ms", info.ParseMs))
	}
	if len(attrs) == 0 {
		return l
	}
	return &Logger{Logger: l.Logger.With(attrs...)}
}

// With returns a new logger with additional attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// ContextWithRequestID adds a request ID to the context.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// ContextWithNamespace adds a namespace to the context.
func ContextWithNamespace(ctx context.Context, namespace string) context.Context {
	return context.WithValue(ctx, namespaceKey, namespace)
}

// ContextWithEndpoint adds an endpoint to the context.
func ContextWithEndpoint(ctx context.Context, endpoint string) context.Context {
	return context.WithValue(ctx, endpointKey, endpoint)
}

// ContextWithRequestTime adds a request start time to the context.
func ContextWithRequestTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}

// ContextWithRequestMetrics adds mutable request metrics to the context.
func ContextWithRequestMetrics(ctx context.Context, metrics *RequestMetrics) context.Context {
	return context.WithValue(ctx, requestMetricsKey, metrics)
}

// RequestIDFromContext extracts the request ID from the context.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// NamespaceFromContext extracts the namespace from the context.
func NamespaceFromContext(ctx context.Context) string {
	ns, _ := ctx.Value(namespaceKey).(string)
	return ns
}

// EndpointFromContext extracts the endpoint from the context.
func EndpointFromContext(ctx context.Context) string {
	ep, _ := ctx.Value(endpointKey).(string)
	return ep
}

// RequestTimeFromContext extracts the request start time from the context.
func RequestTimeFromContext(ctx context.Context) time.Time {
	t, _ := ctx.Value(requestTimeKey).(time.Time)
	return t
}

// RequestMetricsFromContext extracts request metrics from the context.
func RequestMetricsFromContext(ctx context.Context) *RequestMetrics {
	m, _ := ctx.Value(requestMetricsKey).(*RequestMetrics)
	return m
}

// ElapsedMs returns the milliseconds elapsed since the request time.
func ElapsedMs(ctx context.Context) float64 {
	start := RequestTimeFromContext(ctx)
	if start.IsZero() {
		return 0
	}
	return msSince(start)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
