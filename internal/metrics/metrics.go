// Package metrics provides Prometheus metrics for the vexdb write front end.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vexdb"

var (
	// RequestConcurrency tracks in-flight requests per route.
	RequestConcurrency = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "request_concurrency",
			Help:      "Number of concurrent requests per route",
		},
		[]string{"route"},
	)

	// RequestsTotal tracks HTTP requests by route and status class.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total HTTP requests",
		},
		[]string{"route", "status"}, // status: success/error
	)

	// RequestLatency tracks HTTP request latency.
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_latency_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// WriteBatchesParsed tracks parsed write batches.
	WriteBatchesParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_batches_parsed_total",
			Help:      "Total write batches parsed",
		},
		[]string{"transport", "op", "status"}, // transport: op_msg/legacy, status: ok/error
	)

	// WriteBatchSize tracks the number of entries per accepted batch.
	WriteBatchSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "write_batch_size",
			Help:      "Entries per accepted write batch",
			Buckets:   []float64{1, 2, 5, 10, 50, 100, 250, 500, 1000},
		},
		[]string{"op"},
	)

	// ParseErrors tracks rejected requests by error code name.
	ParseErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Total rejected write requests",
		},
		[]string{"transport", "code"},
	)

	// WireMessagesDecoded tracks decoded wire messages.
	WireMessagesDecoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wire_messages_decoded_total",
			Help:      "Total wire messages decoded",
		},
		[]string{"opcode", "compressor"},
	)

	// MatchExpressionsCompiled tracks match expression parses.
	MatchExpressionsCompiled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_expressions_compiled_total",
			Help:      "Total match expressions compiled",
		},
		[]string{"status"}, // success/error
	)

	// DocumentsValidated tracks per-document validation outcomes.
	DocumentsValidated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_validated_total",
			Help:      "Total documents checked against a validator",
		},
		[]string{"result"}, // passed/failed/bypassed
	)

	// ValidationLatency tracks the latency of validating one batch.
	ValidationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_latency_seconds",
			Help:      "Batch validation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// ValidatorCacheHits tracks compiled validator cache hits.
	ValidatorCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validator_cache_hits_total",
			Help:      "Total compiled validator cache hits",
		},
	)

	// ValidatorCacheMisses tracks compiled validator cache misses.
	ValidatorCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validator_cache_misses_total",
			Help:      "Total compiled validator cache misses",
		},
	)
)

// IncRequestConcurrency increments the concurrency gauge for a route.
func IncRequestConcurrency(route string) {
	RequestConcurrency.WithLabelValues(route).Inc()
}

// DecRequestConcurrency decrements the concurrency gauge for a route.
func DecRequestConcurrency(route string) {
	RequestConcurrency.WithLabelValues(route).Dec()
}

// ObserveRequest records a served HTTP request.
func ObserveRequest(route string, latencySeconds float64, err error) {
	RequestsTotal.WithLabelValues(route, statusLabel(err)).Inc()
	RequestLatency.WithLabelValues(route).Observe(latencySeconds)
}

// IncWriteBatch counts one parse attempt.
func IncWriteBatch(transport, op, status string) {
	WriteBatchesParsed.WithLabelValues(transport, op, status).Inc()
}

// ObserveBatchSize records the entry count of an accepted batch.
func ObserveBatchSize(op string, n int) {
	WriteBatchSize.WithLabelValues(op).Observe(float64(n))
}

// RecordParseError counts a rejected request by its error code name.
func RecordParseError(transport, code string) {
	ParseErrors.WithLabelValues(transport, code).Inc()
}

// IncWireMessage counts a decoded wire message.
func IncWireMessage(opcode, compressor string) {
	WireMessagesDecoded.WithLabelValues(opcode, compressor).Inc()
}

// ObserveMatchCompile records a match expression parse.
func ObserveMatchCompile(err error) {
	MatchExpressionsCompiled.WithLabelValues(statusLabel(err)).Inc()
}

// AddDocumentsValidated adds n documents with the given result.
func AddDocumentsValidated(result string, n int) {
	if n > 0 {
		DocumentsValidated.WithLabelValues(result).Add(float64(n))
	}
}

// ObserveValidation records the latency of one batch validation.
func ObserveValidation(latencySeconds float64) {
	ValidationLatency.Observe(latencySeconds)
}

// IncValidatorCacheHit increments the validator cache hit counter.
func IncValidatorCacheHit() {
	ValidatorCacheHits.Inc()
}

// IncValidatorCacheMiss increments the validator cache miss counter.
func IncValidatorCacheMiss() {
	ValidatorCacheMisses.Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
