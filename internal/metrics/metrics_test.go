package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRequestConcurrencyMetric(t *testing.T) {
	RequestConcurrency.Reset()

	route := "/v1/commands"

	if val := testutil.ToFloat64(RequestConcurrency.WithLabelValues(route)); val != 0 {
		t.Errorf("expected initial value 0, got %f", val)
	}

	IncRequestConcurrency(route)
	IncRequestConcurrency(route)
	if val := testutil.ToFloat64(RequestConcurrency.WithLabelValues(route)); val != 2 {
		t.Errorf("expected value 2 after two incs, got %f", val)
	}

	DecRequestConcurrency(route)
	DecRequestConcurrency(route)
	if val := testutil.ToFloat64(RequestConcurrency.WithLabelValues(route)); val != 0 {
		t.Errorf("expected value 0 after two decs, got %f", val)
	}
}

func TestObserveRequest(t *testing.T) {
	RequestsTotal.Reset()
	RequestLatency.Reset()

	ObserveRequest("/v1/wire", 0.01, nil)
	ObserveRequest("/v1/wire", 0.02, nil)
	ObserveRequest("/v1/wire", 0.03, errors.New("boom"))

	if val := testutil.ToFloat64(RequestsTotal.WithLabelValues("/v1/wire", "success")); val != 2 {
		t.Errorf("expected 2 successes, got %f", val)
	}
	if val := testutil.ToFloat64(RequestsTotal.WithLabelValues("/v1/wire", "error")); val != 1 {
		t.Errorf("expected 1 error, got %f", val)
	}
	if n := testutil.CollectAndCount(RequestLatency); n != 1 {
		t.Errorf("expected 1 latency series, got %d", n)
	}
}

func TestWriteBatchMetrics(t *testing.T) {
	WriteBatchesParsed.Reset()
	WriteBatchSize.Reset()
	ParseErrors.Reset()

	IncWriteBatch("op_msg", "insert", "ok")
	ObserveBatchSize("insert", 3)
	IncWriteBatch("legacy", "delete", "error")
	RecordParseError("legacy", "InvalidLength")

	if val := testutil.ToFloat64(WriteBatchesParsed.WithLabelValues("op_msg", "insert", "ok")); val != 1 {
		t.Errorf("expected 1 parsed insert, got %f", val)
	}
	if val := testutil.ToFloat64(WriteBatchesParsed.WithLabelValues("legacy", "delete", "error")); val != 1 {
		t.Errorf("expected 1 failed delete, got %f", val)
	}
	if val := testutil.ToFloat64(ParseErrors.WithLabelValues("legacy", "InvalidLength")); val != 1 {
		t.Errorf("expected 1 parse error, got %f", val)
	}
	if n := testutil.CollectAndCount(WriteBatchSize); n != 1 {
		t.Errorf("expected 1 batch size series, got %d", n)
	}
}

func TestWireAndMatchMetrics(t *testing.T) {
	WireMessagesDecoded.Reset()
	MatchExpressionsCompiled.Reset()

	IncWireMessage("OP_MSG", "zstd")
	IncWireMessage("OP_MSG", "zstd")
	ObserveMatchCompile(nil)
	ObserveMatchCompile(errors.New("bad"))

	if val := testutil.ToFloat64(WireMessagesDecoded.WithLabelValues("OP_MSG", "zstd")); val != 2 {
		t.Errorf("expected 2, got %f", val)
	}
	if val := testutil.ToFloat64(MatchExpressionsCompiled.WithLabelValues("success")); val != 1 {
		t.Errorf("expected 1 success, got %f", val)
	}
	if val := testutil.ToFloat64(MatchExpressionsCompiled.WithLabelValues("error")); val != 1 {
		t.Errorf("expected 1 error, got %f", val)
	}
}

func TestValidationMetrics(t *testing.T) {
	DocumentsValidated.Reset()

	AddDocumentsValidated("pass", 3)
	AddDocumentsValidated("fail", 1)
	AddDocumentsValidated("skipped", 0)

	if val := testutil.ToFloat64(DocumentsValidated.WithLabelValues("pass")); val != 3 {
		t.Errorf("expected 3 passes, got %f", val)
	}
	if val := testutil.ToFloat64(DocumentsValidated.WithLabelValues("fail")); val != 1 {
		t.Errorf("expected 1 failure, got %f", val)
	}
	if n := testutil.CollectAndCount(DocumentsValidated); n != 2 {
		t.Errorf("expected zero adds to create no series, got %d series", n)
	}
}

func TestCounters(t *testing.T) {
	hits := testutil.ToFloat64(ValidatorCacheHits)
	misses := testutil.ToFloat64(ValidatorCacheMisses)

	IncValidatorCacheHit()
	IncValidatorCacheMiss()
	IncValidatorCacheMiss()

	if val := testutil.ToFloat64(ValidatorCacheHits); val != hits+1 {
		t.Errorf("expected %f hits, got %f", hits+1, val)
	}
	if val := testutil.ToFloat64(ValidatorCacheMisses); val != misses+2 {
		t.Errorf("expected %f misses, got %f", misses+2, val)
	}
}
