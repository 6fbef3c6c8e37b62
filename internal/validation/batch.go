package validation

import (
	"context"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"

	"github.com/vexsearch/vexdb/internal/document"
	"github.com/vexsearch/vexdb/internal/metrics"
	"github.com/vexsearch/vexdb/internal/namespace"
	"github.com/vexsearch/vexdb/internal/write"
)

// Failure describes one document rejected by the validator.
type Failure struct {
	// Index is the position of the document in the batch.
	Index int
	// StmtID is the statement id of the entry.
	StmtID int32
	// ID is the document's _id; zero-valued when absent.
	ID bson.RawValue
}

// HasID reports whether the failing document carried an _id.
func (f Failure) HasID() bool { return f.ID.Type != 0 }

// Result is the outcome of validating one insert batch.
type Result struct {
	Namespace namespace.Namespace
	// Checked is the number of documents evaluated.
	Checked int
	// Bypassed is set when the batch asked to skip validation.
	Bypassed bool
	// Failures are in batch order. Ordered batches report at most one.
	Failures []Failure
}

// OK reports whether every document passed.
func (r *Result) OK() bool { return len(r.Failures) == 0 }

// Err returns a DocumentValidationFailure error when any document failed.
func (r *Result) Err() error {
	if r.OK() {
		return nil
	}
	return validationError(len(r.Failures))
}

// ValidateInsert evaluates every document of b against the validator.
//
// Documents are checked concurrently, at most Workers at a time. For an
// ordered batch evaluation stops at the first failing position and only that
// failure is reported; documents after it are never written and so never
// checked. The returned error is non-nil only when ctx ends first; rejected
// documents are reported through the Result.
func (v *Validator) ValidateInsert(ctx context.Context, b *write.InsertBatch) (*Result, error) {
	res := &Result{Namespace: b.Namespace}
	if b.BypassDocumentValidation {
		res.Bypassed = true
		metrics.AddDocumentsValidated("bypassed", len(b.Documents))
		return res, nil
	}

	start := time.Now()
	defer func() {
		metrics.ObserveValidation(time.Since(start).Seconds())
	}()

	n := len(b.Documents)
	failed := make([]bool, n)
	var firstFailure atomic.Int64
	firstFailure.Store(int64(n))
	var checked atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.opts.Workers)
	for i := range b.Documents {
		if b.Ordered && int64(i) > firstFailure.Load() {
			break
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if b.Ordered && int64(i) > firstFailure.Load() {
				return nil
			}
			checked.Add(1)
			if v.expr.Matches(b.Documents[i]) {
				return nil
			}
			failed[i] = true
			lowerMin(&firstFailure, int64(i))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, bad := range failed {
		if !bad {
			continue
		}
		if b.Ordered && int64(i) != firstFailure.Load() {
			continue
		}
		f := Failure{Index: i, StmtID: write.StmtIDForWriteAt(b.WriteCommandBase, i)}
		if id, ok := document.ID(b.Documents[i]); ok {
			f.ID = id
		}
		res.Failures = append(res.Failures, f)
		v.opts.Logger.Debug("document failed validation",
			"namespace", b.Namespace.String(),
			"index", i,
			"stmt_id", f.StmtID,
			"_id", document.FormatValue(f.ID),
		)
	}
	res.Checked = int(checked.Load())

	metrics.AddDocumentsValidated("failed", len(res.Failures))
	metrics.AddDocumentsValidated("passed", res.Checked-countFailed(failed))
	return res, nil
}

// lowerMin stores v into m if it is smaller than the current value.
func lowerMin(m *atomic.Int64, v int64) {
	for {
		cur := m.Load()
		if v >= cur || m.CompareAndSwap(cur, v) {
			return
		}
	}
}

func countFailed(failed []bool) int {
	n := 0
	for _, bad := range failed {
		if bad {
			n++
		}
	}
	return n
}
