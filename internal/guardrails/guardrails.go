// Package guardrails implements the resource bounds applied to inbound
// writes.
//
// Guardrails provide:
//   - The maximum number of entries in one write batch
//   - Maximum message and document sizes for wire decoding
//   - A cap on concurrently admitted write requests
package guardrails

import (
	"context"
	"sync/atomic"

	"github.com/vexsearch/vexdb/internal/status"
)

// DefaultMaxWriteBatchSize keeps a batch reply well below the 16MB response
// ceiling.
const DefaultMaxWriteBatchSize = 1000

// Limits holds the write-path bounds. Limits values are read-only once
// constructed and are passed to the components that enforce them.
type Limits struct {
	// MaxWriteBatchSize is the maximum number of entries in one batch.
	// Default: 1000
	MaxWriteBatchSize int

	// MaxMessageSizeBytes is the maximum size of one wire message.
	// Default: 48,000,000
	MaxMessageSizeBytes int

	// MaxDocumentSizeBytes is the maximum size of one document.
	// Default: 16 MiB
	MaxDocumentSizeBytes int

	// MaxConcurrentRequests limits write requests admitted at once.
	// Default: 64
	MaxConcurrentRequests int
}

// DefaultLimits returns the default write limits.
func DefaultLimits() Limits {
	return Limits{
		MaxWriteBatchSize:     DefaultMaxWriteBatchSize,
		MaxMessageSizeBytes:   48 * 1000 * 1000,
		MaxDocumentSizeBytes:  16 * 1024 * 1024,
		MaxConcurrentRequests: 64,
	}
}

// WithDefaults replaces zero fields with their defaults.
func (l Limits) WithDefaults() Limits {
	d := DefaultLimits()
	if l.MaxWriteBatchSize <= 0 {
		l.MaxWriteBatchSize = d.MaxWriteBatchSize
	}
	if l.MaxMessageSizeBytes <= 0 {
		l.MaxMessageSizeBytes = d.MaxMessageSizeBytes
	}
	if l.MaxDocumentSizeBytes <= 0 {
		l.MaxDocumentSizeBytes = d.MaxDocumentSizeBytes
	}
	if l.MaxConcurrentRequests <= 0 {
		l.MaxConcurrentRequests = d.MaxConcurrentRequests
	}
	return l
}

// CheckBatchSize verifies 1 <= n <= MaxWriteBatchSize.
func (l Limits) CheckBatchSize(n int) error {
	limit := l.MaxWriteBatchSize
	if limit <= 0 {
		limit = DefaultMaxWriteBatchSize
	}
	if n == 0 || n > limit {
		return status.Wrapf(status.InvalidLength, ErrBatchSizeOutOfRange,
			"Write batch sizes must be between 1 and %d. Got %d operations.", limit, n)
	}
	return nil
}

// CheckStmtIDs verifies that explicit statement ids, when present, match the
// batch size. A nil slice means no ids were supplied.
func (l Limits) CheckStmtIDs(stmtIDs []int32, n int) error {
	if stmtIDs != nil && len(stmtIDs) != n {
		return status.Wrap(status.InvalidLength, ErrStmtIDCountMismatch,
			"Number of statement ids must match the number of batch entries")
	}
	return nil
}

// Admission bounds the number of requests processed concurrently.
type Admission struct {
	sem     chan struct{}
	waiting atomic.Int64
}

// NewAdmission creates an Admission with the given number of slots.
func NewAdmission(slots int) *Admission {
	if slots <= 0 {
		slots = DefaultLimits().MaxConcurrentRequests
	}
	return &Admission{sem: make(chan struct{}, slots)}
}

// Acquire blocks until a slot is available or ctx is done.
func (a *Admission) Acquire(ctx context.Context) error {
	a.waiting.Add(1)
	defer a.waiting.Add(-1)

	select {
	case a.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot without blocking.
func (a *Admission) TryAcquire() bool {
	select {
	case a.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns a slot.
func (a *Admission) Release() {
	select {
	case <-a.sem:
	default:
	}
}

// AdmissionStats is a point-in-time view of an Admission.
type AdmissionStats struct {
	Active  int
	Waiting int64
	Max     int
}

func (a *Admission) Stats() AdmissionStats {
	return AdmissionStats{
		Active:  len(a.sem),
		Waiting: a.waiting.Load(),
		Max:     cap(a.sem),
	}
}
