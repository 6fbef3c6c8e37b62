package guardrails

import "errors"

var (
	// ErrBatchSizeOutOfRange is returned when a write batch is empty or larger
	// than the configured maximum.
	ErrBatchSizeOutOfRange = errors.New("write batch size out of range")

	// ErrStmtIDCountMismatch is returned when explicit statement ids do not
	// line up one-to-one with batch entries.
	ErrStmtIDCountMismatch = errors.New("statement id count does not match batch size")

	// ErrRequestLimitReached is returned when no request slot is available.
	ErrRequestLimitReached = errors.New("concurrent request limit reached")
)
