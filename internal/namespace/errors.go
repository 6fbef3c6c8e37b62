package namespace

import "errors"

var (
	ErrEmptyDatabase     = errors.New("database name cannot be empty")
	ErrDatabaseTooLong   = errors.New("database name exceeds 63 characters")
	ErrInvalidDatabase   = errors.New("database name contains invalid characters")
	ErrEmptyCollection   = errors.New("collection name cannot be empty")
	ErrInvalidCollection = errors.New("collection name contains invalid characters")
	ErrMissingCollection = errors.New("namespace must be of the form <database>.<collection>")
	ErrNamespaceTooLong  = errors.New("namespace exceeds 255 characters")
)
