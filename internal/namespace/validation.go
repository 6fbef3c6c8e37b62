package namespace

import (
	"strings"
)

const (
	MaxDatabaseNameLength = 63
	MaxNamespaceLength    = 255
)

const invalidDatabaseChars = "/\\. \"$*<>:|?\x00"

// ValidateDatabase checks a database name.
func ValidateDatabase(db string) error {
	if db == "" {
		return ErrEmptyDatabase
	}
	if len(db) > MaxDatabaseNameLength {
		return ErrDatabaseTooLong
	}
	if strings.ContainsAny(db, invalidDatabaseChars) {
		return ErrInvalidDatabase
	}
	return nil
}

// ValidateCollection checks a collection name. "$" is only allowed in the
// command pseudo-collection and the legacy replication oplog.
func ValidateCollection(coll string) error {
	if coll == "" {
		return ErrEmptyCollection
	}
	if strings.ContainsRune(coll, 0) || strings.HasPrefix(coll, ".") {
		return ErrInvalidCollection
	}
	if strings.Contains(coll, "$") && coll != "$cmd" && coll != "oplog.$main" && !strings.HasPrefix(coll, "$cmd.") {
		return ErrInvalidCollection
	}
	return nil
}
