// Package namespace models "<database>.<collection>" names targeted by writes.
package namespace

import (
	"strings"

	"github.com/vexsearch/vexdb/internal/status"
)

const (
	systemPrefix  = "system."
	systemIndexes = "system.indexes"
)

// Namespace identifies a collection within a database.
type Namespace struct {
	DB         string
	Collection string
}

// New validates and returns the namespace db.coll.
func New(db, coll string) (Namespace, error) {
	if err := ValidateDatabase(db); err != nil {
		return Namespace{}, status.Wrapf(status.InvalidNamespace, err, "invalid namespace %q", db+"."+coll)
	}
	if err := ValidateCollection(coll); err != nil {
		return Namespace{}, status.Wrapf(status.InvalidNamespace, err, "invalid namespace %q", db+"."+coll)
	}
	if len(db)+1+len(coll) > MaxNamespaceLength {
		return Namespace{}, status.Wrapf(status.InvalidNamespace, ErrNamespaceTooLong, "invalid namespace %q", db+"."+coll)
	}
	return Namespace{DB: db, Collection: coll}, nil
}

// Parse splits a full namespace at its first dot.
func Parse(ns string) (Namespace, error) {
	db, coll, ok := strings.Cut(ns, ".")
	if !ok {
		return Namespace{}, status.Wrapf(status.InvalidNamespace, ErrMissingCollection, "invalid namespace %q", ns)
	}
	return New(db, coll)
}

// MustParse is Parse for constants in tests and tools.
func MustParse(ns string) Namespace {
	n, err := Parse(ns)
	if err != nil {
		panic(err)
	}
	return n
}

func (n Namespace) String() string {
	if n.Collection == "" {
		return n.DB
	}
	return n.DB + "." + n.Collection
}

// IsSystem reports whether the collection is in the reserved system.* space.
func (n Namespace) IsSystem() bool {
	return strings.HasPrefix(n.Collection, systemPrefix)
}

// IsSystemDotIndexes reports whether n is the legacy index catalog.
func (n Namespace) IsSystemDotIndexes() bool {
	return n.Collection == systemIndexes
}

// IsCommand reports whether n is the "$cmd" pseudo-collection.
func (n Namespace) IsCommand() bool {
	return n.Collection == "$cmd"
}

func (n Namespace) IsZero() bool {
	return n.DB == "" && n.Collection == ""
}
