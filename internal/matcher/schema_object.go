package matcher

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/vexsearch/vexdb/internal/document"
	"github.com/vexsearch/vexdb/internal/status"
)

// ObjectMatch applies a nested expression to the embedded document at a path.
// When the path holds an array, the expression is applied to every element
// that is a document and matches if any of them does; other elements are
// skipped. Scalars never match.
type ObjectMatch struct {
	pathNode
	Sub Expression
}

// NewObjectMatch compiles {path: {$_internalSchemaObjectMatch: arg}}. The
// argument is compiled as a nested filter in which top-level-only operators
// are rejected.
func NewObjectMatch(path string, arg bson.RawValue) (*ObjectMatch, error) {
	return newObjectMatch(path, arg, 0)
}

func newObjectMatch(path string, arg bson.RawValue, depth int) (*ObjectMatch, error) {
	if arg.Type != bsontype.EmbeddedDocument {
		return nil, status.Newf(status.FailedToParse, "%s must be an object, got %s", opObjectMatch, arg.Type)
	}
	p, err := newPathNode(path)
	if err != nil {
		return nil, status.Wrap(status.BadValue, err, "invalid field path")
	}
	sub, err := parseDocument(arg.Document(), false, depth+1)
	if err != nil {
		return nil, err
	}
	return &ObjectMatch{pathNode: p, Sub: sub}, nil
}

func (m *ObjectMatch) MatchType() MatchType { return MatchSchemaObjectMatch }

func (m *ObjectMatch) Matches(doc bson.Raw) bool {
	return document.Walk(doc, m.path, false, m.MatchesValue)
}

func (m *ObjectMatch) MatchesValue(v bson.RawValue) bool {
	switch v.Type {
	case bsontype.EmbeddedDocument:
		return m.Sub.Matches(v.Document())
	case bsontype.Array:
		for _, elem := range document.ArrayValues(v) {
			if elem.Type == bsontype.EmbeddedDocument && m.Sub.Matches(elem.Document()) {
				return true
			}
		}
	}
	return false
}
