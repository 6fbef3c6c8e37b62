package matcher

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/vexsearch/vexdb/internal/document"
	"github.com/vexsearch/vexdb/internal/status"
)

// UniqueItemsMatch matches arrays whose elements are pairwise distinct under
// document.Equivalent. Values that are not arrays never match.
type UniqueItemsMatch struct {
	pathNode
}

// NewUniqueItemsMatch compiles {path: {$_internalSchemaUniqueItems: true}}.
// Only the literal boolean true is accepted.
func NewUniqueItemsMatch(path string, arg bson.RawValue) (*UniqueItemsMatch, error) {
	if arg.Type != bsontype.Boolean || !arg.Boolean() {
		return nil, status.Newf(status.FailedToParse, "%s must be the boolean true, got %s",
			opUniqueItems, document.RenderValue(arg))
	}
	p, err := newPathNode(path)
	if err != nil {
		return nil, status.Wrap(status.BadValue, err, "invalid field path")
	}
	return &UniqueItemsMatch{pathNode: p}, nil
}

func (m *UniqueItemsMatch) MatchType() MatchType { return MatchSchemaUniqueItems }

func (m *UniqueItemsMatch) Matches(doc bson.Raw) bool {
	return document.Walk(doc, m.path, false, m.MatchesValue)
}

func (m *UniqueItemsMatch) MatchesValue(v bson.RawValue) bool {
	if !document.IsArray(v) {
		return false
	}
	return allDistinct(document.ArrayValues(v))
}

// allDistinct buckets values by a hash consistent with Equivalent and only
// compares values that share a bucket.
func allDistinct(values []bson.RawValue) bool {
	if len(values) < 2 {
		return true
	}
	buckets := make(map[uint64][]bson.RawValue, len(values))
	for _, v := range values {
		h := document.Hash(v)
		for _, seen := range buckets[h] {
			if document.Equivalent(seen, v) {
				return false
			}
		}
		buckets[h] = append(buckets[h], v)
	}
	return true
}
