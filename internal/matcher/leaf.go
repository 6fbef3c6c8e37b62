package matcher

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/vexsearch/vexdb/internal/document"
)

// ComparisonMatch compares the value at a path with a constant using one of
// $eq, $lt, $lte, $gt or $gte. Arrays at the end of the path are compared as
// a whole and element by element.
type ComparisonMatch struct {
	pathNode
	op  MatchType
	rhs bson.RawValue
}

func newComparison(path string, op MatchType, rhs bson.RawValue) (*ComparisonMatch, error) {
	p, err := newPathNode(path)
	if err != nil {
		return nil, err
	}
	return &ComparisonMatch{pathNode: p, op: op, rhs: rhs}, nil
}

func (m *ComparisonMatch) MatchType() MatchType { return m.op }

// Value returns the constant operand.
func (m *ComparisonMatch) Value() bson.RawValue { return m.rhs }

func (m *ComparisonMatch) Matches(doc bson.Raw) bool {
	return document.Walk(doc, m.path, true, m.MatchesValue)
}

func (m *ComparisonMatch) MatchesValue(v bson.RawValue) bool {
	return compareMatches(m.op, v, m.rhs)
}

func isNullish(v bson.RawValue) bool {
	return document.IsMissing(v) || v.Type == bsontype.Null || v.Type == bsontype.Undefined
}

func compareMatches(op MatchType, v, rhs bson.RawValue) bool {
	inclusive := op == MatchEq || op == MatchLte || op == MatchGte

	if rhs.Type == bsontype.Null {
		return inclusive && isNullish(v)
	}
	if document.IsMissing(v) {
		return false
	}
	if document.IsNaN(v) || document.IsNaN(rhs) {
		return inclusive && document.IsNaN(v) && document.IsNaN(rhs)
	}

	// MinKey and MaxKey bound every other type.
	if rhs.Type != bsontype.MinKey && rhs.Type != bsontype.MaxKey &&
		document.CanonicalType(v.Type) != document.CanonicalType(rhs.Type) {
		return false
	}

	c := document.Compare(v, rhs)
	switch op {
	case MatchEq:
		return c == 0
	case MatchLt:
		return c < 0
	case MatchLte:
		return c <= 0
	case MatchGt:
		return c > 0
	case MatchGte:
		return c >= 0
	}
	return false
}

// InMatch matches when the value at a path equals any of a set of constants.
type InMatch struct {
	pathNode
	values []bson.RawValue
}

func (m *InMatch) MatchType() MatchType { return MatchIn }

// Values returns the constant set.
func (m *InMatch) Values() []bson.RawValue { return m.values }

func (m *InMatch) Matches(doc bson.Raw) bool {
	return document.Walk(doc, m.path, true, m.MatchesValue)
}

func (m *InMatch) MatchesValue(v bson.RawValue) bool {
	for _, rhs := range m.values {
		if compareMatches(MatchEq, v, rhs) {
			return true
		}
	}
	return false
}

// ExistsMatch matches when a path does or does not resolve to a value.
type ExistsMatch struct {
	pathNode
	want bool
}

func (m *ExistsMatch) MatchType() MatchType { return MatchExists }

func (m *ExistsMatch) Matches(doc bson.Raw) bool {
	found := document.Walk(doc, m.path, false, func(v bson.RawValue) bool {
		return !document.IsMissing(v)
	})
	return found == m.want
}

func (m *ExistsMatch) MatchesValue(v bson.RawValue) bool {
	return !document.IsMissing(v) == m.want
}

// SizeMatch matches arrays of an exact length. A negative size never matches.
type SizeMatch struct {
	pathNode
	size int64
}

func (m *SizeMatch) MatchType() MatchType { return MatchSize }

func (m *SizeMatch) Matches(doc bson.Raw) bool {
	return document.Walk(doc, m.path, false, m.MatchesValue)
}

func (m *SizeMatch) MatchesValue(v bson.RawValue) bool {
	return m.size >= 0 && document.IsArray(v) && int64(document.ArrayLen(v)) == m.size
}

// TypeMatch matches values of any of a set of BSON types.
type TypeMatch struct {
	pathNode
	types      []bsontype.Type
	allNumbers bool
}

func (m *TypeMatch) MatchType() MatchType { return MatchTypeOperator }

func (m *TypeMatch) Matches(doc bson.Raw) bool {
	return document.Walk(doc, m.path, true, m.MatchesValue)
}

func (m *TypeMatch) MatchesValue(v bson.RawValue) bool {
	if document.IsMissing(v) {
		return false
	}
	if m.allNumbers && document.IsNumber(v.Type) {
		return true
	}
	for _, t := range m.types {
		if v.Type == t {
			return true
		}
	}
	return false
}
