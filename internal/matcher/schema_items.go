package matcher

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vexsearch/vexdb/internal/document"
	"github.com/vexsearch/vexdb/internal/status"
)

const (
	opMinItems    = "$_internalSchemaMinItems"
	opMaxItems    = "$_internalSchemaMaxItems"
	opUniqueItems = "$_internalSchemaUniqueItems"
	opObjectMatch = "$_internalSchemaObjectMatch"
)

// parseItemsBound accepts any number that is exactly a non-negative integer.
func parseItemsBound(name string, arg bson.RawValue) (int64, error) {
	if !document.IsNumber(arg.Type) {
		return 0, status.Newf(status.FailedToParse, "%s must be a number, got %s", name, arg.Type)
	}
	n, ok := document.ExactNonNegativeInt(arg)
	if !ok {
		return 0, status.Newf(status.FailedToParse, "%s must be a non-negative integer, got %s",
			name, document.RenderValue(arg))
	}
	return n, nil
}

// MinItemsMatch matches arrays with at least Bound elements. Values that are
// not arrays never match.
type MinItemsMatch struct {
	pathNode
	Bound int64
}

// NewMinItemsMatch compiles {path: {$_internalSchemaMinItems: arg}}.
func NewMinItemsMatch(path string, arg bson.RawValue) (*MinItemsMatch, error) {
	bound, err := parseItemsBound(opMinItems, arg)
	if err != nil {
		return nil, err
	}
	p, err := newPathNode(path)
	if err != nil {
		return nil, status.Wrap(status.BadValue, err, "invalid field path")
	}
	return &MinItemsMatch{pathNode: p, Bound: bound}, nil
}

func (m *MinItemsMatch) MatchType() MatchType { return MatchSchemaMinItems }

func (m *MinItemsMatch) Matches(doc bson.Raw) bool {
	return document.Walk(doc, m.path, false, m.MatchesValue)
}

func (m *MinItemsMatch) MatchesValue(v bson.RawValue) bool {
	return document.IsArray(v) && int64(document.ArrayLen(v)) >= m.Bound
}

// MaxItemsMatch matches arrays with at most Bound elements. Values that are
// not arrays never match.
type MaxItemsMatch struct {
	pathNode
	Bound int64
}

// NewMaxItemsMatch compiles {path: {$_internalSchemaMaxItems: arg}}.
func NewMaxItemsMatch(path string, arg bson.RawValue) (*MaxItemsMatch, error) {
	bound, err := parseItemsBound(opMaxItems, arg)
	if err != nil {
		return nil, err
	}
	p, err := newPathNode(path)
	if err != nil {
		return nil, status.Wrap(status.BadValue, err, "invalid field path")
	}
	return &MaxItemsMatch{pathNode: p, Bound: bound}, nil
}

func (m *MaxItemsMatch) MatchType() MatchType { return MatchSchemaMaxItems }

func (m *MaxItemsMatch) Matches(doc bson.Raw) bool {
	return document.Walk(doc, m.path, false, m.MatchesValue)
}

func (m *MaxItemsMatch) MatchesValue(v bson.RawValue) bool {
	return document.IsArray(v) && int64(document.ArrayLen(v)) <= m.Bound
}
