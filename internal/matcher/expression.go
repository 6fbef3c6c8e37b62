// Package matcher compiles filter documents into immutable match expression
// trees and evaluates them against BSON documents.
//
// A filter such as {a: {$gte: 0}, b: {$_internalSchemaMinItems: 2}} compiles
// once into a tree of Expression nodes. Trees hold no mutable state and may be
// evaluated concurrently against any number of documents.
package matcher

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/vexsearch/vexdb/internal/document"
)

// MatchType identifies the kind of an Expression node.
type MatchType int

const (
	MatchAnd MatchType = iota
	MatchOr
	MatchNor
	MatchNot
	MatchAtomic
	MatchEq
	MatchLt
	MatchLte
	MatchGt
	MatchGte
	MatchIn
	MatchExists
	MatchTypeOperator
	MatchSize
	MatchSchemaMinItems
	MatchSchemaMaxItems
	MatchSchemaUniqueItems
	MatchSchemaObjectMatch
)

var matchTypeNames = map[MatchType]string{
	MatchAnd:               "$and",
	MatchOr:                "$or",
	MatchNor:               "$nor",
	MatchNot:               "$not",
	MatchAtomic:            "$atomic",
	MatchEq:                "$eq",
	MatchLt:                "$lt",
	MatchLte:               "$lte",
	MatchGt:                "$gt",
	MatchGte:               "$gte",
	MatchIn:                "$in",
	MatchExists:            "$exists",
	MatchTypeOperator:      "$type",
	MatchSize:              "$size",
	MatchSchemaMinItems:    opMinItems,
	MatchSchemaMaxItems:    opMaxItems,
	MatchSchemaUniqueItems: opUniqueItems,
	MatchSchemaObjectMatch: opObjectMatch,
}

func (t MatchType) String() string {
	if name, ok := matchTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("MatchType(%d)", int(t))
}

// Expression is a compiled predicate over a document.
type Expression interface {
	MatchType() MatchType
	Matches(doc bson.Raw) bool
}

// ValueMatcher is implemented by path-scoped nodes that can evaluate an
// already-resolved field value.
type ValueMatcher interface {
	Expression
	Path() string
	MatchesValue(v bson.RawValue) bool
}

// pathNode holds the field path a leaf expression applies to.
type pathNode struct {
	raw  string
	path document.FieldPath
}

func newPathNode(raw string) (pathNode, error) {
	p, err := document.ParseFieldPath(raw)
	if err != nil {
		return pathNode{}, err
	}
	return pathNode{raw: raw, path: p}, nil
}

func (n pathNode) Path() string { return n.raw }

// AndMatch matches when every child matches. An empty AndMatch matches
// everything.
type AndMatch struct {
	Children []Expression
}

func (m *AndMatch) MatchType() MatchType { return MatchAnd }

func (m *AndMatch) Matches(doc bson.Raw) bool {
	for _, child := range m.Children {
		if !child.Matches(doc) {
			return false
		}
	}
	return true
}

// OrMatch matches when any child matches.
type OrMatch struct {
	Children []Expression
}

func (m *OrMatch) MatchType() MatchType { return MatchOr }

func (m *OrMatch) Matches(doc bson.Raw) bool {
	for _, child := range m.Children {
		if child.Matches(doc) {
			return true
		}
	}
	return false
}

// NorMatch matches when no child matches.
type NorMatch struct {
	Children []Expression
}

func (m *NorMatch) MatchType() MatchType { return MatchNor }

func (m *NorMatch) Matches(doc bson.Raw) bool {
	for _, child := range m.Children {
		if child.Matches(doc) {
			return false
		}
	}
	return true
}

// NotMatch inverts its child.
type NotMatch struct {
	Child Expression
}

func (m *NotMatch) MatchType() MatchType { return MatchNot }

func (m *NotMatch) Matches(doc bson.Raw) bool {
	return !m.Child.Matches(doc)
}

// AtomicMatch is the compiled form of the $isolated and $atomic directives.
// It constrains nothing.
type AtomicMatch struct {
	Name string
}

func (m *AtomicMatch) MatchType() MatchType { return MatchAtomic }

func (m *AtomicMatch) Matches(bson.Raw) bool { return true }

// Children returns the direct children of e.
func Children(e Expression) []Expression {
	switch n := e.(type) {
	case *AndMatch:
		return n.Children
	case *OrMatch:
		return n.Children
	case *NorMatch:
		return n.Children
	case *NotMatch:
		return []Expression{n.Child}
	}
	return nil
}

// Paths returns the distinct top-level field paths e reads, in first-use
// order. Paths inside an ObjectMatch are relative to its own path and are not
// included.
func Paths(e Expression) []string {
	seen := make(map[string]bool)
	var out []string
	var collect func(Expression)
	collect = func(e Expression) {
		if vm, ok := e.(ValueMatcher); ok {
			if !seen[vm.Path()] {
				seen[vm.Path()] = true
				out = append(out, vm.Path())
			}
			return
		}
		for _, child := range Children(e) {
			collect(child)
		}
	}
	collect(e)
	return out
}
