package matcher

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/vexsearch/vexdb/internal/document"
	"github.com/vexsearch/vexdb/internal/metrics"
	"github.com/vexsearch/vexdb/internal/status"
)

// MaxDepth bounds the nesting of logical operators, $not and ObjectMatch.
const MaxDepth = 100

// Parse compiles a filter document.
func Parse(filter bson.Raw) (Expression, error) {
	e, err := parseDocument(filter, true, 0)
	metrics.ObserveMatchCompile(err)
	return e, err
}

// ParseExtJSON compiles a filter written as extended JSON.
func ParseExtJSON(s string) (Expression, error) {
	filter, err := document.FromExtJSON(s)
	if err != nil {
		return nil, status.Wrap(status.FailedToParse, err, "invalid filter")
	}
	return Parse(filter)
}

// MustParseExtJSON is ParseExtJSON for constant filters.
func MustParseExtJSON(s string) Expression {
	e, err := ParseExtJSON(s)
	if err != nil {
		panic(err)
	}
	return e
}

func checkDepth(depth int) error {
	if depth > MaxDepth {
		return status.Newf(status.BadValue, "exceeded depth limit of %d when parsing match expression", MaxDepth)
	}
	return nil
}

// simplify returns the only child of a single-child conjunction.
func simplify(and *AndMatch) Expression {
	if len(and.Children) == 1 {
		return and.Children[0]
	}
	return and
}

func parseDocument(doc bson.Raw, topLevel bool, depth int) (Expression, error) {
	if err := checkDepth(depth); err != nil {
		return nil, err
	}
	elems, err := doc.Elements()
	if err != nil {
		return nil, status.Wrap(status.InvalidBSON, err, "invalid filter document")
	}

	and := &AndMatch{}
	for _, elem := range elems {
		key, v := elem.Key(), elem.Value()

		var child Expression
		if strings.HasPrefix(key, "$") {
			child, err = parseTopLevelOperator(key, v, topLevel, depth)
		} else {
			child, err = parseField(key, v, depth)
		}
		if err != nil {
			return nil, err
		}
		if child != nil {
			and.Children = append(and.Children, child)
		}
	}
	return simplify(and), nil
}

func parseTopLevelOperator(name string, v bson.RawValue, topLevel bool, depth int) (Expression, error) {
	switch name {
	case "$and", "$or", "$nor":
		children, err := parseClauses(name, v, depth)
		if err != nil {
			return nil, err
		}
		switch name {
		case "$and":
			return &AndMatch{Children: children}, nil
		case "$or":
			return &OrMatch{Children: children}, nil
		}
		return &NorMatch{Children: children}, nil
	case "$comment":
		return nil, nil
	case "$isolated", "$atomic":
		if !topLevel {
			return nil, status.Newf(status.BadValue, "%s has to be at the top level", name)
		}
		return &AtomicMatch{Name: name}, nil
	}
	return nil, status.Newf(status.BadValue, "unknown top level operator: %s", name)
}

func parseClauses(name string, v bson.RawValue, depth int) ([]Expression, error) {
	if v.Type != bsontype.Array {
		return nil, status.Newf(status.BadValue, "%s must be an array", name)
	}
	clauses := document.ArrayValues(v)
	if len(clauses) == 0 {
		return nil, status.Newf(status.BadValue, "%s must be a nonempty array", name)
	}
	children := make([]Expression, 0, len(clauses))
	for _, clause := range clauses {
		if clause.Type != bsontype.EmbeddedDocument {
			return nil, status.Newf(status.BadValue, "%s argument's entries must be objects", name)
		}
		child, err := parseDocument(clause.Document(), false, depth+1)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

// isOperatorObject reports whether v is an object whose first field is an
// operator, as in {$gt: 1}.
func isOperatorObject(v bson.RawValue) bool {
	if v.Type != bsontype.EmbeddedDocument {
		return false
	}
	first, err := v.Document().IndexErr(0)
	return err == nil && strings.HasPrefix(first.Key(), "$")
}

func parseField(path string, v bson.RawValue, depth int) (Expression, error) {
	if isOperatorObject(v) {
		return parseOperators(path, v.Document(), depth+1)
	}
	return wrapPath(newComparison(path, MatchEq, v))
}

// wrapPath converts field path errors into BadValue.
func wrapPath(e Expression, err error) (Expression, error) {
	if err != nil {
		if _, ok := err.(*status.Error); ok {
			return nil, err
		}
		return nil, status.Wrap(status.BadValue, err, "invalid field path")
	}
	return e, nil
}

func parseOperators(path string, ops bson.Raw, depth int) (Expression, error) {
	if err := checkDepth(depth); err != nil {
		return nil, err
	}
	elems, err := ops.Elements()
	if err != nil {
		return nil, status.Wrap(status.InvalidBSON, err, "invalid operator object")
	}

	and := &AndMatch{}
	for _, elem := range elems {
		name := elem.Key()
		if !strings.HasPrefix(name, "$") {
			return nil, status.Newf(status.BadValue, "unknown operator: %s", name)
		}
		child, err := parseOperator(path, name, elem.Value(), depth)
		if err != nil {
			return nil, err
		}
		and.Children = append(and.Children, child)
	}
	return simplify(and), nil
}

var comparisonOps = map[string]MatchType{
	"$eq":  MatchEq,
	"$lt":  MatchLt,
	"$lte": MatchLte,
	"$gt":  MatchGt,
	"$gte": MatchGte,
}

func parseOperator(path, name string, v bson.RawValue, depth int) (Expression, error) {
	if op, ok := comparisonOps[name]; ok {
		return wrapPath(newComparison(path, op, v))
	}

	switch name {
	case "$ne":
		eq, err := wrapPath(newComparison(path, MatchEq, v))
		if err != nil {
			return nil, err
		}
		return &NotMatch{Child: eq}, nil
	case "$in", "$nin":
		in, err := newIn(path, name, v)
		if err != nil {
			return nil, err
		}
		if name == "$nin" {
			return &NotMatch{Child: in}, nil
		}
		return in, nil
	case "$exists":
		p, err := newPathNode(path)
		if err != nil {
			return wrapPath(nil, err)
		}
		return &ExistsMatch{pathNode: p, want: truthy(v)}, nil
	case "$type":
		return wrapPath(newTypeMatch(path, v))
	case "$size":
		return newSize(path, v)
	case "$not":
		if !isOperatorObject(v) {
			return nil, status.New(status.BadValue, "$not needs a nonempty object of operators")
		}
		child, err := parseOperators(path, v.Document(), depth+1)
		if err != nil {
			return nil, err
		}
		return &NotMatch{Child: child}, nil
	case opMinItems:
		return NewMinItemsMatch(path, v)
	case opMaxItems:
		return NewMaxItemsMatch(path, v)
	case opUniqueItems:
		return NewUniqueItemsMatch(path, v)
	case opObjectMatch:
		return newObjectMatch(path, v, depth)
	}
	return nil, status.Newf(status.BadValue, "unknown operator: %s", name)
}

func newIn(path, name string, v bson.RawValue) (*InMatch, error) {
	if v.Type != bsontype.Array {
		return nil, status.Newf(status.BadValue, "%s needs an array", name)
	}
	p, err := newPathNode(path)
	if err != nil {
		return nil, status.Wrap(status.BadValue, err, "invalid field path")
	}
	values := document.ArrayValues(v)
	for _, value := range values {
		if isOperatorObject(value) {
			return nil, status.Newf(status.BadValue, "cannot nest $ under %s", name)
		}
	}
	return &InMatch{pathNode: p, values: values}, nil
}

func newSize(path string, v bson.RawValue) (*SizeMatch, error) {
	if !document.IsNumber(v.Type) {
		return nil, status.New(status.BadValue, "$size needs a number")
	}
	p, err := newPathNode(path)
	if err != nil {
		return nil, status.Wrap(status.BadValue, err, "invalid field path")
	}
	f, _ := document.ToFloat64(v)
	if f < 0 {
		return nil, status.New(status.BadValue, "$size may not be negative")
	}
	n, ok := document.ExactNonNegativeInt(v)
	if !ok {
		// Fractional sizes are accepted but match nothing.
		n = -1
	}
	return &SizeMatch{pathNode: p, size: n}, nil
}

// truthy interprets $exists arguments: false, null and numeric zero are false.
func truthy(v bson.RawValue) bool {
	switch {
	case v.Type == bsontype.Boolean:
		return v.Boolean()
	case v.Type == bsontype.Null || v.Type == bsontype.Undefined:
		return false
	case document.IsNumber(v.Type):
		f, _ := document.ToFloat64(v)
		return f != 0
	}
	return true
}
