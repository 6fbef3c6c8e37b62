package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vexsearch/vexdb/internal/document"
	"github.com/vexsearch/vexdb/internal/status"
)

func doc(s string) bson.Raw {
	return document.MustFromExtJSON(s)
}

func compile(t *testing.T, filter bson.D) Expression {
	t.Helper()
	raw, err := bson.Marshal(filter)
	require.NoError(t, err)
	e, err := Parse(raw)
	require.NoError(t, err)
	return e
}

func compileErr(filter bson.D) error {
	raw, err := bson.Marshal(filter)
	if err != nil {
		panic(err)
	}
	_, err = Parse(raw)
	return err
}

func itemsFilter(op string, arg any) bson.D {
	return bson.D{{Key: "x", Value: bson.D{{Key: op, Value: arg}}}}
}

func bounds(t *testing.T) map[string]any {
	d, err := primitive.ParseDecimal128("2")
	require.NoError(t, err)
	return map[string]any{
		"int32":   int32(2),
		"int64":   int64(2),
		"double":  2.0,
		"decimal": d,
	}
}

func TestMinItems(t *testing.T) {
	for name, bound := range bounds(t) {
		t.Run(name, func(t *testing.T) {
			e := compile(t, itemsFilter(opMinItems, bound))
			assert.Equal(t, MatchSchemaMinItems, e.MatchType())

			assert.False(t, e.Matches(doc(`{"x": 1}`)))
			assert.True(t, e.Matches(doc(`{"x": [1, 2]}`)))
			assert.False(t, e.Matches(doc(`{"x": [1]}`)))
			assert.True(t, e.Matches(doc(`{"x": [1, 2, 3]}`)))
			assert.False(t, e.Matches(doc(`{"y": [1, 2]}`)))
		})
	}
}

func TestMaxItems(t *testing.T) {
	for name, bound := range bounds(t) {
		t.Run(name, func(t *testing.T) {
			e := compile(t, itemsFilter(opMaxItems, bound))
			assert.Equal(t, MatchSchemaMaxItems, e.MatchType())

			assert.False(t, e.Matches(doc(`{"x": 1}`)))
			assert.True(t, e.Matches(doc(`{"x": [1, 2]}`)))
			assert.True(t, e.Matches(doc(`{"x": [1]}`)))
			assert.False(t, e.Matches(doc(`{"x": [1, 2, 3]}`)))
			assert.False(t, e.Matches(doc(`{}`)))
		})
	}
}

func TestItemsBoundRejectsBadArguments(t *testing.T) {
	for _, op := range []string{opMinItems, opMaxItems} {
		for _, arg := range []any{-1, 1.5, "2", true, bson.A{2}, nil} {
			err := compileErr(itemsFilter(op, arg))
			assert.Equal(t, status.FailedToParse, status.CodeOf(err), "%s: %v", op, arg)
		}
	}
}

func TestItemsBoundZero(t *testing.T) {
	e := compile(t, itemsFilter(opMaxItems, 0))
	assert.True(t, e.Matches(doc(`{"x": []}`)))
	assert.False(t, e.Matches(doc(`{"x": [null]}`)))

	e = compile(t, itemsFilter(opMinItems, 0))
	assert.True(t, e.Matches(doc(`{"x": []}`)))
	assert.False(t, e.Matches(doc(`{"x": "not an array"}`)))
}

func TestUniqueItemsRejectsNonTrueArguments(t *testing.T) {
	for _, arg := range []any{0, "", 1.0, false} {
		err := compileErr(itemsFilter(opUniqueItems, arg))
		assert.Equal(t, status.FailedToParse, status.CodeOf(err), "%v", arg)
	}
}

func TestUniqueItems(t *testing.T) {
	e := compile(t, itemsFilter(opUniqueItems, true))
	assert.Equal(t, MatchSchemaUniqueItems, e.MatchType())

	tests := []struct {
		doc  string
		want bool
	}{
		{`{"x": 1}`, false},
		{`{"x": "blah"}`, false},
		{`{"x": []}`, true},
		{`{"x": [0]}`, true},
		{`{"x": ["7", null, [], {}, 7]}`, true},
		{`{"x": ["dup", "dup", 7]}`, false},
		{`{"x": [{"x": 1}, {"x": 1}]}`, false},
		// Numbers compare by value across widths.
		{`{"x": [2, 2.0]}`, false},
		{`{"x": [2, {"$numberLong": "2"}]}`, false},
		{`{"x": [2, {"$numberDecimal": "2.00"}]}`, false},
		{`{"x": [1, 2, 3]}`, true},
		// Object field order is ignored, array order is not.
		{`{"x": [{"a": 1, "b": 2}, {"b": 2, "a": 1}]}`, false},
		{`{"x": [[1, 2], [2, 1]]}`, true},
		{`{"x": [[1, 2], [1, 2]]}`, false},
		{`{"x": [{"a": 1}, {"a": 1, "b": 2}]}`, true},
		{`{"x": [null, null]}`, false},
		{`{"x": [{"$numberDouble": "NaN"}, {"$numberDouble": "NaN"}]}`, false},
		{`{"y": [1, 2]}`, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.Matches(doc(tt.doc)), tt.doc)
	}
}

func TestUniqueItemsMatchesValue(t *testing.T) {
	m, err := NewUniqueItemsMatch("x", document.MustValueOf(true))
	require.NoError(t, err)

	assert.True(t, m.MatchesValue(document.MustValueOf(bson.A{1, "1", true})))
	assert.False(t, m.MatchesValue(document.MustValueOf(bson.A{true, true})))
	assert.False(t, m.MatchesValue(bson.RawValue{}))
}

func TestObjectMatchOnlyAcceptsAnObject(t *testing.T) {
	for _, arg := range []any{1, "string", bson.A{bson.D{{Key: "a", Value: 1}}, bson.D{{Key: "b", Value: 1}}}} {
		err := compileErr(bson.D{{Key: "a", Value: bson.D{{Key: opObjectMatch, Value: arg}}}})
		assert.Equal(t, status.FailedToParse, status.CodeOf(err), "%v", arg)
	}
}

func TestObjectMatch(t *testing.T) {
	e, err := ParseExtJSON(`{"a": {"$_internalSchemaObjectMatch": {"b": {"$gte": 0}}}}`)
	require.NoError(t, err)
	assert.Equal(t, MatchSchemaObjectMatch, e.MatchType())

	assert.False(t, e.Matches(doc(`{"a": 1}`)))
	assert.False(t, e.Matches(doc(`{"a": {"b": "string"}}`)))
	assert.False(t, e.Matches(doc(`{"a": {"b": -1}}`)))
	assert.True(t, e.Matches(doc(`{"a": {"b": 1}}`)))
	assert.True(t, e.Matches(doc(`{"a": [{"b": 0}]}`)))
	assert.True(t, e.Matches(doc(`{"a": [1, "x", {"b": 3}]}`)))
	assert.False(t, e.Matches(doc(`{"a": [1, "x", {"b": -3}]}`)))
	assert.False(t, e.Matches(doc(`{}`)))
}

func TestNestedObjectMatch(t *testing.T) {
	e, err := ParseExtJSON(`{"a": {"$_internalSchemaObjectMatch": {
		"b": {"$_internalSchemaObjectMatch": {
			"$or": [{"c": {"$type": "string"}}, {"c": {"$gt": 0}}]
		}}
	}}}`)
	require.NoError(t, err)

	assert.False(t, e.Matches(doc(`{"a": 1}`)))
	assert.False(t, e.Matches(doc(`{"a": {"b": {"c": {}}}}`)))
	assert.False(t, e.Matches(doc(`{"a": {"b": {"c": 0}}}`)))
	assert.True(t, e.Matches(doc(`{"a": {"b": {"c": "string"}}}`)))
	assert.True(t, e.Matches(doc(`{"a": {"b": {"c": 1}}}`)))
	assert.True(t, e.Matches(doc(`{"a": [{"b": 0}, {"b": [{"c": 0}, {"c": "string"}]}]}`)))
}

func TestObjectMatchRejectsTopLevelOperators(t *testing.T) {
	for _, op := range []string{"$isolated", "$atomic"} {
		_, err := ParseExtJSON(`{"a": {"$_internalSchemaObjectMatch": {"` + op + `": 1}}}`)
		require.Error(t, err)
		assert.Equal(t, status.BadValue, status.CodeOf(err), op)
	}

	// The same operators are legal at the top level.
	e, err := ParseExtJSON(`{"$isolated": 1, "a": 1}`)
	require.NoError(t, err)
	assert.True(t, e.Matches(doc(`{"a": 1}`)))
}

func TestSchemaNodesAreSafeForConcurrentUse(t *testing.T) {
	e := MustParseExtJSON(`{"a": {"$_internalSchemaObjectMatch": {"b": {"$_internalSchemaUniqueItems": true}}}}`)
	match := doc(`{"a": {"b": [1, 2, 3]}}`)
	miss := doc(`{"a": {"b": [1, 1]}}`)

	done := make(chan bool)
	for i := 0; i < 8; i++ {
		go func() {
			ok := true
			for j := 0; j < 100; j++ {
				ok = ok && e.Matches(match) && !e.Matches(miss)
			}
			done <- ok
		}()
	}
	for i := 0; i < 8; i++ {
		assert.True(t, <-done)
	}
}
