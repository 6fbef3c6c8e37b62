package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

func TestFromExtJSON(t *testing.T) {
	doc, err := FromExtJSON(`{"a": 1, "b": 2.5, "c": {"$numberLong": "7"}, "d": [1, "x"], "e": {"f": null}}`)
	require.NoError(t, err)
	require.NoError(t, doc.Validate())

	assert.Equal(t, bsontype.Int32, doc.Lookup("a").Type)
	assert.Equal(t, bsontype.Double, doc.Lookup("b").Type)
	assert.Equal(t, bsontype.Int64, doc.Lookup("c").Type)
	assert.Equal(t, bsontype.Array, doc.Lookup("d").Type)
	assert.Equal(t, bsontype.Null, doc.Lookup("e", "f").Type)
	assert.Equal(t, 2, ArrayLen(doc.Lookup("d")))

	_, err = FromExtJSON(`{"a": `)
	assert.Error(t, err)
}

func TestID(t *testing.T) {
	doc := MustFromExtJSON(`{"_id": "abc", "x": 1}`)
	v, ok := ID(doc)
	require.True(t, ok)
	assert.Equal(t, "abc", FormatValue(v))

	_, ok = ID(MustFromExtJSON(`{"x": 1}`))
	assert.False(t, ok)

	assert.Equal(t, "42", FormatValue(MustValueOf(int64(42))))
}

func TestIsMissing(t *testing.T) {
	assert.True(t, IsMissing(bson.RawValue{}))
	assert.False(t, IsMissing(MustValueOf(nil)))
}
