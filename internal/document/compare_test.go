package document

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCompareAcrossTypes(t *testing.T) {
	ordered := []any{
		primitive.MinKey{},
		nil,
		int32(-5),
		"a",
		bson.D{{Key: "a", Value: 1}},
		bson.A{1},
		primitive.Binary{Data: []byte{1}},
		primitive.NewObjectIDFromTimestamp(primitiveTime()),
		false,
		primitive.DateTime(10),
		primitive.Timestamp{T: 1, I: 1},
		primitive.Regex{Pattern: "x"},
		primitive.MaxKey{},
	}
	for i := 0; i+1 < len(ordered); i++ {
		a, b := MustValueOf(ordered[i]), MustValueOf(ordered[i+1])
		assert.Equal(t, -1, Compare(a, b), "%v < %v", ordered[i], ordered[i+1])
		assert.Equal(t, 1, Compare(b, a), "%v > %v", ordered[i+1], ordered[i])
	}
}

func TestCompareNumbers(t *testing.T) {
	d2, _ := primitive.ParseDecimal128("2")
	assert.Equal(t, 0, Compare(MustValueOf(int32(2)), MustValueOf(2.0)))
	assert.Equal(t, 0, Compare(MustValueOf(int64(2)), MustValueOf(d2)))
	assert.Equal(t, -1, Compare(MustValueOf(int32(1)), MustValueOf(1.5)))
	assert.Equal(t, 1, Compare(MustValueOf(int64(math.MaxInt64)), MustValueOf(int64(math.MaxInt64-1))))
	assert.Equal(t, -1, Compare(MustValueOf(math.NaN()), MustValueOf(math.Inf(-1))))
	assert.Equal(t, 0, Compare(MustValueOf(math.NaN()), MustValueOf(math.NaN())))
}

func TestEquivalent(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"int and double", `{"v": 2}`, `{"v": 2.0}`, true},
		{"int and long", `{"v": 2}`, `{"v": {"$numberLong": "2"}}`, true},
		{"int and decimal", `{"v": 2}`, `{"v": {"$numberDecimal": "2.00"}}`, true},
		{"string and number", `{"v": "7"}`, `{"v": 7}`, false},
		{"object key order", `{"v": {"a": 1, "b": 2}}`, `{"v": {"b": 2, "a": 1}}`, true},
		{"object extra key", `{"v": {"a": 1}}`, `{"v": {"a": 1, "b": 2}}`, false},
		{"array order", `{"v": [1, 2]}`, `{"v": [2, 1]}`, false},
		{"nested arrays", `{"v": [[1, {"a": 1.0}]]}`, `{"v": [[1.0, {"a": 1}]]}`, true},
		{"empty array vs empty object", `{"v": []}`, `{"v": {}}`, false},
		{"null vs missing-like", `{"v": null}`, `{"v": null}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := MustFromExtJSON(tt.a).Lookup("v")
			b := MustFromExtJSON(tt.b).Lookup("v")
			assert.Equal(t, tt.want, Equivalent(a, b))
			assert.Equal(t, tt.want, Equivalent(b, a))
			if tt.want {
				assert.Equal(t, Hash(a), Hash(b))
			}
		})
	}
}

func TestCompareDocumentsIsOrderSensitive(t *testing.T) {
	a := MustFromExtJSON(`{"v": {"a": 1, "b": 2}}`).Lookup("v")
	b := MustFromExtJSON(`{"v": {"b": 2, "a": 1}}`).Lookup("v")
	assert.NotEqual(t, 0, Compare(a, b))
	assert.True(t, Equivalent(a, b))
}

func primitiveTime() time.Time {
	return time.Unix(1700000000, 0)
}
