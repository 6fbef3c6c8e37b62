// Package document provides the BSON value model shared by the write parser
// and the match-expression compiler: ext-JSON conversion, numeric coercion,
// canonical ordering, structural equality, hashing and dotted-path traversal.
package document

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// DefaultMaxSizeBytes is the largest document accepted by default (16MB).
const DefaultMaxSizeBytes = 16 * 1024 * 1024

// FromExtJSON converts relaxed or canonical extended JSON into a BSON document.
func FromExtJSON(s string) (bson.Raw, error) {
	var d bson.D
	if err := bson.UnmarshalExtJSON([]byte(s), false, &d); err != nil {
		return nil, fmt.Errorf("parse extended JSON: %w", err)
	}
	b, err := bson.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return bson.Raw(b), nil
}

// MustFromExtJSON is FromExtJSON that panics on error.
func MustFromExtJSON(s string) bson.Raw {
	doc, err := FromExtJSON(s)
	if err != nil {
		panic(err)
	}
	return doc
}

// ToExtJSON renders doc as relaxed extended JSON.
func ToExtJSON(doc bson.Raw) string {
	b, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return doc.String()
	}
	return string(b)
}

// Marshal converts a Go value (typically bson.D or bson.M) into a document.
func Marshal(v any) (bson.Raw, error) {
	b, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bson.Raw(b), nil
}

// ValueOf wraps a Go value as a RawValue.
func ValueOf(v any) (bson.RawValue, error) {
	if v == nil {
		return bson.RawValue{Type: bsontype.Null}, nil
	}
	t, data, err := bson.MarshalValue(v)
	if err != nil {
		return bson.RawValue{}, err
	}
	return bson.RawValue{Type: t, Value: data}, nil
}

// MustValueOf is ValueOf that panics on error.
func MustValueOf(v any) bson.RawValue {
	rv, err := ValueOf(v)
	if err != nil {
		panic(err)
	}
	return rv
}

// IsMissing reports whether v is the zero RawValue used for absent fields.
func IsMissing(v bson.RawValue) bool {
	return v.Type == 0
}

// IsArray reports whether v is a BSON array.
func IsArray(v bson.RawValue) bool {
	return v.Type == bsontype.Array
}

// IsObject reports whether v is an embedded document.
func IsObject(v bson.RawValue) bool {
	return v.Type == bsontype.EmbeddedDocument
}

// ArrayValues returns the elements of an array value. Malformed arrays yield
// nil.
func ArrayValues(v bson.RawValue) []bson.RawValue {
	arr, ok := v.ArrayOK()
	if !ok {
		return nil
	}
	vals, err := bson.Raw(arr).Values()
	if err != nil {
		return nil
	}
	return vals
}

// ArrayLen returns the number of elements in an array value.
func ArrayLen(v bson.RawValue) int {
	arr, ok := v.ArrayOK()
	if !ok {
		return 0
	}
	vals, err := bsoncore.Document(arr).Values()
	if err != nil {
		return 0
	}
	return len(vals)
}

// Elements returns the elements of a document, or nil if doc is malformed.
func Elements(doc bson.Raw) []bson.RawElement {
	elems, err := doc.Elements()
	if err != nil {
		return nil
	}
	return elems
}
