package document

import (
	"errors"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

var ErrEmptyPathComponent = errors.New("field path contains an empty component")

// FieldPath is a parsed dotted path such as "a.b.0.c".
type FieldPath []string

// ParseFieldPath splits a dotted path. Empty components are rejected.
func ParseFieldPath(s string) (FieldPath, error) {
	if s == "" {
		return nil, ErrEmptyPathComponent
	}
	parts := strings.Split(s, ".")
	for _, p := range parts {
		if p == "" {
			return nil, ErrEmptyPathComponent
		}
	}
	return FieldPath(parts), nil
}

func (p FieldPath) String() string {
	return strings.Join(p, ".")
}

// Walk resolves path against doc and calls fn for every value it reaches.
// Arrays met along the way are traversed implicitly: a numeric component
// indexes the array, and every embedded document in the array is descended
// into with the same remaining path. When expandLeaf is set, an array found
// at the end of the path is reported both as a whole and element by element.
// When nothing is reached fn is called once with the zero RawValue. Walk stops
// early when fn returns true, and returns whether it did.
func Walk(doc bson.Raw, path FieldPath, expandLeaf bool, fn func(bson.RawValue) bool) bool {
	var found bool
	stop := walkDocument(doc, path, expandLeaf, func(v bson.RawValue) bool {
		found = true
		return fn(v)
	})
	if stop {
		return true
	}
	if !found {
		return fn(bson.RawValue{})
	}
	return false
}

func walkDocument(doc bson.Raw, path FieldPath, expandLeaf bool, fn func(bson.RawValue) bool) bool {
	v, err := doc.LookupErr(path[0])
	if err != nil {
		return false
	}
	return walkValue(v, path[1:], expandLeaf, fn)
}

func walkValue(v bson.RawValue, rest FieldPath, expandLeaf bool, fn func(bson.RawValue) bool) bool {
	if len(rest) == 0 {
		if fn(v) {
			return true
		}
		if expandLeaf && v.Type == bsontype.Array {
			for _, elem := range ArrayValues(v) {
				if fn(elem) {
					return true
				}
			}
		}
		return false
	}

	switch v.Type {
	case bsontype.EmbeddedDocument:
		return walkDocument(v.Document(), rest, expandLeaf, fn)
	case bsontype.Array:
		elems := ArrayValues(v)
		if idx, ok := arrayIndex(rest[0]); ok && idx < len(elems) {
			if walkValue(elems[idx], rest[1:], expandLeaf, fn) {
				return true
			}
		}
		for _, elem := range elems {
			if elem.Type != bsontype.EmbeddedDocument {
				continue
			}
			if walkDocument(elem.Document(), rest, expandLeaf, fn) {
				return true
			}
		}
	}
	return false
}

func arrayIndex(s string) (int, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return i, true
}
