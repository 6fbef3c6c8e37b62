package matcher

import (
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/vexsearch/vexdb/internal/document"
	"github.com/vexsearch/vexdb/internal/status"
)

// typeAliases maps $type string aliases to BSON types.
var typeAliases = map[string]bsontype.Type{
	"double":              bsontype.Double,
	"string":              bsontype.String,
	"object":              bsontype.EmbeddedDocument,
	"array":               bsontype.Array,
	"binData":             bsontype.Binary,
	"undefined":           bsontype.Undefined,
	"objectId":            bsontype.ObjectID,
	"bool":                bsontype.Boolean,
	"date":                bsontype.DateTime,
	"null":                bsontype.Null,
	"regex":               bsontype.Regex,
	"dbPointer":           bsontype.DBPointer,
	"javascript":          bsontype.JavaScript,
	"symbol":              bsontype.Symbol,
	"javascriptWithScope": bsontype.CodeWithScope,
	"int":                 bsontype.Int32,
	"timestamp":           bsontype.Timestamp,
	"long":                bsontype.Int64,
	"decimal":             bsontype.Decimal128,
	"minKey":              bsontype.MinKey,
	"maxKey":              bsontype.MaxKey,
}

const numberAlias = "number"

func validTypeCode(code float64) (bsontype.Type, bool) {
	switch code {
	case -1:
		return bsontype.MinKey, true
	case 127:
		return bsontype.MaxKey, true
	}
	if code >= 1 && code <= 19 {
		return bsontype.Type(byte(code)), true
	}
	return 0, false
}

func newTypeMatch(path string, arg bson.RawValue) (*TypeMatch, error) {
	p, err := newPathNode(path)
	if err != nil {
		return nil, err
	}
	m := &TypeMatch{pathNode: p}

	specs := []bson.RawValue{arg}
	if arg.Type == bsontype.Array {
		specs = document.ArrayValues(arg)
		if len(specs) == 0 {
			return nil, status.New(status.FailedToParse, "$type must match at least one type")
		}
	}
	for _, spec := range specs {
		if err := m.addType(spec); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *TypeMatch) addType(spec bson.RawValue) error {
	switch {
	case spec.Type == bsontype.String:
		name := spec.StringValue()
		if name == numberAlias {
			m.allNumbers = true
			return nil
		}
		t, ok := typeAliases[name]
		if !ok {
			return status.Newf(status.BadValue, "Unknown type name alias: %s", name)
		}
		m.types = append(m.types, t)
		return nil
	case document.IsNumber(spec.Type):
		code, _ := document.ToFloat64(spec)
		if code != math.Trunc(code) {
			return status.Newf(status.BadValue, "Invalid numerical type code: %v", code)
		}
		t, ok := validTypeCode(code)
		if !ok {
			return status.Newf(status.BadValue, "Invalid numerical type code: %v", code)
		}
		m.types = append(m.types, t)
		return nil
	}
	return status.Newf(status.TypeMismatch, "type must be represented as a number or a string, got %s", spec.Type)
}
