package document

import (
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// IDField is the primary key field of every stored document.
const IDField = "_id"

// ID returns the _id value of doc, if present.
func ID(doc bson.Raw) (bson.RawValue, bool) {
	v, err := doc.LookupErr(IDField)
	if err != nil {
		return bson.RawValue{}, false
	}
	return v, true
}

// FormatValue renders a value for error messages and reports. Strings and
// ObjectIDs are returned bare; everything else uses extended JSON.
func FormatValue(v bson.RawValue) string {
	switch v.Type {
	case 0:
		return ""
	case bsontype.String:
		return v.StringValue()
	case bsontype.ObjectID:
		return v.ObjectID().Hex()
	case bsontype.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case bsontype.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	}
	return RenderValue(v)
}

// RenderValue renders v as relaxed extended JSON.
func RenderValue(v bson.RawValue) string {
	if v.Type == 0 {
		return ""
	}
	b, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: v}}, false, false)
	if err != nil {
		return v.String()
	}
	s := strings.TrimPrefix(string(b), `{"v":`)
	return strings.TrimSuffix(s, "}")
}
