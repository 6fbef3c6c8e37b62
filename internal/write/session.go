package write

import (
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// SessionID extracts the logical session id from the "lsid" field of a command
// body. It returns "" when the command carries no session.
func SessionID(body bson.Raw) string {
	v, err := body.LookupErr("lsid", "id")
	if err != nil {
		return ""
	}
	if v.Type == bsontype.Binary {
		_, data := v.Binary()
		if id, err := uuid.FromBytes(data); err == nil {
			return id.String()
		}
	}
	if v.Type == bsontype.String {
		if id, err := uuid.Parse(v.StringValue()); err == nil {
			return id.String()
		}
	}
	return ""
}

// TxnNumber returns the "txnNumber" generic argument of a command body.
// Statement ids are only unique within one (session, txnNumber) pair.
func TxnNumber(body bson.Raw) (int64, bool) {
	v, err := body.LookupErr("txnNumber")
	if err != nil {
		return 0, false
	}
	switch v.Type {
	case bsontype.Int64:
		return v.Int64(), true
	case bsontype.Int32:
		return int64(v.Int32()), true
	}
	return 0, false
}
