package wire

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

func appendInt32(dst []byte, v int32) []byte {
	return bsoncore.AppendInt32(dst, v)
}

func appendCString(dst []byte, s string) []byte {
	dst = append(dst, s...)
	return append(dst, 0)
}

// BuildInsert encodes a legacy insert of docs into ns.
func BuildInsert(requestID int32, ns string, opts InsertOptions, docs ...bson.Raw) Message {
	body := appendInt32(nil, opts.Bits())
	body = appendCString(body, ns)
	for _, doc := range docs {
		body = append(body, doc...)
	}
	return NewMessage(OpInsert, requestID, body)
}

// BuildUpdate encodes a legacy update.
func BuildUpdate(requestID int32, ns string, opts UpdateOptions, query, update bson.Raw) Message {
	body := appendInt32(nil, 0)
	body = appendCString(body, ns)
	body = appendInt32(body, opts.Bits())
	body = append(body, query...)
	body = append(body, update...)
	return NewMessage(OpUpdate, requestID, body)
}

// BuildDelete encodes a legacy delete.
func BuildDelete(requestID int32, ns string, opts DeleteOptions, query bson.Raw) Message {
	body := appendInt32(nil, 0)
	body = appendCString(body, ns)
	body = appendInt32(body, opts.Bits())
	body = append(body, query...)
	return NewMessage(OpDelete, requestID, body)
}
