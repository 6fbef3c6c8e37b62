package write

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/vexsearch/vexdb/internal/document"
	"github.com/vexsearch/vexdb/internal/guardrails"
	"github.com/vexsearch/vexdb/internal/wire"
)

func doc(s string) bson.Raw {
	return document.MustFromExtJSON(s)
}

func marshal(d bson.D) bson.Raw {
	b, err := bson.Marshal(d)
	if err != nil {
		panic(err)
	}
	return b
}

func request(s string) *wire.OpMsgRequest {
	return wire.NewOpMsgRequest(doc(s))
}

func newParser() *Parser {
	return NewParser(guardrails.DefaultLimits())
}

// insertOf builds an insert command with n generated documents.
func insertOf(coll string, n int, extra ...bson.E) bson.Raw {
	docs := make(bson.A, n)
	for i := range docs {
		docs[i] = bson.D{{Key: "_id", Value: int32(i)}, {Key: "name", Value: fmt.Sprintf("doc-%d", i)}}
	}
	d := bson.D{{Key: "insert", Value: coll}, {Key: "$db", Value: "test"}}
	d = append(d, extra...)
	d = append(d, bson.E{Key: "documents", Value: docs})
	return marshal(d)
}

func docsOf(n int) []bson.Raw {
	out := make([]bson.Raw, n)
	for i := range out {
		out[i] = marshal(bson.D{{Key: "_id", Value: int32(i)}})
	}
	return out
}
