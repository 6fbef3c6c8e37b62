package write

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vexsearch/vexdb/internal/document"
	"github.com/vexsearch/vexdb/internal/status"
)

// firstStmtID is the id implicitly assigned to the first entry of a batch
// without explicit statement ids.
const firstStmtID int32 = 0

// StmtIDForWriteAt returns the statement id of the entry at pos. Explicit ids
// win; otherwise the id is the position itself, so a replayed batch without
// ids gets the same ids again. pos must be within the batch.
func StmtIDForWriteAt(base WriteCommandBase, pos int) int32 {
	if base.StmtIDs != nil {
		return base.StmtIDs[pos]
	}
	return firstStmtID + int32(pos)
}

// ReadMultiDeleteProperty decodes the "limit" field of a delete entry:
// 0 deletes every match, 1 deletes a single match. The value is compared as
// a double so that fractional values such as 0.5 are rejected, not truncated.
func ReadMultiDeleteProperty(v bson.RawValue) (bool, error) {
	if !document.IsNumber(v.Type) {
		return false, status.Newf(status.TypeMismatch,
			"The limit field in delete objects must be a number. Got %s", v.Type)
	}
	limit, _ := document.ToFloat64(v)
	if limit != 0 && limit != 1 {
		return false, status.Newf(status.FailedToParse,
			"The limit field in delete objects must be 0 or 1. Got %v", limit)
	}
	return limit == 0, nil
}

// AppendMultiDeleteProperty appends the "limit" encoding of multi to d.
func AppendMultiDeleteProperty(d bson.D, key string, multi bool) bson.D {
	limit := int32(1)
	if multi {
		limit = 0
	}
	return append(d, bson.E{Key: key, Value: limit})
}
