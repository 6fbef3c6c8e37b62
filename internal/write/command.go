package write

import (
	"go.mongodb.org/mongo-driver/bson"
)

// commandHeader renders the fields every write command starts with.
func commandHeader(op Op, b Batch) bson.D {
	base := b.Base()
	d := bson.D{
		{Key: op.String(), Value: b.NS().Collection},
		{Key: "$db", Value: b.NS().DB},
		{Key: "ordered", Value: base.Ordered},
		{Key: "bypassDocumentValidation", Value: base.BypassDocumentValidation},
	}
	if base.StmtIDs != nil {
		ids := bson.A{}
		for _, id := range base.StmtIDs {
			ids = append(ids, id)
		}
		d = append(d, bson.E{Key: "stmtIds", Value: ids})
	}
	return d
}

// Command renders the batch in structured command form. Legacy batches are
// upconverted the same way.
func (b *InsertBatch) Command() bson.D {
	docs := make(bson.A, len(b.Documents))
	for i, doc := range b.Documents {
		docs[i] = doc
	}
	return append(commandHeader(OpInsert, b), bson.E{Key: "documents", Value: docs})
}

func (b *UpdateBatch) Command() bson.D {
	updates := make(bson.A, len(b.Updates))
	for i, e := range b.Updates {
		entry := bson.D{
			{Key: "q", Value: e.Query},
			{Key: "u", Value: e.Update},
			{Key: "upsert", Value: e.Upsert},
			{Key: "multi", Value: e.Multi},
		}
		if len(e.ArrayFilters) > 0 {
			filters := make(bson.A, len(e.ArrayFilters))
			for j, f := range e.ArrayFilters {
				filters[j] = f
			}
			entry = append(entry, bson.E{Key: "arrayFilters", Value: filters})
		}
		if e.Collation != nil {
			entry = append(entry, bson.E{Key: "collation", Value: e.Collation})
		}
		updates[i] = entry
	}
	return append(commandHeader(OpUpdate, b), bson.E{Key: "updates", Value: updates})
}

func (b *DeleteBatch) Command() bson.D {
	deletes := make(bson.A, len(b.Deletes))
	for i, e := range b.Deletes {
		entry := bson.D{{Key: "q", Value: e.Query}}
		entry = AppendMultiDeleteProperty(entry, "limit", e.Multi)
		if e.Collation != nil {
			entry = append(entry, bson.E{Key: "collation", Value: e.Collation})
		}
		deletes[i] = entry
	}
	return append(commandHeader(OpDelete, b), bson.E{Key: "deletes", Value: deletes})
}

// CommandRaw marshals the command form of b.
func CommandRaw(b Batch) (bson.Raw, error) {
	return bson.Marshal(b.Command())
}
