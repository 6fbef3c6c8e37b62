// Package write normalizes inbound insert, update and delete requests into
// canonical batches. Requests arrive either as structured command messages or
// as legacy fixed-layout messages; both produce the same batch types.
package write

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/vexsearch/vexdb/internal/namespace"
)

// Op is the kind of write a batch carries.
type Op int

const (
	OpInsert Op = iota
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// entriesField is the command field holding the batch entries.
func (o Op) entriesField() string {
	switch o {
	case OpInsert:
		return "documents"
	case OpUpdate:
		return "updates"
	case OpDelete:
		return "deletes"
	}
	return ""
}

// WriteCommandBase holds the settings shared by every entry of a batch.
// A nil StmtIDs means no statement ids were supplied; an empty non-nil slice
// means an explicitly empty list.
type WriteCommandBase struct {
	Ordered                  bool
	BypassDocumentValidation bool
	StmtIDs                  []int32
}

// DefaultWriteCommandBase returns the settings used when a command omits them.
func DefaultWriteCommandBase() WriteCommandBase {
	return WriteCommandBase{Ordered: true}
}

// Batch is implemented by InsertBatch, UpdateBatch and DeleteBatch.
type Batch interface {
	Op() Op
	Len() int
	NS() namespace.Namespace
	Base() WriteCommandBase
	// Command renders the batch as its canonical command document.
	Command() bson.D
}

type InsertBatch struct {
	Namespace namespace.Namespace
	WriteCommandBase
	Documents []bson.Raw
}

func (b *InsertBatch) Op() Op                  { return OpInsert }
func (b *InsertBatch) Len() int                { return len(b.Documents) }
func (b *InsertBatch) NS() namespace.Namespace { return b.Namespace }
func (b *InsertBatch) Base() WriteCommandBase  { return b.WriteCommandBase }

// UpdateEntry is one statement of an update batch.
type UpdateEntry struct {
	Query        bson.Raw
	Update       bson.Raw
	Upsert       bool
	Multi        bool
	ArrayFilters []bson.Raw
	Collation    bson.Raw
}

type UpdateBatch struct {
	Namespace namespace.Namespace
	WriteCommandBase
	Updates []UpdateEntry
}

func (b *UpdateBatch) Op() Op                  { return OpUpdate }
func (b *UpdateBatch) Len() int                { return len(b.Updates) }
func (b *UpdateBatch) NS() namespace.Namespace { return b.Namespace }
func (b *UpdateBatch) Base() WriteCommandBase  { return b.WriteCommandBase }

// DeleteEntry is one statement of a delete batch.
type DeleteEntry struct {
	Query     bson.Raw
	Multi     bool
	Collation bson.Raw
}

type DeleteBatch struct {
	Namespace namespace.Namespace
	WriteCommandBase
	Deletes []DeleteEntry
}

func (b *DeleteBatch) Op() Op                  { return OpDelete }
func (b *DeleteBatch) Len() int                { return len(b.Deletes) }
func (b *DeleteBatch) NS() namespace.Namespace { return b.Namespace }
func (b *DeleteBatch) Base() WriteCommandBase  { return b.WriteCommandBase }

// StmtIDs returns the statement id of every entry of b in order.
func StmtIDs(b Batch) []int32 {
	base := b.Base()
	ids := make([]int32, b.Len())
	for i := range ids {
		ids[i] = StmtIDForWriteAt(base, i)
	}
	return ids
}
