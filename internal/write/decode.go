package write

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/vexsearch/vexdb/internal/document"
	"github.com/vexsearch/vexdb/internal/namespace"
	"github.com/vexsearch/vexdb/internal/status"
	"github.com/vexsearch/vexdb/internal/wire"
)

// genericArguments are command fields every command accepts and this parser
// ignores. Fields starting with "$" are accepted as well.
var genericArguments = map[string]bool{
	"writeConcern":     true,
	"readConcern":      true,
	"lsid":             true,
	"txnNumber":        true,
	"autocommit":       true,
	"startTransaction": true,
	"maxTimeMS":        true,
	"comment":          true,
}

func isGenericArgument(name string) bool {
	return strings.HasPrefix(name, "$") || genericArguments[name]
}

// commandFields are the decoded top-level fields of a write command. Entries
// are kept as raw values until the batch-level checks have passed.
type commandFields struct {
	ns      namespace.Namespace
	base    WriteCommandBase
	entries []bson.RawValue
}

func missingField(cmd, field string) error {
	return status.Newf(status.IDLMissingField, "BSON field '%s.%s' is missing but a required field", cmd, field)
}

func wrongType(cmd, field string, got bsontype.Type, want string) error {
	return status.Newf(status.TypeMismatch, "BSON field '%s.%s' is the wrong type '%s', expected type '%s'",
		cmd, field, typeName(got), want)
}

func typeName(t bsontype.Type) string {
	switch t {
	case bsontype.Double:
		return "double"
	case bsontype.String:
		return "string"
	case bsontype.EmbeddedDocument:
		return "object"
	case bsontype.Array:
		return "array"
	case bsontype.Boolean:
		return "bool"
	case bsontype.Null:
		return "null"
	case bsontype.Int32:
		return "int"
	case bsontype.Int64:
		return "long"
	case bsontype.Decimal128:
		return "decimal"
	}
	return t.String()
}

// decodeCommand decodes the body and document sequences of a structured
// insert, update or delete request.
func decodeCommand(op Op, req *wire.OpMsgRequest) (*commandFields, error) {
	cmd := op.String()
	field := op.entriesField()

	elems, err := req.Body.Elements()
	if err != nil {
		return nil, status.Wrap(status.InvalidBSON, err, "invalid command body")
	}
	if len(elems) == 0 || elems[0].Key() != cmd {
		return nil, status.Newf(status.BadValue, "expected %s command", cmd)
	}

	collVal := elems[0].Value()
	if collVal.Type != bsontype.String {
		return nil, wrongType(cmd, cmd, collVal.Type, "string")
	}

	out := &commandFields{base: DefaultWriteCommandBase()}
	var (
		db          string
		haveDB      bool
		haveEntries bool
	)
	seen := make(map[string]bool, len(elems))
	seen[cmd] = true

	for _, elem := range elems[1:] {
		name := elem.Key()
		if seen[name] {
			return nil, status.Newf(status.IDLDuplicateField, "BSON field '%s.%s' is a duplicate field", cmd, name)
		}
		seen[name] = true
		v := elem.Value()

		switch {
		case name == "$db":
			if v.Type != bsontype.String {
				return nil, wrongType(cmd, name, v.Type, "string")
			}
			db, haveDB = v.StringValue(), true
		case name == "ordered":
			if v.Type != bsontype.Boolean {
				return nil, wrongType(cmd, name, v.Type, "bool")
			}
			out.base.Ordered = v.Boolean()
		case name == "bypassDocumentValidation":
			b, ok := safeBool(v)
			if !ok {
				return nil, wrongType(cmd, name, v.Type, "bool")
			}
			out.base.BypassDocumentValidation = b
		case name == "stmtIds":
			ids, err := decodeStmtIDs(cmd, v)
			if err != nil {
				return nil, err
			}
			out.base.StmtIDs = ids
		case name == field:
			if v.Type != bsontype.Array {
				return nil, wrongType(cmd, name, v.Type, "array")
			}
			out.entries = document.ArrayValues(v)
			haveEntries = true
		case isGenericArgument(name):
		default:
			return nil, status.Newf(status.IDLUnknownField, "BSON field '%s.%s' is an unknown field", cmd, name)
		}
	}

	for _, seq := range req.Sequences {
		if seq.Identifier != field {
			return nil, status.Newf(status.IDLUnknownField, "BSON field '%s.%s' is an unknown field", cmd, seq.Identifier)
		}
		if haveEntries {
			return nil, status.Newf(status.IDLDuplicateField, "BSON field '%s.%s' is a duplicate field", cmd, field)
		}
		out.entries = make([]bson.RawValue, len(seq.Documents))
		for i, d := range seq.Documents {
			out.entries[i] = bson.RawValue{Type: bsontype.EmbeddedDocument, Value: d}
		}
		haveEntries = true
	}

	if !haveDB {
		return nil, missingField(cmd, "$db")
	}
	if !haveEntries {
		return nil, missingField(cmd, field)
	}

	out.ns, err = namespace.New(db, collVal.StringValue())
	if err != nil {
		return nil, err
	}
	return out, nil
}

// safeBool accepts booleans and numbers, numbers being true when non-zero.
func safeBool(v bson.RawValue) (bool, bool) {
	if v.Type == bsontype.Boolean {
		return v.Boolean(), true
	}
	if document.IsNumber(v.Type) {
		f, _ := document.ToFloat64(v)
		return f != 0, true
	}
	return false, false
}

func decodeStmtIDs(cmd string, v bson.RawValue) ([]int32, error) {
	if v.Type != bsontype.Array {
		return nil, wrongType(cmd, "stmtIds", v.Type, "array")
	}
	vals := document.ArrayValues(v)
	ids := make([]int32, 0, len(vals))
	for i, elem := range vals {
		if elem.Type != bsontype.Int32 {
			return nil, status.Newf(status.TypeMismatch,
				"BSON field '%s.stmtIds.%d' is the wrong type '%s', expected type 'int'", cmd, i, typeName(elem.Type))
		}
		ids = append(ids, elem.Int32())
	}
	return ids, nil
}

// entryDocument checks that an entry is an embedded document.
func entryDocument(cmd, field string, i int, v bson.RawValue) (bson.Raw, error) {
	d, ok := v.DocumentOK()
	if !ok {
		return nil, status.Newf(status.TypeMismatch,
			"BSON field '%s.%s.%d' is the wrong type '%s', expected type 'object'", cmd, field, i, typeName(v.Type))
	}
	return d, nil
}

func decodeUpdateEntry(i int, v bson.RawValue) (UpdateEntry, error) {
	const ctx = "update.updates"
	doc, err := entryDocument("update", "updates", i, v)
	if err != nil {
		return UpdateEntry{}, err
	}

	var (
		entry        UpdateEntry
		haveQ, haveU bool
	)
	seen := make(map[string]bool)
	for _, elem := range document.Elements(doc) {
		name := elem.Key()
		if seen[name] {
			return UpdateEntry{}, status.Newf(status.IDLDuplicateField, "BSON field '%s.%s' is a duplicate field", ctx, name)
		}
		seen[name] = true
		ev := elem.Value()

		switch name {
		case "q":
			if entry.Query, haveQ = ev.DocumentOK(); !haveQ {
				return UpdateEntry{}, wrongType(ctx, name, ev.Type, "object")
			}
		case "u":
			if entry.Update, haveU = ev.DocumentOK(); !haveU {
				return UpdateEntry{}, wrongType(ctx, name, ev.Type, "object")
			}
		case "upsert":
			if ev.Type != bsontype.Boolean {
				return UpdateEntry{}, wrongType(ctx, name, ev.Type, "bool")
			}
			entry.Upsert = ev.Boolean()
		case "multi":
			if ev.Type != bsontype.Boolean {
				return UpdateEntry{}, wrongType(ctx, name, ev.Type, "bool")
			}
			entry.Multi = ev.Boolean()
		case "arrayFilters":
			if ev.Type != bsontype.Array {
				return UpdateEntry{}, wrongType(ctx, name, ev.Type, "array")
			}
			vals := document.ArrayValues(ev)
			entry.ArrayFilters = make([]bson.Raw, 0, len(vals))
			for j, f := range vals {
				fd, ok := f.DocumentOK()
				if !ok {
					return UpdateEntry{}, status.Newf(status.TypeMismatch,
						"BSON field '%s.arrayFilters.%d' is the wrong type '%s', expected type 'object'", ctx, j, typeName(f.Type))
				}
				entry.ArrayFilters = append(entry.ArrayFilters, fd)
			}
		case "collation":
			var ok bool
			if entry.Collation, ok = ev.DocumentOK(); !ok {
				return UpdateEntry{}, wrongType(ctx, name, ev.Type, "object")
			}
		default:
			return UpdateEntry{}, status.Newf(status.IDLUnknownField, "BSON field '%s.%s' is an unknown field", ctx, name)
		}
	}
	if !haveQ {
		return UpdateEntry{}, missingField(ctx, "q")
	}
	if !haveU {
		return UpdateEntry{}, missingField(ctx, "u")
	}
	return entry, nil
}

func decodeDeleteEntry(i int, v bson.RawValue) (DeleteEntry, error) {
	const ctx = "delete.deletes"
	doc, err := entryDocument("delete", "deletes", i, v)
	if err != nil {
		return DeleteEntry{}, err
	}

	var (
		entry            DeleteEntry
		haveQ, haveLimit bool
	)
	seen := make(map[string]bool)
	for _, elem := range document.Elements(doc) {
		name := elem.Key()
		if seen[name] {
			return DeleteEntry{}, status.Newf(status.IDLDuplicateField, "BSON field '%s.%s' is a duplicate field", ctx, name)
		}
		seen[name] = true
		ev := elem.Value()

		switch name {
		case "q":
			if entry.Query, haveQ = ev.DocumentOK(); !haveQ {
				return DeleteEntry{}, wrongType(ctx, name, ev.Type, "object")
			}
		case "limit":
			multi, err := ReadMultiDeleteProperty(ev)
			if err != nil {
				return DeleteEntry{}, err
			}
			entry.Multi, haveLimit = multi, true
		case "collation":
			var ok bool
			if entry.Collation, ok = ev.DocumentOK(); !ok {
				return DeleteEntry{}, wrongType(ctx, name, ev.Type, "object")
			}
		default:
			return DeleteEntry{}, status.Newf(status.IDLUnknownField, "BSON field '%s.%s' is an unknown field", ctx, name)
		}
	}
	if !haveQ {
		return DeleteEntry{}, missingField(ctx, "q")
	}
	if !haveLimit {
		return DeleteEntry{}, missingField(ctx, "limit")
	}
	return entry, nil
}
