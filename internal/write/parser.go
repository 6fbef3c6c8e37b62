package write

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vexsearch/vexdb/internal/guardrails"
	"github.com/vexsearch/vexdb/internal/metrics"
	"github.com/vexsearch/vexdb/internal/namespace"
	"github.com/vexsearch/vexdb/internal/status"
	"github.com/vexsearch/vexdb/internal/wire"
)

// Transport labels for metrics.
const (
	TransportCommand = "op_msg"
	TransportLegacy  = "legacy"
)

// Parser converts requests into batches. A Parser holds only read-only limits
// and is safe for concurrent use.
type Parser struct {
	limits guardrails.Limits
}

// NewParser returns a Parser enforcing limits. Zero fields take defaults.
func NewParser(limits guardrails.Limits) *Parser {
	return &Parser{limits: limits.WithDefaults()}
}

func (p *Parser) Limits() guardrails.Limits {
	return p.limits
}

// checkOpCount enforces the batch-level invariants before any entry is
// decoded.
func (p *Parser) checkOpCount(base WriteCommandBase, n int) error {
	if err := p.limits.CheckBatchSize(n); err != nil {
		return err
	}
	return p.limits.CheckStmtIDs(base.StmtIDs, n)
}

func (p *Parser) checkDocumentSize(doc bson.Raw) error {
	if len(doc) > p.limits.MaxDocumentSizeBytes {
		return status.Newf(status.BSONObjectTooLarge,
			"document of %d bytes exceeds maximum of %d", len(doc), p.limits.MaxDocumentSizeBytes)
	}
	return nil
}

// ParseInsert parses a structured insert command.
func (p *Parser) ParseInsert(req *wire.OpMsgRequest) (*InsertBatch, error) {
	f, err := decodeCommand(OpInsert, req)
	if err != nil {
		return nil, err
	}
	if f.ns.IsSystemDotIndexes() && len(f.entries) != 1 {
		return nil, status.New(status.InvalidLength, "Insert commands to system.indexes are limited to a single insert")
	}
	if err := p.checkOpCount(f.base, len(f.entries)); err != nil {
		return nil, err
	}

	batch := &InsertBatch{Namespace: f.ns, WriteCommandBase: f.base, Documents: make([]bson.Raw, len(f.entries))}
	for i, v := range f.entries {
		doc, err := entryDocument("insert", "documents", i, v)
		if err != nil {
			return nil, err
		}
		if err := p.checkDocumentSize(doc); err != nil {
			return nil, err
		}
		batch.Documents[i] = doc
	}
	return batch, nil
}

// ParseUpdate parses a structured update command.
func (p *Parser) ParseUpdate(req *wire.OpMsgRequest) (*UpdateBatch, error) {
	f, err := decodeCommand(OpUpdate, req)
	if err != nil {
		return nil, err
	}
	if err := p.checkOpCount(f.base, len(f.entries)); err != nil {
		return nil, err
	}

	batch := &UpdateBatch{Namespace: f.ns, WriteCommandBase: f.base, Updates: make([]UpdateEntry, len(f.entries))}
	for i, v := range f.entries {
		if batch.Updates[i], err = decodeUpdateEntry(i, v); err != nil {
			return nil, err
		}
	}
	return batch, nil
}

// ParseDelete parses a structured delete command.
func (p *Parser) ParseDelete(req *wire.OpMsgRequest) (*DeleteBatch, error) {
	f, err := decodeCommand(OpDelete, req)
	if err != nil {
		return nil, err
	}
	if err := p.checkOpCount(f.base, len(f.entries)); err != nil {
		return nil, err
	}

	batch := &DeleteBatch{Namespace: f.ns, WriteCommandBase: f.base, Deletes: make([]DeleteEntry, len(f.entries))}
	for i, v := range f.entries {
		if batch.Deletes[i], err = decodeDeleteEntry(i, v); err != nil {
			return nil, err
		}
	}
	return batch, nil
}

// Parse dispatches a structured request on its command name.
func (p *Parser) Parse(req *wire.OpMsgRequest) (Batch, error) {
	var (
		batch Batch
		err   error
	)
	name := req.CommandName()
	switch name {
	case "insert":
		var b Batch
		if b, err = p.ParseInsert(req); err == nil {
			batch = b
		}
	case "update":
		var b Batch
		if b, err = p.ParseUpdate(req); err == nil {
			batch = b
		}
	case "delete":
		var b Batch
		if b, err = p.ParseDelete(req); err == nil {
			batch = b
		}
	default:
		err = status.Newf(status.BadValue, "unsupported write command %q", name)
	}
	observe(TransportCommand, name, batch, err)
	return batch, err
}

// ParseCommand parses a command document with optional document sequences.
func (p *Parser) ParseCommand(body bson.Raw, sequences ...wire.DocumentSequence) (Batch, error) {
	return p.Parse(&wire.OpMsgRequest{Body: body, Sequences: sequences})
}

func (p *Parser) openLegacy(m wire.Message) (*wire.LegacyMessage, namespace.Namespace, error) {
	lm, err := wire.NewLegacyMessage(m, p.limits.MaxDocumentSizeBytes)
	if err != nil {
		return nil, namespace.Namespace{}, err
	}
	ns, err := namespace.Parse(lm.Namespace())
	if err != nil {
		return nil, namespace.Namespace{}, err
	}
	return lm, ns, nil
}

// ParseLegacyInsert parses a legacy insert: a flag word, a namespace and one
// or more documents running to the end of the message.
func (p *Parser) ParseLegacyInsert(m wire.Message) (*InsertBatch, error) {
	lm, ns, err := p.openLegacy(m)
	if err != nil {
		return nil, err
	}

	opts := wire.DecodeInsertFlags(lm.Reserved())
	batch := &InsertBatch{
		Namespace: ns,
		WriteCommandBase: WriteCommandBase{
			Ordered:                  opts.Ordered(),
			BypassDocumentValidation: false,
		},
	}

	if !lm.MoreDocuments() {
		return nil, status.New(status.InvalidLength, "Need at least one object to insert")
	}
	for lm.MoreDocuments() {
		if len(batch.Documents) == p.limits.MaxWriteBatchSize {
			return nil, p.limits.CheckBatchSize(len(batch.Documents) + 1)
		}
		doc, err := lm.NextDocument()
		if err != nil {
			return nil, err
		}
		batch.Documents = append(batch.Documents, doc)
	}

	if ns.IsSystemDotIndexes() && len(batch.Documents) != 1 {
		return nil, status.New(status.InvalidLength, "Insert commands to system.indexes are limited to a single insert")
	}
	return batch, nil
}

// ParseLegacyUpdate parses a legacy update: namespace, flag word, query and
// update document. Bytes after the update document are ignored.
func (p *Parser) ParseLegacyUpdate(m wire.Message) (*UpdateBatch, error) {
	lm, ns, err := p.openLegacy(m)
	if err != nil {
		return nil, err
	}

	flags, err := lm.PullInt()
	if err != nil {
		return nil, err
	}
	opts := wire.DecodeUpdateFlags(flags)
	q, err := lm.NextDocument()
	if err != nil {
		return nil, err
	}
	u, err := lm.NextDocument()
	if err != nil {
		return nil, err
	}

	return &UpdateBatch{
		Namespace:        ns,
		WriteCommandBase: WriteCommandBase{Ordered: true},
		Updates: []UpdateEntry{{
			Query:  q,
			Update: u,
			Upsert: opts.Upsert,
			Multi:  opts.Multi,
		}},
	}, nil
}

// ParseLegacyDelete parses a legacy delete: namespace, flag word and query.
func (p *Parser) ParseLegacyDelete(m wire.Message) (*DeleteBatch, error) {
	lm, ns, err := p.openLegacy(m)
	if err != nil {
		return nil, err
	}

	flags, err := lm.PullInt()
	if err != nil {
		return nil, err
	}
	opts := wire.DecodeDeleteFlags(flags)
	q, err := lm.NextDocument()
	if err != nil {
		return nil, err
	}

	return &DeleteBatch{
		Namespace:        ns,
		WriteCommandBase: WriteCommandBase{Ordered: true},
		Deletes:          []DeleteEntry{{Query: q, Multi: opts.Multi()}},
	}, nil
}

// ParseLegacy dispatches a legacy message on its opcode.
func (p *Parser) ParseLegacy(m wire.Message) (Batch, error) {
	var (
		batch Batch
		err   error
	)
	op := m.Header.OpCode
	switch op {
	case wire.OpInsert:
		var b Batch
		if b, err = p.ParseLegacyInsert(m); err == nil {
			batch = b
		}
	case wire.OpUpdate:
		var b Batch
		if b, err = p.ParseLegacyUpdate(m); err == nil {
			batch = b
		}
	case wire.OpDelete:
		var b Batch
		if b, err = p.ParseLegacyDelete(m); err == nil {
			batch = b
		}
	default:
		err = status.Newf(status.ProtocolError, "%s is not a legacy write message", op)
	}
	observe(TransportLegacy, legacyOpName(op), batch, err)
	return batch, err
}

// ParseWire parses any supported write message, unwrapping compression
// first.
func (p *Parser) ParseWire(m wire.Message) (Batch, error) {
	batch, _, err := p.ParseWireRequest(m)
	return batch, err
}

// ParseWireRequest is ParseWire that also returns the decoded command for
// OP_MSG input, so callers can read generic arguments such as lsid. The
// request is nil for legacy messages.
func (p *Parser) ParseWireRequest(m wire.Message) (Batch, *wire.OpMsgRequest, error) {
	inner, compressor, err := wire.Decompress(m, p.limits.MaxMessageSizeBytes)
	if err != nil {
		metrics.RecordParseError(TransportCommand, status.CodeOf(err).String())
		return nil, nil, err
	}
	metrics.IncWireMessage(inner.Header.OpCode.String(), compressor.String())

	switch inner.Header.OpCode {
	case wire.OpMsg:
		req, err := wire.ParseOpMsg(inner, p.limits.MaxDocumentSizeBytes)
		if err != nil {
			metrics.RecordParseError(TransportCommand, status.CodeOf(err).String())
			return nil, nil, err
		}
		batch, err := p.Parse(req)
		if err != nil {
			return nil, req, err
		}
		return batch, req, nil
	case wire.OpInsert, wire.OpUpdate, wire.OpDelete:
		batch, err := p.ParseLegacy(inner)
		return batch, nil, err
	}
	return nil, nil, status.Newf(status.ProtocolError, "%s cannot carry a write", inner.Header.OpCode)
}

// ParseBytes frames b as one message and parses it.
func (p *Parser) ParseBytes(b []byte) (Batch, error) {
	m, err := wire.ParseMessage(b, p.limits.MaxMessageSizeBytes)
	if err != nil {
		return nil, err
	}
	return p.ParseWire(m)
}

func legacyOpName(op wire.OpCode) string {
	switch op {
	case wire.OpInsert:
		return OpInsert.String()
	case wire.OpUpdate:
		return OpUpdate.String()
	case wire.OpDelete:
		return OpDelete.String()
	}
	return "unknown"
}

func observe(transport, op string, batch Batch, err error) {
	if err != nil {
		metrics.RecordParseError(transport, status.CodeOf(err).String())
		metrics.IncWriteBatch(transport, op, "error")
		return
	}
	metrics.IncWriteBatch(transport, op, "ok")
	metrics.ObserveBatchSize(op, batch.Len())
}
