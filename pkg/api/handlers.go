package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/vexsearch/vexdb/internal/document"
	"github.com/vexsearch/vexdb/internal/logging"
	"github.com/vexsearch/vexdb/internal/namespace"
	"github.com/vexsearch/vexdb/internal/status"
	"github.com/vexsearch/vexdb/internal/validation"
	"github.com/vexsearch/vexdb/internal/wire"
	"github.com/vexsearch/vexdb/internal/write"
)

// BatchSummary is the reply to a parsed write.
type BatchSummary struct {
	OK        int     `json:"ok"`
	Transport string  `json:"transport"`
	Op        string  `json:"op"`
	Namespace string  `json:"ns"`
	N         int     `json:"n"`
	Ordered   bool    `json:"ordered"`
	Bypass    bool    `json:"bypassDocumentValidation"`
	// StmtIDs holds the statement id of every entry, implicit ids included.
	StmtIDs   []int32 `json:"stmtIds"`
	Session   string  `json:"lsid,omitempty"`
	TxnNumber *int64  `json:"txnNumber,omitempty"`
	// Command is the canonical command document as relaxed extended JSON.
	Command json.RawMessage `json:"command"`
}

// WriteError describes one document rejected by the validator.
type WriteError struct {
	Index    int             `json:"index"`
	StmtID   int32           `json:"stmtId"`
	ID       json.RawMessage `json:"_id,omitempty"`
	Code     int32           `json:"code"`
	CodeName string          `json:"codeName"`
	ErrMsg   string          `json:"errmsg"`
}

// ValidateReply is the reply to a validation request.
type ValidateReply struct {
	OK          int          `json:"ok"`
	Namespace   string       `json:"ns"`
	N           int          `json:"n"`
	Valid       bool         `json:"valid"`
	Bypassed    bool         `json:"bypassed,omitempty"`
	WriteErrors []WriteError `json:"writeErrors,omitempty"`
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	r.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCommand parses an extended-JSON write command.
func (r *Router) handleCommand(w http.ResponseWriter, req *http.Request) {
	body, err := readExtJSON(req)
	if err != nil {
		r.writeAPIError(w, FromError(err))
		return
	}

	start := time.Now()
	batch, err := r.parser.Parse(wire.NewOpMsgRequest(body))
	parseMs := msSince(start)
	if err != nil {
		r.logger.WithContext(req.Context()).Debug("command rejected", "error", err)
		r.writeAPIError(w, FromError(err))
		return
	}
	r.reply(w, req, batch, write.TransportCommand, body, parseMs)
}

// handleWire parses one raw wire message.
func (r *Router) handleWire(w http.ResponseWriter, req *http.Request) {
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		r.writeAPIError(w, FromError(err))
		return
	}

	start := time.Now()
	m, err := wire.ParseMessage(raw, r.parser.Limits().MaxMessageSizeBytes)
	if err != nil {
		r.writeAPIError(w, FromError(err))
		return
	}
	batch, opMsg, err := r.parser.ParseWireRequest(m)
	parseMs := msSince(start)
	if err != nil {
		r.logger.WithContext(req.Context()).Debug("wire message rejected",
			"opcode", m.Header.OpCode.String(), "error", err)
		r.writeAPIError(w, FromError(err))
		return
	}

	transport, body := write.TransportLegacy, bson.Raw(nil)
	if opMsg != nil {
		transport, body = write.TransportCommand, opMsg.Body
	}
	r.reply(w, req, batch, transport, body, parseMs)
}

// reply writes the batch summary. body is the command document for OP_MSG
// input and nil for legacy messages, which carry no generic arguments.
func (r *Router) reply(w http.ResponseWriter, req *http.Request, batch write.Batch, transport string, body bson.Raw, parseMs float64) {
	if rm := logging.RequestMetricsFromContext(req.Context()); rm != nil {
		rm.Namespace = batch.NS().String()
		rm.Transport = transport
		rm.Op = batch.Op().String()
		rm.BatchSize = batch.Len()
		rm.ParseMs = parseMs
	}

	cmd, err := write.CommandRaw(batch)
	if err != nil {
		r.writeAPIError(w, ErrInternalServer(err.Error()))
		return
	}

	base := batch.Base()
	summary := BatchSummary{
		OK:        1,
		Transport: transport,
		Op:        batch.Op().String(),
		Namespace: batch.NS().String(),
		N:         batch.Len(),
		Ordered:   base.Ordered,
		Bypass:    base.BypassDocumentValidation,
		StmtIDs:   write.StmtIDs(batch),
		Command:   json.RawMessage(document.ToExtJSON(cmd)),
	}
	if body != nil {
		summary.Session = write.SessionID(body)
		if txn, ok := write.TxnNumber(body); ok {
			summary.TxnNumber = &txn
		}
	}
	r.writeJSON(w, http.StatusOK, summary)
}

// handleValidate checks documents against a validator for one namespace.
// Body: {validator, documents, ordered, bypassDocumentValidation, stmtIds}.
func (r *Router) handleValidate(w http.ResponseWriter, req *http.Request) {
	ns, err := namespace.Parse(req.PathValue("namespace"))
	if err != nil {
		r.writeAPIError(w, FromError(err))
		return
	}
	if rm := logging.RequestMetricsFromContext(req.Context()); rm != nil {
		rm.Namespace = ns.String()
		rm.Op = write.OpInsert.String()
	}

	body, err := readExtJSON(req)
	if err != nil {
		r.writeAPIError(w, FromError(err))
		return
	}
	vreq, err := decodeValidateRequest(ns, body)
	if err != nil {
		r.writeAPIError(w, FromError(err))
		return
	}
	limits := r.parser.Limits()
	if err := limits.CheckBatchSize(len(vreq.batch.Documents)); err != nil {
		r.writeAPIError(w, FromError(err))
		return
	}
	if err := limits.CheckStmtIDs(vreq.batch.StmtIDs, len(vreq.batch.Documents)); err != nil {
		r.writeAPIError(w, FromError(err))
		return
	}

	v, err := r.validators.Get(ns, vreq.validator)
	if err != nil {
		r.writeAPIError(w, FromError(err))
		return
	}
	res, err := v.ValidateInsert(req.Context(), vreq.batch)
	if err != nil {
		r.writeAPIError(w, FromError(err))
		return
	}
	if rm := logging.RequestMetricsFromContext(req.Context()); rm != nil {
		rm.BatchSize = len(vreq.batch.Documents)
	}

	r.writeJSON(w, http.StatusOK, validateReply(res))
}

func validateReply(res *validation.Result) ValidateReply {
	out := ValidateReply{
		OK:        1,
		Namespace: res.Namespace.String(),
		N:         res.Checked,
		Valid:     res.OK(),
		Bypassed:  res.Bypassed,
	}
	for _, f := range res.Failures {
		we := WriteError{
			Index:    f.Index,
			StmtID:   f.StmtID,
			Code:     int32(status.DocumentValidationFailure),
			CodeName: status.DocumentValidationFailure.String(),
			ErrMsg:   "Document failed validation",
		}
		if f.HasID() {
			we.ID = json.RawMessage(document.RenderValue(f.ID))
		}
		out.WriteErrors = append(out.WriteErrors, we)
	}
	return out
}

type validateRequest struct {
	validator bson.Raw
	batch     *write.InsertBatch
}

func decodeValidateRequest(ns namespace.Namespace, body bson.Raw) (*validateRequest, error) {
	out := &validateRequest{
		batch: &write.InsertBatch{
			Namespace:        ns,
			WriteCommandBase: write.DefaultWriteCommandBase(),
		},
	}
	elems, err := body.Elements()
	if err != nil {
		return nil, status.Wrap(status.InvalidBSON, err, "invalid request body")
	}
	for _, e := range elems {
		v := e.Value()
		switch key := e.Key(); key {
		case "validator":
			doc, ok := v.DocumentOK()
			if !ok {
				return nil, status.Newf(status.TypeMismatch, "validator must be an object, not %s", v.Type)
			}
			out.validator = doc
		case "documents":
			arr, ok := v.ArrayOK()
			if !ok {
				return nil, status.Newf(status.TypeMismatch, "documents must be an array, not %s", v.Type)
			}
			values, err := arr.Values()
			if err != nil {
				return nil, status.Wrap(status.InvalidBSON, err, "invalid documents array")
			}
			for i, dv := range values {
				doc, ok := dv.DocumentOK()
				if !ok {
					return nil, status.Newf(status.TypeMismatch, "documents.%d must be an object, not %s", i, dv.Type)
				}
				out.batch.Documents = append(out.batch.Documents, doc)
			}
		case "ordered":
			b, ok := v.BooleanOK()
			if !ok {
				return nil, status.Newf(status.TypeMismatch, "ordered must be a boolean, not %s", v.Type)
			}
			out.batch.Ordered = b
		case "bypassDocumentValidation":
			b, ok := v.BooleanOK()
			if !ok {
				return nil, status.Newf(status.TypeMismatch, "bypassDocumentValidation must be a boolean, not %s", v.Type)
			}
			out.batch.BypassDocumentValidation = b
		case "stmtIds":
			ids, err := int32Array(key, v)
			if err != nil {
				return nil, err
			}
			out.batch.StmtIDs = ids
		default:
			return nil, status.Newf(status.IDLUnknownField, "unknown field %q in validate request", key)
		}
	}
	return out, nil
}

func int32Array(field string, v bson.RawValue) ([]int32, error) {
	arr, ok := v.ArrayOK()
	if !ok {
		return nil, status.Newf(status.TypeMismatch, "%s must be an array, not %s", field, v.Type)
	}
	values, err := arr.Values()
	if err != nil {
		return nil, status.Wrap(status.InvalidBSON, err, "invalid "+field)
	}
	out := make([]int32, 0, len(values))
	for i, iv := range values {
		if iv.Type != bsontype.Int32 {
			return nil, status.Newf(status.TypeMismatch, "%s.%d must be an int32, not %s", field, i, iv.Type)
		}
		out = append(out, iv.Int32())
	}
	return out, nil
}

// readExtJSON reads the request body as one extended-JSON document.
func readExtJSON(req *http.Request) (bson.Raw, error) {
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	doc, err := document.FromExtJSON(string(data))
	if err != nil {
		return nil, status.Wrap(status.FailedToParse, err, "request body is not a valid extended JSON document")
	}
	return doc, nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
