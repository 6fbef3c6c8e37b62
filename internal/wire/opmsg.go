package wire

import (
	"encoding/binary"
	"hash/crc32"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/vexsearch/vexdb/internal/status"
)

// MsgFlags are the flag bits of a sectioned command message.
type MsgFlags uint32

const (
	FlagChecksumPresent MsgFlags = 1 << 0
	FlagMoreToCome      MsgFlags = 1 << 1
	FlagExhaustAllowed  MsgFlags = 1 << 16

	// Bits 0-15 must be understood by the receiver.
	requiredFlagMask MsgFlags = 0xffff
	knownFlagMask             = FlagChecksumPresent | FlagMoreToCome | FlagExhaustAllowed
)

const (
	sectionBody     byte = 0
	sectionSequence byte = 1
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// DocumentSequence is a kind-1 section: a named run of documents carried
// outside the command body.
type DocumentSequence struct {
	Identifier string
	Documents  []bson.Raw
}

// OpMsgRequest is a decoded command message.
type OpMsgRequest struct {
	Flags     MsgFlags
	Body      bson.Raw
	Sequences []DocumentSequence
}

// NewOpMsgRequest returns a request with body and no sequences.
func NewOpMsgRequest(body bson.Raw) *OpMsgRequest {
	return &OpMsgRequest{Body: body}
}

// CommandName returns the first field name of the body.
func (r *OpMsgRequest) CommandName() string {
	elem, err := r.Body.IndexErr(0)
	if err != nil {
		return ""
	}
	return elem.Key()
}

// Database returns the "$db" field of the body.
func (r *OpMsgRequest) Database() string {
	v, err := r.Body.LookupErr("$db")
	if err != nil || v.Type != bsontype.String {
		return ""
	}
	return v.StringValue()
}

// Sequence returns the document sequence named id.
func (r *OpMsgRequest) Sequence(id string) (DocumentSequence, bool) {
	for _, seq := range r.Sequences {
		if seq.Identifier == id {
			return seq, true
		}
	}
	return DocumentSequence{}, false
}

// ParseOpMsg decodes the body of a command message.
func ParseOpMsg(m Message, maxDocSize int) (*OpMsgRequest, error) {
	if m.Header.OpCode != OpMsg {
		return nil, status.Newf(status.ProtocolError, "expected OP_MSG, got %s", m.Header.OpCode)
	}
	cur := NewCursor(m.Body, maxDocSize)
	flags, err := cur.ReadUint32()
	if err != nil {
		return nil, err
	}
	req := &OpMsgRequest{Flags: MsgFlags(flags)}
	if unknown := req.Flags & requiredFlagMask &^ knownFlagMask; unknown != 0 {
		return nil, status.Newf(status.ProtocolError, "unsupported required flag bits 0x%x", uint32(unknown))
	}

	if req.Flags&FlagChecksumPresent != 0 {
		if cur.Remaining() < 4 {
			return nil, status.New(status.InvalidLength, "message too short to hold its checksum")
		}
		end := len(m.Body) - 4
		want := binary.LittleEndian.Uint32(m.Body[end:])
		h := m.Header
		h.MessageLength = int32(HeaderLen + len(m.Body))
		crc := crc32.Update(0, castagnoli, h.Append(make([]byte, 0, HeaderLen)))
		crc = crc32.Update(crc, castagnoli, m.Body[:end])
		if crc != want {
			return nil, status.Newf(status.ProtocolError, "checksum mismatch: computed 0x%08x, message carries 0x%08x", crc, want)
		}
		cur = NewCursor(m.Body[4:end], maxDocSize)
	}

	seen := make(map[string]bool)
	for cur.More() {
		kind, err := cur.ReadByte()
		if err != nil {
			return nil, err
		}
		switch kind {
		case sectionBody:
			if req.Body != nil {
				return nil, status.New(status.ProtocolError, "multiple body sections in message")
			}
			if req.Body, err = cur.ReadDocument(); err != nil {
				return nil, err
			}
		case sectionSequence:
			seq, err := readSequence(cur)
			if err != nil {
				return nil, err
			}
			if seen[seq.Identifier] {
				return nil, status.Newf(status.ProtocolError, "duplicate document sequence %q", seq.Identifier)
			}
			seen[seq.Identifier] = true
			req.Sequences = append(req.Sequences, seq)
		default:
			return nil, status.Newf(status.ProtocolError, "unknown section kind %d", kind)
		}
	}
	if req.Body == nil {
		return nil, status.New(status.ProtocolError, "message has no body section")
	}
	return req, nil
}

func readSequence(cur *Cursor) (DocumentSequence, error) {
	size, err := cur.ReadInt32()
	if err != nil {
		return DocumentSequence{}, err
	}
	if size < 5 {
		return DocumentSequence{}, status.Newf(status.InvalidLength, "invalid document sequence size %d", size)
	}
	sub, err := cur.Sub(int(size) - 4)
	if err != nil {
		return DocumentSequence{}, err
	}
	id, err := sub.ReadCString()
	if err != nil {
		return DocumentSequence{}, err
	}
	seq := DocumentSequence{Identifier: id}
	for sub.More() {
		doc, err := sub.ReadDocument()
		if err != nil {
			return DocumentSequence{}, err
		}
		seq.Documents = append(seq.Documents, doc)
	}
	return seq, nil
}

// BuildOpMsg encodes req as a command message. A checksum is appended when
// req.Flags asks for one.
func BuildOpMsg(requestID int32, req *OpMsgRequest) Message {
	body := binary.LittleEndian.AppendUint32(nil, uint32(req.Flags))
	body = append(body, sectionBody)
	body = append(body, req.Body...)
	for _, seq := range req.Sequences {
		size := 4 + len(seq.Identifier) + 1
		for _, doc := range seq.Documents {
			size += len(doc)
		}
		body = append(body, sectionSequence)
		body = appendInt32(body, int32(size))
		body = appendCString(body, seq.Identifier)
		for _, doc := range seq.Documents {
			body = append(body, doc...)
		}
	}

	if req.Flags&FlagChecksumPresent == 0 {
		return NewMessage(OpMsg, requestID, body)
	}
	msg := NewMessage(OpMsg, requestID, body)
	msg.Header.MessageLength += 4
	crc := crc32.Update(0, castagnoli, msg.Header.Append(make([]byte, 0, HeaderLen)))
	crc = crc32.Update(crc, castagnoli, body)
	msg.Body = binary.LittleEndian.AppendUint32(body, crc)
	return msg
}
