package wire

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vexsearch/vexdb/internal/status"
)

// LegacyMessage is a sequential view over the body of a legacy insert, update
// or delete. The leading int32 and the namespace are read when the view is
// created; the remaining fields are pulled in layout order by the caller.
type LegacyMessage struct {
	op       OpCode
	reserved int32
	ns       string
	cur      *Cursor
}

// NewLegacyMessage opens m for sequential decoding.
func NewLegacyMessage(m Message, maxDocSize int) (*LegacyMessage, error) {
	switch m.Header.OpCode {
	case OpInsert, OpUpdate, OpDelete:
	default:
		return nil, status.Newf(status.ProtocolError, "%s is not a legacy write message", m.Header.OpCode)
	}
	cur := NewCursor(m.Body, maxDocSize)
	reserved, err := cur.ReadInt32()
	if err != nil {
		return nil, err
	}
	ns, err := cur.ReadCString()
	if err != nil {
		return nil, err
	}
	return &LegacyMessage{op: m.Header.OpCode, reserved: reserved, ns: ns, cur: cur}, nil
}

func (m *LegacyMessage) Op() OpCode {
	return m.op
}

// Reserved returns the leading int32. For inserts this is the flag word.
func (m *LegacyMessage) Reserved() int32 {
	return m.reserved
}

func (m *LegacyMessage) Namespace() string {
	return m.ns
}

// PullInt reads the next int32.
func (m *LegacyMessage) PullInt() (int32, error) {
	return m.cur.ReadInt32()
}

// MoreDocuments reports whether unread bytes remain.
func (m *LegacyMessage) MoreDocuments() bool {
	return m.cur.More()
}

// NextDocument reads the next document.
func (m *LegacyMessage) NextDocument() (bson.Raw, error) {
	return m.cur.ReadDocument()
}
