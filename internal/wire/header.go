// Package wire decodes and encodes the binary messages exchanged with clients:
// the 16-byte message header, the legacy insert/update/delete layouts, the
// sectioned command message and the compression envelope.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/vexsearch/vexdb/internal/status"
)

// HeaderLen is the size of the standard message header.
const HeaderLen = 16

// OpCode identifies the layout of a message body.
type OpCode int32

const (
	OpReply       OpCode = 1
	OpUpdate      OpCode = 2001
	OpInsert      OpCode = 2002
	OpQuery       OpCode = 2004
	OpGetMore     OpCode = 2005
	OpDelete      OpCode = 2006
	OpKillCursors OpCode = 2007
	OpCompressed  OpCode = 2012
	OpMsg         OpCode = 2013
)

func (o OpCode) String() string {
	switch o {
	case OpReply:
		return "OP_REPLY"
	case OpUpdate:
		return "OP_UPDATE"
	case OpInsert:
		return "OP_INSERT"
	case OpQuery:
		return "OP_QUERY"
	case OpGetMore:
		return "OP_GET_MORE"
	case OpDelete:
		return "OP_DELETE"
	case OpKillCursors:
		return "OP_KILL_CURSORS"
	case OpCompressed:
		return "OP_COMPRESSED"
	case OpMsg:
		return "OP_MSG"
	default:
		return fmt.Sprintf("opcode(%d)", int32(o))
	}
}

// Header is the standard message header.
type Header struct {
	MessageLength int32
	RequestID     int32
	ResponseTo    int32
	OpCode        OpCode
}

// ParseHeader decodes the first HeaderLen bytes of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, status.Newf(status.InvalidLength, "message header needs %d bytes, got %d", HeaderLen, len(b))
	}
	return Header{
		MessageLength: int32(binary.LittleEndian.Uint32(b[0:4])),
		RequestID:     int32(binary.LittleEndian.Uint32(b[4:8])),
		ResponseTo:    int32(binary.LittleEndian.Uint32(b[8:12])),
		OpCode:        OpCode(int32(binary.LittleEndian.Uint32(b[12:16]))),
	}, nil
}

// Append encodes h onto dst.
func (h Header) Append(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(h.MessageLength))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(h.RequestID))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(h.ResponseTo))
	return binary.LittleEndian.AppendUint32(dst, uint32(h.OpCode))
}
