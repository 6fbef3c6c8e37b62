package wire

import (
	"errors"
	"io"

	"github.com/vexsearch/vexdb/internal/status"
)

// DefaultMaxMessageSizeBytes is the largest message accepted by default.
const DefaultMaxMessageSizeBytes = 48 * 1000 * 1000

// Message is one framed message: its header and the bytes that follow it.
type Message struct {
	Header Header
	Body   []byte
}

// NewMessage frames body with a header for op.
func NewMessage(op OpCode, requestID int32, body []byte) Message {
	return Message{
		Header: Header{
			MessageLength: int32(HeaderLen + len(body)),
			RequestID:     requestID,
			OpCode:        op,
		},
		Body: body,
	}
}

// Bytes encodes m, recomputing the length field from the body.
func (m Message) Bytes() []byte {
	h := m.Header
	h.MessageLength = int32(HeaderLen + len(m.Body))
	out := make([]byte, 0, HeaderLen+len(m.Body))
	out = h.Append(out)
	return append(out, m.Body...)
}

// ParseMessage frames a complete message held in b. The declared length must
// match len(b) and must not exceed maxSize (0 means the default).
func ParseMessage(b []byte, maxSize int) (Message, error) {
	h, err := ParseHeader(b)
	if err != nil {
		return Message{}, err
	}
	if err := checkLength(h, maxSize); err != nil {
		return Message{}, err
	}
	if int(h.MessageLength) != len(b) {
		return Message{}, status.Newf(status.InvalidLength,
			"message length %d does not match buffer of %d bytes", h.MessageLength, len(b))
	}
	return Message{Header: h, Body: b[HeaderLen:]}, nil
}

// ReadMessage reads exactly one message from r.
func ReadMessage(r io.Reader, maxSize int) (Message, error) {
	var hdr [HeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Message{}, status.Wrap(status.InvalidLength, err, "truncated message header")
		}
		return Message{}, err
	}
	h, err := ParseHeader(hdr[:])
	if err != nil {
		return Message{}, err
	}
	if err := checkLength(h, maxSize); err != nil {
		return Message{}, err
	}
	body := make([]byte, int(h.MessageLength)-HeaderLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return Message{}, status.Wrap(status.InvalidLength, err, "truncated message body")
	}
	return Message{Header: h, Body: body}, nil
}

func checkLength(h Header, maxSize int) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxMessageSizeBytes
	}
	if h.MessageLength < HeaderLen {
		return status.Newf(status.InvalidLength, "message length %d is shorter than the header", h.MessageLength)
	}
	if int64(h.MessageLength) > int64(maxSize) {
		return status.Newf(status.InvalidLength, "message length %d exceeds maximum of %d", h.MessageLength, maxSize)
	}
	return nil
}
