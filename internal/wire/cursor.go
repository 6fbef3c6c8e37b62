package wire

import (
	"bytes"
	"encoding/binary"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"

	"github.com/vexsearch/vexdb/internal/status"
)

// Cursor reads fields sequentially from one message body. Every read checks
// the remaining byte count first; a failed read leaves the cursor unchanged.
// Documents returned by ReadDocument alias the underlying buffer.
type Cursor struct {
	buf        []byte
	pos        int
	maxDocSize int
}

// NewCursor returns a cursor over b. Documents larger than maxDocSize are
// rejected; 0 disables the check.
func NewCursor(b []byte, maxDocSize int) *Cursor {
	return &Cursor{buf: b, maxDocSize: maxDocSize}
}

// More reports whether unread bytes remain.
func (c *Cursor) More() bool {
	return c.pos < len(c.buf)
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// Offset returns the number of bytes consumed so far.
func (c *Cursor) Offset() int {
	return c.pos
}

func (c *Cursor) need(n int, what string) error {
	if c.Remaining() < n {
		return status.Newf(status.InvalidLength,
			"not enough bytes for %s at offset %d: need %d, have %d", what, c.pos, n, c.Remaining())
	}
	return nil
}

func (c *Cursor) ReadByte() (byte, error) {
	if err := c.need(1, "byte"); err != nil {
		return 0, err
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *Cursor) ReadInt32() (int32, error) {
	v, err := c.ReadUint32()
	return int32(v), err
}

func (c *Cursor) ReadUint32() (uint32, error) {
	if err := c.need(4, "int32"); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

// ReadCString reads a NUL-terminated string.
func (c *Cursor) ReadCString() (string, error) {
	end := bytes.IndexByte(c.buf[c.pos:], 0)
	if end < 0 {
		return "", status.Newf(status.InvalidLength, "unterminated string at offset %d", c.pos)
	}
	s := string(c.buf[c.pos : c.pos+end])
	c.pos += end + 1
	return s, nil
}

// ReadDocument reads one length-prefixed BSON document and validates it.
func (c *Cursor) ReadDocument() (bson.Raw, error) {
	if err := c.need(4, "document length"); err != nil {
		return nil, err
	}
	length, _, _ := bsoncore.ReadLength(c.buf[c.pos:])
	if length < 5 {
		return nil, status.Newf(status.InvalidBSON, "invalid document length %d at offset %d", length, c.pos)
	}
	if err := c.need(int(length), "document"); err != nil {
		return nil, err
	}
	if c.maxDocSize > 0 && int(length) > c.maxDocSize {
		return nil, status.Newf(status.BSONObjectTooLarge,
			"document of %d bytes exceeds maximum of %d", length, c.maxDocSize)
	}
	doc := bsoncore.Document(c.buf[c.pos : c.pos+int(length)])
	if err := doc.Validate(); err != nil {
		return nil, status.Wrapf(status.InvalidBSON, err, "invalid document at offset %d", c.pos)
	}
	c.pos += int(length)
	return bson.Raw(doc), nil
}

// Sub consumes the next n bytes and returns a cursor limited to them.
func (c *Cursor) Sub(n int) (*Cursor, error) {
	if n < 0 {
		return nil, status.Newf(status.InvalidLength, "negative section length %d", n)
	}
	if err := c.need(n, "section"); err != nil {
		return nil, err
	}
	sub := &Cursor{buf: c.buf[c.pos : c.pos+n], maxDocSize: c.maxDocSize}
	c.pos += n
	return sub, nil
}

// Rest consumes and returns all unread bytes.
func (c *Cursor) Rest() []byte {
	b := c.buf[c.pos:]
	c.pos = len(c.buf)
	return b
}
