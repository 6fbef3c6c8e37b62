package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vexsearch/vexdb/internal/document"
	"github.com/vexsearch/vexdb/internal/status"
)

func doc(s string) bson.Raw {
	return document.MustFromExtJSON(s)
}

func TestHeaderRoundTrip(t *testing.T) {
	msg := NewMessage(OpMsg, 7, []byte{1, 2, 3})
	b := msg.Bytes()
	require.Len(t, b, HeaderLen+3)

	parsed, err := ParseMessage(b, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(19), parsed.Header.MessageLength)
	assert.Equal(t, int32(7), parsed.Header.RequestID)
	assert.Equal(t, OpMsg, parsed.Header.OpCode)
	assert.Equal(t, []byte{1, 2, 3}, parsed.Body)
}

func TestParseMessageLengthChecks(t *testing.T) {
	b := NewMessage(OpInsert, 1, make([]byte, 32)).Bytes()

	_, err := ParseMessage(b[:10], 0)
	assert.True(t, status.IsCode(err, status.InvalidLength))

	_, err = ParseMessage(b[:len(b)-1], 0)
	assert.True(t, status.IsCode(err, status.InvalidLength))

	_, err = ParseMessage(b, 20)
	assert.True(t, status.IsCode(err, status.InvalidLength))
}

func TestReadMessage(t *testing.T) {
	first := NewMessage(OpInsert, 1, []byte("abc")).Bytes()
	second := NewMessage(OpDelete, 2, []byte("defg")).Bytes()
	r := bytes.NewReader(append(first, second...))

	m, err := ReadMessage(r, 0)
	require.NoError(t, err)
	assert.Equal(t, OpInsert, m.Header.OpCode)
	assert.Equal(t, []byte("abc"), m.Body)

	m, err = ReadMessage(r, 0)
	require.NoError(t, err)
	assert.Equal(t, OpDelete, m.Header.OpCode)

	_, err = ReadMessage(bytes.NewReader(first[:HeaderLen+1]), 0)
	assert.True(t, status.IsCode(err, status.InvalidLength))
}

func TestCursorBoundsChecks(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3}, 0)
	_, err := c.ReadInt32()
	assert.True(t, status.IsCode(err, status.InvalidLength))
	assert.Equal(t, 3, c.Remaining(), "failed read must not advance")

	c = NewCursor([]byte("abc"), 0)
	_, err = c.ReadCString()
	assert.True(t, status.IsCode(err, status.InvalidLength))

	d := doc(`{"a": 1}`)
	c = NewCursor(d[:len(d)-2], 0)
	_, err = c.ReadDocument()
	assert.True(t, status.IsCode(err, status.InvalidLength))

	c = NewCursor(d, 4)
	_, err = c.ReadDocument()
	assert.True(t, status.IsCode(err, status.BSONObjectTooLarge))

	corrupt := append([]byte(nil), d...)
	corrupt[len(corrupt)-1] = 7
	c = NewCursor(corrupt, 0)
	_, err = c.ReadDocument()
	assert.True(t, status.IsCode(err, status.InvalidBSON))

	c = NewCursor(d, 0)
	got, err := c.ReadDocument()
	require.NoError(t, err)
	assert.Equal(t, d, got)
	assert.False(t, c.More())
}

func TestLegacyMessage(t *testing.T) {
	msg := BuildUpdate(3, "test.coll", UpdateOptions{Upsert: true}, doc(`{"x": 1}`), doc(`{"$set": {"y": 2}}`))
	lm, err := NewLegacyMessage(msg, 0)
	require.NoError(t, err)
	assert.Equal(t, OpUpdate, lm.Op())
	assert.Equal(t, int32(0), lm.Reserved())
	assert.Equal(t, "test.coll", lm.Namespace())

	flags, err := lm.PullInt()
	require.NoError(t, err)
	assert.Equal(t, UpdateOptions{Upsert: true}, DecodeUpdateFlags(flags))

	q, err := lm.NextDocument()
	require.NoError(t, err)
	assert.Equal(t, doc(`{"x": 1}`), q)
	assert.True(t, lm.MoreDocuments())
	_, err = lm.NextDocument()
	require.NoError(t, err)
	assert.False(t, lm.MoreDocuments())

	_, err = NewLegacyMessage(NewMessage(OpQuery, 1, nil), 0)
	assert.True(t, status.IsCode(err, status.ProtocolError))

	_, err = NewLegacyMessage(NewMessage(OpInsert, 1, []byte{0, 0}), 0)
	assert.True(t, status.IsCode(err, status.InvalidLength))
}

func TestFlagDecoding(t *testing.T) {
	assert.Equal(t, InsertOptions{ContinueOnError: true}, DecodeInsertFlags(1))
	assert.False(t, DecodeInsertFlags(1).Ordered())
	assert.True(t, DecodeInsertFlags(0).Ordered())

	assert.Equal(t, UpdateOptions{}, DecodeUpdateFlags(0))
	assert.Equal(t, UpdateOptions{Upsert: true}, DecodeUpdateFlags(1))
	assert.Equal(t, UpdateOptions{Multi: true}, DecodeUpdateFlags(2))
	assert.Equal(t, UpdateOptions{Upsert: true, Multi: true}, DecodeUpdateFlags(3))
	assert.Equal(t, UpdateOptions{Multi: true}, DecodeUpdateFlags(2|1<<8))

	assert.True(t, DecodeDeleteFlags(0).Multi())
	assert.False(t, DecodeDeleteFlags(1).Multi())

	for _, bits := range []int32{0, 1, 2, 3} {
		assert.Equal(t, bits, DecodeUpdateFlags(bits).Bits())
	}
	assert.Equal(t, int32(1), DeleteOptions{JustOne: true}.Bits())
	assert.Equal(t, int32(1), InsertOptions{ContinueOnError: true}.Bits())
}
