package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vexsearch/vexdb/internal/status"
)

func TestOpMsgRoundTrip(t *testing.T) {
	req := &OpMsgRequest{
		Body: doc(`{"insert": "coll", "$db": "test"}`),
		Sequences: []DocumentSequence{{
			Identifier: "documents",
			Documents:  []bson.Raw{doc(`{"_id": 1}`), doc(`{"_id": 2}`)},
		}},
	}

	for _, flags := range []MsgFlags{0, FlagChecksumPresent} {
		req.Flags = flags
		msg, err := ParseMessage(BuildOpMsg(9, req).Bytes(), 0)
		require.NoError(t, err)

		got, err := ParseOpMsg(msg, 0)
		require.NoError(t, err)
		assert.Equal(t, flags, got.Flags)
		assert.Equal(t, "insert", got.CommandName())
		assert.Equal(t, "test", got.Database())
		seq, ok := got.Sequence("documents")
		require.True(t, ok)
		assert.Len(t, seq.Documents, 2)
		_, ok = got.Sequence("updates")
		assert.False(t, ok)
	}
}

func TestOpMsgChecksumMismatch(t *testing.T) {
	req := &OpMsgRequest{Flags: FlagChecksumPresent, Body: doc(`{"ping": 1, "$db": "admin"}`)}
	msg := BuildOpMsg(1, req)
	msg.Body[len(msg.Body)-1] ^= 0xff

	_, err := ParseOpMsg(msg, 0)
	assert.True(t, status.IsCode(err, status.ProtocolError))
}

func TestOpMsgErrors(t *testing.T) {
	body := doc(`{"ping": 1}`)

	t.Run("unknown required flag", func(t *testing.T) {
		msg := BuildOpMsg(1, &OpMsgRequest{Flags: 1 << 4, Body: body})
		_, err := ParseOpMsg(msg, 0)
		assert.True(t, status.IsCode(err, status.ProtocolError))
	})

	t.Run("optional flag accepted", func(t *testing.T) {
		msg := BuildOpMsg(1, &OpMsgRequest{Flags: FlagExhaustAllowed | 1<<20, Body: body})
		_, err := ParseOpMsg(msg, 0)
		assert.NoError(t, err)
	})

	t.Run("no body", func(t *testing.T) {
		_, err := ParseOpMsg(NewMessage(OpMsg, 1, []byte{0, 0, 0, 0}), 0)
		assert.True(t, status.IsCode(err, status.ProtocolError))
	})

	t.Run("two bodies", func(t *testing.T) {
		b := []byte{0, 0, 0, 0, 0}
		b = append(b, body...)
		b = append(b, 0)
		b = append(b, body...)
		_, err := ParseOpMsg(NewMessage(OpMsg, 1, b), 0)
		assert.True(t, status.IsCode(err, status.ProtocolError))
	})

	t.Run("sequence size past end", func(t *testing.T) {
		b := []byte{0, 0, 0, 0, 0}
		b = append(b, body...)
		b = append(b, 1)
		b = appendInt32(b, 1000)
		b = appendCString(b, "documents")
		_, err := ParseOpMsg(NewMessage(OpMsg, 1, b), 0)
		assert.True(t, status.IsCode(err, status.InvalidLength))
	})

	t.Run("unknown section kind", func(t *testing.T) {
		b := []byte{0, 0, 0, 0, 7}
		_, err := ParseOpMsg(NewMessage(OpMsg, 1, b), 0)
		assert.True(t, status.IsCode(err, status.ProtocolError))
	})

	t.Run("wrong opcode", func(t *testing.T) {
		_, err := ParseOpMsg(NewMessage(OpInsert, 1, nil), 0)
		assert.True(t, status.IsCode(err, status.ProtocolError))
	})
}
