package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vexsearch/vexdb/internal/status"
)

func TestCompressRoundTrip(t *testing.T) {
	inner := BuildInsert(5, "test.coll", InsertOptions{}, doc(`{"_id": 1, "payload": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}`))

	for _, c := range []Compressor{CompressorNoop, CompressorSnappy, CompressorZlib, CompressorZstd} {
		t.Run(c.String(), func(t *testing.T) {
			wrapped, err := Compress(inner, c)
			require.NoError(t, err)
			assert.Equal(t, OpCompressed, wrapped.Header.OpCode)

			framed, err := ParseMessage(wrapped.Bytes(), 0)
			require.NoError(t, err)

			got, gotCompressor, err := Decompress(framed, 0)
			require.NoError(t, err)
			assert.Equal(t, c, gotCompressor)
			assert.Equal(t, OpInsert, got.Header.OpCode)
			assert.Equal(t, int32(5), got.Header.RequestID)
			assert.Equal(t, inner.Body, got.Body)
		})
	}
}

func TestDecompressPassThrough(t *testing.T) {
	inner := NewMessage(OpMsg, 1, []byte{1})
	got, c, err := Decompress(inner, 0)
	require.NoError(t, err)
	assert.Equal(t, CompressorNoop, c)
	assert.Equal(t, inner, got)
}

func TestDecompressErrors(t *testing.T) {
	inner := BuildDelete(1, "test.coll", DeleteOptions{}, doc(`{"x": 1}`))
	wrapped, err := Compress(inner, CompressorSnappy)
	require.NoError(t, err)

	t.Run("nested", func(t *testing.T) {
		nested, err := Compress(wrapped, CompressorNoop)
		require.NoError(t, err)
		_, _, err = Decompress(nested, 0)
		assert.True(t, status.IsCode(err, status.ProtocolError))
	})

	t.Run("size mismatch", func(t *testing.T) {
		bad := Message{Header: wrapped.Header, Body: append([]byte(nil), wrapped.Body...)}
		bad.Body[4]++
		_, _, err := Decompress(bad, 0)
		assert.True(t, status.IsCode(err, status.BadValue))
	})

	t.Run("too large", func(t *testing.T) {
		_, _, err := Decompress(wrapped, HeaderLen+4)
		assert.True(t, status.IsCode(err, status.InvalidLength))
	})

	t.Run("unknown compressor", func(t *testing.T) {
		bad := Message{Header: wrapped.Header, Body: append([]byte(nil), wrapped.Body...)}
		bad.Body[8] = 9
		_, _, err := Decompress(bad, 0)
		assert.True(t, status.IsCode(err, status.ProtocolError))
	})

	t.Run("truncated prefix", func(t *testing.T) {
		_, _, err := Decompress(NewMessage(OpCompressed, 1, []byte{1, 2, 3}), 0)
		assert.True(t, status.IsCode(err, status.InvalidLength))
	})
}

func TestParseCompressor(t *testing.T) {
	c, err := ParseCompressor("ZSTD")
	require.NoError(t, err)
	assert.Equal(t, CompressorZstd, c)

	_, err = ParseCompressor("lz4")
	assert.True(t, status.IsCode(err, status.BadValue))
}
