package wire

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"github.com/vexsearch/vexdb/internal/status"
)

// Compressor identifies the algorithm of a compressed message.
type Compressor uint8

const (
	CompressorNoop   Compressor = 0
	CompressorSnappy Compressor = 1
	CompressorZlib   Compressor = 2
	CompressorZstd   Compressor = 3
)

// compressedPrefixLen covers originalOpcode, uncompressedSize and compressorId.
const compressedPrefixLen = 9

func (c Compressor) String() string {
	switch c {
	case CompressorNoop:
		return "noop"
	case CompressorSnappy:
		return "snappy"
	case CompressorZlib:
		return "zlib"
	case CompressorZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compressor(%d)", uint8(c))
	}
}

// ParseCompressor maps a compressor name to its id.
func ParseCompressor(name string) (Compressor, error) {
	switch strings.ToLower(name) {
	case "noop", "none", "":
		return CompressorNoop, nil
	case "snappy":
		return CompressorSnappy, nil
	case "zlib":
		return CompressorZlib, nil
	case "zstd":
		return CompressorZstd, nil
	}
	return 0, status.Newf(status.BadValue, "unknown compressor %q", name)
}

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

func zstdCodecs() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(DefaultMaxMessageSizeBytes)))
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

// Decompress unwraps a compressed message into the message it carries. The
// inner message keeps the outer request and response ids.
func Decompress(m Message, maxSize int) (Message, Compressor, error) {
	if m.Header.OpCode != OpCompressed {
		return m, CompressorNoop, nil
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxMessageSizeBytes
	}

	cur := NewCursor(m.Body, 0)
	original, err := cur.ReadInt32()
	if err != nil {
		return Message{}, 0, err
	}
	size, err := cur.ReadInt32()
	if err != nil {
		return Message{}, 0, err
	}
	id, err := cur.ReadByte()
	if err != nil {
		return Message{}, 0, err
	}
	compressor := Compressor(id)

	if OpCode(original) == OpCompressed {
		return Message{}, compressor, status.New(status.ProtocolError, "compressed message cannot wrap another compressed message")
	}
	if size < 0 || int64(size)+HeaderLen > int64(maxSize) {
		return Message{}, compressor, status.Newf(status.InvalidLength,
			"uncompressed size %d exceeds maximum message size of %d", size, maxSize)
	}

	body, err := decompressPayload(compressor, cur.Rest(), int(size))
	if err != nil {
		return Message{}, compressor, err
	}
	if len(body) != int(size) {
		return Message{}, compressor, status.Newf(status.BadValue,
			"decompressed %d bytes, header declared %d", len(body), size)
	}

	return Message{
		Header: Header{
			MessageLength: int32(HeaderLen + len(body)),
			RequestID:     m.Header.RequestID,
			ResponseTo:    m.Header.ResponseTo,
			OpCode:        OpCode(original),
		},
		Body: body,
	}, compressor, nil
}

func decompressPayload(c Compressor, payload []byte, size int) ([]byte, error) {
	switch c {
	case CompressorNoop:
		return payload, nil
	case CompressorSnappy:
		n, err := snappy.DecodedLen(payload)
		if err != nil {
			return nil, status.Wrap(status.BadValue, err, "corrupt snappy payload")
		}
		if n != size {
			return nil, status.Newf(status.BadValue, "snappy payload decodes to %d bytes, header declared %d", n, size)
		}
		out, err := snappy.Decode(make([]byte, n), payload)
		if err != nil {
			return nil, status.Wrap(status.BadValue, err, "corrupt snappy payload")
		}
		return out, nil
	case CompressorZlib:
		r, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, status.Wrap(status.BadValue, err, "corrupt zlib payload")
		}
		defer r.Close()
		out, err := io.ReadAll(io.LimitReader(r, int64(size)+1))
		if err != nil {
			return nil, status.Wrap(status.BadValue, err, "corrupt zlib payload")
		}
		return out, nil
	case CompressorZstd:
		_, dec, err := zstdCodecs()
		if err != nil {
			return nil, err
		}
		out, err := dec.DecodeAll(payload, make([]byte, 0, size))
		if err != nil {
			return nil, status.Wrap(status.BadValue, err, "corrupt zstd payload")
		}
		return out, nil
	}
	return nil, status.Newf(status.ProtocolError, "unsupported compressor id %d", uint8(c))
}

// Compress wraps m in a compressed message using c.
func Compress(m Message, c Compressor) (Message, error) {
	var payload []byte
	switch c {
	case CompressorNoop:
		payload = m.Body
	case CompressorSnappy:
		payload = snappy.Encode(nil, m.Body)
	case CompressorZlib:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(m.Body); err != nil {
			return Message{}, err
		}
		if err := w.Close(); err != nil {
			return Message{}, err
		}
		payload = buf.Bytes()
	case CompressorZstd:
		enc, _, err := zstdCodecs()
		if err != nil {
			return Message{}, err
		}
		payload = enc.EncodeAll(m.Body, nil)
	default:
		return Message{}, status.Newf(status.BadValue, "unsupported compressor id %d", uint8(c))
	}

	body := make([]byte, 0, compressedPrefixLen+len(payload))
	body = appendInt32(body, int32(m.Header.OpCode))
	body = appendInt32(body, int32(len(m.Body)))
	body = append(body, byte(c))
	body = append(body, payload...)

	out := NewMessage(OpCompressed, m.Header.RequestID, body)
	out.Header.ResponseTo = m.Header.ResponseTo
	return out, nil
}
