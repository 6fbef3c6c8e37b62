package document

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"go.mongodb.org/mongo-driver/bson"
)

// Hash returns a hash consistent with Equivalent: equivalent values always
// hash identically.
func Hash(v bson.RawValue) uint64 {
	d := xxhash.New()
	writeHash(d, v)
	return d.Sum64()
}

func writeHash(d *xxhash.Digest, v bson.RawValue) {
	var buf [8]byte
	class := CanonicalType(v.Type)
	binary.LittleEndian.PutUint64(buf[:], uint64(int64(class)))
	_, _ = d.Write(buf[:])

	switch class {
	case -1, 0, 5, 127:
	case 10:
		n, _ := decodeNumber(v)
		switch n.class {
		case numFinite:
			_, _ = d.WriteString(n.rat.RatString())
		case numNaN:
			_, _ = d.WriteString("NaN")
		case numPosInf:
			_, _ = d.WriteString("+Inf")
		case numNegInf:
			_, _ = d.WriteString("-Inf")
		}
	case 15:
		_, _ = d.WriteString(stringOf(v))
	case 20:
		binary.LittleEndian.PutUint64(buf[:], hashDocument(v.Document()))
		_, _ = d.Write(buf[:])
	case 25:
		for _, elem := range ArrayValues(v) {
			binary.LittleEndian.PutUint64(buf[:], Hash(elem))
			_, _ = d.Write(buf[:])
		}
	case 65:
		code, _ := v.CodeWithScope()
		_, _ = d.WriteString(code)
	default:
		_, _ = d.Write(v.Value)
	}
}

// hashDocument combines per-field hashes with addition so that field order
// does not affect the result.
func hashDocument(doc bson.Raw) uint64 {
	var sum uint64
	elems := Elements(doc)
	for _, e := range elems {
		fd := xxhash.New()
		_, _ = fd.WriteString(e.Key())
		_, _ = fd.Write([]byte{0})
		writeHash(fd, e.Value())
		sum += fd.Sum64()
	}
	return sum + uint64(len(elems))
}
