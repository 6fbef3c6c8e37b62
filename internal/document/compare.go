package document

import (
	"bytes"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// CanonicalType returns the sort class of t. Values of different classes
// never compare equal; numbers of any width share one class, as do strings
// and symbols.
func CanonicalType(t bsontype.Type) int {
	switch t {
	case bsontype.MinKey:
		return -1
	case bsontype.Undefined:
		return 0
	case bsontype.Null:
		return 5
	case bsontype.Double, bsontype.Int32, bsontype.Int64, bsontype.Decimal128:
		return 10
	case bsontype.String, bsontype.Symbol:
		return 15
	case bsontype.EmbeddedDocument:
		return 20
	case bsontype.Array:
		return 25
	case bsontype.Binary:
		return 30
	case bsontype.ObjectID:
		return 35
	case bsontype.Boolean:
		return 40
	case bsontype.DateTime:
		return 45
	case bsontype.Timestamp:
		return 47
	case bsontype.Regex:
		return 50
	case bsontype.DBPointer:
		return 55
	case bsontype.JavaScript:
		return 60
	case bsontype.CodeWithScope:
		return 65
	case bsontype.MaxKey:
		return 127
	}
	return -2
}

// Compare orders two values by canonical type and then by value. Embedded
// documents compare field by field in stored order, including field names.
func Compare(a, b bson.RawValue) int {
	ca, cb := CanonicalType(a.Type), CanonicalType(b.Type)
	if ca != cb {
		return cmpInt(ca, cb)
	}

	switch ca {
	case -1, 0, 5, 127:
		return 0
	case 10:
		na, _ := decodeNumber(a)
		nb, _ := decodeNumber(b)
		return compareNumbers(na, nb)
	case 15:
		return strings.Compare(stringOf(a), stringOf(b))
	case 20:
		return compareDocuments(a.Document(), b.Document(), true)
	case 25:
		return compareDocuments(a.Array(), b.Array(), false)
	case 30:
		sa, da := a.Binary()
		sb, db := b.Binary()
		if len(da) != len(db) {
			return cmpInt(len(da), len(db))
		}
		if sa != sb {
			return cmpInt(int(sa), int(sb))
		}
		return bytes.Compare(da, db)
	case 35:
		oa, ob := a.ObjectID(), b.ObjectID()
		return bytes.Compare(oa[:], ob[:])
	case 40:
		ba, bb := a.Boolean(), b.Boolean()
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		}
		return 1
	case 45:
		return cmpInt64(a.DateTime(), b.DateTime())
	case 47:
		ta, ia := a.Timestamp()
		tb, ib := b.Timestamp()
		if ta != tb {
			return cmpInt64(int64(ta), int64(tb))
		}
		return cmpInt64(int64(ia), int64(ib))
	case 50:
		pa, fa := a.Regex()
		pb, fb := b.Regex()
		if c := strings.Compare(pa, pb); c != 0 {
			return c
		}
		return strings.Compare(fa, fb)
	case 55:
		nsa, oa := a.DBPointer()
		nsb, ob := b.DBPointer()
		if len(nsa) != len(nsb) {
			return cmpInt(len(nsa), len(nsb))
		}
		if c := strings.Compare(nsa, nsb); c != 0 {
			return c
		}
		return bytes.Compare(oa[:], ob[:])
	case 60:
		return strings.Compare(a.JavaScript(), b.JavaScript())
	case 65:
		codeA, scopeA := a.CodeWithScope()
		codeB, scopeB := b.CodeWithScope()
		if c := strings.Compare(codeA, codeB); c != 0 {
			return c
		}
		return compareDocuments(scopeA, scopeB, true)
	}
	return bytes.Compare(a.Value, b.Value)
}

func compareDocuments(a, b bson.Raw, withNames bool) int {
	ea := Elements(a)
	eb := Elements(b)
	for i := 0; i < len(ea) && i < len(eb); i++ {
		va, vb := ea[i].Value(), eb[i].Value()
		if c := cmpInt(CanonicalType(va.Type), CanonicalType(vb.Type)); c != 0 {
			return c
		}
		if withNames {
			if c := strings.Compare(ea[i].Key(), eb[i].Key()); c != 0 {
				return c
			}
		}
		if c := Compare(va, vb); c != 0 {
			return c
		}
	}
	return cmpInt(len(ea), len(eb))
}

// Equivalent reports structural equality: numbers compare by value across
// widths, strings equal symbols, embedded documents ignore field order and
// arrays are compared position by position.
func Equivalent(a, b bson.RawValue) bool {
	ca, cb := CanonicalType(a.Type), CanonicalType(b.Type)
	if ca != cb {
		return false
	}
	switch ca {
	case 20:
		return documentsEquivalent(a.Document(), b.Document())
	case 25:
		va, vb := ArrayValues(a), ArrayValues(b)
		if len(va) != len(vb) {
			return false
		}
		for i := range va {
			if !Equivalent(va[i], vb[i]) {
				return false
			}
		}
		return true
	case 65:
		codeA, scopeA := a.CodeWithScope()
		codeB, scopeB := b.CodeWithScope()
		return codeA == codeB && documentsEquivalent(scopeA, scopeB)
	}
	return Compare(a, b) == 0
}

func documentsEquivalent(a, b bson.Raw) bool {
	ea := Elements(a)
	eb := Elements(b)
	if len(ea) != len(eb) {
		return false
	}
	byKey := make(map[string]bson.RawValue, len(eb))
	for _, e := range eb {
		byKey[e.Key()] = e.Value()
	}
	if len(byKey) != len(eb) {
		return compareDocuments(a, b, true) == 0
	}
	for _, e := range ea {
		v, ok := byKey[e.Key()]
		if !ok || !Equivalent(e.Value(), v) {
			return false
		}
	}
	return true
}

func stringOf(v bson.RawValue) string {
	if v.Type == bsontype.Symbol {
		return v.Symbol()
	}
	return v.StringValue()
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
