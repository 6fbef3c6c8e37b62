package document

import (
	"math"
	"math/big"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// IsNumber reports whether t is one of the four numeric BSON types.
func IsNumber(t bsontype.Type) bool {
	switch t {
	case bsontype.Int32, bsontype.Int64, bsontype.Double, bsontype.Decimal128:
		return true
	}
	return false
}

// numClass orders the non-finite numbers around the finite ones.
type numClass int

const (
	numNaN numClass = iota - 2
	numNegInf
	numFinite
	numPosInf
)

// number is a numeric value decoded without loss of precision.
type number struct {
	class numClass
	rat   *big.Rat
}

func decodeNumber(v bson.RawValue) (number, bool) {
	switch v.Type {
	case bsontype.Int32:
		i, ok := v.Int32OK()
		if !ok {
			return number{}, false
		}
		return number{class: numFinite, rat: new(big.Rat).SetInt64(int64(i))}, true
	case bsontype.Int64:
		i, ok := v.Int64OK()
		if !ok {
			return number{}, false
		}
		return number{class: numFinite, rat: new(big.Rat).SetInt64(i)}, true
	case bsontype.Double:
		f, ok := v.DoubleOK()
		if !ok {
			return number{}, false
		}
		switch {
		case math.IsNaN(f):
			return number{class: numNaN}, true
		case math.IsInf(f, 1):
			return number{class: numPosInf}, true
		case math.IsInf(f, -1):
			return number{class: numNegInf}, true
		}
		return number{class: numFinite, rat: new(big.Rat).SetFloat64(f)}, true
	case bsontype.Decimal128:
		d, ok := v.Decimal128OK()
		if !ok {
			return number{}, false
		}
		if d.IsNaN() {
			return number{class: numNaN}, true
		}
		switch d.IsInf() {
		case 1:
			return number{class: numPosInf}, true
		case -1:
			return number{class: numNegInf}, true
		}
		bi, exp, err := d.BigInt()
		if err != nil {
			return number{}, false
		}
		r := new(big.Rat).SetInt(bi)
		if exp != 0 {
			scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(absInt(exp))), nil)
			if exp > 0 {
				r.Mul(r, new(big.Rat).SetInt(scale))
			} else {
				r.Quo(r, new(big.Rat).SetInt(scale))
			}
		}
		return number{class: numFinite, rat: r}, true
	}
	return number{}, false
}

func absInt(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

// compareNumbers orders NaN below every other number and treats NaN as equal
// to itself.
func compareNumbers(a, b number) int {
	if a.class != b.class {
		if a.class < b.class {
			return -1
		}
		return 1
	}
	if a.class != numFinite {
		return 0
	}
	return a.rat.Cmp(b.rat)
}

// ToRat returns the exact rational value of a finite number.
func ToRat(v bson.RawValue) (*big.Rat, bool) {
	n, ok := decodeNumber(v)
	if !ok || n.class != numFinite {
		return nil, false
	}
	return n.rat, true
}

// ToFloat64 converts any numeric value to float64. Decimals are rounded to the
// nearest double.
func ToFloat64(v bson.RawValue) (float64, bool) {
	switch v.Type {
	case bsontype.Int32:
		return float64(v.Int32()), true
	case bsontype.Int64:
		return float64(v.Int64()), true
	case bsontype.Double:
		return v.Double(), true
	case bsontype.Decimal128:
		n, ok := decodeNumber(v)
		if !ok {
			return 0, false
		}
		switch n.class {
		case numNaN:
			return math.NaN(), true
		case numPosInf:
			return math.Inf(1), true
		case numNegInf:
			return math.Inf(-1), true
		}
		f, _ := n.rat.Float64()
		return f, true
	}
	return 0, false
}

// ExactNonNegativeInt returns the value of v when it is a number that is
// exactly a non-negative integer representable as int64.
func ExactNonNegativeInt(v bson.RawValue) (int64, bool) {
	switch v.Type {
	case bsontype.Int32:
		i := int64(v.Int32())
		return i, i >= 0
	case bsontype.Int64:
		i := v.Int64()
		return i, i >= 0
	case bsontype.Double:
		f := v.Double()
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	case bsontype.Decimal128:
		r, ok := ToRat(v)
		if !ok || r.Sign() < 0 || !r.IsInt() || !r.Num().IsInt64() {
			return 0, false
		}
		return r.Num().Int64(), true
	}
	return 0, false
}

// IsNaN reports whether v is a double or decimal NaN.
func IsNaN(v bson.RawValue) bool {
	if v.Type != bsontype.Double && v.Type != bsontype.Decimal128 {
		return false
	}
	n, ok := decodeNumber(v)
	return ok && n.class == numNaN
}
