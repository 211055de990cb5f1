package object

import (
	"strconv"
)

// NewString builds a string Object, choosing EncInt when val parses as a
// plain i64 and EncEmbStr/EncRaw otherwise by length, per spec.md §3.
func NewString(val []byte) *Object {
	o := &Object{Type: TypeString}
	o.setString(val)
	return o
}

func (o *Object) setString(val []byte) {
	if iv, ok := parseInt64(val); ok {
		o.Encoding = EncInt
		o.str = stringData{i: iv}
		return
	}
	if len(val) <= embstrLimit {
		o.Encoding = EncEmbStr
	} else {
		o.Encoding = EncRaw
	}
	o.str = stringData{raw: append([]byte(nil), val...)}
}

func parseInt64(val []byte) (int64, bool) {
	if len(val) == 0 || len(val) > 20 {
		return 0, false
	}
	v, err := strconv.ParseInt(string(val), 10, 64)
	if err != nil {
		return 0, false
	}
	// Reject non-canonical forms ("+1", "01", " 1") the way a fixed-width
	// integer encoding must: round-tripping the parsed value through
	// FormatInt must reproduce the original bytes exactly.
	if strconv.FormatInt(v, 10) != string(val) {
		return 0, false
	}
	return v, true
}

// Bytes returns the string value, materializing the decimal form when the
// object is int-encoded.
func (o *Object) Bytes() []byte {
	if o.Encoding == EncInt {
		return []byte(strconv.FormatInt(o.str.i, 10))
	}
	return o.str.raw
}

// SetBytes overwrites the value in place, possibly changing encoding.
func (o *Object) SetBytes(val []byte) {
	o.setString(val)
}

// Int64 returns the integer value and whether the current payload parses
// as one (EncInt always does; EncRaw/EncEmbStr may too).
func (o *Object) Int64() (int64, bool) {
	if o.Encoding == EncInt {
		return o.str.i, true
	}
	return parseInt64(o.str.raw)
}

// IncrBy adds delta to the integer value, promoting a non-int encoding to
// EncInt on success. Returns ErrNotInteger if the payload isn't numeric,
// ErrOverflow on i64 overflow.
func (o *Object) IncrBy(delta int64) (int64, error) {
	cur, ok := o.Int64()
	if !ok {
		return 0, ErrNotInteger
	}
	sum := cur + delta
	if (delta > 0 && sum < cur) || (delta < 0 && sum > cur) {
		return 0, ErrOverflow
	}
	o.Encoding = EncInt
	o.str = stringData{i: sum}
	return sum, nil
}
