package object

import (
	"strconv"

	"redisd/internal/dict"
	"redisd/internal/ziplist"
)

const (
	hashZiplistMaxEntries = 128
	hashZiplistMaxValue   = 64
)

type hashData struct {
	zl *ziplist.List // valid when Encoding is EncZiplist: flattened [field, value, field, value, ...]
	ht *dict.Dict    // valid when Encoding is EncHT: field -> []byte
}

func (d *hashData) clone() *hashData {
	if d == nil {
		return nil
	}
	c := &hashData{}
	if d.zl != nil {
		nl := ziplist.New()
		for _, v := range d.zl.Values() {
			nl.PushBack(v)
		}
		c.zl = nl
	}
	if d.ht != nil {
		nh := dict.New()
		d.ht.ForEach(func(k string, v any) bool {
			nh.Set(k, append([]byte(nil), v.([]byte)...))
			return true
		})
		c.ht = nh
	}
	return c
}

// NewHash returns an empty, ziplist-encoded hash.
func NewHash() *Object {
	return &Object{Type: TypeHash, Encoding: EncZiplist, hash: &hashData{zl: ziplist.New()}}
}

// HLen reports the number of fields.
func (o *Object) HLen() int {
	if o.Encoding == EncZiplist {
		return o.hash.zl.Len() / 2
	}
	return o.hash.ht.Len()
}

func (o *Object) promoteHashToHT() {
	ht := dict.New()
	vals := o.hash.zl.Values()
	for i := 0; i < len(vals); i += 2 {
		ht.Set(string(vals[i].Str), zipValueBytes(vals[i+1]))
	}
	o.hash.ht = ht
	o.hash.zl = nil
	o.Encoding = EncHT
}

// HSet sets field to val, returning true if field is new.
func (o *Object) HSet(field, val []byte) bool {
	if o.Encoding == EncZiplist && (o.HLen()+1 > hashZiplistMaxEntries || len(field) > hashZiplistMaxValue || len(val) > hashZiplistMaxValue) {
		o.promoteHashToHT()
	}
	if o.Encoding == EncZiplist {
		vals := o.hash.zl.Values()
		for i := 0; i < len(vals); i += 2 {
			if string(vals[i].Str) == string(field) {
				o.hash.zl.Set(i+1, zipValueOf(val))
				return false
			}
		}
		o.hash.zl.PushBack(ziplist.Value{Str: append([]byte(nil), field...)})
		o.hash.zl.PushBack(zipValueOf(val))
		return true
	}
	_, existed := o.hash.ht.Get(string(field))
	o.hash.ht.Set(string(field), append([]byte(nil), val...))
	return !existed
}

// HGet returns field's value.
func (o *Object) HGet(field []byte) ([]byte, bool) {
	if o.Encoding == EncZiplist {
		vals := o.hash.zl.Values()
		for i := 0; i < len(vals); i += 2 {
			if string(vals[i].Str) == string(field) {
				return zipValueBytes(vals[i+1]), true
			}
		}
		return nil, false
	}
	v, ok := o.hash.ht.Get(string(field))
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

// HDel removes field, reporting whether it was present.
func (o *Object) HDel(field []byte) bool {
	if o.Encoding == EncZiplist {
		vals := o.hash.zl.Values()
		for i := 0; i < len(vals); i += 2 {
			if string(vals[i].Str) == string(field) {
				o.hash.zl.DeleteRange(i, 2)
				return true
			}
		}
		return false
	}
	return o.hash.ht.Delete(string(field))
}

// HExists reports whether field is present.
func (o *Object) HExists(field []byte) bool {
	_, ok := o.HGet(field)
	return ok
}

// HKeys returns every field name.
func (o *Object) HKeys() [][]byte {
	var out [][]byte
	o.hForEach(func(f, _ []byte) { out = append(out, f) })
	return out
}

// HVals returns every field value.
func (o *Object) HVals() [][]byte {
	var out [][]byte
	o.hForEach(func(_, v []byte) { out = append(out, v) })
	return out
}

// HGetAll returns interleaved [field, value, ...] pairs.
func (o *Object) HGetAll() [][]byte {
	var out [][]byte
	o.hForEach(func(f, v []byte) { out = append(out, f, v) })
	return out
}

func (o *Object) hForEach(fn func(field, val []byte)) {
	if o.Encoding == EncZiplist {
		vals := o.hash.zl.Values()
		for i := 0; i < len(vals); i += 2 {
			fn(zipValueBytes(vals[i]), zipValueBytes(vals[i+1]))
		}
		return
	}
	o.hash.ht.ForEach(func(k string, v any) bool {
		fn([]byte(k), v.([]byte))
		return true
	})
}

// HIncrBy adds delta to field's integer value, creating it at delta if
// absent. Returns ErrNotInteger if the current value doesn't parse.
func (o *Object) HIncrBy(field []byte, delta int64) (int64, error) {
	cur := int64(0)
	if v, ok := o.HGet(field); ok {
		iv, ok := parseInt64(v)
		if !ok {
			return 0, ErrNotInteger
		}
		cur = iv
	}
	sum := cur + delta
	if (delta > 0 && sum < cur) || (delta < 0 && sum > cur) {
		return 0, ErrOverflow
	}
	o.HSet(field, []byte(strconv.FormatInt(sum, 10)))
	return sum, nil
}

// HIncrByFloat adds delta to field's float value, creating it at delta if
// absent.
func (o *Object) HIncrByFloat(field []byte, delta float64) (float64, error) {
	cur := 0.0
	if v, ok := o.HGet(field); ok {
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return 0, ErrNotAFloat
		}
		cur = f
	}
	sum := cur + delta
	o.HSet(field, []byte(strconv.FormatFloat(sum, 'g', -1, 64)))
	return sum, nil
}
