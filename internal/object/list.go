package object

import (
	"container/list"
	"strconv"

	"redisd/internal/ziplist"
)

const (
	listZiplistMaxEntries = 7
	listZiplistMaxBytes   = 64 * 1024
)

type listData struct {
	zl     *ziplist.List // valid when Encoding is EncZiplist
	linked *list.List    // valid when Encoding is EncLinkedList, elements are []byte
}

func (d *listData) clone() *listData {
	if d == nil {
		return nil
	}
	c := &listData{}
	if d.zl != nil {
		nl := ziplist.New()
		for _, v := range d.zl.Values() {
			if v.IsInt {
				nl.PushBack(v)
			} else {
				nl.PushBack(ziplist.Value{Str: append([]byte(nil), v.Str...)})
			}
		}
		c.zl = nl
	}
	if d.linked != nil {
		nl := list.New()
		for e := d.linked.Front(); e != nil; e = e.Next() {
			b := e.Value.([]byte)
			nl.PushBack(append([]byte(nil), b...))
		}
		c.linked = nl
	}
	return c
}

// NewList returns an empty, ziplist-encoded list.
func NewList() *Object {
	return &Object{Type: TypeList, Encoding: EncZiplist, list: &listData{zl: ziplist.New()}}
}

func (o *Object) listLen() int {
	if o.Encoding == EncZiplist {
		return o.list.zl.Len()
	}
	return o.list.linked.Len()
}

// LLen reports the number of elements.
func (o *Object) LLen() int { return o.listLen() }

func (o *Object) maybePromoteList(incoming []byte) {
	if o.Encoding != EncZiplist {
		return
	}
	if o.list.zl.Len()+1 > listZiplistMaxEntries || len(incoming) > listZiplistMaxBytes {
		o.promoteListToLinked()
	}
}

func (o *Object) promoteListToLinked() {
	ll := list.New()
	for _, v := range o.list.zl.Values() {
		ll.PushBack(zipValueBytes(v))
	}
	o.list.linked = ll
	o.list.zl = nil
	o.Encoding = EncLinkedList
}

func zipValueBytes(v ziplist.Value) []byte {
	if v.IsInt {
		return []byte(strconv.FormatInt(v.Int, 10))
	}
	return append([]byte(nil), v.Str...)
}

func zipValueOf(b []byte) ziplist.Value {
	if iv, ok := parseInt64(b); ok {
		return ziplist.Value{IsInt: true, Int: iv}
	}
	return ziplist.Value{Str: b}
}

// LPush prepends values (in argument order, so the last argument ends up
// closest to the front) and returns the new length.
func (o *Object) LPush(values ...[]byte) int {
	for _, v := range values {
		o.maybePromoteList(v)
		if o.Encoding == EncZiplist {
			o.list.zl.PushFront(zipValueOf(v))
		} else {
			o.list.linked.PushFront(append([]byte(nil), v...))
		}
	}
	return o.listLen()
}

// RPush appends values and returns the new length.
func (o *Object) RPush(values ...[]byte) int {
	for _, v := range values {
		o.maybePromoteList(v)
		if o.Encoding == EncZiplist {
			o.list.zl.PushBack(zipValueOf(v))
		} else {
			o.list.linked.PushBack(append([]byte(nil), v...))
		}
	}
	return o.listLen()
}

// LPop removes and returns the front element, ok=false if empty.
func (o *Object) LPop() (val []byte, ok bool) {
	if o.listLen() == 0 {
		return nil, false
	}
	if o.Encoding == EncZiplist {
		v := o.list.zl.At(0)
		o.list.zl.DeleteAt(0)
		return zipValueBytes(v), true
	}
	front := o.list.linked.Front()
	o.list.linked.Remove(front)
	return front.Value.([]byte), true
}

// RPop removes and returns the back element, ok=false if empty.
func (o *Object) RPop() (val []byte, ok bool) {
	n := o.listLen()
	if n == 0 {
		return nil, false
	}
	if o.Encoding == EncZiplist {
		v := o.list.zl.At(n - 1)
		o.list.zl.DeleteAt(n - 1)
		return zipValueBytes(v), true
	}
	back := o.list.linked.Back()
	o.list.linked.Remove(back)
	return back.Value.([]byte), true
}

func normalizeIndex(idx, n int) int {
	if idx < 0 {
		idx += n
	}
	return idx
}

// LIndex returns the element at idx (negative counts from the tail), or
// ok=false if out of range (callers reply nil bulk on that, per spec.md).
func (o *Object) LIndex(idx int) (val []byte, ok bool) {
	n := o.listLen()
	i := normalizeIndex(idx, n)
	if i < 0 || i >= n {
		return nil, false
	}
	if o.Encoding == EncZiplist {
		return zipValueBytes(o.list.zl.At(i)), true
	}
	e := o.list.linked.Front()
	for j := 0; j < i; j++ {
		e = e.Next()
	}
	return e.Value.([]byte), true
}

// LSet replaces the element at idx. Returns ErrIndexOutOfRange if idx is
// out of bounds.
func (o *Object) LSet(idx int, val []byte) error {
	n := o.listLen()
	i := normalizeIndex(idx, n)
	if i < 0 || i >= n {
		return ErrIndexOutOfRange
	}
	o.maybePromoteList(val)
	if o.Encoding == EncZiplist {
		o.list.zl.Set(i, zipValueOf(val))
		return nil
	}
	e := o.list.linked.Front()
	for j := 0; j < i; j++ {
		e = e.Next()
	}
	e.Value = append([]byte(nil), val...)
	return nil
}

// LRange returns elements with 0-based indices in [start, stop] after
// negative-index normalization and clamping, inclusive.
func (o *Object) LRange(start, stop int) [][]byte {
	n := o.listLen()
	start = normalizeIndex(start, n)
	stop = normalizeIndex(stop, n)
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop || start >= n {
		return nil
	}
	out := make([][]byte, 0, stop-start+1)
	i := 0
	walk := func(b []byte) bool {
		if i >= start && i <= stop {
			out = append(out, b)
		}
		i++
		return i <= stop
	}
	if o.Encoding == EncZiplist {
		o.list.zl.ForEach(func(v ziplist.Value) bool { return walk(zipValueBytes(v)) })
	} else {
		for e := o.list.linked.Front(); e != nil; e = e.Next() {
			if !walk(e.Value.([]byte)) {
				break
			}
		}
	}
	return out
}

// LTrim keeps only elements with 0-based indices in [start, stop].
func (o *Object) LTrim(start, stop int) {
	kept := o.LRange(start, stop)
	o.resetTo(kept)
}

func (o *Object) resetTo(elems [][]byte) {
	if o.Encoding == EncZiplist {
		o.list.zl = ziplist.New()
	} else {
		o.list.linked = list.New()
	}
	for _, e := range elems {
		o.maybePromoteList(e)
		if o.Encoding == EncZiplist {
			o.list.zl.PushBack(zipValueOf(e))
		} else {
			o.list.linked.PushBack(append([]byte(nil), e...))
		}
	}
}

// LRem removes up to count occurrences of val (count>0: from head, count<0:
// from tail, count==0: all) and returns the number removed.
func (o *Object) LRem(count int, val []byte) int {
	all := o.LRange(0, o.listLen()-1)
	removed := 0
	limit := count
	if limit < 0 {
		limit = -limit
	}
	out := make([][]byte, 0, len(all))
	if count >= 0 {
		for _, e := range all {
			if bytesEqual(e, val) && (limit == 0 || removed < limit) {
				removed++
				continue
			}
			out = append(out, e)
		}
	} else {
		for i := len(all) - 1; i >= 0; i-- {
			e := all[i]
			if bytesEqual(e, val) && removed < limit {
				removed++
				continue
			}
			out = append([][]byte{e}, out...)
		}
	}
	o.resetTo(out)
	return removed
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
