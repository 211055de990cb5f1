// Package intset implements the compact, sorted, integer-only set used as
// the small-set encoding, promoted to a hashtable-backed set once it
// exceeds 512 members or gains a non-integer member.
//
// Layout: {encoding_byte, entry_count (4 bytes LE), sorted entries}, with
// encoding one of 2/4/8 bytes (i16/i32/i64), widest value present decides
// the encoding. Grounded on original_source/src/object/int_set.rs.
package intset

import (
	"encoding/binary"
)

type Encoding uint8

const (
	Enc16 Encoding = 2
	Enc32 Encoding = 4
	Enc64 Encoding = 8
)

// Set is a sorted, integer-only set backed by a single packed byte buffer.
type Set struct {
	buf []byte
}

// New returns an empty intset at the narrowest (16-bit) encoding.
func New() *Set {
	s := &Set{buf: make([]byte, 5)}
	s.buf[0] = byte(Enc16)
	return s
}

func (s *Set) encoding() Encoding { return Encoding(s.buf[0]) }

func (s *Set) Len() int {
	return int(binary.LittleEndian.Uint32(s.buf[1:5]))
}

func (s *Set) setLen(n int) {
	binary.LittleEndian.PutUint32(s.buf[1:5], uint32(n))
}

// Encoding reports the current packed width, exposed for OBJECT ENCODING
// and the promotion-threshold check.
func (s *Set) Encoding() Encoding { return s.encoding() }

func valueEncoding(v int64) Encoding {
	switch {
	case v >= -32768 && v <= 32767:
		return Enc16
	case v >= -2147483648 && v <= 2147483647:
		return Enc32
	default:
		return Enc64
	}
}

func (s *Set) at(i int, enc Encoding) int64 {
	off := 5 + i*int(enc)
	switch enc {
	case Enc16:
		return int64(int16(binary.LittleEndian.Uint16(s.buf[off:])))
	case Enc32:
		return int64(int32(binary.LittleEndian.Uint32(s.buf[off:])))
	default:
		return int64(binary.LittleEndian.Uint64(s.buf[off:]))
	}
}

func putAt(buf []byte, off int, enc Encoding, v int64) {
	switch enc {
	case Enc16:
		binary.LittleEndian.PutUint16(buf[off:], uint16(int16(v)))
	case Enc32:
		binary.LittleEndian.PutUint32(buf[off:], uint32(int32(v)))
	default:
		binary.LittleEndian.PutUint64(buf[off:], uint64(v))
	}
}

// search returns (index, true) if value is present, else (insertion index, false).
func (s *Set) search(value int64) (int, bool) {
	enc := s.encoding()
	lo, hi := 0, s.Len()
	for lo < hi {
		mid := (lo + hi) / 2
		v := s.at(mid, enc)
		switch {
		case v == value:
			return mid, true
		case v < value:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return lo, false
}

// Add inserts value, upgrading the packed width first if needed. Returns
// false if value was already present.
func (s *Set) Add(value int64) bool {
	need := valueEncoding(value)
	if need > s.encoding() {
		s.upgrade(need, value)
		return true
	}
	idx, found := s.search(value)
	if found {
		return false
	}
	enc := s.encoding()
	n := s.Len()
	width := int(enc)
	newBuf := make([]byte, len(s.buf)+width)
	copy(newBuf, s.buf[:5+idx*width])
	putAt(newBuf, 5+idx*width, enc, value)
	copy(newBuf[5+(idx+1)*width:], s.buf[5+idx*width:])
	s.buf = newBuf
	s.setLen(n + 1)
	return true
}

func (s *Set) upgrade(newEnc Encoding, value int64) {
	oldEnc := s.encoding()
	n := s.Len()
	newBuf := make([]byte, 5+(n+1)*int(newEnc))
	newBuf[0] = byte(newEnc)

	// Values are always added at an end: intset only upgrades when the new
	// value's magnitude exceeds every existing entry, so it is either the
	// new minimum (negative) or new maximum.
	prepend := n > 0 && value < s.at(0, oldEnc)

	offset := 0
	if prepend {
		offset = 1
	}
	for i := 0; i < n; i++ {
		putAt(newBuf, 5+(i+offset)*int(newEnc), newEnc, s.at(i, oldEnc))
	}
	if prepend {
		putAt(newBuf, 5, newEnc, value)
	} else {
		putAt(newBuf, 5+n*int(newEnc), newEnc, value)
	}
	s.buf = newBuf
	binary.LittleEndian.PutUint32(s.buf[1:5], uint32(n+1))
}

// Remove deletes value if present, returning whether it was found.
func (s *Set) Remove(value int64) bool {
	enc := s.encoding()
	idx, found := s.search(value)
	if !found {
		return false
	}
	width := int(enc)
	n := s.Len()
	copy(s.buf[5+idx*width:], s.buf[5+(idx+1)*width:])
	s.buf = s.buf[:len(s.buf)-width]
	s.setLen(n - 1)
	return true
}

// Contains reports whether value is a member.
func (s *Set) Contains(value int64) bool {
	if valueEncoding(value) > s.encoding() {
		return false
	}
	_, found := s.search(value)
	return found
}

// Members returns every member in ascending order.
func (s *Set) Members() []int64 {
	enc := s.encoding()
	n := s.Len()
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		out[i] = s.at(i, enc)
	}
	return out
}
