// Package rdb implements the binary snapshot codec: encode/decode for the
// length-prefix scheme and file layout from spec.md §4.7
// (magic/db-selector/key-entry/end-marker), shared by the Save and Load
// entry points in writer.go and reader.go.
//
// Grounded on the teacher's internal/rdb/rdb.go (same 6-bit/14-bit/32-bit
// length-prefix bit layout, temp-file-then-rename save; the teacher's CRC64
// checksum is not computed, the trailer is eight zero bytes),
// adapted to spec.md §4.7's exact opcode set (0xFD/0xFE/0xFF instead of
// the teacher's extra OpCodeExpireTimeMS/OpCodeResizeDB/OpCodeAux) and to
// spec.md §3's fixed five-Type Object instead of the teacher's
// storage.Value variant types.
package rdb

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
)

const Magic = "REDIS0005"

const (
	opExpireMs = 0xFD
	opSelectDB = 0xFE
	opEOF      = 0xFF
)

const (
	len6Bit  = 0x00
	len14Bit = 0x40
	len32Bit = 0x80

	specInt8  = 0xC0
	specInt16 = 0xC1
	specInt32 = 0xC2
)

func writeLength(w *bufio.Writer, n uint32) error {
	switch {
	case n < 64:
		return w.WriteByte(byte(n))
	case n < 16384:
		if err := w.WriteByte(len14Bit | byte(n>>8)); err != nil {
			return err
		}
		return w.WriteByte(byte(n))
	default:
		if err := w.WriteByte(len32Bit); err != nil {
			return err
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], n)
		_, err := w.Write(b[:])
		return err
	}
}

// readLength reads a length prefix. If the two high bits are 11, the byte
// is instead a special-encoding marker and special is true.
func readLength(r *bufio.Reader) (n uint32, special bool, specialByte byte, err error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, false, 0, err
	}
	switch first & 0xC0 {
	case len6Bit:
		return uint32(first & 0x3F), false, 0, nil
	case len14Bit:
		second, err := r.ReadByte()
		if err != nil {
			return 0, false, 0, err
		}
		return uint32(first&0x3F)<<8 | uint32(second), false, 0, nil
	case len32Bit:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, false, 0, err
		}
		return binary.BigEndian.Uint32(b[:]), false, 0, nil
	default:
		return 0, true, first, nil
	}
}

// writeString encodes val using the smallest special integer encoding
// that round-trips it exactly, falling back to a raw length-prefixed
// string. Grounded on original_source's rdbTryIntegerEncoding.
func writeString(w *bufio.Writer, val []byte) error {
	if n, ok := parseExactInt(val); ok {
		switch {
		case n >= math.MinInt8 && n <= math.MaxInt8:
			if err := w.WriteByte(specInt8); err != nil {
				return err
			}
			return w.WriteByte(byte(int8(n)))
		case n >= math.MinInt16 && n <= math.MaxInt16:
			if err := w.WriteByte(specInt16); err != nil {
				return err
			}
			var b [2]byte
			binary.BigEndian.PutUint16(b[:], uint16(int16(n)))
			_, err := w.Write(b[:])
			return err
		case n >= math.MinInt32 && n <= math.MaxInt32:
			if err := w.WriteByte(specInt32); err != nil {
				return err
			}
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], uint32(int32(n)))
			_, err := w.Write(b[:])
			return err
		}
	}
	if err := writeLength(w, uint32(len(val))); err != nil {
		return err
	}
	_, err := w.Write(val)
	return err
}

func readString(r *bufio.Reader) ([]byte, error) {
	n, special, marker, err := readLength(r)
	if err != nil {
		return nil, err
	}
	if special {
		switch marker {
		case specInt8:
			b, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			return []byte(strconv.FormatInt(int64(int8(b)), 10)), nil
		case specInt16:
			var b [2]byte
			if _, err := io.ReadFull(r, b[:]); err != nil {
				return nil, err
			}
			return []byte(strconv.FormatInt(int64(int16(binary.BigEndian.Uint16(b[:]))), 10)), nil
		case specInt32:
			var b [4]byte
			if _, err := io.ReadFull(r, b[:]); err != nil {
				return nil, err
			}
			return []byte(strconv.FormatInt(int64(int32(binary.BigEndian.Uint32(b[:]))), 10)), nil
		default:
			return nil, fmt.Errorf("rdb: unknown special string encoding 0x%x", marker)
		}
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func parseExactInt(val []byte) (int64, bool) {
	if len(val) == 0 || len(val) > 11 {
		return 0, false
	}
	n, err := strconv.ParseInt(string(val), 10, 64)
	if err != nil {
		return 0, false
	}
	if strconv.FormatInt(n, 10) != string(val) {
		return 0, false // reject "007", "+1" — only exact round-trips qualify
	}
	return n, true
}

func writeScore(w *bufio.Writer, score float64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(score))
	_, err := w.Write(b[:])
	return err
}

func readScore(r *bufio.Reader) (float64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b[:])), nil
}
