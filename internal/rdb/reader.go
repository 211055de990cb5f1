package rdb

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"redisd/internal/db"
	"redisd/internal/object"
)

// Load reads path into a freshly allocated Keyspace of dbCount databases,
// replaying each persisted key through the normal object constructors so
// every value comes back with its promotion thresholds freshly evaluated
// (an intset that grew past 512 ints before the snapshot, for instance,
// is re-promoted to a hashtable on load exactly as SADD would do it).
func Load(path string, dbCount int) (*db.Keyspace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rdb: open: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("rdb: read magic: %w", err)
	}
	if string(magic) != Magic {
		return nil, fmt.Errorf("rdb: bad magic %q", magic)
	}

	ks := db.NewKeyspace(dbCount)
	cur := ks.DB(0)

	for {
		op, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("rdb: read opcode: %w", err)
		}
		switch op {
		case opEOF:
			return ks, nil
		case opSelectDB:
			idx, special, _, err := readLength(r)
			if err != nil || special {
				return nil, fmt.Errorf("rdb: read db selector: %w", err)
			}
			cur = ks.DB(int(idx))
			if cur == nil {
				return nil, fmt.Errorf("rdb: db index %d out of range", idx)
			}
		default:
			if err := loadEntry(r, cur, op); err != nil {
				return nil, err
			}
		}
	}
}

func loadEntry(r *bufio.Reader, d *db.DB, first byte) error {
	var expireAt int64
	hasExpiry := false
	typeByte := first
	if first == opExpireMs {
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return fmt.Errorf("rdb: read expiry: %w", err)
		}
		expireAt = int64(binary.BigEndian.Uint64(b[:]))
		hasExpiry = true
		tb, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("rdb: read type after expiry: %w", err)
		}
		typeByte = tb
	}

	key, err := readString(r)
	if err != nil {
		return fmt.Errorf("rdb: read key: %w", err)
	}

	val, err := loadValue(r, object.Type(typeByte))
	if err != nil {
		return fmt.Errorf("rdb: read value for key %q: %w", key, err)
	}

	d.Set(string(key), val)
	if hasExpiry {
		d.SetExpire(string(key), expireAt)
	}
	return nil
}

func loadValue(r *bufio.Reader, typ object.Type) (*object.Object, error) {
	switch typ {
	case object.TypeString:
		raw, err := readString(r)
		if err != nil {
			return nil, err
		}
		return object.NewString(raw), nil
	case object.TypeList:
		n, special, _, err := readLength(r)
		if err != nil || special {
			return nil, fmt.Errorf("list length: %w", err)
		}
		obj := object.NewList()
		for i := uint32(0); i < n; i++ {
			elem, err := readString(r)
			if err != nil {
				return nil, err
			}
			obj.RPush(elem)
		}
		return obj, nil
	case object.TypeSet:
		n, special, _, err := readLength(r)
		if err != nil || special {
			return nil, fmt.Errorf("set length: %w", err)
		}
		obj := object.NewSet()
		for i := uint32(0); i < n; i++ {
			m, err := readString(r)
			if err != nil {
				return nil, err
			}
			obj.SAdd(m)
		}
		return obj, nil
	case object.TypeZSet:
		n, special, _, err := readLength(r)
		if err != nil || special {
			return nil, fmt.Errorf("zset length: %w", err)
		}
		obj := object.NewZSet()
		for i := uint32(0); i < n; i++ {
			m, err := readString(r)
			if err != nil {
				return nil, err
			}
			score, err := readScore(r)
			if err != nil {
				return nil, err
			}
			obj.ZAdd(m, score)
		}
		return obj, nil
	case object.TypeHash:
		n, special, _, err := readLength(r)
		if err != nil || special {
			return nil, fmt.Errorf("hash length: %w", err)
		}
		obj := object.NewHash()
		for i := uint32(0); i < n; i++ {
			field, err := readString(r)
			if err != nil {
				return nil, err
			}
			val, err := readString(r)
			if err != nil {
				return nil, err
			}
			obj.HSet(field, val)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unknown type byte %d", typ)
	}
}
