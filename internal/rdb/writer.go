package rdb

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"redisd/internal/db"
	"redisd/internal/object"
)

// Save writes ks to path: every non-empty database, its keys (with
// expiries), then the end marker and a zeroed checksum, via a temp file
// that is fsynced and atomically renamed into place. The buffered-
// writer-then-flush-then-fsync-then-rename shape is grounded on the
// teacher's internal/aof.Writer.Rewrite, repurposed here for a one-shot
// full-keyspace dump instead of an incrementally rewritten command log.
func Save(ks *db.Keyspace, path string) error {
	tempPath := fmt.Sprintf("%s.tmp", path)
	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("rdb: create temp file: %w", err)
	}

	w := bufio.NewWriter(f)
	if err := saveTo(w, ks); err != nil {
		f.Close()
		os.Remove(tempPath)
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("rdb: flush: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("rdb: fsync: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rdb: close: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("rdb: rename into place: %w", err)
	}
	return nil
}

func saveTo(w *bufio.Writer, ks *db.Keyspace) error {
	if _, err := w.WriteString(Magic); err != nil {
		return err
	}
	for i := 0; i < ks.Count(); i++ {
		d := ks.DB(i)
		if d.Len() == 0 {
			continue
		}
		if err := w.WriteByte(opSelectDB); err != nil {
			return err
		}
		if err := writeLength(w, uint32(i)); err != nil {
			return err
		}
		var saveErr error
		d.ForEachKey(func(key string, val *object.Object) bool {
			saveErr = saveEntry(w, d, key, val)
			return saveErr == nil
		})
		if saveErr != nil {
			return saveErr
		}
	}
	if err := w.WriteByte(opEOF); err != nil {
		return err
	}
	var zero [8]byte
	_, err := w.Write(zero[:])
	return err
}

func saveEntry(w *bufio.Writer, d *db.DB, key string, val *object.Object) error {
	if at, hasExpiry := d.ExpireAt(key); hasExpiry {
		if err := w.WriteByte(opExpireMs); err != nil {
			return err
		}
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(at))
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	}
	if err := w.WriteByte(byte(val.Type)); err != nil {
		return err
	}
	if err := writeString(w, []byte(key)); err != nil {
		return err
	}
	switch val.Type {
	case object.TypeString:
		return writeString(w, val.Bytes())
	case object.TypeList:
		elems := val.LRange(0, -1)
		if err := writeLength(w, uint32(len(elems))); err != nil {
			return err
		}
		for _, e := range elems {
			if err := writeString(w, e); err != nil {
				return err
			}
		}
		return nil
	case object.TypeSet:
		members := val.SMembers()
		if err := writeLength(w, uint32(len(members))); err != nil {
			return err
		}
		for _, m := range members {
			if err := writeString(w, m); err != nil {
				return err
			}
		}
		return nil
	case object.TypeZSet:
		members := val.ZRangeByRank(0, -1, false)
		if err := writeLength(w, uint32(len(members))); err != nil {
			return err
		}
		for _, m := range members {
			if err := writeString(w, m.Member); err != nil {
				return err
			}
			if err := writeScore(w, m.Score); err != nil {
				return err
			}
		}
		return nil
	case object.TypeHash:
		pairs := val.HGetAll()
		if err := writeLength(w, uint32(len(pairs)/2)); err != nil {
			return err
		}
		for i := 0; i+1 < len(pairs); i += 2 {
			if err := writeString(w, pairs[i]); err != nil {
				return err
			}
			if err := writeString(w, pairs[i+1]); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("rdb: unknown type %v", val.Type)
	}
}
