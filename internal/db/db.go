// Package db implements the keyspace: per-database key->value and
// key->expiry maps, lazy and active expiration, and memory-pressure
// eviction. Grounded on the teacher's internal/storage/store.go (Store
// with a data map and a parallel expiry map) and
// original_source/src/db.rs, generalized onto the custom dict.Dict so the
// whole keyspace benefits from incremental rehashing.
package db

import (
	"time"

	"redisd/internal/dict"
	"redisd/internal/object"
)

// DB is one logical database: index in [0, N).
type DB struct {
	Index   int
	data    *dict.Dict // key -> *object.Object
	expires *dict.Dict // key -> int64 unix-ms deadline
}

// New returns an empty database at the given index.
func New(index int) *DB {
	return &DB{Index: index, data: dict.New(), expires: dict.New()}
}

// expireIfNeeded deletes key if it has a due expiry, reporting whether it
// did. Called by every read and write lookup per spec.md §4.4.
func (d *DB) expireIfNeeded(key string, now int64) bool {
	v, ok := d.expires.Get(key)
	if !ok {
		return false
	}
	if v.(int64) > now {
		return false
	}
	d.data.Delete(key)
	d.expires.Delete(key)
	return true
}

// LookupRead returns the value for key, honoring expiry, for read-path
// commands (GET, LLEN, SMEMBERS, ...).
func (d *DB) LookupRead(key string, now int64) (*object.Object, bool) {
	d.expireIfNeeded(key, now)
	v, ok := d.data.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*object.Object), true
}

// LookupWrite is LookupRead's write-path counterpart; identical honoring
// of expiry, kept as a distinct entry point because upstream Redis reports
// separate read/write miss statistics here.
func (d *DB) LookupWrite(key string, now int64) (*object.Object, bool) {
	return d.LookupRead(key, now)
}

// Set installs value under key, clearing any prior expiry (SET without
// KEEPTTL semantics — the command layer decides whether to preserve TTL).
func (d *DB) Set(key string, value *object.Object) {
	d.data.Set(key, value)
	d.expires.Delete(key)
}

// SetKeepTTL installs value under key without touching its expiry.
func (d *DB) SetKeepTTL(key string, value *object.Object) {
	d.data.Set(key, value)
}

// Delete removes key from both maps. Returns whether it existed.
func (d *DB) Delete(key string) bool {
	existed := d.data.Delete(key)
	d.expires.Delete(key)
	return existed
}

// Exists reports whether key is live (post lazy-expiry).
func (d *DB) Exists(key string, now int64) bool {
	_, ok := d.LookupRead(key, now)
	return ok
}

// SetExpire records key's absolute expiry (ms since epoch). Requires key
// to already exist in data, per spec.md §4.4.
func (d *DB) SetExpire(key string, whenMs int64) bool {
	if _, ok := d.data.Get(key); !ok {
		return false
	}
	d.expires.Set(key, whenMs)
	return true
}

// Persist removes key's expiry, reporting whether one was set.
func (d *DB) Persist(key string) bool {
	return d.expires.Delete(key)
}

// TTLMillis reports key's remaining time to live in milliseconds. hasKey
// is false (and ttl 0) when key is missing or already due; hasExpiry is
// false (and ttl 0) when key exists without an expiry.
func (d *DB) TTLMillis(key string, now int64) (ttl int64, hasExpiry bool, hasKey bool) {
	if !d.Exists(key, now) {
		return 0, false, false
	}
	v, ok := d.expires.Get(key)
	if !ok {
		return 0, false, true
	}
	remaining := v.(int64) - now
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true, true
}

// ExpireAt returns key's raw absolute expiry deadline (unix-ms), without
// evaluating it against any particular "now" — used by the snapshot
// codec, which must persist the deadline itself rather than a remaining
// duration.
func (d *DB) ExpireAt(key string) (int64, bool) {
	v, ok := d.expires.Get(key)
	if !ok {
		return 0, false
	}
	return v.(int64), true
}

// Len reports the number of live keys (DBSIZE), without forcing lazy
// expiration of every entry.
func (d *DB) Len() int { return d.data.Len() }

// Flush empties both maps.
func (d *DB) Flush() {
	d.data = dict.New()
	d.expires = dict.New()
}

// RehashTick drives bulk-mode incremental rehashing of both maps; called
// once per reactor tick regardless of command traffic, per spec.md §4.5.
func (d *DB) RehashTick(bucketsPerTable int) {
	d.data.RehashTick(bucketsPerTable)
	d.expires.RehashTick(bucketsPerTable)
}

// SampleExpiredKeys implements active expiration: pick up to k random
// keys from the expires table and delete those past due, returning how
// many were deleted and how many were sampled.
func (d *DB) SampleExpiredKeys(k int, now int64) (deleted, sampled int) {
	for i := 0; i < k; i++ {
		key, whenAny, ok := d.expires.RandomKey()
		if !ok {
			break
		}
		sampled++
		if whenAny.(int64) <= now {
			d.data.Delete(key)
			d.expires.Delete(key)
			deleted++
		}
	}
	return deleted, sampled
}

// EvictEarliestOfSample implements memory-pressure eviction: sample up to
// three random expiring keys and evict whichever has the earliest
// deadline. Returns whether a key was evicted.
func (d *DB) EvictEarliestOfSample() bool {
	type cand struct {
		key string
		at  int64
	}
	var best *cand
	for i := 0; i < 3; i++ {
		key, whenAny, ok := d.expires.RandomKey()
		if !ok {
			continue
		}
		at := whenAny.(int64)
		if best == nil || at < best.at {
			best = &cand{key: key, at: at}
		}
	}
	if best == nil {
		return false
	}
	d.data.Delete(best.key)
	d.expires.Delete(best.key)
	return true
}

// ForEachKey yields every live key (post lazy-expiry is not forced here;
// callers like KEYS accept the same staleness window real Redis does).
func (d *DB) ForEachKey(fn func(key string, value *object.Object) bool) {
	d.data.ForEach(func(k string, v any) bool {
		return fn(k, v.(*object.Object))
	})
}

// RandomKey returns a pseudo-random live key.
func (d *DB) RandomKey() (string, bool) {
	k, _, ok := d.data.RandomKey()
	return k, ok
}

// NowMillis is the single clock read used to build a "now" for a batch of
// keyspace operations belonging to one command, so a single command sees
// a consistent notion of time even across several key touches.
func NowMillis() int64 { return time.Now().UnixMilli() }
